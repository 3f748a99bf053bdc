package avatax

import (
	"context"

	"github.com/cartloom/taxbridge/types/api/requests"
	"github.com/cartloom/taxbridge/types/api/responses"
	"github.com/cartloom/taxbridge/types/business"

	"github.com/shopspring/decimal"
)

// ClientInterface defines the tax service operations consumed by the
// orchestration layer.
type ClientInterface interface {
	GetTax(ctx context.Context, req *requests.CreateTransactionRequest) (*GetTaxResult, error)
	CancelTax(ctx context.Context, req *requests.CancelTaxRequest) *CancelResult
	EstimateTax(ctx context.Context, coords *business.Coordinates, saleAmount decimal.Decimal) (*responses.EstimateTaxResult, error)
	ValidateAddress(ctx context.Context, addr *business.Address) (*responses.AddressValidationResult, error)
	Ping(ctx context.Context) (*responses.EstimateTaxResult, error)
}

// Ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)
