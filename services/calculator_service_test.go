package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/cartloom/taxbridge/cache"
	"github.com/cartloom/taxbridge/client/avatax"
	"github.com/cartloom/taxbridge/mocks"
	"github.com/cartloom/taxbridge/services"
	"github.com/cartloom/taxbridge/types/api/responses"
	"github.com/cartloom/taxbridge/types/business"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newCalculator(t *testing.T) (*services.CalculatorService, *mocks.MockClientInterface, *business.Order) {
	t.Helper()
	order := testOrder()
	service, mockClient := newTransactionService(t, testConfig())
	calculator := services.NewCalculatorService(&order.TaxZone.Rates[0], service, cache.NewMemoryCache())
	return calculator, mockClient, order
}

func TestCalculatorService_ComputeLineItem(t *testing.T) {
	calculator, mockClient, order := newCalculator(t)

	mockClient.EXPECT().
		GetTax(gomock.Any(), gomock.Any()).
		Return(successResponse("3.60",
			responses.TransactionLine{LineNumber: "1-LI", TaxCalculated: decimal.RequireFromString("1.60")},
			responses.TransactionLine{LineNumber: "2-LI", TaxCalculated: decimal.RequireFromString("2.00")},
		), nil).
		Times(1)

	tax, err := calculator.ComputeLineItem(context.Background(), order, &order.LineItems[0])
	require.NoError(t, err)
	assert.True(t, tax.Equal(decimal.RequireFromString("1.60")), "tax %s", tax)

	// A second line of the same order reuses the cached whole-order
	// response; the single Times(1) expectation enforces one lookup.
	tax, err = calculator.ComputeLineItem(context.Background(), order, &order.LineItems[1])
	require.NoError(t, err)
	assert.True(t, tax.Equal(decimal.RequireFromString("2.00")))
}

func TestCalculatorService_UnmatchedLineIsZero(t *testing.T) {
	calculator, mockClient, order := newCalculator(t)

	mockClient.EXPECT().
		GetTax(gomock.Any(), gomock.Any()).
		Return(successResponse("1.60",
			responses.TransactionLine{LineNumber: "999-LI", TaxCalculated: decimal.RequireFromString("1.60")},
		), nil).
		Times(1)

	tax, err := calculator.ComputeLineItem(context.Background(), order, &order.LineItems[0])
	require.NoError(t, err)
	assert.True(t, tax.IsZero())
}

func TestCalculatorService_ZeroTotalKeepsPreviousTax(t *testing.T) {
	calculator, mockClient, order := newCalculator(t)
	order.LineItems[0].AdditionalTaxTotal = decimal.RequireFromString("1.23")

	mockClient.EXPECT().
		GetTax(gomock.Any(), gomock.Any()).
		Return(successResponse(responses.ZeroTaxTotal), nil).
		Times(1)

	tax, err := calculator.ComputeLineItem(context.Background(), order, &order.LineItems[0])
	require.NoError(t, err)
	assert.True(t, tax.Equal(decimal.RequireFromString("1.23")))
}

func TestCalculatorService_SkipConditions(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*business.Order)
	}{
		{
			name:   "cart order",
			modify: func(o *business.Order) { o.State = business.OrderStateCart },
		},
		{
			name: "no tax address",
			modify: func(o *business.Order) {
				o.ShipAddress = nil
				o.BillAddress = nil
			},
		},
		{
			name:   "address outside zone",
			modify: func(o *business.Order) { o.ShipAddress.Country = "FR" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calculator, _, order := newCalculator(t)
			order.LineItems[0].AdditionalTaxTotal = decimal.RequireFromString("0.42")
			tt.modify(order)

			// No expectations: a skipped order performs no lookup.
			tax, err := calculator.ComputeLineItem(context.Background(), order, &order.LineItems[0])
			require.NoError(t, err)
			assert.True(t, tax.Equal(decimal.RequireFromString("0.42")))
		})
	}
}

func TestCalculatorService_ComputeShipment(t *testing.T) {
	calculator, mockClient, order := newCalculator(t)

	mockClient.EXPECT().
		GetTax(gomock.Any(), gomock.Any()).
		Return(successResponse("0.40",
			responses.TransactionLine{LineNumber: "11-FR", TaxCalculated: decimal.RequireFromString("0.40")},
		), nil).
		Times(1)

	tax, err := calculator.ComputeShipment(context.Background(), order, &order.Shipments[0])
	require.NoError(t, err)
	assert.True(t, tax.Equal(decimal.RequireFromString("0.40")))
}

func TestCalculatorService_AddressValidationErrorSurfaces(t *testing.T) {
	calculator, mockClient, order := newCalculator(t)

	mockClient.EXPECT().
		GetTax(gomock.Any(), gomock.Any()).
		Return(nil, &avatax.AddressValidationError{}).
		Times(1)

	_, err := calculator.ComputeLineItem(context.Background(), order, &order.LineItems[0])
	require.Error(t, err)
	var validationErr *avatax.AddressValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestCacheKey_Deterministic(t *testing.T) {
	a := services.CacheKey(testOrder())
	b := services.CacheKey(testOrder())
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "avtx_"))
	assert.Len(t, a, len("avtx_")+40)
}

func TestCacheKey_Sensitivity(t *testing.T) {
	base := services.CacheKey(testOrder())

	tests := []struct {
		name   string
		modify func(*business.Order)
	}{
		{
			name:   "quantity change",
			modify: func(o *business.Order) { o.LineItems[0].Quantity = 3 },
		},
		{
			name: "discounted amount change",
			modify: func(o *business.Order) {
				o.LineItems[0].DiscountedAmount = decimal.RequireFromString("18.00")
			},
		},
		{
			name:   "ship address change",
			modify: func(o *business.Order) { o.ShipAddress.PostalCode = "10006" },
		},
		{
			name: "promotion change",
			modify: func(o *business.Order) {
				o.Adjustments[0].Amount = decimal.RequireFromString("-7.50")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := testOrder()
			tt.modify(order)
			assert.NotEqual(t, base, services.CacheKey(order))
		})
	}
}

func TestCacheKey_IgnoresTaxAdjustments(t *testing.T) {
	base := services.CacheKey(testOrder())

	order := testOrder()
	order.Adjustments = append(order.Adjustments, business.Adjustment{
		ID:     99,
		Label:  "Sales Tax",
		Amount: decimal.RequireFromString("1.60"),
		Tax:    true,
	})
	assert.Equal(t, base, services.CacheKey(order))
}
