package services

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/cartloom/taxbridge/client/avatax"
	"github.com/cartloom/taxbridge/config"
	"github.com/cartloom/taxbridge/logger"
	"github.com/cartloom/taxbridge/types/api/requests"
	"github.com/cartloom/taxbridge/types/api/responses"
	"github.com/cartloom/taxbridge/types/business"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentCommitDisabledMessage is returned by CommitFinal when document
// committing is switched off by configuration.
const DocumentCommitDisabledMessage = "document committing disabled"

// CommitOutcome is the result of a final commit: either a tax response or
// an explicit disabled marker. Disabled configuration is not an error.
type CommitOutcome struct {
	Response *responses.GetTaxResponse
	Disabled bool
	Message  string
}

// TransactionService orchestrates tax transactions for orders: lookups for
// display-time estimates, provisional and final commits, returns, and
// document voids. It is the sole writer of an order's tax transaction
// state.
type TransactionService struct {
	cfg     *config.Config
	client  avatax.ClientInterface
	builder *PayloadBuilder
	log     *zap.Logger
}

// NewTransactionService creates the orchestrator.
func NewTransactionService(cfg *config.Config, client avatax.ClientInterface, builder *PayloadBuilder) *TransactionService {
	return &TransactionService{
		cfg:     cfg,
		client:  client,
		builder: builder,
		log:     logger.Log,
	}
}

// EnsureTransaction lazily creates the order's tax transaction record on
// first capture. The persistence layer enforces at most one per order.
func (s *TransactionService) EnsureTransaction(order *business.Order) *business.TaxTransaction {
	if order.TaxTransaction == nil {
		now := time.Now()
		order.TaxTransaction = &business.TaxTransaction{
			ID:        uuid.New(),
			OrderID:   order.ID,
			DocCode:   order.Number,
			Status:    business.TransactionUncommitted,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return order.TaxTransaction
}

// Lookup posts a non-committing SalesOrder document. Used for display-time
// estimates and cache population; it never changes the transaction state.
func (s *TransactionService) Lookup(ctx context.Context, order *business.Order) (*responses.GetTaxResponse, error) {
	if !s.cfg.TaxCalculationEnabled {
		return responses.ZeroTax(), nil
	}
	response, _, err := s.post(ctx, order, requests.DocTypeSalesOrder, false, nil)
	return response, err
}

// Commit posts the given document type provisionally (reversible at the
// service). With tax calculation disabled it short-circuits to a zero-tax
// result without any external call.
func (s *TransactionService) Commit(ctx context.Context, order *business.Order, docType requests.DocumentType, returnAuth *business.ReturnAuthorization) (*responses.GetTaxResponse, error) {
	if !s.cfg.TaxCalculationEnabled {
		return responses.ZeroTax(), nil
	}

	response, ok, err := s.post(ctx, order, docType, false, returnAuth)
	if err != nil {
		return nil, err
	}
	if ok {
		s.transition(order, business.TransactionCommitted)
	}
	return response, nil
}

// CommitFinal posts the document with the commit flag, which is
// irreversible at the tax authority. Additionally gated by the
// document-committing toggle: when off, an explicit disabled marker is
// returned instead of calling the service.
func (s *TransactionService) CommitFinal(ctx context.Context, order *business.Order, docType requests.DocumentType, returnAuth *business.ReturnAuthorization) (*CommitOutcome, error) {
	if !s.cfg.DocumentCommitEnabled {
		s.log.Debug("document committing disabled", zap.String("order", order.Number))
		return &CommitOutcome{Disabled: true, Message: DocumentCommitDisabledMessage}, nil
	}
	if !s.cfg.TaxCalculationEnabled {
		return &CommitOutcome{Response: responses.ZeroTax()}, nil
	}

	response, ok, err := s.post(ctx, order, docType, true, returnAuth)
	if err != nil {
		return nil, err
	}
	if ok {
		s.transition(order, business.TransactionFinalized)
	}
	return &CommitOutcome{Response: response}, nil
}

// Capture runs the standard capture flow: ensure a transaction exists and
// post a provisional SalesOrder document. This is the path the calculator
// takes on cache misses.
func (s *TransactionService) Capture(ctx context.Context, order *business.Order) (*responses.GetTaxResponse, error) {
	s.EnsureTransaction(order)
	return s.Commit(ctx, order, requests.DocTypeSalesOrder, nil)
}

// CaptureFinal posts the irreversible SalesInvoice for a completed order.
func (s *TransactionService) CaptureFinal(ctx context.Context, order *business.Order) (*CommitOutcome, error) {
	s.EnsureTransaction(order)
	return s.CommitFinal(ctx, order, requests.DocTypeSalesInvoice, nil)
}

// Cancel voids the previously committed document for an order that
// transitioned into a canceled lifecycle state. Returns nil when the order
// is not eligible or has no posted transaction.
func (s *TransactionService) Cancel(ctx context.Context, order *business.Order) *avatax.CancelResult {
	if !s.cfg.CancelEligible {
		return nil
	}
	if order.TaxTransaction == nil {
		return nil
	}
	s.log.Info("canceling tax document", zap.String("order", order.Number))

	result := s.client.CancelTax(ctx, &requests.CancelTaxRequest{
		CompanyCode: s.cfg.CompanyCode,
		DocType:     requests.DocTypeSalesInvoice,
		DocCode:     order.Number,
		CancelCode:  requests.CancelCodeDocVoided,
	})
	// The service can reject a void with a parseable error body; only a
	// genuine success marks the document voided.
	if result != nil && result.Failure == nil &&
		result.Result != nil && result.Result.ResultCode == responses.ResultSuccess {
		s.transition(order, business.TransactionCanceled)
	}
	return result
}

// TaxBreakdown extracts the per-line detail blobs from a response, keyed by
// line item ID, for the persistence collaborator to store alongside each
// item's tax adjustment.
func (s *TransactionService) TaxBreakdown(response *responses.GetTaxResponse) map[int64]json.RawMessage {
	if response == nil || len(response.Lines) == 0 {
		return nil
	}
	breakdown := make(map[int64]json.RawMessage)
	for _, line := range response.Lines {
		if !strings.HasSuffix(line.LineNumber, "-LI") {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSuffix(line.LineNumber, "-LI"), 10, 64)
		if err != nil {
			continue
		}
		breakdown[id] = line.Details
	}
	return breakdown
}

// post builds the payload and interprets the client result. Classified
// failures (transient and generic) reduce to the zero-tax fallback so
// checkout never blocks on the tax service; address-validation failures
// propagate for user correction. ok reports a genuine service success as
// opposed to the fallback, which must not advance the transaction state.
func (s *TransactionService) post(ctx context.Context, order *business.Order, docType requests.DocumentType, commit bool, returnAuth *business.ReturnAuthorization) (response *responses.GetTaxResponse, ok bool, err error) {
	request, err := s.builder.BuildRequest(ctx, order, docType, commit, returnAuth)
	if err != nil {
		return nil, false, err
	}

	result, err := s.client.GetTax(ctx, request)
	if err != nil {
		return nil, false, err
	}
	if result.Failed() {
		s.log.Error("tax lookup failed, falling back to zero tax",
			zap.String("order", order.Number),
			zap.String("doc_type", docType.String()),
			zap.String("kind", result.Failure.Kind.String()))
		return responses.ZeroTax(), false, nil
	}

	// The service echoes the posted document code; a response for a
	// different document must not be applied to this order.
	if result.Response.Code != "" && result.Response.Code != request.DocCode() {
		s.log.Error("tax response document code mismatch, falling back to zero tax",
			zap.String("order", order.Number),
			zap.String("expected", request.DocCode()),
			zap.String("received", result.Response.Code))
		return responses.ZeroTax(), false, nil
	}

	s.log.Debug("tax result",
		zap.String("order", order.Number),
		zap.String("total_tax", result.Response.TotalTax))
	return result.Response, true, nil
}

func (s *TransactionService) transition(order *business.Order, status business.TransactionStatus) {
	transaction := s.EnsureTransaction(order)
	transaction.Status = status
	transaction.UpdatedAt = time.Now()
}
