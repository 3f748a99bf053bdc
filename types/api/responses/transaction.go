package responses

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

const (
	// ResultSuccess is the service's success marker.
	ResultSuccess = "Success"

	// ResultError is the service's failure marker.
	ResultError = "Error"

	// ZeroTaxTotal is the total carried by the zero-tax fallback.
	ZeroTaxTotal = "0.00"
)

// ResponseMessage is one diagnostic message on a non-success response.
// Summary carries the human-readable failure reason the address-validation
// classifier matches against.
type ResponseMessage struct {
	Summary  string `json:"Summary"`
	Details  string `json:"Details,omitempty"`
	RefersTo string `json:"RefersTo,omitempty"`
	Severity string `json:"Severity,omitempty"`
}

// TransactionLine is the per-line tax amount keyed by the request's line
// number. Details is kept raw for the persistence collaborator's breakdown
// storage.
type TransactionLine struct {
	LineNumber    string          `json:"lineNumber"`
	TaxCalculated decimal.Decimal `json:"taxCalculated"`
	Tax           decimal.Decimal `json:"tax"`
	Taxable       decimal.Decimal `json:"taxableAmount"`
	Details       json.RawMessage `json:"details,omitempty"`
}

// GetTaxResponse is the parsed create/adjust-transaction response.
type GetTaxResponse struct {
	ResultCode string            `json:"ResultCode"`
	Code       string            `json:"code"`
	DocCode    string            `json:"DocCode,omitempty"`
	TotalTax   string            `json:"totalTax"`
	Lines      []TransactionLine `json:"lines"`
	Messages   []ResponseMessage `json:"Messages,omitempty"`
}

// Success reports whether the service accepted the transaction.
func (r *GetTaxResponse) Success() bool {
	return r.ResultCode == ResultSuccess
}

// LineFor returns the response line matching the given line number, or nil.
func (r *GetTaxResponse) LineFor(lineNumber string) *TransactionLine {
	for i := range r.Lines {
		if r.Lines[i].LineNumber == lineNumber {
			return &r.Lines[i]
		}
	}
	return nil
}

// ZeroTax builds the fallback response used whenever the service could not
// be consulted: checkout proceeds with zero tax rather than blocking.
func ZeroTax() *GetTaxResponse {
	return &GetTaxResponse{ResultCode: ResultSuccess, TotalTax: ZeroTaxTotal}
}

// CancelTaxResult is the parsed body of a cancellation response.
type CancelTaxResult struct {
	ResultCode    string            `json:"ResultCode"`
	TransactionID string            `json:"TransactionId,omitempty"`
	DocID         string            `json:"DocId,omitempty"`
	Messages      []ResponseMessage `json:"Messages,omitempty"`
}

// CancelTaxResponse wraps the cancellation result the way the service nests
// it.
type CancelTaxResponse struct {
	CancelTaxResult *CancelTaxResult `json:"CancelTaxResult"`
}

// EstimateTaxResult is the lightweight single-jurisdiction estimate used by
// health checks.
type EstimateTaxResult struct {
	ResultCode string            `json:"ResultCode"`
	Rate       decimal.Decimal   `json:"Rate"`
	Tax        decimal.Decimal   `json:"Tax"`
	Messages   []ResponseMessage `json:"Messages,omitempty"`
}

// ValidatedAddress is the canonical address the validation endpoint
// returns.
type ValidatedAddress struct {
	Line1      string `json:"Line1"`
	Line2      string `json:"Line2,omitempty"`
	City       string `json:"City"`
	Region     string `json:"Region"`
	Country    string `json:"Country"`
	PostalCode string `json:"PostalCode"`
}

// AddressValidationResult is the parsed address-validation response. When
// the returned address disagrees with the submitted one the client rewrites
// the result into an error carrying a suggestion message.
type AddressValidationResult struct {
	ResultCode string            `json:"ResultCode"`
	Address    *ValidatedAddress `json:"Address,omitempty"`
	Messages   []ResponseMessage `json:"Messages,omitempty"`
}
