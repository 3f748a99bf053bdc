package avatax

import (
	"strings"

	"github.com/cartloom/taxbridge/types/api/responses"
)

// FailureKind classifies why a tax call could not produce a usable result.
type FailureKind int

const (
	// FailureTransient is a connect or read timeout. The caller falls back
	// to zero tax and an operational alert is emitted; checkout proceeds.
	FailureTransient FailureKind = iota + 1

	// FailureAddressValidation means the service rejected the destination
	// address. This is the only failure surfaced to the caller, because it
	// requires user correction.
	FailureAddressValidation

	// FailureGeneric is any other non-success response or unexpected error.
	// Logged and reduced to a zero-tax fallback.
	FailureGeneric
)

func (k FailureKind) String() string {
	switch k {
	case FailureTransient:
		return "transient"
	case FailureAddressValidation:
		return "address_validation"
	case FailureGeneric:
		return "generic"
	}
	return "unknown"
}

// Failure carries the classified kind plus the raw payload for logging.
type Failure struct {
	Kind    FailureKind
	RawBody string
	Err     error
}

// GetTaxResult is the outcome of a create/adjust-transaction call: either a
// parsed successful response or a classified failure, never both.
type GetTaxResult struct {
	Response *responses.GetTaxResponse
	Failure  *Failure
}

// Failed reports whether the call produced no usable tax result.
func (r *GetTaxResult) Failed() bool {
	return r.Failure != nil
}

// CancelResult is the outcome of a cancellation call. Errors are never
// propagated from cancellation; they land in Failure.
type CancelResult struct {
	Result  *responses.CancelTaxResult
	Failure *Failure
}

// AddressValidationError is raised when the service rejects the shipping
// address. Callers catch it to prompt for address correction instead of
// silently defaulting to zero tax.
type AddressValidationError struct {
	Messages []responses.ResponseMessage
}

func (e *AddressValidationError) Error() string {
	return "address validation failed"
}

// addressErrors are the service message summaries that indicate an
// address-quality problem rather than a hard failure.
var addressErrors = []string{
	"Invalid or missing state/province",
	"Zip is not valid for the state",
	"Invalid ZIP/Postal Code",
	"Address cannot be geocoded",
	"Address not geocoded",
	"The address is not deliverable.",
}

// isAddressFailure reports whether any response message names a known
// address-quality problem.
func isAddressFailure(messages []responses.ResponseMessage) bool {
	for _, message := range messages {
		for _, known := range addressErrors {
			if strings.Contains(message.Summary, known) {
				return true
			}
		}
	}
	return false
}
