package requests

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// DocumentType is the closed set of document classifications the tax
// service accepts. Sales orders are provisional estimates; invoices are
// postable documents; the return variants reverse previously assessed tax.
type DocumentType int

const (
	DocTypeSalesOrder DocumentType = iota
	DocTypeSalesInvoice
	DocTypeReturnOrder
	DocTypeReturnInvoice
)

var docTypeNames = map[DocumentType]string{
	DocTypeSalesOrder:    "SalesOrder",
	DocTypeSalesInvoice:  "SalesInvoice",
	DocTypeReturnOrder:   "ReturnOrder",
	DocTypeReturnInvoice: "ReturnInvoice",
}

func (d DocumentType) String() string {
	if name, ok := docTypeNames[d]; ok {
		return name
	}
	return "SalesOrder"
}

// IsReturn reports whether the document reverses a prior sale.
func (d DocumentType) IsReturn() bool {
	return d == DocTypeReturnOrder || d == DocTypeReturnInvoice
}

// MarshalJSON encodes the document type as its wire string.
func (d DocumentType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a wire string back into the closed set, rejecting
// anything outside it.
func (d *DocumentType) UnmarshalJSON(data []byte) error {
	name := strings.Trim(string(data), `"`)
	for docType, known := range docTypeNames {
		if known == name {
			*d = docType
			return nil
		}
	}
	return errors.Errorf("unknown document type %q", name)
}

// TaxOverride instructs the service to use a caller-supplied amount or tax
// date instead of recomputing. Per-line overrides carry type TaxAmount with
// the reversed tax; the return envelope carries type None with the original
// completion date.
type TaxOverride struct {
	Type      string           `json:"type"`
	Reason    string           `json:"reason"`
	TaxAmount *decimal.Decimal `json:"taxAmount,omitempty"`
	TaxDate   string           `json:"taxDate,omitempty"`
}

// AddressModel is the wire form of a postal address.
type AddressModel struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	Region     string `json:"region,omitempty"`
	Country    string `json:"country,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
}

// LineAddresses is the resolved address set attached to each tax line.
type LineAddresses struct {
	ShipTo   *AddressModel `json:"shipTo,omitempty"`
	ShipFrom *AddressModel `json:"shipFrom,omitempty"`
	BillTo   *AddressModel `json:"billTo,omitempty"`
}

// TaxLine is one taxable unit: a line item, a freight charge, or a
// return-prorated line. Amounts are negative for returns.
type TaxLine struct {
	Number        string          `json:"number"`
	Description   string          `json:"description"`
	TaxCode       string          `json:"taxCode"`
	ItemCode      string          `json:"itemCode"`
	Quantity      int64           `json:"quantity"`
	Amount        decimal.Decimal `json:"amount"`
	EntityUseCode string          `json:"entityUseCode"`
	Discounted    bool            `json:"discounted"`
	Addresses     LineAddresses   `json:"addresses"`
	TaxIncluded   bool            `json:"taxIncluded"`
	TaxOverride   *TaxOverride    `json:"taxOverride,omitempty"`
}

// CreateTransactionModel is the transaction envelope posted to the tax
// service.
type CreateTransactionModel struct {
	Code          string       `json:"code"`
	CompanyCode   string       `json:"companyCode"`
	Type          DocumentType `json:"type"`
	CustomerCode  string       `json:"customerCode"`
	Date          string       `json:"date"`
	EntityUseCode string       `json:"entityUseCode"`
	ExemptionNo   string       `json:"exemptionNo,omitempty"`
	ReferenceCode string       `json:"referenceCode"`
	DetailLevel   string       `json:"DetailLevel"`
	Commit        bool         `json:"commit"`
	TotalDiscount string       `json:"totalDiscount,omitempty"`
	Lines         []TaxLine    `json:"lines"`
}

// CreateTransactionRequest is the full request body. AdjustmentReason and
// the top-level TaxOverride are only set for return documents.
type CreateTransactionRequest struct {
	AdjustmentReason       string                 `json:"adjustmentReason,omitempty"`
	CreateTransactionModel CreateTransactionModel `json:"createTransactionModel"`
	TaxOverride            *TaxOverride           `json:"taxOverride,omitempty"`
}

// DocCode returns the document code the request posts under.
func (r *CreateTransactionRequest) DocCode() string {
	return r.CreateTransactionModel.Code
}

// CancelTaxRequest voids a previously committed document.
type CancelTaxRequest struct {
	CompanyCode string       `json:"CompanyCode"`
	DocType     DocumentType `json:"DocType"`
	DocCode     string       `json:"DocCode"`
	CancelCode  string       `json:"CancelCode"`
}

// CancelCodeDocVoided is the cancellation code used when an order
// transitions into a canceled lifecycle state.
const CancelCodeDocVoided = "DocVoided"
