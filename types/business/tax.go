package business

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxCategory classifies items for the external tax service. Description
// carries the service-side tax code.
type TaxCategory struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TaxRate is a configured rate for a category within a zone. The rate value
// itself is only used for zone membership and price-inclusion checks; the
// external service owns the actual computation.
type TaxRate struct {
	Name            string          `json:"name"`
	Amount          decimal.Decimal `json:"amount"`
	IncludedInPrice bool            `json:"included_in_price"`
	TaxCategory     *TaxCategory    `json:"tax_category,omitempty"`
	Zone            *TaxZone        `json:"zone,omitempty"`
}

// TaxZone is the geographic scope a rate applies to, expressed as ISO
// country codes.
type TaxZone struct {
	Name      string    `json:"name"`
	Countries []string  `json:"countries"`
	Rates     []TaxRate `json:"rates,omitempty"`
}

// Contains reports whether the address falls inside the zone.
func (z *TaxZone) Contains(addr *Address) bool {
	if z == nil || addr == nil {
		return false
	}
	for _, country := range z.Countries {
		if strings.EqualFold(country, addr.Country) {
			return true
		}
	}
	return false
}

// RateFor returns the zone's rate for the given category, or the zone's
// first rate when the category is nil or has no dedicated rate.
func (z *TaxZone) RateFor(category *TaxCategory) *TaxRate {
	if z == nil || len(z.Rates) == 0 {
		return nil
	}
	if category != nil {
		for i := range z.Rates {
			if z.Rates[i].TaxCategory != nil && z.Rates[i].TaxCategory.Name == category.Name {
				return &z.Rates[i]
			}
		}
	}
	return &z.Rates[0]
}

// TransactionStatus tracks what has been posted for an order at the tax
// authority.
type TransactionStatus string

const (
	TransactionUncommitted TransactionStatus = "uncommitted"
	TransactionCommitted   TransactionStatus = "committed"
	TransactionFinalized   TransactionStatus = "finalized"
	TransactionCanceled    TransactionStatus = "canceled"
)

// TaxTransaction records whether a tax document has been posted for an
// order. At most one exists per order; the persistence layer enforces the
// uniqueness on the order reference.
type TaxTransaction struct {
	ID        uuid.UUID         `json:"id"`
	OrderID   uuid.UUID         `json:"order_id"`
	DocCode   string            `json:"doc_code"`
	Status    TransactionStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
