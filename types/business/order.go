package business

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderState is the order lifecycle state as owned by the order-processing
// system. Only a few states matter here: tax is skipped while the order is
// still a cart, and cancellation triggers a document void.
type OrderState string

const (
	OrderStateCart     OrderState = "cart"
	OrderStateAddress  OrderState = "address"
	OrderStateDelivery OrderState = "delivery"
	OrderStatePayment  OrderState = "payment"
	OrderStateComplete OrderState = "complete"
	OrderStateCanceled OrderState = "canceled"
)

// Customer references the buyer. EntityUseCode is the tax-exemption
// classification forwarded to the tax service.
type Customer struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	EntityUseCode   string    `json:"entity_use_code,omitempty"`
	ExemptionNumber string    `json:"exemption_number,omitempty"`
}

// LineItem is one purchasable line on an order. Tax totals hold the amounts
// previously assessed and persisted by the external persistence layer; they
// are read here for return proration and cache fallbacks, never written.
type LineItem struct {
	ID                 int64           `json:"id"`
	Name               string          `json:"name"`
	SKU                string          `json:"sku"`
	Quantity           int64           `json:"quantity"`
	Price              decimal.Decimal `json:"price"`
	DiscountedAmount   decimal.Decimal `json:"discounted_amount"`
	TaxCategory        *TaxCategory    `json:"tax_category,omitempty"`
	AdditionalTaxTotal decimal.Decimal `json:"additional_tax_total"`
	IncludedTaxTotal   decimal.Decimal `json:"included_tax_total"`
	StockLocation      *StockLocation  `json:"stock_location,omitempty"`
}

// ShippingMethod carries the service-side tax code for freight charges.
type ShippingMethod struct {
	Name    string `json:"name"`
	TaxCode string `json:"tax_code"`
}

// Shipment is one delivery on an order, charging freight for a subset of
// line items out of one stock location.
type Shipment struct {
	ID               int64           `json:"id"`
	Number           string          `json:"number"`
	DiscountedAmount decimal.Decimal `json:"discounted_amount"`
	TaxCategory      *TaxCategory    `json:"tax_category,omitempty"`
	ShippingMethod   ShippingMethod  `json:"shipping_method"`
	Address          *Address        `json:"address,omitempty"`
	StockLocation    *StockLocation  `json:"stock_location,omitempty"`
	LineItemIDs      []int64         `json:"line_item_ids"`

	AdditionalTaxTotal decimal.Decimal `json:"additional_tax_total"`
	IncludedTaxTotal   decimal.Decimal `json:"included_tax_total"`
}

// Includes reports whether the shipment carries the given line item.
func (s *Shipment) Includes(lineItemID int64) bool {
	for _, id := range s.LineItemIDs {
		if id == lineItemID {
			return true
		}
	}
	return false
}

// StockLocation is a fulfillment origin.
type StockLocation struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Address Address `json:"address"`
}

// Adjustment is a promotion or tax adjustment on the order. Tax adjustments
// are excluded from cache keys and envelope discounts.
type Adjustment struct {
	ID        int64           `json:"id"`
	Label     string          `json:"label"`
	Amount    decimal.Decimal `json:"amount"`
	Promotion bool            `json:"promotion"`
	Eligible  bool            `json:"eligible"`
	Tax       bool            `json:"tax"`
}

// InventoryUnit is a single returned unit, pointing back at its originating
// line item.
type InventoryUnit struct {
	ID         int64 `json:"id"`
	LineItemID int64 `json:"line_item_id"`
}

// ReturnAuthorization groups inventory units being returned against a
// completed order.
type ReturnAuthorization struct {
	ID             uuid.UUID       `json:"id"`
	Amount         decimal.Decimal `json:"amount"`
	InventoryUnits []InventoryUnit `json:"inventory_units"`
}

// DistinctLineItemIDs returns the distinct originating line items across
// the return's inventory units, in first-seen order.
func (r *ReturnAuthorization) DistinctLineItemIDs() []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, unit := range r.InventoryUnits {
		if !seen[unit.LineItemID] {
			seen[unit.LineItemID] = true
			ids = append(ids, unit.LineItemID)
		}
	}
	return ids
}

// UnitsForLineItem counts the returned units originating from one line item.
func (r *ReturnAuthorization) UnitsForLineItem(lineItemID int64) int64 {
	var n int64
	for _, unit := range r.InventoryUnits {
		if unit.LineItemID == lineItemID {
			n++
		}
	}
	return n
}

// FulfillmentPackage is one package produced by the stock coordinator's
// read-only packaging derivation.
type FulfillmentPackage struct {
	StockLocation *StockLocation `json:"stock_location"`
	LineItemIDs   []int64        `json:"line_item_ids"`
}

// Includes reports whether the package carries the given line item.
func (p *FulfillmentPackage) Includes(lineItemID int64) bool {
	for _, id := range p.LineItemIDs {
		if id == lineItemID {
			return true
		}
	}
	return false
}

// Order is the external order entity, referenced not owned. The tax core
// only reads it; per-line tax amounts are written back by the persistence
// collaborator.
type Order struct {
	ID          uuid.UUID  `json:"id"`
	Number      string     `json:"number"`
	State       OrderState `json:"state"`
	Email       string     `json:"email"`
	Customer    *Customer  `json:"customer,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	ShipAddress *Address `json:"ship_address,omitempty"`
	BillAddress *Address `json:"bill_address,omitempty"`
	TaxZone     *TaxZone `json:"tax_zone,omitempty"`

	LineItems            []LineItem            `json:"line_items"`
	Shipments            []Shipment            `json:"shipments"`
	Adjustments          []Adjustment          `json:"adjustments"`
	ReturnAuthorizations []ReturnAuthorization `json:"return_authorizations"`

	// PointOfSale orders ship to the purchase location rather than a
	// customer address.
	PointOfSale      bool           `json:"point_of_sale"`
	PurchaseLocation *StockLocation `json:"purchase_location,omitempty"`

	TaxTransaction *TaxTransaction `json:"tax_transaction,omitempty"`
}

// Completed reports whether the order has finished checkout.
func (o *Order) Completed() bool {
	return o.CompletedAt != nil
}

// TaxAddress is the order-level destination fallback: the ship address, or
// the bill address when no ship address exists.
func (o *Order) TaxAddress() *Address {
	if o.ShipAddress != nil {
		return o.ShipAddress
	}
	return o.BillAddress
}

// CustomerCode identifies the buyer toward the tax service: the customer ID
// when a customer record exists, otherwise the order email.
func (o *Order) CustomerCode() string {
	if o.Customer != nil {
		return o.Customer.ID.String()
	}
	return o.Email
}

// EntityUseCode returns the customer's tax-exemption classification, empty
// for guest checkouts.
func (o *Order) EntityUseCode() string {
	if o.Customer != nil {
		return o.Customer.EntityUseCode
	}
	return ""
}

// ExemptionNumber returns the customer's exemption certificate number.
func (o *Order) ExemptionNumber() string {
	if o.Customer != nil {
		return o.Customer.ExemptionNumber
	}
	return ""
}

// LineItem finds a line item by ID.
func (o *Order) LineItem(id int64) *LineItem {
	for i := range o.LineItems {
		if o.LineItems[i].ID == id {
			return &o.LineItems[i]
		}
	}
	return nil
}

// PromotionDiscount is the absolute sum of eligible order-level promotion
// adjustments. Line-level discounts are excluded: they are already baked
// into each line's discounted amount.
func (o *Order) PromotionDiscount() decimal.Decimal {
	total := decimal.Zero
	for _, adj := range o.Adjustments {
		if adj.Promotion && adj.Eligible {
			total = total.Add(adj.Amount)
		}
	}
	return total.Abs()
}
