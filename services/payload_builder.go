package services

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/cartloom/taxbridge/config"
	"github.com/cartloom/taxbridge/logger"
	"github.com/cartloom/taxbridge/types/api/requests"
	"github.com/cartloom/taxbridge/types/business"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// DefaultTaxCode is the placeholder tax code for items without a tax
	// category.
	DefaultTaxCode = "P0000000"

	maxDescriptionLength = 256

	dateLayout = "2006-01-02"
)

// LineItemRef is the line identifier sent for (and matched back against)
// a line item.
func LineItemRef(id int64) string {
	return fmt.Sprintf("%d-LI", id)
}

// ShipmentRef is the line identifier for a shipment's freight charge.
func ShipmentRef(id int64) string {
	return fmt.Sprintf("%d-FR", id)
}

// PayloadBuilder projects an order's lines, shipments, returns and
// addresses into the external service's transaction model.
type PayloadBuilder struct {
	cfg      *config.Config
	resolver *AddressResolver
	log      *zap.Logger
}

// NewPayloadBuilder creates a builder.
func NewPayloadBuilder(cfg *config.Config, resolver *AddressResolver) *PayloadBuilder {
	return &PayloadBuilder{
		cfg:      cfg,
		resolver: resolver,
		log:      logger.Log,
	}
}

// BuildRequest assembles the full transaction request for the given order
// and document type. returnAuth must be set for return document types and
// is ignored otherwise.
func (b *PayloadBuilder) BuildRequest(ctx context.Context, order *business.Order, docType requests.DocumentType, commit bool, returnAuth *business.ReturnAuthorization) (*requests.CreateTransactionRequest, error) {
	lines, err := b.BuildLines(ctx, order, docType, returnAuth)
	if err != nil {
		return nil, err
	}

	code := order.Number
	// Return documents carry their own negative line amounts; the envelope
	// discount applies to sale documents only.
	totalDiscount := ""
	if docType.IsReturn() {
		if returnAuth == nil {
			return nil, errors.New("return document requires a return authorization")
		}
		code = order.Number + "." + returnAuth.ID.String()
	} else {
		totalDiscount = order.PromotionDiscount().StringFixed(2)
	}

	model := requests.CreateTransactionModel{
		Code:          code,
		CompanyCode:   b.cfg.CompanyCode,
		Type:          docType,
		CustomerCode:  order.CustomerCode(),
		Date:          b.documentDate(order),
		EntityUseCode: order.EntityUseCode(),
		ExemptionNo:   order.ExemptionNumber(),
		ReferenceCode: order.Number,
		DetailLevel:   "Tax",
		Commit:        commit,
		TotalDiscount: totalDiscount,
		Lines:         lines,
	}

	request := &requests.CreateTransactionRequest{CreateTransactionModel: model}

	if docType.IsReturn() {
		// The envelope-level override pins the tax date to the original
		// sale so the reversal applies the rates in force back then.
		request.AdjustmentReason = "ProductReturned"
		request.TaxOverride = &requests.TaxOverride{
			Type:    "None",
			Reason:  "Return",
			TaxDate: b.completionDate(order),
		}
	}

	b.log.Debug("built tax transaction request",
		zap.String("order", order.Number),
		zap.String("doc_type", docType.String()),
		zap.Int("lines", len(lines)))

	return request, nil
}

// BuildLines produces the ordered tax lines for the document: item lines
// then freight lines for sales documents, prorated return lines for return
// documents.
func (b *PayloadBuilder) BuildLines(ctx context.Context, order *business.Order, docType requests.DocumentType, returnAuth *business.ReturnAuthorization) ([]requests.TaxLine, error) {
	if docType.IsReturn() {
		return b.returnLines(ctx, order, returnAuth)
	}

	var lines []requests.TaxLine
	for i := range order.LineItems {
		line, err := b.itemLine(ctx, order, &order.LineItems[i])
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)
	}
	for i := range order.Shipments {
		if order.Shipments[i].TaxCategory == nil {
			continue
		}
		line, err := b.shipmentLine(ctx, order, &order.Shipments[i])
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)
	}
	return lines, nil
}

func (b *PayloadBuilder) itemLine(ctx context.Context, order *business.Order, item *business.LineItem) (*requests.TaxLine, error) {
	addresses, err := b.lineItemAddresses(ctx, order, item)
	if err != nil {
		return nil, err
	}

	return &requests.TaxLine{
		Number:        LineItemRef(item.ID),
		Description:   truncate(item.Name, maxDescriptionLength),
		TaxCode:       taxCodeFor(item.TaxCategory),
		ItemCode:      item.SKU,
		Quantity:      item.Quantity,
		Amount:        item.DiscountedAmount,
		EntityUseCode: order.EntityUseCode(),
		Discounted:    true,
		Addresses:     *addresses,
		TaxIncluded:   b.taxIncludedInPrice(order, item.TaxCategory),
	}, nil
}

func (b *PayloadBuilder) shipmentLine(ctx context.Context, order *business.Order, shipment *business.Shipment) (*requests.TaxLine, error) {
	shipTo, shipFrom, err := b.resolver.ResolveShipment(ctx, order, shipment)
	if err != nil {
		return nil, err
	}

	return &requests.TaxLine{
		Number:        ShipmentRef(shipment.ID),
		Description:   "Shipping Charge",
		TaxCode:       shipment.ShippingMethod.TaxCode,
		ItemCode:      shipment.ShippingMethod.Name,
		Quantity:      1,
		Amount:        shipment.DiscountedAmount,
		EntityUseCode: order.EntityUseCode(),
		Discounted:    false,
		Addresses:     requests.LineAddresses{ShipTo: shipTo, ShipFrom: shipFrom, BillTo: b.billTo()},
		TaxIncluded:   b.taxIncludedInPrice(order, shipment.TaxCategory),
	}, nil
}

// returnLines builds the prorated reversal lines for a single return
// authorization. The refund amount is divided evenly across the distinct
// line items in the return (not weighted by price); the reversed tax is
// prorated from each item's originally assessed tax and sent as an explicit
// override so the service does not recompute it.
func (b *PayloadBuilder) returnLines(ctx context.Context, order *business.Order, returnAuth *business.ReturnAuthorization) ([]requests.TaxLine, error) {
	if returnAuth == nil {
		return nil, errors.New("return document requires a return authorization")
	}

	itemIDs := returnAuth.DistinctLineItemIDs()
	if len(itemIDs) == 0 {
		return nil, nil
	}
	perItemAmount := returnAuth.Amount.Div(decimal.NewFromInt(int64(len(itemIDs))))

	var lines []requests.TaxLine
	for _, id := range itemIDs {
		item := order.LineItem(id)
		if item == nil {
			return nil, errors.Errorf("return references unknown line item %d", id)
		}
		quantity := returnAuth.UnitsForLineItem(id)

		addresses, err := b.lineItemAddresses(ctx, order, item)
		if err != nil {
			return nil, err
		}

		reversedTax := returnedLineItemTax(item, quantity).Neg()
		lines = append(lines, requests.TaxLine{
			Number:        LineItemRef(item.ID),
			Description:   truncate(item.Name, maxDescriptionLength),
			TaxCode:       taxCodeFor(item.TaxCategory),
			ItemCode:      item.SKU,
			Quantity:      quantity,
			Amount:        perItemAmount.Neg(),
			EntityUseCode: order.EntityUseCode(),
			Addresses:     *addresses,
			TaxIncluded:   true,
			TaxOverride: &requests.TaxOverride{
				Type:      "TaxAmount",
				Reason:    "Return",
				TaxAmount: &reversedTax,
			},
		})
	}
	return lines, nil
}

func (b *PayloadBuilder) lineItemAddresses(ctx context.Context, order *business.Order, item *business.LineItem) (*requests.LineAddresses, error) {
	shipTo, shipFrom, err := b.resolver.ResolveLineItem(ctx, order, item)
	if err != nil {
		return nil, err
	}
	return &requests.LineAddresses{ShipTo: shipTo, ShipFrom: shipFrom, BillTo: b.billTo()}, nil
}

// billTo is the configured merchant origin; a missing or malformed origin
// simply omits the bill-to block.
func (b *PayloadBuilder) billTo() *requests.AddressModel {
	origin, err := b.cfg.Origin()
	if err != nil {
		b.log.Debug("origin address unavailable", zap.Error(err))
		return nil
	}
	return AddressModel(origin)
}

// taxIncludedInPrice checks whether the applicable rate for the category in
// the order's tax zone is configured as included in the displayed price.
// Items without a category fall back to the zone's first rate.
func (b *PayloadBuilder) taxIncludedInPrice(order *business.Order, category *business.TaxCategory) bool {
	rate := order.TaxZone.RateFor(category)
	return rate != nil && rate.IncludedInPrice
}

func (b *PayloadBuilder) documentDate(order *business.Order) string {
	if order.Completed() {
		return order.CompletedAt.Format(dateLayout)
	}
	return time.Now().Format(dateLayout)
}

func (b *PayloadBuilder) completionDate(order *business.Order) string {
	if order.CompletedAt != nil {
		return order.CompletedAt.Format(dateLayout)
	}
	return time.Now().Format(dateLayout)
}

// returnedLineItemTax prorates the item's originally assessed tax by the
// share of units coming back.
func returnedLineItemTax(item *business.LineItem, returnedQuantity int64) decimal.Decimal {
	if item.Quantity == 0 {
		return decimal.Zero
	}
	totalTax := item.AdditionalTaxTotal.Add(item.IncludedTaxTotal)
	return totalTax.
		Mul(decimal.NewFromInt(returnedQuantity)).
		Div(decimal.NewFromInt(item.Quantity))
}

func taxCodeFor(category *business.TaxCategory) string {
	if category != nil && category.Description != "" {
		return category.Description
	}
	return DefaultTaxCode
}

// truncate limits s to max characters, never splitting a multi-byte rune.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
