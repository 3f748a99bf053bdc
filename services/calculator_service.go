package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cartloom/taxbridge/cache"
	"github.com/cartloom/taxbridge/logger"
	"github.com/cartloom/taxbridge/types/api/responses"
	"github.com/cartloom/taxbridge/types/business"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "avtx_"

// CalculatorService answers per-item and per-shipment tax amounts for the
// storefront's calculator slot. It caches whole-order responses so that
// computing every line of an order costs at most one external lookup.
type CalculatorService struct {
	rate  *business.TaxRate
	tx    *TransactionService
	cache cache.TaxCache
	ttl   time.Duration
	log   *zap.Logger
}

// NewCalculatorService creates a calculator bound to the rate it is
// registered under. The cache is required; use a MemoryCache for
// single-process deployments.
func NewCalculatorService(rate *business.TaxRate, tx *TransactionService, taxCache cache.TaxCache) *CalculatorService {
	return &CalculatorService{
		rate:  rate,
		tx:    tx,
		cache: taxCache,
		ttl:   cache.DefaultTTL,
		log:   logger.Log,
	}
}

// ComputeLineItem returns the tax amount for one line item of an order.
func (c *CalculatorService) ComputeLineItem(ctx context.Context, order *business.Order, item *business.LineItem) (decimal.Decimal, error) {
	if c.skip(order) {
		return c.previousItemTax(item), nil
	}
	response, err := c.lookup(ctx, order)
	if err != nil {
		return decimal.Zero, err
	}
	return c.taxFor(order, item, LineItemRef(item.ID), response), nil
}

// ComputeShipment returns the tax amount for one shipment of an order.
func (c *CalculatorService) ComputeShipment(ctx context.Context, order *business.Order, shipment *business.Shipment) (decimal.Decimal, error) {
	if c.skip(order) {
		return c.previousShipmentTax(shipment), nil
	}
	response, err := c.lookup(ctx, order)
	if err != nil {
		return decimal.Zero, err
	}
	return c.shipmentTaxFor(shipment, ShipmentRef(shipment.ID), response), nil
}

// skip reports whether the order cannot be taxed yet: carts, orders with no
// resolvable address, and addresses outside the calculator's zone all fall
// back to previously persisted amounts.
func (c *CalculatorService) skip(order *business.Order) bool {
	if order.State == business.OrderStateCart {
		return true
	}
	addr := order.TaxAddress()
	if addr == nil {
		return true
	}
	if c.rate != nil && c.rate.Zone != nil && !c.rate.Zone.Contains(addr) {
		return true
	}
	return false
}

func (c *CalculatorService) previousItemTax(item *business.LineItem) decimal.Decimal {
	if c.includedInPrice() {
		return item.IncludedTaxTotal
	}
	return item.AdditionalTaxTotal
}

func (c *CalculatorService) previousShipmentTax(shipment *business.Shipment) decimal.Decimal {
	if c.includedInPrice() {
		return shipment.IncludedTaxTotal
	}
	return shipment.AdditionalTaxTotal
}

func (c *CalculatorService) includedInPrice() bool {
	return c.rate != nil && c.rate.IncludedInPrice
}

// lookup fetches the whole-order response through the cache. A repeated
// computation against an unchanged order hits the cache and performs no
// external call.
func (c *CalculatorService) lookup(ctx context.Context, order *business.Order) (*responses.GetTaxResponse, error) {
	return c.cache.GetOrCompute(ctx, CacheKey(order), c.ttl, func(ctx context.Context) (*responses.GetTaxResponse, error) {
		return c.tx.Capture(ctx, order)
	})
}

// taxFor maps a whole-order response onto one line item. Missing or failed
// responses fall back to the item's persisted tax so a service outage never
// zeroes out previously computed amounts mid-checkout.
func (c *CalculatorService) taxFor(order *business.Order, item *business.LineItem, ref string, response *responses.GetTaxResponse) decimal.Decimal {
	if response == nil {
		return c.previousItemTax(item)
	}
	if response.TotalTax == responses.ZeroTaxTotal {
		return c.previousItemTax(item)
	}
	if len(response.Lines) == 0 {
		c.log.Error("tax response has no lines", zap.String("order", order.Number))
		return c.previousItemTax(item)
	}
	if line := response.LineFor(ref); line != nil {
		return line.TaxCalculated
	}
	return decimal.Zero
}

func (c *CalculatorService) shipmentTaxFor(shipment *business.Shipment, ref string, response *responses.GetTaxResponse) decimal.Decimal {
	if response == nil || response.TotalTax == responses.ZeroTaxTotal || len(response.Lines) == 0 {
		return c.previousShipmentTax(shipment)
	}
	if line := response.LineFor(ref); line != nil {
		return line.TaxCalculated
	}
	return decimal.Zero
}

// CacheKey fingerprints everything about an order that can change its tax:
// the destination and billing addresses, every line item's quantity and
// pricing, and non-tax adjustments. Two calls over an unchanged order yield
// the same key; any relevant edit yields a different one. The digest is
// shortened with SHA-1 so keys stay a fixed length regardless of order
// size.
func CacheKey(order *business.Order) string {
	var b strings.Builder
	b.WriteString(order.Number)
	writeAddress(&b, order.ShipAddress)
	writeAddress(&b, order.BillAddress)

	items := make([]business.LineItem, len(order.LineItems))
	copy(items, order.LineItems)
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	for _, item := range items {
		fmt.Fprintf(&b, "|%d:%d:%s:%s", item.ID, item.Quantity, item.Price.String(), item.DiscountedAmount.String())
		if item.TaxCategory != nil {
			b.WriteString(":" + item.TaxCategory.Name)
		}
	}

	adjustments := make([]business.Adjustment, 0, len(order.Adjustments))
	for _, adj := range order.Adjustments {
		if !adj.Tax {
			adjustments = append(adjustments, adj)
		}
	}
	sort.Slice(adjustments, func(i, j int) bool { return adjustments[i].ID < adjustments[j].ID })
	for _, adj := range adjustments {
		fmt.Fprintf(&b, "|a%d:%s", adj.ID, adj.Amount.String())
	}

	sum := sha1.Sum([]byte(b.String()))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func writeAddress(b *strings.Builder, addr *business.Address) {
	if addr == nil {
		b.WriteString("|-")
		return
	}
	fmt.Fprintf(b, "|%s,%s,%s,%s,%s,%s", addr.Line1, addr.Line2, addr.City, addr.Region, addr.PostalCode, addr.Country)
}
