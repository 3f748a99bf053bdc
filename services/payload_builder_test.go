package services_test

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/cartloom/taxbridge/config"
	"github.com/cartloom/taxbridge/logger"
	"github.com/cartloom/taxbridge/services"
	"github.com/cartloom/taxbridge/types/api/requests"
	"github.com/cartloom/taxbridge/types/business"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.InitLogger()
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Endpoint = "https://totalbridge.test"
	cfg.Account = "1100012345"
	cfg.LicenseKey = "license"
	cfg.CompanyCode = "CARTLOOM"
	cfg.OriginAddress = `{"Address1":"915 S Jackson St","City":"Montgomery","Region":"AL","Zip5":"36104","Country":"US"}`
	return cfg
}

func newyorkAddress() *business.Address {
	return &business.Address{
		Line1:      "14 Wall St",
		City:       "New York",
		Region:     "NY",
		Country:    "US",
		PostalCode: "10005",
	}
}

func usZone() *business.TaxZone {
	zone := &business.TaxZone{Countries: []string{"US"}}
	zone.Rates = []business.TaxRate{{
		Amount: decimal.RequireFromString("0.08"),
		Zone:   zone,
	}}
	return zone
}

func testOrder() *business.Order {
	completed := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	warehouse := &business.StockLocation{
		ID:   7,
		Name: "East Warehouse",
		Address: business.Address{
			Line1:      "2 Depot Rd",
			City:       "Newark",
			Region:     "NJ",
			Country:    "US",
			PostalCode: "07102",
		},
	}

	return &business.Order{
		ID:          uuid.New(),
		Number:      "R100000001",
		State:       business.OrderStatePayment,
		Email:       "buyer@example.com",
		CompletedAt: &completed,
		ShipAddress: newyorkAddress(),
		TaxZone:     usZone(),
		LineItems: []business.LineItem{
			{
				ID:                 1,
				Name:               "Ceramic Mug",
				SKU:                "MUG-01",
				Quantity:           2,
				Price:              decimal.RequireFromString("10.00"),
				DiscountedAmount:   decimal.RequireFromString("20.00"),
				AdditionalTaxTotal: decimal.RequireFromString("1.60"),
				StockLocation:      warehouse,
			},
			{
				ID:                 2,
				Name:               "Linen Tote",
				SKU:                "TOTE-01",
				Quantity:           1,
				Price:              decimal.RequireFromString("30.00"),
				DiscountedAmount:   decimal.RequireFromString("25.00"),
				AdditionalTaxTotal: decimal.RequireFromString("2.00"),
				StockLocation:      warehouse,
			},
		},
		Shipments: []business.Shipment{
			{
				ID:               11,
				DiscountedAmount: decimal.RequireFromString("5.00"),
				TaxCategory:      &business.TaxCategory{Name: "Shipping", Description: "FR020100"},
				ShippingMethod:   business.ShippingMethod{Name: "UPS Ground", TaxCode: "FR020100"},
				StockLocation:    warehouse,
				LineItemIDs:      []int64{1, 2},
			},
		},
		Adjustments: []business.Adjustment{
			{ID: 21, Label: "Promo", Amount: decimal.RequireFromString("-5.00"), Promotion: true, Eligible: true},
		},
	}
}

func newBuilder(cfg *config.Config) *services.PayloadBuilder {
	return services.NewPayloadBuilder(cfg, services.NewAddressResolver(nil))
}

func TestPayloadBuilder_BuildRequest(t *testing.T) {
	builder := newBuilder(testConfig())
	order := testOrder()

	req, err := builder.BuildRequest(context.Background(), order, requests.DocTypeSalesOrder, false, nil)
	require.NoError(t, err)

	model := req.CreateTransactionModel
	assert.Equal(t, "R100000001", model.Code)
	assert.Equal(t, "CARTLOOM", model.CompanyCode)
	assert.Equal(t, requests.DocTypeSalesOrder, model.Type)
	assert.Equal(t, "buyer@example.com", model.CustomerCode)
	assert.Equal(t, "2026-03-14", model.Date)
	assert.Equal(t, "R100000001", model.ReferenceCode)
	assert.Equal(t, "Tax", model.DetailLevel)
	assert.False(t, model.Commit)
	assert.Equal(t, "5.00", model.TotalDiscount)
	assert.Nil(t, req.TaxOverride)
	assert.Empty(t, req.AdjustmentReason)
	require.Len(t, model.Lines, 3)

	item := model.Lines[0]
	assert.Equal(t, "1-LI", item.Number)
	assert.Equal(t, "Ceramic Mug", item.Description)
	assert.Equal(t, services.DefaultTaxCode, item.TaxCode)
	assert.Equal(t, "MUG-01", item.ItemCode)
	assert.Equal(t, int64(2), item.Quantity)
	assert.True(t, item.Amount.Equal(decimal.RequireFromString("20.00")))
	assert.True(t, item.Discounted)
	assert.False(t, item.TaxIncluded)
	require.NotNil(t, item.Addresses.ShipTo)
	assert.Equal(t, "New York", item.Addresses.ShipTo.City)
	require.NotNil(t, item.Addresses.ShipFrom)
	assert.Equal(t, "Newark", item.Addresses.ShipFrom.City)
	require.NotNil(t, item.Addresses.BillTo)
	assert.Equal(t, "Montgomery", item.Addresses.BillTo.City)

	freight := model.Lines[2]
	assert.Equal(t, "11-FR", freight.Number)
	assert.Equal(t, "Shipping Charge", freight.Description)
	assert.Equal(t, "FR020100", freight.TaxCode)
	assert.Equal(t, "UPS Ground", freight.ItemCode)
	assert.Equal(t, int64(1), freight.Quantity)
	assert.False(t, freight.Discounted)
}

func TestPayloadBuilder_CustomerCodePrefersCustomerID(t *testing.T) {
	builder := newBuilder(testConfig())
	order := testOrder()
	customerID := uuid.New()
	order.Customer = &business.Customer{ID: customerID, Email: "buyer@example.com"}

	req, err := builder.BuildRequest(context.Background(), order, requests.DocTypeSalesOrder, false, nil)
	require.NoError(t, err)
	assert.Equal(t, customerID.String(), req.CreateTransactionModel.CustomerCode)
}

func TestPayloadBuilder_TruncatesLongDescriptions(t *testing.T) {
	builder := newBuilder(testConfig())
	order := testOrder()
	order.LineItems[0].Name = strings.Repeat("x", 300)

	req, err := builder.BuildRequest(context.Background(), order, requests.DocTypeSalesOrder, false, nil)
	require.NoError(t, err)
	assert.Len(t, req.CreateTransactionModel.Lines[0].Description, 256)
}

func TestPayloadBuilder_TruncatesByCharactersNotBytes(t *testing.T) {
	builder := newBuilder(testConfig())
	order := testOrder()
	order.LineItems[0].Name = strings.Repeat("€", 300)

	req, err := builder.BuildRequest(context.Background(), order, requests.DocTypeSalesOrder, false, nil)
	require.NoError(t, err)

	description := req.CreateTransactionModel.Lines[0].Description
	assert.Equal(t, 256, utf8.RuneCountInString(description))
	assert.True(t, utf8.ValidString(description))

	// A multi-byte name within the limit passes through untouched.
	order.LineItems[0].Name = strings.Repeat("€", 100)
	req, err = builder.BuildRequest(context.Background(), order, requests.DocTypeSalesOrder, false, nil)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("€", 100), req.CreateTransactionModel.Lines[0].Description)
}

func TestPayloadBuilder_TaxIncludedFollowsZoneRate(t *testing.T) {
	builder := newBuilder(testConfig())
	order := testOrder()
	order.TaxZone.Rates[0].IncludedInPrice = true

	req, err := builder.BuildRequest(context.Background(), order, requests.DocTypeSalesOrder, false, nil)
	require.NoError(t, err)
	assert.True(t, req.CreateTransactionModel.Lines[0].TaxIncluded)
}

func TestPayloadBuilder_ReturnDocument(t *testing.T) {
	builder := newBuilder(testConfig())
	order := testOrder()
	order.LineItems[0].Quantity = 2
	order.LineItems[0].AdditionalTaxTotal = decimal.RequireFromString("4.00")

	returnAuth := &business.ReturnAuthorization{
		ID:     uuid.New(),
		Amount: decimal.RequireFromString("30.00"),
		InventoryUnits: []business.InventoryUnit{
			{ID: 1, LineItemID: 1},
			{ID: 2, LineItemID: 2},
		},
	}

	req, err := builder.BuildRequest(context.Background(), order, requests.DocTypeReturnInvoice, true, returnAuth)
	require.NoError(t, err)

	assert.Equal(t, "R100000001."+returnAuth.ID.String(), req.CreateTransactionModel.Code)
	assert.Empty(t, req.CreateTransactionModel.TotalDiscount)
	assert.Equal(t, "ProductReturned", req.AdjustmentReason)
	require.NotNil(t, req.TaxOverride)
	assert.Equal(t, "None", req.TaxOverride.Type)
	assert.Equal(t, "Return", req.TaxOverride.Reason)
	assert.Equal(t, "2026-03-14", req.TaxOverride.TaxDate)

	lines := req.CreateTransactionModel.Lines
	require.Len(t, lines, 2)
	for _, line := range lines {
		// $30 refund split evenly across the two distinct items.
		assert.True(t, line.Amount.Equal(decimal.RequireFromString("-15.00")), "amount %s", line.Amount)
		assert.True(t, line.TaxIncluded)
		require.NotNil(t, line.TaxOverride)
		assert.Equal(t, "TaxAmount", line.TaxOverride.Type)
		assert.Equal(t, "Return", line.TaxOverride.Reason)
		require.NotNil(t, line.TaxOverride.TaxAmount)
	}

	// Item 1 carried $4.00 tax over qty 2; returning 1 unit reverses $2.00.
	assert.True(t, lines[0].TaxOverride.TaxAmount.Equal(decimal.RequireFromString("-2.00")),
		"reversed tax %s", lines[0].TaxOverride.TaxAmount)
	assert.Equal(t, int64(1), lines[0].Quantity)
}

func TestPayloadBuilder_ReturnRequiresAuthorization(t *testing.T) {
	builder := newBuilder(testConfig())

	_, err := builder.BuildRequest(context.Background(), testOrder(), requests.DocTypeReturnInvoice, true, nil)
	assert.Error(t, err)
}

func TestPayloadBuilder_MissingStockLocation(t *testing.T) {
	builder := newBuilder(testConfig())
	order := testOrder()
	order.LineItems[0].StockLocation = nil

	_, err := builder.BuildRequest(context.Background(), order, requests.DocTypeSalesOrder, false, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrNoStockLocation)
}

func TestPayloadBuilder_PointOfSaleShipsToPurchaseLocation(t *testing.T) {
	builder := newBuilder(testConfig())
	order := testOrder()
	order.PointOfSale = true
	order.PurchaseLocation = &business.StockLocation{
		ID: 9,
		Address: business.Address{
			Line1:      "1 Store Plaza",
			City:       "Brooklyn",
			Region:     "NY",
			Country:    "US",
			PostalCode: "11201",
		},
	}

	req, err := builder.BuildRequest(context.Background(), order, requests.DocTypeSalesOrder, false, nil)
	require.NoError(t, err)
	shipTo := req.CreateTransactionModel.Lines[0].Addresses.ShipTo
	require.NotNil(t, shipTo)
	assert.Equal(t, "Brooklyn", shipTo.City)
}
