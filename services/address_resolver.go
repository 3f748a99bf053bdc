package services

import (
	"context"

	"github.com/cartloom/taxbridge/logger"
	"github.com/cartloom/taxbridge/types/api/requests"
	"github.com/cartloom/taxbridge/types/business"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrNoStockLocation is returned when no origin can be resolved for a line;
// the payload cannot be built without one.
var ErrNoStockLocation = errors.New("no stock location could be resolved for line")

// StockCoordinator derives fulfillment packages from current inventory
// state. The derivation is read-only; it never mutates the order.
type StockCoordinator interface {
	Packages(ctx context.Context, order *business.Order) ([]business.FulfillmentPackage, error)
}

// AddressResolver resolves origin and destination addresses for individual
// order lines.
type AddressResolver struct {
	coordinator StockCoordinator
	log         *zap.Logger
}

// NewAddressResolver creates a resolver. coordinator may be nil when every
// line item already carries its stock location.
func NewAddressResolver(coordinator StockCoordinator) *AddressResolver {
	return &AddressResolver{
		coordinator: coordinator,
		log:         logger.Log,
	}
}

// ResolveLineItem returns the destination and origin addresses for a line
// item.
func (r *AddressResolver) ResolveLineItem(ctx context.Context, order *business.Order, item *business.LineItem) (shipTo, shipFrom *requests.AddressModel, err error) {
	shipTo = r.destinationFor(order, item.ID)

	location := item.StockLocation
	if location == nil {
		location, err = r.locationFromPackages(ctx, order, item.ID)
		if err != nil {
			return nil, nil, err
		}
	}

	return shipTo, AddressModel(&location.Address), nil
}

// ResolveShipment returns the destination and origin addresses for a
// shipment charge.
func (r *AddressResolver) ResolveShipment(ctx context.Context, order *business.Order, shipment *business.Shipment) (shipTo, shipFrom *requests.AddressModel, err error) {
	if shipment.Address != nil {
		shipTo = AddressModel(shipment.Address)
	} else {
		shipTo = r.orderDestination(order)
	}

	location := shipment.StockLocation
	if location == nil {
		return nil, nil, errors.Wrapf(ErrNoStockLocation, "shipment %d", shipment.ID)
	}

	return shipTo, AddressModel(&location.Address), nil
}

// destinationFor resolves the ship-to address for one line item. Point of
// sale orders ship to the purchase location; otherwise the shipment that
// carries this line decides, falling back to the order's ship (or bill)
// address when no fulfillment assignment exists yet.
func (r *AddressResolver) destinationFor(order *business.Order, lineItemID int64) *requests.AddressModel {
	if order.PointOfSale && order.PurchaseLocation != nil {
		return AddressModel(&order.PurchaseLocation.Address)
	}
	for i := range order.Shipments {
		if order.Shipments[i].Includes(lineItemID) && order.Shipments[i].Address != nil {
			return AddressModel(order.Shipments[i].Address)
		}
	}
	return r.orderDestination(order)
}

func (r *AddressResolver) orderDestination(order *business.Order) *requests.AddressModel {
	return AddressModel(order.TaxAddress())
}

// locationFromPackages finds the stock location for a line by running the
// packaging derivation and picking the package containing the line.
func (r *AddressResolver) locationFromPackages(ctx context.Context, order *business.Order, lineItemID int64) (*business.StockLocation, error) {
	if r.coordinator == nil {
		return nil, errors.Wrapf(ErrNoStockLocation, "line item %d", lineItemID)
	}

	packages, err := r.coordinator.Packages(ctx, order)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute fulfillment packages")
	}
	for i := range packages {
		if packages[i].Includes(lineItemID) && packages[i].StockLocation != nil {
			r.log.Debug("resolved stock location from packages",
				zap.Int64("line_item_id", lineItemID),
				zap.Int64("stock_location_id", packages[i].StockLocation.ID))
			return packages[i].StockLocation, nil
		}
	}
	return nil, errors.Wrapf(ErrNoStockLocation, "line item %d", lineItemID)
}

// AddressModel converts a business address into its wire form. Returns nil
// for a nil address.
func AddressModel(addr *business.Address) *requests.AddressModel {
	if addr == nil {
		return nil
	}
	return &requests.AddressModel{
		Line1:      addr.Line1,
		Line2:      addr.Line2,
		City:       addr.City,
		Region:     addr.Region,
		Country:    addr.Country,
		PostalCode: addr.PostalCode,
	}
}
