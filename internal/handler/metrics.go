package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/storefront/internal/domain/order"
)

// Order sources.
const (
	sourceItems = "items"
	sourceCart  = "cart"
)

// Metrics records order placement outcomes. A nil *Metrics records nothing.
type Metrics struct {
	created  metric.Int64Counter
	failures metric.Int64Counter
}

// NewMetrics registers the order counters on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	created, err := meter.Int64Counter("shop.orders.created",
		metric.WithDescription("Orders placed"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders counter")
	}
	failures, err := meter.Int64Counter("shop.checkout.failures",
		metric.WithDescription("Rejected or failed order placements"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failures counter")
	}
	return &Metrics{created: created, failures: failures}, nil
}

// OrderCreated counts a placed order by source and line count.
func (m *Metrics) OrderCreated(ctx context.Context, source string, o *order.Order) {
	if m == nil {
		return
	}
	m.created.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.Int("items", len(o.Items)),
	))
}

// CheckoutFailed counts a rejected ("rejected") or failed ("internal")
// placement by source.
func (m *Metrics) CheckoutFailed(ctx context.Context, source string, err error) {
	if m == nil {
		return
	}
	reason := "internal"
	if resp, ok := classify(err); ok && resp.Status < http.StatusInternalServerError {
		reason = "rejected"
	}
	m.failures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("reason", reason),
	))
}
