package handler

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/xenking/storefront/internal/domain/order"
)

// counts sums each data point of the named counter keyed by one attribute.
func counts(t *testing.T, reader sdkmetric.Reader, name string, key attribute.Key) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				v, _ := dp.Attributes.Value(key)
				out[v.Emit()] += dp.Value
			}
		}
	}
	return out
}

func TestMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.OrderCreated(ctx, sourceCart, &order.Order{Items: []order.Item{{Quantity: 2}}})
	m.OrderCreated(ctx, sourceItems, &order.Order{})
	m.CheckoutFailed(ctx, sourceCart, order.ErrEmptyCart)
	m.CheckoutFailed(ctx, sourceCart, errors.Wrap(order.ErrTotalOutOfRange, "recompute total"))
	m.CheckoutFailed(ctx, sourceItems, errors.New("connection reset"))

	assert.Equal(t, map[string]int64{"cart": 1, "items": 1}, counts(t, reader, "shop.orders.created", "source"))
	assert.Equal(t, map[string]int64{"rejected": 2, "internal": 1}, counts(t, reader, "shop.checkout.failures", "reason"))
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.OrderCreated(context.Background(), sourceCart, &order.Order{})
		m.CheckoutFailed(context.Background(), sourceCart, order.ErrEmptyCart)
	})
}
