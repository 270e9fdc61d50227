package order

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kimo123-321/autoglow-backend/internal/messaging"
	ordersvc "github.com/kimo123-321/autoglow-backend/internal/service/order"
)

func TestOrderPlacedHandler(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	reg := NewOrderPlacedHandler(zap.New(core))
	assert.Equal(t, ordersvc.OrderPlacedEventName, reg.Event)

	payload, err := json.Marshal(ordersvc.OrderPlacedEvent{
		EventID:     "evt-1",
		ID:          7,
		UserPhone:   "555",
		TotalAmount: decimal.RequireFromString("9.99"),
		Items:       1,
	})
	require.NoError(t, err)

	require.NoError(t, reg.Handler(context.Background(), messaging.Message{Value: payload}))

	entries := logs.FilterMessage("order placed event processed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(7), fields["order_id"])
	assert.Equal(t, "9.99", fields["total"])
}

func TestOrderPlacedHandlerRejectsGarbage(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)
	reg := NewOrderPlacedHandler(zap.New(core))

	err := reg.Handler(context.Background(), messaging.Message{Value: []byte("not json")})
	assert.Error(t, err)
}
