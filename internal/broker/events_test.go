package broker

import (
	"context"
	"encoding/json"
	"testing"

	"dhaba-pos/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	key     string
	payload []byte
}

type recordingSink struct {
	events []recordedEvent
}

func (r *recordingSink) PublishEvent(_ context.Context, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	r.events = append(r.events, recordedEvent{key: key, payload: data})
	return nil
}

func TestPublisherWithoutSinkDropsEvents(t *testing.T) {
	ep := NewEventPublisher(nil)
	err := ep.PublishKOTsClosed(context.Background(), 3, []int64{1, 2})
	assert.NoError(t, err)
}

func TestKOTEventsAreKeyedByTable(t *testing.T) {
	sink := &recordingSink{}
	ep := NewEventPublisher(sink)

	kot := &models.KOT{ID: 11, KOTNumber: "KOT-00011", TableID: 4, RoomID: 1, Status: models.KOTStatusPreparing}
	require.NoError(t, ep.PublishKOTEvent(context.Background(), models.EventTypeKOTCreated, kot))

	require.Len(t, sink.events, 1)
	assert.Equal(t, "table-4", sink.events[0].key)

	var decoded models.KOTEvent
	require.NoError(t, json.Unmarshal(sink.events[0].payload, &decoded))
	assert.Equal(t, models.EventTypeKOTCreated, decoded.EventType)
	assert.NotEmpty(t, decoded.EventID)
	assert.Equal(t, int64(11), decoded.KOTID)
}

func TestHandlerRoutesPublishedEvents(t *testing.T) {
	sink := &recordingSink{}
	ep := NewEventPublisher(sink)
	ctx := context.Background()

	kot := &models.KOT{ID: 1, TableID: 2, Status: models.KOTStatusReady}
	require.NoError(t, ep.PublishKOTEvent(ctx, models.EventTypeKOTStatusChanged, kot))
	require.NoError(t, ep.PublishBillFinalized(ctx, &models.Order{ID: 9, TableID: 2, GrandTotal: decimal.RequireFromString("623.70")}))
	require.NoError(t, ep.PublishInventoryUsage(ctx,
		&models.InventoryUsage{QuantityUsed: decimal.NewFromInt(2)},
		&models.InventoryItem{ID: 5, Name: "Ghee", Quantity: decimal.NewFromInt(1), MinStockLevel: decimal.NewFromInt(3), Unit: "kg"}))
	require.NoError(t, ep.PublishOrderDeleted(ctx, &models.Order{ID: 9}))

	var (
		kotStatus models.KOTStatus
		billTotal string
		lowItem   string
	)
	eh := NewEventHandler()
	eh.OnKOTEvent(func(_ context.Context, e *models.KOTEvent) error {
		kotStatus = e.Status
		return nil
	})
	eh.OnBillFinalized(func(_ context.Context, e *models.BillFinalizedEvent) error {
		billTotal = e.GrandTotal.StringFixed(2)
		return nil
	})
	eh.OnInventoryUsage(func(_ context.Context, e *models.InventoryUsageEvent) error {
		lowItem = e.ItemName
		return nil
	})

	for _, e := range sink.events {
		require.NoError(t, eh.Dispatch(ctx, e.payload))
	}

	assert.Equal(t, models.KOTStatusReady, kotStatus)
	assert.Equal(t, "623.70", billTotal)
	assert.Equal(t, "Ghee", lowItem)
}

func TestDispatchRejectsGarbage(t *testing.T) {
	err := NewEventHandler().Dispatch(context.Background(), []byte("not json"))
	assert.Error(t, err)
}

func TestLocalSinkDispatchesInProcess(t *testing.T) {
	var deleted *models.OrderDeletedEvent
	eh := NewEventHandler()
	eh.OnOrderDeleted(func(_ context.Context, e *models.OrderDeletedEvent) error {
		deleted = e
		return nil
	})

	ep := NewEventPublisher(NewLocalSink(eh))
	order := &models.Order{ID: 9, DeletionInfo: &models.DeletionInfo{DeletedBy: "manager", Reason: "wrong table"}}
	require.NoError(t, ep.PublishOrderDeleted(context.Background(), order))

	require.NotNil(t, deleted)
	assert.Equal(t, int64(9), deleted.OrderID)
	assert.Equal(t, "wrong table", deleted.Reason)
}

func TestLocalSinkReturnsHandlerError(t *testing.T) {
	eh := NewEventHandler()
	eh.OnKOTsClosed(func(context.Context, *models.KOTsClosedEvent) error {
		return assert.AnError
	})

	err := NewEventPublisher(NewLocalSink(eh)).PublishKOTsClosed(context.Background(), 3, []int64{1})
	assert.ErrorIs(t, err, assert.AnError)
}
