package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	domainEventlog "github.com/oneelevenhq/leadbridge/domains/eventlog"
	"github.com/oneelevenhq/leadbridge/pkg/eventworker"
)

func newEventLogFixture(t *testing.T) (domainEventlog.IEventLogUsecase, *eventworker.EventWorkerPool) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	pool := eventworker.NewEventWorkerPool(2, 32)
	pool.Start(context.Background())
	t.Cleanup(pool.Stop)

	service, err := NewEventLogService(db, pool)
	require.NoError(t, err)
	return service, pool
}

func TestEventLog_RecordAndList(t *testing.T) {
	service, _ := newEventLogFixture(t)
	ctx := context.Background()

	require.NoError(t, service.Record(ctx, domainEventlog.RawEvent{
		WorkspaceID:       "ws1",
		InstanceName:      "inst1",
		EventType:         "MESSAGES.UPSERT",
		ExternalMessageID: "MSG-1",
		Payload:           `{"event":"messages.upsert"}`,
	}))
	require.NoError(t, service.Record(ctx, domainEventlog.RawEvent{
		WorkspaceID:  "ws1",
		InstanceName: "inst1",
		EventType:    "CONNECTION.UPDATE",
		Payload:      `{"event":"connection.update"}`,
	}))
	require.NoError(t, service.Record(ctx, domainEventlog.RawEvent{
		WorkspaceID:  "ws-other",
		InstanceName: "inst9",
		EventType:    "MESSAGES.UPSERT",
		Payload:      `{}`,
	}))

	events, err := service.List(ctx, "ws1", 50, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	for _, evt := range events {
		assert.Equal(t, "ws1", evt.WorkspaceID)
		assert.NotEmpty(t, evt.ID)
	}

	other, err := service.List(ctx, "ws-other", 50, 0)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Empty(t, other[0].ExternalMessageID)
}

func TestEventLog_RecordAsyncDrainsThroughPool(t *testing.T) {
	service, pool := newEventLogFixture(t)

	for i := 0; i < 10; i++ {
		service.RecordAsync(domainEventlog.RawEvent{
			WorkspaceID:  "ws1",
			InstanceName: "inst1",
			EventType:    "MESSAGES.UPSERT",
			Payload:      fmt.Sprintf(`{"n":%d}`, i),
		})
	}
	pool.Stop()

	events, err := service.List(context.Background(), "ws1", 50, 0)
	require.NoError(t, err)
	assert.Len(t, events, 10)
}

func TestEventLog_ListClampsLimit(t *testing.T) {
	service, _ := newEventLogFixture(t)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		require.NoError(t, service.Record(ctx, domainEventlog.RawEvent{
			WorkspaceID:  "ws1",
			InstanceName: "inst1",
			EventType:    "MESSAGES.UPSERT",
			Payload:      `{}`,
		}))
	}

	events, err := service.List(ctx, "ws1", 0, 0)
	require.NoError(t, err)
	assert.Len(t, events, 50)

	events, err = service.List(ctx, "ws1", 1000, -5)
	require.NoError(t, err)
	assert.Len(t, events, 50)
}
