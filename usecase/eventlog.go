package usecase

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	domainEventlog "github.com/oneelevenhq/leadbridge/domains/eventlog"
	"github.com/oneelevenhq/leadbridge/pkg/eventworker"
	"gorm.io/gorm"
)

// recordTimeout bounds each background insert so a slow store cannot pin a
// pool worker indefinitely.
const recordTimeout = 10 * time.Second

type inboundEventModel struct {
	ID                string         `gorm:"primaryKey;column:id"`
	WorkspaceID       string         `gorm:"column:workspace_id;not null;index"`
	InstanceName      string         `gorm:"column:instance_name;not null"`
	EventType         string         `gorm:"column:event_type;not null"`
	ExternalMessageID sql.NullString `gorm:"column:external_message_id"`
	Payload           string         `gorm:"column:payload;type:text"`
	CreatedAt         time.Time      `gorm:"column:created_at;autoCreateTime;index"`
}

func (inboundEventModel) TableName() string { return "inbound_events" }

type eventLogService struct {
	db   *gorm.DB
	pool *eventworker.EventWorkerPool
}

func NewEventLogService(db *gorm.DB, pool *eventworker.EventWorkerPool) (domainEventlog.IEventLogUsecase, error) {
	if err := db.AutoMigrate(&inboundEventModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate inbound_events: %w", err)
	}
	return &eventLogService{db: db, pool: pool}, nil
}

func (s *eventLogService) Record(ctx context.Context, evt domainEventlog.RawEvent) error {
	model := inboundEventModel{
		ID:           uuid.NewString(),
		WorkspaceID:  evt.WorkspaceID,
		InstanceName: evt.InstanceName,
		EventType:    evt.EventType,
		Payload:      evt.Payload,
	}
	if evt.ExternalMessageID != "" {
		model.ExternalMessageID = sql.NullString{String: evt.ExternalMessageID, Valid: true}
	}
	return s.db.WithContext(ctx).Create(&model).Error
}

// RecordAsync hands the append to the pool. Drops and insert failures are
// counted there and otherwise swallowed; the webhook response never depends
// on this path.
func (s *eventLogService) RecordAsync(evt domainEventlog.RawEvent) {
	s.pool.Dispatch(eventworker.EventJob{
		WorkspaceID:  evt.WorkspaceID,
		InstanceName: evt.InstanceName,
		Handler: func(ctx context.Context) error {
			recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
			defer cancel()
			return s.Record(recordCtx, evt)
		},
	})
}

func (s *eventLogService) List(ctx context.Context, workspaceID string, limit, offset int) ([]domainEventlog.RawEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var models []inboundEventModel
	if err := s.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]domainEventlog.RawEvent, 0, len(models))
	for _, m := range models {
		out = append(out, domainEventlog.RawEvent{
			ID:                m.ID,
			WorkspaceID:       m.WorkspaceID,
			InstanceName:      m.InstanceName,
			EventType:         m.EventType,
			ExternalMessageID: m.ExternalMessageID.String,
			Payload:           m.Payload,
			CreatedAt:         m.CreatedAt,
		})
	}
	return out, nil
}
