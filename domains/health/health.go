package health

import (
	"context"

	"github.com/oneelevenhq/leadbridge/pkg/eventworker"
)

type Status string

const (
	StatusOk      Status = "OK"
	StatusError   Status = "ERROR"
	StatusUnknown Status = "UNKNOWN"
)

// Report is the liveness snapshot exposed on the health route.
type Report struct {
	Version   string               `json:"version"`
	Store     Status               `json:"store"`
	Cache     Status               `json:"cache"` // UNKNOWN when valkey is disabled
	EventPool eventworker.PoolStats `json:"event_pool"`
}

type IHealthUsecase interface {
	GetStatus(ctx context.Context) (Report, error)
}
