package api

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PulseReason is why a pulse was emitted.
type PulseReason string

const (
	PulseReasonSpecChanged PulseReason = "SpecChanged"
	PulseReasonTTLExpired  PulseReason = "TTLExpired"
)

// Pulse asks one adapter to re-check one resource at a given generation.
// Transports deliver pulses at least once and in no particular order.
type Pulse struct {
	ID           string      `json:"id"`
	ResourceID   string      `json:"resource_id"`
	ResourceKind string      `json:"resource_kind"`
	Adapter      string      `json:"adapter"`
	Generation   int32       `json:"generation"`
	Reason       PulseReason `json:"reason"`
	EmittedAt    time.Time   `json:"emitted_at"`
}

// QueuedPulse is the row backing a pulse in the postgres queue.
type QueuedPulse struct {
	Meta

	Adapter    string         `json:"adapter" gorm:"size:255;not null;index:idx_pulse_queue_ready"`
	ResourceID string         `json:"resource_id" gorm:"size:255;not null"`
	Payload    datatypes.JSON `json:"payload" gorm:"type:jsonb;not null"`
	VisibleAt  time.Time      `json:"visible_at" gorm:"not null;index:idx_pulse_queue_ready"`
	Attempts   int32          `json:"attempts" gorm:"not null;default:0"`
}

func (QueuedPulse) TableName() string {
	return "pulse_queue"
}

func (q *QueuedPulse) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = NewID()
	}
	now := time.Now()
	q.CreatedTime = now
	q.UpdatedTime = now
	if q.VisibleAt.IsZero() {
		q.VisibleAt = now
	}
	return nil
}
