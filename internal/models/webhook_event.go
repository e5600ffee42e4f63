package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ProcessedEventDB records a provider event id once it has been claimed for processing.
type ProcessedEventDB struct {
	bun.BaseModel `bun:"table:processed_webhook_events,alias:pe"`

	EventID     string    `bun:"event_id,pk"`
	EventType   string    `bun:"event_type,notnull"`
	ProcessedAt time.Time `bun:"processed_at,notnull,default:current_timestamp"`
}
