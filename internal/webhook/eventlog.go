package webhook

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/poibms/next-meal/internal/models"
	"github.com/poibms/next-meal/internal/profile"
	"github.com/uptrace/bun"
)

// EventLog records which provider event ids have been claimed for processing.
type EventLog interface {
	// Claim reports true when eventID was not seen before and is now owned by the caller.
	Claim(ctx context.Context, eventID, eventType string) (bool, error)
}

// TxFunc runs one delivery against an event log and profile repository bound
// to the same unit of work.
type TxFunc func(ctx context.Context, events EventLog, profiles profile.Repository) error

// Store commits a delivery's claim and its profile write together. When fn
// returns an error neither the claim nor the write is kept.
type Store interface {
	RunInTx(ctx context.Context, fn TxFunc) error
}

type PostgresEventLog struct {
	db bun.IDB
}

func NewPostgresEventLog(db bun.IDB) *PostgresEventLog {
	return &PostgresEventLog{db: db}
}

func (l *PostgresEventLog) InitializeDatabase(ctx context.Context) error {
	_, err := l.db.NewCreateTable().
		Model((*models.ProcessedEventDB)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create processed_webhook_events table: %w", err)
	}
	return nil
}

// Claim inserts the event row. Inside a transaction a concurrent claim of the
// same id blocks on the primary key until this one commits or rolls back.
func (l *PostgresEventLog) Claim(ctx context.Context, eventID, eventType string) (bool, error) {
	res, err := l.db.NewInsert().
		Model(&models.ProcessedEventDB{
			EventID:     eventID,
			EventType:   eventType,
			ProcessedAt: time.Now(),
		}).
		On("CONFLICT (event_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to claim event %s: %w", eventID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(db *bun.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) InitializeDatabase(ctx context.Context) error {
	return NewPostgresEventLog(s.db).InitializeDatabase(ctx)
}

func (s *PostgresStore) RunInTx(ctx context.Context, fn TxFunc) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, NewPostgresEventLog(tx), profile.NewProfileRepository(tx))
	})
}

type MemoryEventLog struct {
	mu     sync.Mutex
	events map[string]string
}

func NewMemoryEventLog() *MemoryEventLog {
	return &MemoryEventLog{events: make(map[string]string)}
}

func (l *MemoryEventLog) Claim(ctx context.Context, eventID, eventType string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.events[eventID]; ok {
		return false, nil
	}
	l.events[eventID] = eventType
	return true, nil
}

func (l *MemoryEventLog) release(eventID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.events, eventID)
}

func (l *MemoryEventLog) Has(eventID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.events[eventID]
	return ok
}

// MemoryStore is a Store over process memory. Rolling back drops the claims
// made by the failed unit; profile writes are not undone, so a TxFunc must
// fail before or at its only write.
type MemoryStore struct {
	events   *MemoryEventLog
	profiles profile.Repository
}

func NewMemoryStore(events *MemoryEventLog, profiles profile.Repository) *MemoryStore {
	return &MemoryStore{events: events, profiles: profiles}
}

func (s *MemoryStore) RunInTx(ctx context.Context, fn TxFunc) error {
	tx := &memoryTx{log: s.events}
	if err := fn(ctx, tx, s.profiles); err != nil {
		for _, id := range tx.claimed {
			s.events.release(id)
		}
		return err
	}
	return nil
}

type memoryTx struct {
	log     *MemoryEventLog
	claimed []string
}

func (t *memoryTx) Claim(ctx context.Context, eventID, eventType string) (bool, error) {
	ok, err := t.log.Claim(ctx, eventID, eventType)
	if ok {
		t.claimed = append(t.claimed, eventID)
	}
	return ok, err
}
