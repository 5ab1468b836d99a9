package graph

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mikey/llm-phish-filter/internal/core"
)

// SQLiteStore keeps the communication graph as a relational edge table.
// Nodes are implicit: an address exists once it appears on any edge. The
// composite primary key enforces the per-message deduplication the Neo4j
// store gets from MERGE.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (or creates) the SQLite-backed graph
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("graph store unreachable: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sent_email (
			sender TEXT NOT NULL,
			recipient TEXT NOT NULL,
			message_id TEXT NOT NULL,
			sent_at TIMESTAMP NOT NULL,
			risk_level TEXT NOT NULL,
			PRIMARY KEY (sender, recipient, message_id)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_sent_email_pair ON sent_email(sender, recipient)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// ResolveContext counts recorded sender→recipient edges
func (s *SQLiteStore) ResolveContext(ctx context.Context, sender, recipient string) (core.CommunicationContext, error) {
	var priorCount int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sent_email WHERE sender = ? AND recipient = ?
	`, sender, recipient).Scan(&priorCount)
	if err != nil {
		return core.CommunicationContext{Unavailable: true}, fmt.Errorf("failed to resolve communication context: %w", err)
	}

	return core.CommunicationContext{
		HistoryExists: priorCount > 0,
		PriorCount:    priorCount,
	}, nil
}

// RecordCommunication inserts one edge; a duplicate message ID for the same
// pair is silently ignored
func (s *SQLiteStore) RecordCommunication(ctx context.Context, rec core.CommunicationRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO sent_email (sender, recipient, message_id, sent_at, risk_level)
		VALUES (?, ?, ?, ?, ?)
	`, rec.Sender, rec.Recipient, rec.MessageID, rec.SentAt.Format(time.RFC3339), string(rec.RiskLevel))
	if err != nil {
		return fmt.Errorf("failed to record communication: %w", err)
	}

	s.logger.Debug("Recorded communication edge",
		zap.String("sender", rec.Sender),
		zap.String("recipient", rec.Recipient),
		zap.String("message_id", rec.MessageID))
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close(ctx context.Context) error {
	return s.db.Close()
}
