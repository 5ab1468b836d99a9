package graph

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/mikey/llm-phish-filter/internal/core"
)

// MySQLStore is the MySQL-backed edge table variant of the communication
// graph, for deployments that already run MySQL instead of Neo4j
type MySQLStore struct {
	db         *sql.DB
	maxRetries int
	logger     *zap.Logger
}

// NewMySQLStore connects to MySQL and ensures the edge table exists
func NewMySQLStore(dsn string, maxRetries int, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("graph store unreachable: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sent_email (
			sender VARCHAR(255) NOT NULL,
			recipient VARCHAR(255) NOT NULL,
			message_id VARCHAR(255) NOT NULL,
			sent_at DATETIME NOT NULL,
			risk_level VARCHAR(16) NOT NULL,
			PRIMARY KEY (sender, recipient, message_id),
			INDEX idx_sent_email_pair (sender, recipient)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MySQLStore{db: db, maxRetries: maxRetries, logger: logger}, nil
}

// ResolveContext counts recorded sender→recipient edges
func (s *MySQLStore) ResolveContext(ctx context.Context, sender, recipient string) (core.CommunicationContext, error) {
	read := func() (int, error) {
		var priorCount int
		err := s.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM sent_email WHERE sender = ? AND recipient = ?
		`, sender, recipient).Scan(&priorCount)
		return priorCount, err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(s.maxRetries)), ctx)
	priorCount, err := backoff.RetryWithData(read, policy)
	if err != nil {
		return core.CommunicationContext{Unavailable: true}, fmt.Errorf("failed to resolve communication context: %w", err)
	}

	return core.CommunicationContext{
		HistoryExists: priorCount > 0,
		PriorCount:    priorCount,
	}, nil
}

// RecordCommunication inserts one edge, ignoring duplicates on the natural
// key
func (s *MySQLStore) RecordCommunication(ctx context.Context, rec core.CommunicationRecord) error {
	write := func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT IGNORE INTO sent_email (sender, recipient, message_id, sent_at, risk_level)
			VALUES (?, ?, ?, ?, ?)
		`, rec.Sender, rec.Recipient, rec.MessageID, rec.SentAt.UTC(), string(rec.RiskLevel))
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(s.maxRetries)), ctx)
	if err := backoff.Retry(write, policy); err != nil {
		return fmt.Errorf("failed to record communication: %w", err)
	}

	s.logger.Debug("Recorded communication edge",
		zap.String("sender", rec.Sender),
		zap.String("recipient", rec.Recipient),
		zap.String("message_id", rec.MessageID))
	return nil
}

// Close closes the database
func (s *MySQLStore) Close(ctx context.Context) error {
	return s.db.Close()
}
