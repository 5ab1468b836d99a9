// Package graph provides the communication graph store implementations:
// Neo4j for production, SQLite and MySQL as relational edge tables, and an
// in-memory store for development and tests. All of them deduplicate edges
// on message ID so a retried write never double-counts history.
package graph

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/mikey/llm-phish-filter/internal/config"
	"github.com/mikey/llm-phish-filter/internal/core"
)

const resolveQuery = `
OPTIONAL MATCH (:EmailAddress {address: $sender})-[r:SENT_EMAIL]->(:EmailAddress {address: $recipient})
RETURN count(r) AS prior_count`

// MERGE on the messageId key makes the write idempotent: a retry after a
// half-failed run reuses the existing edge instead of creating a duplicate.
const recordQuery = `
MERGE (s:EmailAddress {address: $sender})
MERGE (t:EmailAddress {address: $recipient})
MERGE (s)-[e:SENT_EMAIL {messageId: $message_id}]->(t)
ON CREATE SET e.timestamp = datetime({epochMillis: $sent_at_ms}),
              e.riskLevel = $risk_level
RETURN e.messageId AS message_id`

// Neo4jStore is the Neo4j implementation of the GraphRepository interface
type Neo4jStore struct {
	driver     neo4j.DriverWithContext
	database   string
	maxRetries int
	logger     *zap.Logger
}

// NewNeo4jStore connects to Neo4j and verifies connectivity. A store that
// cannot be reached at construction is a fatal condition for the caller:
// there is no point scoring without persistent context.
func NewNeo4jStore(ctx context.Context, cfg config.Neo4jConfig, maxRetries int, logger *zap.Logger) (*Neo4jStore, error) {
	auth := neo4j.NoAuth()
	if cfg.Username != "" {
		auth = neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("graph store unreachable at %s: %w", cfg.URI, err)
	}

	logger.Info("Connected to Neo4j", zap.String("uri", cfg.URI), zap.String("database", cfg.Database))

	return &Neo4jStore{
		driver:     driver,
		database:   cfg.Database,
		maxRetries: maxRetries,
		logger:     logger,
	}, nil
}

// ResolveContext reports existence and count of SENT_EMAIL edges from
// sender to recipient
func (s *Neo4jStore) ResolveContext(ctx context.Context, sender, recipient string) (core.CommunicationContext, error) {
	read := func() (int64, error) {
		session := s.driver.NewSession(ctx, neo4j.SessionConfig{
			DatabaseName: s.database,
			AccessMode:   neo4j.AccessModeRead,
		})
		defer session.Close(ctx)

		count, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			result, err := tx.Run(ctx, resolveQuery, map[string]any{
				"sender":    sender,
				"recipient": recipient,
			})
			if err != nil {
				return nil, err
			}
			record, err := result.Single(ctx)
			if err != nil {
				return nil, err
			}
			priorCount, _, err := neo4j.GetRecordValue[int64](record, "prior_count")
			return priorCount, err
		})
		if err != nil {
			return 0, err
		}
		return count.(int64), nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(s.maxRetries)), ctx)
	priorCount, err := backoff.RetryWithData(read, policy)
	if err != nil {
		return core.CommunicationContext{Unavailable: true}, fmt.Errorf("failed to resolve communication context: %w", err)
	}

	return core.CommunicationContext{
		HistoryExists: priorCount > 0,
		PriorCount:    int(priorCount),
	}, nil
}

// RecordCommunication upserts both address nodes and merges the SENT_EMAIL
// edge keyed by message ID
func (s *Neo4jStore) RecordCommunication(ctx context.Context, rec core.CommunicationRecord) error {
	write := func() error {
		session := s.driver.NewSession(ctx, neo4j.SessionConfig{
			DatabaseName: s.database,
			AccessMode:   neo4j.AccessModeWrite,
		})
		defer session.Close(ctx)

		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			result, err := tx.Run(ctx, recordQuery, map[string]any{
				"sender":     rec.Sender,
				"recipient":  rec.Recipient,
				"message_id": rec.MessageID,
				"sent_at_ms": rec.SentAt.UnixMilli(),
				"risk_level": string(rec.RiskLevel),
			})
			if err != nil {
				return nil, err
			}
			return result.Single(ctx)
		})
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(s.maxRetries)), ctx)
	if err := backoff.Retry(write, policy); err != nil {
		return fmt.Errorf("failed to record communication: %w", err)
	}

	s.logger.Debug("Recorded communication edge",
		zap.String("sender", rec.Sender),
		zap.String("recipient", rec.Recipient),
		zap.String("message_id", rec.MessageID),
		zap.String("risk_level", string(rec.RiskLevel)))
	return nil
}

// Close closes the Neo4j driver and its pooled connections
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}
