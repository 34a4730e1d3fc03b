package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"VinSight/internal/domain/models"
	domrepo "VinSight/internal/domain/repository"
	pkgch "VinSight/pkg/clickhouse"
	pkgkafka "VinSight/pkg/kafka"
	applogger "VinSight/pkg/logger"
)

// KafkaAuditPublisher implements AuditSink for Kafka. Messages are keyed
// by user id so all runs for a user land in one partition in order.
type KafkaAuditPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaAuditPublisher creates a Kafka-backed audit sink.
func NewKafkaAuditPublisher(producer *pkgkafka.Producer, topic string) domrepo.AuditSink {
	return &KafkaAuditPublisher{producer: producer, topic: topic}
}

func (p *KafkaAuditPublisher) Publish(ctx context.Context, res *models.RunResult) error {
	return p.producer.Publish(ctx, p.topic, []byte(res.UserID), res)
}

func (p *KafkaAuditPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

const outcomesTable = "vinsight.analysis_outcomes"

var outcomeSchema = []string{
	`CREATE DATABASE IF NOT EXISTS vinsight`,
	`CREATE TABLE IF NOT EXISTS ` + outcomesTable + ` (
		run_id            String,
		user_id           String,
		asset_id          String,
		action            String,
		confidence        Float64,
		risk_score        Nullable(Float64),
		compliance_status String,
		success           UInt8,
		terminated_reason String,
		error_count       UInt32,
		warning_count     UInt32,
		execution_time_ms Int64,
		created_at        DateTime
	) ENGINE = MergeTree()
	ORDER BY (user_id, created_at)`,
}

// CHOutcomeStore implements OutcomeStore backed by ClickHouse.
type CHOutcomeStore struct {
	client *pkgch.Client
	db     *sql.DB
	l      *applogger.Logger
}

func NewCHOutcomeStore(ch *pkgch.Client, l *applogger.Logger) domrepo.OutcomeStore {
	return &CHOutcomeStore{client: ch, db: ch.DB(), l: l}
}

func (s *CHOutcomeStore) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, outcomeSchema)
}

func (s *CHOutcomeStore) Store(ctx context.Context, o *models.AnalysisOutcome) error {
	start := time.Now()
	q := `INSERT INTO ` + outcomesTable + ` (run_id, user_id, asset_id, action, confidence, risk_score,
		compliance_status, success, terminated_reason, error_count, warning_count, execution_time_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	success := uint8(0)
	if o.Success {
		success = 1
	}
	_, err := s.db.ExecContext(ctx, q,
		o.RunID,
		o.UserID,
		o.AssetID,
		o.Action,
		o.Confidence,
		o.RiskScore,
		o.ComplianceStatus,
		success,
		o.TerminatedReason,
		uint32(o.ErrorCount),
		uint32(o.WarningCount),
		o.ExecutionTimeMS,
		o.CreatedAt,
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse store outcome error",
				applogger.String("run_id", o.RunID),
				applogger.String("user_id", o.UserID),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("store outcome: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse store outcome ok",
			applogger.String("run_id", o.RunID),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHOutcomeStore) Recent(ctx context.Context, userID string, limit int) ([]models.AnalysisOutcome, error) {
	q := `SELECT run_id, user_id, asset_id, action, confidence, risk_score,
		compliance_status, success, terminated_reason, error_count, warning_count, execution_time_ms, created_at
		FROM ` + outcomesTable + `
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	out := make([]models.AnalysisOutcome, 0, limit)
	for rows.Next() {
		var o models.AnalysisOutcome
		var success uint8
		var errCount, warnCount uint32
		if err := rows.Scan(&o.RunID, &o.UserID, &o.AssetID, &o.Action, &o.Confidence, &o.RiskScore,
			&o.ComplianceStatus, &success, &o.TerminatedReason, &errCount, &warnCount, &o.ExecutionTimeMS, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Success = success == 1
		o.ErrorCount = int(errCount)
		o.WarningCount = int(warnCount)
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *CHOutcomeStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHOutcomeStore) Close() error {
	return nil // connection pool managed by pkg
}
