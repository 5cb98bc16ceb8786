package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"loanquote/internal/models"
)

const lenderConfigSchema = `
	CREATE TABLE IF NOT EXISTS lender_configs (
		bank_name  TEXT PRIMARY KEY,
		document   JSONB NOT NULL,
		enabled    BOOLEAN NOT NULL DEFAULT TRUE,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

// PostgresRepository reads lender documents from the lender_configs table.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	opts   options
}

// NewPostgresRepository creates a new Postgres-backed repository.
func NewPostgresRepository(pool *pgxpool.Pool, logger *zap.Logger, opts ...Option) *PostgresRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresRepository{pool: pool, logger: logger, opts: buildOptions(opts)}
}

// EnsureSchema creates the lender_configs table if it is missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, lenderConfigSchema); err != nil {
		return fmt.Errorf("create lender_configs: %w", err)
	}
	return nil
}

// ListConfigs returns every enabled lender ordered by bank name. Rows whose
// document does not decode are skipped.
func (r *PostgresRepository) ListConfigs(ctx context.Context) ([]models.LenderConfig, error) {
	query := `
		SELECT bank_name, document
		FROM lender_configs
		WHERE enabled
		ORDER BY bank_name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query lender configs: %w", err)
	}
	defer rows.Close()

	configs := []models.LenderConfig{}
	for rows.Next() {
		cfg, err := r.scan(rows)
		if err != nil {
			r.logger.Warn("skipping lender config", zap.Error(err))
			r.opts.failed()
			continue
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lender configs: %w", err)
	}

	return configs, nil
}

func (r *PostgresRepository) scan(row pgx.Row) (models.LenderConfig, error) {
	var bankName string
	var document []byte
	if err := row.Scan(&bankName, &document); err != nil {
		return models.LenderConfig{}, fmt.Errorf("scan lender config: %w", err)
	}

	cfg, err := decode(document, FormatJSON)
	if err != nil {
		return models.LenderConfig{}, fmt.Errorf("lender %s: %w", bankName, err)
	}
	if cfg.BankName == "" {
		cfg.BankName = bankName
	}
	if err := cfg.Validate(); err != nil {
		return models.LenderConfig{}, fmt.Errorf("lender %s: validate: %w", bankName, err)
	}
	return cfg, nil
}
