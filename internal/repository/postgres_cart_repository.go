package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// postgresCartRepository implements CartRepository on the cart_lines table.
type postgresCartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresCartRepository creates a PostgreSQL-backed cart store.
func NewPostgresCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &postgresCartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart_postgres").Logger(),
	}
}

func (r *postgresCartRepository) Load(ctx context.Context, sessionID string) ([]model.CartLine, error) {
	query := `
		SELECT product_id, name, image, unit_price::text, quantity
		FROM cart_lines
		WHERE session_id = $1
		ORDER BY position
	`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		r.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to query cart lines")
		return nil, fmt.Errorf("failed to query cart lines: %w", err)
	}
	defer rows.Close()

	var lines []model.CartLine
	for rows.Next() {
		var (
			line  model.CartLine
			price string
		)
		if err := rows.Scan(&line.ProductID, &line.Name, &line.Image, &price, &line.Quantity); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan cart line row")
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		line.UnitPrice, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("invalid unit price %q for product %s: %w", price, line.ProductID, err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating cart line rows")
		return nil, fmt.Errorf("error iterating cart lines: %w", err)
	}

	return lines, nil
}

// Save replaces the session's lines in one transaction: the old rows are
// deleted and the new ones inserted as a batch.
func (r *postgresCartRepository) Save(ctx context.Context, sessionID string, lines []model.CartLine) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				r.logger.Error().Err(rbErr).Msg("failed to roll back cart save")
			}
		}
	}()

	if _, err = tx.Exec(ctx, `DELETE FROM cart_lines WHERE session_id = $1`, sessionID); err != nil {
		r.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to clear cart lines")
		return fmt.Errorf("failed to clear cart lines: %w", err)
	}

	if err = r.insertLines(ctx, tx, sessionID, lines); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to commit cart save")
		return fmt.Errorf("failed to commit cart: %w", err)
	}

	r.logger.Debug().
		Str("session_id", sessionID).
		Int("lines", len(lines)).
		Msg("cart saved")

	return nil
}

func (r *postgresCartRepository) insertLines(ctx context.Context, tx pgx.Tx, sessionID string, lines []model.CartLine) error {
	if len(lines) == 0 {
		return nil
	}

	query := `
		INSERT INTO cart_lines (session_id, product_id, position, name, image, unit_price, quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, NOW())
	`

	batch := &pgx.Batch{}
	for i, l := range lines {
		batch.Queue(query, sessionID, l.ProductID, i, l.Name, l.Image, l.UnitPrice.String(), l.Quantity)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := range lines {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("session_id", sessionID).
				Str("product_id", lines[i].ProductID).
				Msg("failed to insert cart line")
			return fmt.Errorf("failed to insert cart line: %w", err)
		}
	}
	return nil
}

func (r *postgresCartRepository) Delete(ctx context.Context, sessionID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM cart_lines WHERE session_id = $1`, sessionID); err != nil {
		r.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to delete cart")
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}
