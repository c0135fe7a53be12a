package city

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/pogodnik/pogodnik/app/observability/metrics"
	"github.com/pogodnik/pogodnik/internal/types"
)

var _ SearchLedgerRepo = (*PostgresSearchLedger)(nil)

// SearchLedgerRepo defines the contract for search-ledger persistence.
type SearchLedgerRepo interface {
	// GetOrCreateCity returns the city row for a normalized name, inserting
	// it first when the name was never searched. Idempotent on name.
	GetOrCreateCity(ctx context.Context, name string) (*types.City, error)
	// RecordVisit upserts the city's ledger entry: count starts at 1 and is
	// incremented on every later visit, last_visited always moves forward.
	RecordVisit(ctx context.Context, cityID uuid.UUID) (*types.SearchHistoryEntry, error)
	// RecordSearch runs GetOrCreateCity plus RecordVisit inside a single
	// transaction, leaving the store unchanged if either step fails.
	RecordSearch(ctx context.Context, name string) (*types.SearchHistoryEntry, error)
	// CitiesByPrefix returns up to limit city names matching the prefix
	// case-insensitively. A zero-length prefix issues no query at all.
	CitiesByPrefix(ctx context.Context, prefix string, limit int) ([]string, error)
	// AllStats joins every searched city with its ledger entry.
	AllStats(ctx context.Context) ([]types.CitySearchStat, error)
}

// PGXPool is the subset of *pgxpool.Pool the ledger uses. pgxmock provides
// the same surface for repository tests.
type PGXPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresSearchLedger struct {
	logger *slog.Logger
	db     PGXPool
}

func NewPostgresSearchLedger(db PGXPool, logger *slog.Logger) *PostgresSearchLedger {
	return &PostgresSearchLedger{
		logger: logger,
		db:     db,
	}
}

const (
	insertCityQuery = `INSERT INTO cities (name) VALUES ($1) ON CONFLICT (name) DO NOTHING RETURNING id`
	selectCityQuery = `SELECT id, name FROM cities WHERE name = $1`

	upsertVisitQuery = `
        INSERT INTO search_history (city_id, count, last_visited)
        VALUES ($1, 1, $2)
        ON CONFLICT (city_id) DO UPDATE
        SET count = search_history.count + 1, last_visited = EXCLUDED.last_visited
        RETURNING id, city_id, count, last_visited`

	citiesByPrefixQuery = `SELECT name FROM cities WHERE name ILIKE $1 LIMIT $2`

	allStatsQuery = `
        SELECT c.name, sh.count, sh.last_visited
        FROM cities c
        JOIN search_history sh ON sh.city_id = c.id`
)

func (r *PostgresSearchLedger) GetOrCreateCity(ctx context.Context, name string) (*types.City, error) {
	ctx, span := otel.Tracer("SearchLedgerRepo").Start(ctx, "GetOrCreateCity", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "cities"),
		attribute.String("city.name", name),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "GetOrCreateCity"), slog.String("city", name))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	city, err := r.getOrCreateCityTx(ctx, tx, name)
	if err != nil {
		l.ErrorContext(ctx, "Failed to get or create city", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		countDBError(ctx)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		countDBError(ctx)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return city, nil
}

func (r *PostgresSearchLedger) RecordVisit(ctx context.Context, cityID uuid.UUID) (*types.SearchHistoryEntry, error) {
	ctx, span := otel.Tracer("SearchLedgerRepo").Start(ctx, "RecordVisit", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "search_history"),
		attribute.String("city.id", cityID.String()),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "RecordVisit"), slog.String("cityID", cityID.String()))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	entry, err := r.recordVisitTx(ctx, tx, cityID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to record visit", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		countDBError(ctx)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		countDBError(ctx)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return entry, nil
}

func (r *PostgresSearchLedger) RecordSearch(ctx context.Context, name string) (*types.SearchHistoryEntry, error) {
	ctx, span := otel.Tracer("SearchLedgerRepo").Start(ctx, "RecordSearch", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("city.name", name),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "RecordSearch"), slog.String("city", name))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	city, err := r.getOrCreateCityTx(ctx, tx, name)
	if err != nil {
		l.ErrorContext(ctx, "Failed to get or create city", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		countDBError(ctx)
		return nil, err
	}

	entry, err := r.recordVisitTx(ctx, tx, city.ID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to record visit", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		countDBError(ctx)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		countDBError(ctx)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	l.DebugContext(ctx, "Search recorded", slog.Int("count", entry.Count))
	return entry, nil
}

// getOrCreateCityTx inserts the city and falls back to a read when the insert
// loses to the unique constraint on name. Never check-then-insert.
func (r *PostgresSearchLedger) getOrCreateCityTx(ctx context.Context, tx pgx.Tx, name string) (*types.City, error) {
	city := types.City{Name: name}
	err := tx.QueryRow(ctx, insertCityQuery, name).Scan(&city.ID)
	if err == nil {
		return &city, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to insert city: %w", err)
	}

	// ON CONFLICT DO NOTHING returned no row, so the city already exists.
	if err := tx.QueryRow(ctx, selectCityQuery, name).Scan(&city.ID, &city.Name); err != nil {
		return nil, fmt.Errorf("failed to read existing city: %w", err)
	}
	return &city, nil
}

func (r *PostgresSearchLedger) recordVisitTx(ctx context.Context, tx pgx.Tx, cityID uuid.UUID) (*types.SearchHistoryEntry, error) {
	var entry types.SearchHistoryEntry
	err := tx.QueryRow(ctx, upsertVisitQuery, cityID, time.Now().UTC()).Scan(
		&entry.ID, &entry.CityID, &entry.Count, &entry.LastVisited,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert search history: %w", err)
	}
	return &entry, nil
}

func (r *PostgresSearchLedger) CitiesByPrefix(ctx context.Context, prefix string, limit int) ([]string, error) {
	ctx, span := otel.Tracer("SearchLedgerRepo").Start(ctx, "CitiesByPrefix", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "cities"),
		attribute.String("city.prefix", prefix),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "CitiesByPrefix"), slog.String("prefix", prefix))

	// Zero-length prefix matches everything; return immediately without a query.
	if prefix == "" {
		return []string{}, nil
	}

	rows, err := r.db.Query(ctx, citiesByPrefixQuery, prefix+"%", limit)
	if err != nil {
		l.ErrorContext(ctx, "Failed to query cities by prefix", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		countDBError(ctx)
		return nil, fmt.Errorf("database error fetching cities by prefix: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			span.RecordError(err)
			countDBError(ctx)
			return nil, fmt.Errorf("database error scanning city name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		countDBError(ctx)
		return nil, fmt.Errorf("database error reading city names: %w", err)
	}

	l.DebugContext(ctx, "Cities fetched by prefix", slog.Int("count", len(names)))
	return names, nil
}

func (r *PostgresSearchLedger) AllStats(ctx context.Context) ([]types.CitySearchStat, error) {
	ctx, span := otel.Tracer("SearchLedgerRepo").Start(ctx, "AllStats", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "search_history"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "AllStats"))

	rows, err := r.db.Query(ctx, allStatsQuery)
	if err != nil {
		l.ErrorContext(ctx, "Failed to query search stats", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		countDBError(ctx)
		return nil, fmt.Errorf("database error fetching search stats: %w", err)
	}
	defer rows.Close()

	var stats []types.CitySearchStat
	for rows.Next() {
		var s types.CitySearchStat
		if err := rows.Scan(&s.City, &s.Count, &s.LastVisited); err != nil {
			span.RecordError(err)
			countDBError(ctx)
			return nil, fmt.Errorf("database error scanning search stat: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		countDBError(ctx)
		return nil, fmt.Errorf("database error reading search stats: %w", err)
	}

	l.DebugContext(ctx, "Search stats fetched", slog.Int("count", len(stats)))
	return stats, nil
}

func countDBError(ctx context.Context) {
	if m := metrics.Get(); m != nil {
		m.DbQueryErrorsTotal.Add(ctx, 1)
	}
}
