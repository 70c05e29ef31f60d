package livecache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/voyago/tripweaver/internal/types"
)

// Default TTLs for the two cached entity kinds.
const (
	DefaultFlightsTTL = time.Hour
	DefaultEventsTTL  = 2 * time.Hour
)

var _ Repository = (*PostgresRepository)(nil)

// Repository is the TTL cache over live flight and event lookups.
// Get returns empty unless a batch exists for the key and is within TTL;
// Save replaces the whole batch for the key.
type Repository interface {
	GetFlights(ctx context.Context, destination, origin string) ([]types.Flight, error)
	SaveFlights(ctx context.Context, destination, origin string, flights []types.Flight) error
	GetEvents(ctx context.Context, city, eventType string) ([]types.Event, error)
	SaveEvents(ctx context.Context, city, eventType string, events []types.Event) error
	Clear(ctx context.Context) error
}

// PGXQuerier is the slice of pgxpool.Pool the repository needs; satisfied by
// pgxmock in tests.
type PGXQuerier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepository struct {
	logger     *slog.Logger
	db         PGXQuerier
	flightsTTL time.Duration
	eventsTTL  time.Duration
	now        func() time.Time
}

func NewPostgresRepository(db PGXQuerier, flightsTTL, eventsTTL time.Duration, logger *slog.Logger) *PostgresRepository {
	if flightsTTL <= 0 {
		flightsTTL = DefaultFlightsTTL
	}
	if eventsTTL <= 0 {
		eventsTTL = DefaultEventsTTL
	}
	return &PostgresRepository{
		logger:     logger,
		db:         db,
		flightsTTL: flightsTTL,
		eventsTTL:  eventsTTL,
		now:        time.Now,
	}
}

// WithClock overrides the wall clock used for TTL checks.
func (r *PostgresRepository) WithClock(now func() time.Time) *PostgresRepository {
	r.now = now
	return r
}

// GetFlights returns the cached batch for (destination, origin), or empty if
// missing or stale.
func (r *PostgresRepository) GetFlights(ctx context.Context, destination, origin string) ([]types.Flight, error) {
	ctx, span := otel.Tracer("LiveCacheRepository").Start(ctx, "GetFlights", trace.WithAttributes(
		attribute.String("destination", destination),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "GetFlights"))

	query := `
        SELECT airline, flight_number, origin, departure_time, arrival_time, price, currency, fetched_at
        FROM flights
        WHERE destination = $1 AND origin_key = $2
        ORDER BY departure_time
    `
	rows, err := r.db.Query(ctx, query, strings.ToLower(destination), strings.ToLower(origin))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database query failed")
		return nil, fmt.Errorf("failed to query cached flights: %w", err)
	}
	defer rows.Close()

	var flights []types.Flight
	var fetchedAt time.Time
	for rows.Next() {
		var f types.Flight
		if err := rows.Scan(&f.Airline, &f.FlightNumber, &f.Origin, &f.DepartureTime, &f.ArrivalTime, &f.Price, &f.Currency, &fetchedAt); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan cached flight: %w", err)
		}
		flights = append(flights, f)
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating cached flights: %w", err)
	}

	if len(flights) == 0 {
		span.SetStatus(codes.Ok, "Cache miss")
		return nil, nil
	}
	if r.now().Sub(fetchedAt) >= r.flightsTTL {
		l.DebugContext(ctx, "Cached flights expired", slog.Time("fetched_at", fetchedAt))
		span.SetStatus(codes.Ok, "Cache stale")
		return nil, nil
	}

	span.SetStatus(codes.Ok, "Cache hit")
	return flights, nil
}

// SaveFlights replaces the batch for (destination, origin) with a fresh one.
func (r *PostgresRepository) SaveFlights(ctx context.Context, destination, origin string, flights []types.Flight) error {
	ctx, span := otel.Tracer("LiveCacheRepository").Start(ctx, "SaveFlights", trace.WithAttributes(
		attribute.String("destination", destination),
		attribute.Int("count", len(flights)),
	))
	defer span.End()

	dest := strings.ToLower(destination)
	originKey := strings.ToLower(origin)

	if _, err := r.db.Exec(ctx,
		`DELETE FROM flights WHERE destination = $1 AND origin_key = $2`, dest, originKey,
	); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Delete failed")
		return fmt.Errorf("failed to clear cached flights: %w", err)
	}

	fetchedAt := r.now()
	insert := `
        INSERT INTO flights (destination, origin_key, airline, flight_number, origin, departure_time, arrival_time, price, currency, fetched_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (destination, origin_key, flight_number, departure_time) DO NOTHING
    `
	for _, f := range flights {
		if _, err := r.db.Exec(ctx, insert,
			dest, originKey, f.Airline, f.FlightNumber, f.Origin, f.DepartureTime, f.ArrivalTime, f.Price, f.Currency, fetchedAt,
		); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Insert failed")
			return fmt.Errorf("failed to insert cached flight: %w", err)
		}
	}

	span.SetStatus(codes.Ok, "Flights cached")
	return nil
}

// GetEvents returns the cached batch for (city, eventType), or empty if
// missing or stale.
func (r *PostgresRepository) GetEvents(ctx context.Context, city, eventType string) ([]types.Event, error) {
	ctx, span := otel.Tracer("LiveCacheRepository").Start(ctx, "GetEvents", trace.WithAttributes(
		attribute.String("city", city),
		attribute.String("event_type", eventType),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "GetEvents"))

	query := `
        SELECT name, venue, event_date, teams, league, fetched_at
        FROM events
        WHERE city = $1 AND event_type = $2
        ORDER BY event_date
    `
	rows, err := r.db.Query(ctx, query, strings.ToLower(city), strings.ToLower(eventType))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database query failed")
		return nil, fmt.Errorf("failed to query cached events: %w", err)
	}
	defer rows.Close()

	var events []types.Event
	var fetchedAt time.Time
	for rows.Next() {
		var e types.Event
		if err := rows.Scan(&e.Name, &e.Venue, &e.Date, &e.Teams, &e.League, &fetchedAt); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan cached event: %w", err)
		}
		events = append(events, e)
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating cached events: %w", err)
	}

	if len(events) == 0 {
		span.SetStatus(codes.Ok, "Cache miss")
		return nil, nil
	}
	if r.now().Sub(fetchedAt) >= r.eventsTTL {
		l.DebugContext(ctx, "Cached events expired", slog.Time("fetched_at", fetchedAt))
		span.SetStatus(codes.Ok, "Cache stale")
		return nil, nil
	}

	span.SetStatus(codes.Ok, "Cache hit")
	return events, nil
}

// SaveEvents replaces the batch for (city, eventType) with a fresh one.
func (r *PostgresRepository) SaveEvents(ctx context.Context, city, eventType string, events []types.Event) error {
	ctx, span := otel.Tracer("LiveCacheRepository").Start(ctx, "SaveEvents", trace.WithAttributes(
		attribute.String("city", city),
		attribute.Int("count", len(events)),
	))
	defer span.End()

	cityKey := strings.ToLower(city)
	typeKey := strings.ToLower(eventType)

	if _, err := r.db.Exec(ctx,
		`DELETE FROM events WHERE city = $1 AND event_type = $2`, cityKey, typeKey,
	); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Delete failed")
		return fmt.Errorf("failed to clear cached events: %w", err)
	}

	fetchedAt := r.now()
	insert := `
        INSERT INTO events (city, event_type, name, venue, event_date, teams, league, fetched_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (city, event_type, name, event_date) DO NOTHING
    `
	for _, e := range events {
		if _, err := r.db.Exec(ctx, insert,
			cityKey, typeKey, e.Name, e.Venue, e.Date, e.Teams, e.League, fetchedAt,
		); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Insert failed")
			return fmt.Errorf("failed to insert cached event: %w", err)
		}
	}

	span.SetStatus(codes.Ok, "Events cached")
	return nil
}

// Clear wipes both cache tables.
func (r *PostgresRepository) Clear(ctx context.Context) error {
	ctx, span := otel.Tracer("LiveCacheRepository").Start(ctx, "Clear")
	defer span.End()

	if _, err := r.db.Exec(ctx, `DELETE FROM flights`); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to clear flights cache: %w", err)
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM events`); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to clear events cache: %w", err)
	}

	span.SetStatus(codes.Ok, "Cache cleared")
	return nil
}
