package livedata

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/voyago/tripweaver/app/observability/metrics"
	"github.com/voyago/tripweaver/internal/api/livecache"
	"github.com/voyago/tripweaver/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service is the fail-soft live-data surface consumed by the planner.
// Methods never return errors; a failed lookup degrades to its fallback.
type Service interface {
	FetchWeather(ctx context.Context, city string) string
	FetchPOIs(ctx context.Context, city, preferences string) []string
	FetchFlights(ctx context.Context, destination, origin string) []types.Flight
	FetchEvents(ctx context.Context, city, eventType string) []types.Event
}

// WeatherFetcher resolves a city to a forecast summary.
type WeatherFetcher interface {
	FetchWeather(ctx context.Context, city string) (string, error)
}

// POIFetcher lists named points of interest for a city.
type POIFetcher interface {
	FetchPOIs(ctx context.Context, city, preferences string) ([]string, error)
}

// FlightsFetcher lists scheduled arrivals for an airport code.
type FlightsFetcher interface {
	FetchFlights(ctx context.Context, destinationIATA string) ([]types.Flight, error)
}

// EventsFetcher lists upcoming fixtures for a set of teams.
type EventsFetcher interface {
	FetchEvents(ctx context.Context, teams []string) ([]types.Event, error)
}

// ServiceImpl wires the outbound clients to the TTL cache and converts every
// failure into the branch's fallback value.
type ServiceImpl struct {
	logger  *slog.Logger
	weather WeatherFetcher
	pois    POIFetcher
	flights FlightsFetcher
	events  EventsFetcher
	cache   livecache.Repository
	now     func() time.Time
}

func NewServiceImpl(
	weather WeatherFetcher,
	pois POIFetcher,
	flights FlightsFetcher,
	events EventsFetcher,
	cache livecache.Repository,
	logger *slog.Logger,
) *ServiceImpl {
	return &ServiceImpl{
		logger:  logger,
		weather: weather,
		pois:    pois,
		flights: flights,
		events:  events,
		cache:   cache,
		now:     time.Now,
	}
}

// FetchWeather returns the forecast summary, or the fallback string when the
// lookup fails.
func (s *ServiceImpl) FetchWeather(ctx context.Context, city string) string {
	ctx, span := otel.Tracer("LiveDataService").Start(ctx, "FetchWeather", trace.WithAttributes(
		attribute.String("city", city),
	))
	defer span.End()

	summary, err := s.weather.FetchWeather(ctx, city)
	if err != nil {
		s.recordBranchFailure(ctx, span, "weather", err)
		return WeatherFallback
	}

	span.SetStatus(codes.Ok, "Weather fetched")
	return summary
}

// FetchPOIs returns named points of interest, or the generic place list when
// the lookup fails or finds nothing.
func (s *ServiceImpl) FetchPOIs(ctx context.Context, city, preferences string) []string {
	ctx, span := otel.Tracer("LiveDataService").Start(ctx, "FetchPOIs", trace.WithAttributes(
		attribute.String("city", city),
	))
	defer span.End()

	names, err := s.pois.FetchPOIs(ctx, city, preferences)
	if err != nil {
		s.recordBranchFailure(ctx, span, "poi", err)
		return POIFallback(city)
	}

	span.SetStatus(codes.Ok, "POIs fetched")
	return names
}

// FetchFlights serves flights read-through: fresh cache batch first, then the
// live API, then mocks. Whatever was fetched or mocked is persisted so
// repeated failures do not re-fetch within the TTL window.
func (s *ServiceImpl) FetchFlights(ctx context.Context, destination, origin string) []types.Flight {
	ctx, span := otel.Tracer("LiveDataService").Start(ctx, "FetchFlights", trace.WithAttributes(
		attribute.String("destination", destination),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "FetchFlights"))

	cached, err := s.cache.GetFlights(ctx, destination, origin)
	if err != nil {
		l.WarnContext(ctx, "Flight cache read failed", slog.Any("error", err))
	}
	if len(cached) > 0 {
		metrics.Get().CacheHitsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "flights")))
		span.SetStatus(codes.Ok, "Served from cache")
		return cached
	}
	metrics.Get().CacheMissesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "flights")))

	iata, ok := CityToIATA(destination)
	if !ok {
		l.DebugContext(ctx, "No airport code for destination", slog.String("destination", destination))
		return s.persistFlights(ctx, span, destination, origin, MockFlights(s.now()))
	}

	flights, err := s.flights.FetchFlights(ctx, iata)
	if err != nil {
		s.recordBranchFailure(ctx, span, "flights", err)
		return s.persistFlights(ctx, span, destination, origin, MockFlights(s.now()))
	}

	return s.persistFlights(ctx, span, destination, origin, flights)
}

// FetchEvents serves events read-through with the same cache-api-mock ladder
// as flights.
func (s *ServiceImpl) FetchEvents(ctx context.Context, city, eventType string) []types.Event {
	ctx, span := otel.Tracer("LiveDataService").Start(ctx, "FetchEvents", trace.WithAttributes(
		attribute.String("city", city),
		attribute.String("event_type", eventType),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "FetchEvents"))

	cached, err := s.cache.GetEvents(ctx, city, eventType)
	if err != nil {
		l.WarnContext(ctx, "Event cache read failed", slog.Any("error", err))
	}
	if len(cached) > 0 {
		metrics.Get().CacheHitsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "events")))
		span.SetStatus(codes.Ok, "Served from cache")
		return cached
	}
	metrics.Get().CacheMissesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "events")))

	teams, known := CityTeams(city)
	if eventType != "football" || !known {
		l.DebugContext(ctx, "No fixture source for city", slog.String("city", city))
		return s.persistEvents(ctx, span, city, eventType, MockEvents(city, eventType, s.now()))
	}

	events, err := s.events.FetchEvents(ctx, teams)
	if err != nil {
		s.recordBranchFailure(ctx, span, "events", err)
		return s.persistEvents(ctx, span, city, eventType, MockEvents(city, eventType, s.now()))
	}

	return s.persistEvents(ctx, span, city, eventType, events)
}

func (s *ServiceImpl) persistFlights(ctx context.Context, span trace.Span, destination, origin string, flights []types.Flight) []types.Flight {
	if err := s.cache.SaveFlights(ctx, destination, origin, flights); err != nil {
		s.logger.WarnContext(ctx, "Flight cache write failed", slog.Any("error", err))
	}
	span.SetStatus(codes.Ok, "Flights resolved")
	return flights
}

func (s *ServiceImpl) persistEvents(ctx context.Context, span trace.Span, city, eventType string, events []types.Event) []types.Event {
	if err := s.cache.SaveEvents(ctx, city, eventType, events); err != nil {
		s.logger.WarnContext(ctx, "Event cache write failed", slog.Any("error", err))
	}
	span.SetStatus(codes.Ok, "Events resolved")
	return events
}

func (s *ServiceImpl) recordBranchFailure(ctx context.Context, span trace.Span, branch string, err error) {
	s.logger.WarnContext(ctx, "Live-data branch fell back",
		slog.String("branch", branch), slog.Any("error", err))
	span.RecordError(err)
	span.SetStatus(codes.Error, "Branch fell back")
	metrics.Get().FetchBranchFailuresTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("branch", branch),
	))
}
