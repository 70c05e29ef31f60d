package livedata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/voyago/tripweaver/app/observability/metrics"
	"github.com/voyago/tripweaver/internal/types"
)

// MockWeatherFetcher is a mock implementation of WeatherFetcher
type MockWeatherFetcher struct {
	mock.Mock
}

func (m *MockWeatherFetcher) FetchWeather(ctx context.Context, city string) (string, error) {
	args := m.Called(ctx, city)
	return args.String(0), args.Error(1)
}

// MockPOIFetcher is a mock implementation of POIFetcher
type MockPOIFetcher struct {
	mock.Mock
}

func (m *MockPOIFetcher) FetchPOIs(ctx context.Context, city, preferences string) ([]string, error) {
	args := m.Called(ctx, city, preferences)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockFlightsFetcher is a mock implementation of FlightsFetcher
type MockFlightsFetcher struct {
	mock.Mock
}

func (m *MockFlightsFetcher) FetchFlights(ctx context.Context, destinationIATA string) ([]types.Flight, error) {
	args := m.Called(ctx, destinationIATA)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Flight), args.Error(1)
}

// MockEventsFetcher is a mock implementation of EventsFetcher
type MockEventsFetcher struct {
	mock.Mock
}

func (m *MockEventsFetcher) FetchEvents(ctx context.Context, teams []string) ([]types.Event, error) {
	args := m.Called(ctx, teams)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Event), args.Error(1)
}

// MockCacheRepository is a mock implementation of livecache.Repository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) GetFlights(ctx context.Context, destination, origin string) ([]types.Flight, error) {
	args := m.Called(ctx, destination, origin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Flight), args.Error(1)
}

func (m *MockCacheRepository) SaveFlights(ctx context.Context, destination, origin string, flights []types.Flight) error {
	args := m.Called(ctx, destination, origin, flights)
	return args.Error(0)
}

func (m *MockCacheRepository) GetEvents(ctx context.Context, city, eventType string) ([]types.Event, error) {
	args := m.Called(ctx, city, eventType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Event), args.Error(1)
}

func (m *MockCacheRepository) SaveEvents(ctx context.Context, city, eventType string, events []types.Event) error {
	args := m.Called(ctx, city, eventType, events)
	return args.Error(0)
}

func (m *MockCacheRepository) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type serviceMocks struct {
	weather *MockWeatherFetcher
	pois    *MockPOIFetcher
	flights *MockFlightsFetcher
	events  *MockEventsFetcher
	cache   *MockCacheRepository
}

func setupLiveDataServiceTest() (*ServiceImpl, serviceMocks) {
	metrics.InitAppMetrics()
	m := serviceMocks{
		weather: new(MockWeatherFetcher),
		pois:    new(MockPOIFetcher),
		flights: new(MockFlightsFetcher),
		events:  new(MockEventsFetcher),
		cache:   new(MockCacheRepository),
	}
	service := NewServiceImpl(m.weather, m.pois, m.flights, m.events, m.cache, discardLogger())
	service.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return service, m
}

func TestServiceFetchWeatherFallsBack(t *testing.T) {
	ctx := context.Background()
	service, m := setupLiveDataServiceTest()
	m.weather.On("FetchWeather", mock.Anything, "Barcelona").Return("", errors.New("timeout")).Once()

	assert.Equal(t, WeatherFallback, service.FetchWeather(ctx, "Barcelona"))
	m.weather.AssertExpectations(t)
}

func TestServiceFetchWeatherPassthrough(t *testing.T) {
	ctx := context.Background()
	service, m := setupLiveDataServiceTest()
	m.weather.On("FetchWeather", mock.Anything, "Barcelona").Return("Temp: 18-26°C", nil).Once()

	assert.Equal(t, "Temp: 18-26°C", service.FetchWeather(ctx, "Barcelona"))
}

func TestServiceFetchPOIsFallsBack(t *testing.T) {
	ctx := context.Background()
	service, m := setupLiveDataServiceTest()
	m.pois.On("FetchPOIs", mock.Anything, "Barcelona", "food").Return(nil, errors.New("overpass down")).Once()

	pois := service.FetchPOIs(ctx, "Barcelona", "food")
	assert.Equal(t, POIFallback("Barcelona"), pois)
}

func TestServiceFetchFlightsCacheHit(t *testing.T) {
	ctx := context.Background()
	service, m := setupLiveDataServiceTest()
	cached := []types.Flight{{Airline: "Vueling", FlightNumber: "VY8301"}}
	m.cache.On("GetFlights", mock.Anything, "Barcelona", "").Return(cached, nil).Once()

	flights := service.FetchFlights(ctx, "Barcelona", "")
	assert.Equal(t, cached, flights)
	// No API call, no cache write on a hit.
	m.flights.AssertNotCalled(t, "FetchFlights", mock.Anything, mock.Anything)
	m.cache.AssertNotCalled(t, "SaveFlights", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestServiceFetchFlightsAPIThenPersist(t *testing.T) {
	ctx := context.Background()
	service, m := setupLiveDataServiceTest()
	fetched := []types.Flight{{Airline: "Iberia", FlightNumber: "IB100"}}

	m.cache.On("GetFlights", mock.Anything, "Barcelona", "").Return(nil, nil).Once()
	m.flights.On("FetchFlights", mock.Anything, "BCN").Return(fetched, nil).Once()
	m.cache.On("SaveFlights", mock.Anything, "Barcelona", "", fetched).Return(nil).Once()

	flights := service.FetchFlights(ctx, "Barcelona", "")
	assert.Equal(t, fetched, flights)
	m.cache.AssertExpectations(t)
}

func TestServiceFetchFlightsAPIFailureMocksAndPersists(t *testing.T) {
	ctx := context.Background()
	service, m := setupLiveDataServiceTest()

	m.cache.On("GetFlights", mock.Anything, "Barcelona", "").Return(nil, nil).Once()
	m.flights.On("FetchFlights", mock.Anything, "BCN").Return(nil, errors.New("rate limited")).Once()
	m.cache.On("SaveFlights", mock.Anything, "Barcelona", "", mock.Anything).Return(nil).Once()

	flights := service.FetchFlights(ctx, "Barcelona", "")
	require.NotEmpty(t, flights)
	assert.Equal(t, "Lufthansa", flights[0].Airline)
	m.cache.AssertExpectations(t)
}

func TestServiceFetchFlightsUnmappedCityMocks(t *testing.T) {
	ctx := context.Background()
	service, m := setupLiveDataServiceTest()

	m.cache.On("GetFlights", mock.Anything, "Reykjavik", "").Return(nil, nil).Once()
	m.cache.On("SaveFlights", mock.Anything, "Reykjavik", "", mock.Anything).Return(nil).Once()

	flights := service.FetchFlights(ctx, "Reykjavik", "")
	require.Len(t, flights, 3)
	m.flights.AssertNotCalled(t, "FetchFlights", mock.Anything, mock.Anything)
}

func TestServiceFetchEventsCacheHit(t *testing.T) {
	ctx := context.Background()
	service, m := setupLiveDataServiceTest()
	cached := []types.Event{{Name: "Barcelona vs Espanyol"}}
	m.cache.On("GetEvents", mock.Anything, "Barcelona", "football").Return(cached, nil).Once()

	events := service.FetchEvents(ctx, "Barcelona", "football")
	assert.Equal(t, cached, events)
	m.events.AssertNotCalled(t, "FetchEvents", mock.Anything, mock.Anything)
}

func TestServiceFetchEventsAPIFailureMocksAndPersists(t *testing.T) {
	ctx := context.Background()
	service, m := setupLiveDataServiceTest()

	m.cache.On("GetEvents", mock.Anything, "Barcelona", "football").Return(nil, nil).Once()
	m.events.On("FetchEvents", mock.Anything, []string{"Barcelona", "Espanyol"}).Return(nil, errors.New("quota")).Once()
	m.cache.On("SaveEvents", mock.Anything, "Barcelona", "football", mock.Anything).Return(nil).Once()

	events := service.FetchEvents(ctx, "Barcelona", "football")
	require.NotEmpty(t, events)
	assert.Contains(t, events[0].Name, "Barcelona")
	m.cache.AssertExpectations(t)
}

func TestServiceFetchEventsUnknownCityMocks(t *testing.T) {
	ctx := context.Background()
	service, m := setupLiveDataServiceTest()

	m.cache.On("GetEvents", mock.Anything, "Reykjavik", "football").Return(nil, nil).Once()
	m.cache.On("SaveEvents", mock.Anything, "Reykjavik", "football", mock.Anything).Return(nil).Once()

	events := service.FetchEvents(ctx, "Reykjavik", "football")
	require.Len(t, events, 1)
	assert.Equal(t, "Local Derby in Reykjavik", events[0].Name)
	m.events.AssertNotCalled(t, "FetchEvents", mock.Anything, mock.Anything)
}
