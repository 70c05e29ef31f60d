package planner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/voyago/tripweaver/app/observability/metrics"
	"github.com/voyago/tripweaver/internal/api/livedata"
	"github.com/voyago/tripweaver/internal/types"
)

// MockKnowledgeService is a mock implementation of knowledge.Service
type MockKnowledgeService struct {
	mock.Mock
}

func (m *MockKnowledgeService) Retrieve(ctx context.Context, query string, k int, scoreThreshold float64) ([]string, []string, error) {
	args := m.Called(ctx, query, k, scoreThreshold)
	var passages, sources []string
	if args.Get(0) != nil {
		passages = args.Get(0).([]string)
	}
	if args.Get(1) != nil {
		sources = args.Get(1).([]string)
	}
	return passages, sources, args.Error(2)
}

// MockLiveDataService is a mock implementation of livedata.Service
type MockLiveDataService struct {
	mock.Mock
}

func (m *MockLiveDataService) FetchWeather(ctx context.Context, city string) string {
	args := m.Called(ctx, city)
	return args.String(0)
}

func (m *MockLiveDataService) FetchPOIs(ctx context.Context, city, preferences string) []string {
	args := m.Called(ctx, city, preferences)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

func (m *MockLiveDataService) FetchFlights(ctx context.Context, destination, origin string) []types.Flight {
	args := m.Called(ctx, destination, origin)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]types.Flight)
}

func (m *MockLiveDataService) FetchEvents(ctx context.Context, city, eventType string) []types.Event {
	args := m.Called(ctx, city, eventType)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]types.Event)
}

// MockContentGenerator is a mock implementation of ContentGenerator
type MockContentGenerator struct {
	mock.Mock
}

func (m *MockContentGenerator) GenerateContent(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt)
	return args.String(0), args.Error(1)
}

func setupPlannerServiceTest() (*ServiceImpl, *MockKnowledgeService, *MockLiveDataService, *MockContentGenerator) {
	metrics.InitAppMetrics()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockKnowledge := new(MockKnowledgeService)
	mockLiveData := new(MockLiveDataService)
	mockGenerator := new(MockContentGenerator)
	service := NewServiceImpl(mockKnowledge, mockLiveData, mockGenerator, 3, 0.3, logger)
	return service, mockKnowledge, mockLiveData, mockGenerator
}

func TestPlanTripBarcelonaEndToEnd(t *testing.T) {
	service, mockKnowledge, mockLiveData, mockGenerator := setupPlannerServiceTest()
	ctx := context.Background()

	mockKnowledge.On("Retrieve", mock.Anything, "Barcelona food, art", 3, 0.3).
		Return([]string{"El Born is the tapas quarter."}, []string{"barcelona.md"}, nil).Once()
	mockLiveData.On("FetchWeather", mock.Anything, "Barcelona").Return("Sunny, 20-25°C").Once()
	mockLiveData.On("FetchPOIs", mock.Anything, "Barcelona", "food, art").
		Return([]string{"Sagrada Familia", "Park Güell"}).Once()
	mockGenerator.On("GenerateContent", mock.Anything, systemPrompt, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "Sagrada Familia") && strings.Contains(prompt, "El Born")
	})).Return("## Day 1: Gaudí's Dreamworld\nStart at the Sagrada Familia before the crowds.", nil).Once()

	plan := service.PlanTrip(ctx, types.PlanRequest{
		City: "Barcelona", Days: 3, Preferences: "food, art",
	})

	require.NotNil(t, plan)
	assert.Contains(t, plan.Summary, "Sagrada Familia")
	assert.Equal(t, []string{"barcelona.md"}, plan.Sources)
	assert.Equal(t, 0.9, plan.Confidence)
	assert.Equal(t, "Sunny, 20-25°C", plan.Weather)
	mockGenerator.AssertExpectations(t)
	// Plan intent: neither flights nor events branch runs.
	mockLiveData.AssertNotCalled(t, "FetchFlights", mock.Anything, mock.Anything, mock.Anything)
	mockLiveData.AssertNotCalled(t, "FetchEvents", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlanTripNoContextLowersConfidence(t *testing.T) {
	service, mockKnowledge, mockLiveData, mockGenerator := setupPlannerServiceTest()

	mockKnowledge.On("Retrieve", mock.Anything, mock.Anything, 3, 0.3).
		Return([]string{}, []string{}, nil).Once()
	mockLiveData.On("FetchWeather", mock.Anything, "Reykjavik").Return(livedata.WeatherFallback).Once()
	mockLiveData.On("FetchPOIs", mock.Anything, "Reykjavik", "").
		Return(livedata.POIFallback("Reykjavik")).Once()
	mockGenerator.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).
		Return("A fine northern itinerary.", nil).Once()

	plan := service.PlanTrip(context.Background(), types.PlanRequest{City: "Reykjavik", Days: 2})
	assert.Equal(t, 0.75, plan.Confidence)
}

func TestPlanTripSynthesisFailureFallsBack(t *testing.T) {
	service, mockKnowledge, mockLiveData, mockGenerator := setupPlannerServiceTest()

	mockKnowledge.On("Retrieve", mock.Anything, mock.Anything, 3, 0.3).
		Return([]string{"Context."}, []string{"rome.md"}, nil).Once()
	mockLiveData.On("FetchWeather", mock.Anything, "Rome").Return("Temp: 18-27°C").Once()
	mockLiveData.On("FetchPOIs", mock.Anything, "Rome", "").
		Return([]string{"Colosseum", "Pantheon", "Trevi Fountain", "Trastevere"}).Once()
	mockGenerator.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("model timeout")).Once()

	plan := service.PlanTrip(context.Background(), types.PlanRequest{City: "Rome", Days: 2})

	assert.Equal(t, 0.5, plan.Confidence)
	assert.NotEmpty(t, plan.Summary)
	assert.Contains(t, plan.Summary, "Colosseum")
	assert.Contains(t, plan.Summary, "Temp: 18-27°C")
}

func TestPlanTripKnowledgeFailureDoesNotAbort(t *testing.T) {
	service, mockKnowledge, mockLiveData, mockGenerator := setupPlannerServiceTest()

	mockKnowledge.On("Retrieve", mock.Anything, mock.Anything, 3, 0.3).
		Return(nil, nil, errors.New("index offline")).Once()
	mockLiveData.On("FetchWeather", mock.Anything, "Lisbon").Return("Temp: 16-24°C").Once()
	mockLiveData.On("FetchPOIs", mock.Anything, "Lisbon", "").
		Return([]string{"Belém Tower"}).Once()
	mockGenerator.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).
		Return("Lisbon plan.", nil).Once()

	plan := service.PlanTrip(context.Background(), types.PlanRequest{City: "Lisbon", Days: 1})

	assert.Equal(t, 0.75, plan.Confidence)
	assert.Empty(t, plan.Sources)
	assert.Equal(t, "Lisbon plan.", plan.Summary)
}

func TestPlanTripBookIntentFetchesFlights(t *testing.T) {
	service, mockKnowledge, mockLiveData, mockGenerator := setupPlannerServiceTest()

	price := 289.0
	mockKnowledge.On("Retrieve", mock.Anything, mock.Anything, 3, 0.3).
		Return([]string{}, []string{}, nil).Once()
	mockLiveData.On("FetchWeather", mock.Anything, "Barcelona").Return("Sunny").Once()
	mockLiveData.On("FetchPOIs", mock.Anything, "Barcelona", "").Return([]string{"Sagrada Familia"}).Once()
	mockLiveData.On("FetchFlights", mock.Anything, "Barcelona", "").
		Return([]types.Flight{{Airline: "Lufthansa", FlightNumber: "LH1234", Price: &price}}).Once()
	mockGenerator.On("GenerateContent", mock.Anything, mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "AVAILABLE FLIGHTS") && strings.Contains(prompt, "Lufthansa")
	})).Return("Here are your options.", nil).Once()

	service.PlanTrip(context.Background(), types.PlanRequest{
		City: "Barcelona", Days: 3, Query: "book me a flight",
	})

	mockLiveData.AssertExpectations(t)
	mockGenerator.AssertExpectations(t)
}

func TestPlanTripEventsIntentFetchesEvents(t *testing.T) {
	service, mockKnowledge, mockLiveData, mockGenerator := setupPlannerServiceTest()

	mockKnowledge.On("Retrieve", mock.Anything, mock.Anything, 3, 0.3).
		Return([]string{}, []string{}, nil).Once()
	mockLiveData.On("FetchWeather", mock.Anything, "Barcelona").Return("Sunny").Once()
	mockLiveData.On("FetchPOIs", mock.Anything, "Barcelona", "").Return([]string{"Camp Nou"}).Once()
	mockLiveData.On("FetchEvents", mock.Anything, "Barcelona", "football").
		Return([]types.Event{{Name: "Barcelona vs Espanyol", Venue: "Camp Nou", League: "La Liga"}}).Once()
	mockGenerator.On("GenerateContent", mock.Anything, mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "UPCOMING EVENTS") && strings.Contains(prompt, "Barcelona vs Espanyol")
	})).Return("Match weekend it is.", nil).Once()

	service.PlanTrip(context.Background(), types.PlanRequest{
		City: "Barcelona", Days: 2, Query: "any concerts this weekend?",
	})

	mockLiveData.AssertExpectations(t)
	mockGenerator.AssertExpectations(t)
}

func TestPlanTripBranchesRunConcurrently(t *testing.T) {
	service, mockKnowledge, mockLiveData, mockGenerator := setupPlannerServiceTest()

	delay := 150 * time.Millisecond
	mockKnowledge.On("Retrieve", mock.Anything, mock.Anything, 3, 0.3).
		Return([]string{}, []string{}, nil).Once()
	mockLiveData.On("FetchWeather", mock.Anything, "Barcelona").Return("Sunny").Once()
	mockLiveData.On("FetchPOIs", mock.Anything, "Barcelona", "").
		Run(func(args mock.Arguments) { time.Sleep(delay) }).
		Return([]string{"Sagrada Familia"}).Once()
	mockGenerator.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).
		Return("Plan.", nil).Once()

	start := time.Now()
	service.PlanTrip(context.Background(), types.PlanRequest{City: "Barcelona", Days: 1})
	elapsed := time.Since(start)

	// Join latency tracks the slowest branch, not the sum of all branches.
	assert.Less(t, elapsed, 2*delay)
	assert.GreaterOrEqual(t, elapsed, delay)
}

func TestPlanTripDefaultsDays(t *testing.T) {
	service, mockKnowledge, mockLiveData, mockGenerator := setupPlannerServiceTest()

	mockKnowledge.On("Retrieve", mock.Anything, mock.Anything, 3, 0.3).
		Return([]string{}, []string{}, nil).Once()
	mockLiveData.On("FetchWeather", mock.Anything, "Porto").Return("Sunny").Once()
	mockLiveData.On("FetchPOIs", mock.Anything, "Porto", "").Return([]string{"Ribeira"}).Once()
	mockGenerator.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).
		Return("Porto plan.", nil).Once()

	plan := service.PlanTrip(context.Background(), types.PlanRequest{City: "Porto"})
	assert.Equal(t, defaultDays, plan.Days)
}
