package planner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/voyago/tripweaver/app/observability/metrics"
	"github.com/voyago/tripweaver/internal/api/intent"
	"github.com/voyago/tripweaver/internal/api/knowledge"
	"github.com/voyago/tripweaver/internal/api/livedata"
	"github.com/voyago/tripweaver/internal/types"
)

const (
	defaultDays            = 3
	defaultBranchTimeout   = 10 * time.Second
	defaultSynthesisLimit  = 30 * time.Second
	confidenceWithContext  = 0.9
	confidenceNoContext    = 0.75
	confidenceTemplateOnly = 0.5
)

var _ Service = (*ServiceImpl)(nil)

// Service runs the trip-planning pipeline. It never fails: every request
// produces a TravelPlan, with confidence as the sole degradation signal.
type Service interface {
	PlanTrip(ctx context.Context, req types.PlanRequest) *types.TravelPlan
}

// ContentGenerator produces the itinerary text from a system and user prompt.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ServiceImpl executes the three pipeline stages: classify, fan-out fetch,
// synthesize.
type ServiceImpl struct {
	logger           *slog.Logger
	knowledge        knowledge.Service
	liveData         livedata.Service
	generator        ContentGenerator
	topK             int
	scoreThreshold   float64
	branchTimeout    time.Duration
	synthesisTimeout time.Duration
}

func NewServiceImpl(
	knowledgeSvc knowledge.Service,
	liveDataSvc livedata.Service,
	generator ContentGenerator,
	topK int,
	scoreThreshold float64,
	logger *slog.Logger,
) *ServiceImpl {
	return &ServiceImpl{
		logger:           logger,
		knowledge:        knowledgeSvc,
		liveData:         liveDataSvc,
		generator:        generator,
		topK:             topK,
		scoreThreshold:   scoreThreshold,
		branchTimeout:    defaultBranchTimeout,
		synthesisTimeout: defaultSynthesisLimit,
	}
}

// PlanTrip runs classify -> fetch-all -> synthesize over one AgentState and
// derives the terminal TravelPlan.
func (s *ServiceImpl) PlanTrip(ctx context.Context, req types.PlanRequest) *types.TravelPlan {
	ctx, span := otel.Tracer("PlannerService").Start(ctx, "PlanTrip", trace.WithAttributes(
		attribute.String("city", req.City),
		attribute.Int("days", req.Days),
	))
	defer span.End()

	start := time.Now()
	l := s.logger.With(slog.String("method", "PlanTrip"), slog.String("city", req.City))

	days := req.Days
	if days < 1 {
		days = defaultDays
	}
	state := &types.AgentState{
		City:        req.City,
		Days:        days,
		Preferences: req.Preferences,
		UserQuery:   req.Query,
	}

	// Stage 1: classify. Pure keyword heuristic, always succeeds.
	state.Intent = intent.Classify(state.UserQuery)
	span.SetAttributes(attribute.String("intent", string(state.Intent)))

	// Stage 2: fan-out fetch, join before synthesis.
	s.fetchAll(ctx, state)

	// Stage 3: synthesize.
	s.synthesize(ctx, state)

	m := metrics.Get()
	m.PlanRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("intent", string(state.Intent))))
	m.PlanDurationSeconds.Record(ctx, time.Since(start).Seconds())

	l.InfoContext(ctx, "Trip plan completed",
		slog.String("intent", string(state.Intent)),
		slog.Float64("confidence", state.Confidence),
		slog.Duration("duration", time.Since(start)),
	)
	span.SetStatus(codes.Ok, "Plan completed")
	return types.PlanFromState(state)
}

// fetchAll runs the data branches concurrently. Each branch writes a disjoint
// set of state fields and applies its own fallback, so one branch failing or
// timing out never blocks the others.
func (s *ServiceImpl) fetchAll(ctx context.Context, state *types.AgentState) {
	ctx, span := otel.Tracer("PlannerService").Start(ctx, "FetchAll")
	defer span.End()

	l := s.logger.With(slog.String("method", "fetchAll"))

	var wg sync.WaitGroup
	branch := func(fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			branchCtx, cancel := context.WithTimeout(ctx, s.branchTimeout)
			defer cancel()
			fn(branchCtx)
		}()
	}

	branch(func(ctx context.Context) {
		query := strings.TrimSpace(state.City + " " + state.Preferences)
		passages, sources, err := s.knowledge.Retrieve(ctx, query, s.topK, s.scoreThreshold)
		if err != nil {
			l.WarnContext(ctx, "Knowledge retrieval fell back to empty", slog.Any("error", err))
			return
		}
		state.RetrievedContext = passages
		state.Sources = sources
	})

	branch(func(ctx context.Context) {
		state.WeatherData = s.liveData.FetchWeather(ctx, state.City)
	})

	branch(func(ctx context.Context) {
		state.POIData = s.liveData.FetchPOIs(ctx, state.City, state.Preferences)
	})

	if state.Intent == types.IntentBook {
		branch(func(ctx context.Context) {
			state.FlightData = s.liveData.FetchFlights(ctx, state.City, "")
		})
	}
	if state.Intent == types.IntentEvents {
		branch(func(ctx context.Context) {
			state.EventData = s.liveData.FetchEvents(ctx, state.City, "football")
		})
	}

	wg.Wait()
	span.SetStatus(codes.Ok, "All branches joined")
}

// synthesize asks the model for the itinerary, falling back to the
// deterministic template on any failure.
func (s *ServiceImpl) synthesize(ctx context.Context, state *types.AgentState) {
	ctx, span := otel.Tracer("PlannerService").Start(ctx, "Synthesize")
	defer span.End()

	l := s.logger.With(slog.String("method", "synthesize"))

	genCtx, cancel := context.WithTimeout(ctx, s.synthesisTimeout)
	defer cancel()

	response, err := s.generator.GenerateContent(genCtx, systemPrompt, BuildUserPrompt(state))
	if err != nil || strings.TrimSpace(response) == "" {
		if err == nil {
			err = fmt.Errorf("model returned an empty response")
		}
		l.WarnContext(ctx, "Synthesis fell back to template itinerary", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Synthesis fell back")
		metrics.Get().SynthesisFallbacksTotal.Add(ctx, 1)

		state.Response = FallbackItinerary(state.City, state.Days, state.POIData, state.WeatherData)
		state.Confidence = confidenceTemplateOnly
		return
	}

	state.Response = response
	if len(state.RetrievedContext) > 0 {
		state.Confidence = confidenceWithContext
	} else {
		state.Confidence = confidenceNoContext
	}
	span.SetStatus(codes.Ok, "Response synthesized")
}
