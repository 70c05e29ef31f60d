package livedata

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/voyago/tripweaver/internal/types"
)

const (
	maxFixtureTeams    = 2
	maxFixturesPerTeam = 3
)

// cityToTeams maps supported cities to their local football clubs.
var cityToTeams = map[string][]string{
	"barcelona":  {"Barcelona", "Espanyol"},
	"madrid":     {"Real Madrid", "Atletico Madrid"},
	"london":     {"Arsenal", "Chelsea", "Tottenham", "West Ham"},
	"manchester": {"Manchester United", "Manchester City"},
	"paris":      {"Paris Saint Germain"},
	"rome":       {"Roma", "Lazio"},
	"milan":      {"AC Milan", "Inter"},
	"munich":     {"Bayern Munich"},
	"amsterdam":  {"Ajax"},
	"lisbon":     {"Benfica", "Sporting CP"},
	"tel aviv":   {"Maccabi Tel Aviv", "Hapoel Tel Aviv"},
}

// CityTeams resolves a city name to its known clubs.
func CityTeams(city string) ([]string, bool) {
	teams, ok := cityToTeams[strings.ToLower(strings.TrimSpace(city))]
	return teams, ok
}

type fixtureResponse struct {
	Response []struct {
		Fixture struct {
			Date  string `json:"date"`
			Venue struct {
				Name string `json:"name"`
			} `json:"venue"`
		} `json:"fixture"`
		League struct {
			Name string `json:"name"`
		} `json:"league"`
		Teams struct {
			Home struct {
				Name string `json:"name"`
			} `json:"home"`
			Away struct {
				Name string `json:"name"`
			} `json:"away"`
		} `json:"teams"`
	} `json:"response"`
}

// EventsClient fetches upcoming football fixtures per local team from
// API-Football. Requests retry twice with exponential backoff.
type EventsClient struct {
	logger *slog.Logger
	client *resty.Client
	url    string
	apiKey func() string
	now    func() time.Time
}

func NewEventsClient(url string, timeout time.Duration, logger *slog.Logger) *EventsClient {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(4 * time.Second)
	return &EventsClient{
		logger: logger,
		client: client,
		url:    url,
		apiKey: func() string { return os.Getenv("FOOTBALL_API_KEY") },
		now:    time.Now,
	}
}

// FetchEvents queries fixtures for the first two teams over the next week.
// A team whose lookup fails is skipped rather than failing the whole fetch.
func (c *EventsClient) FetchEvents(ctx context.Context, teams []string) ([]types.Event, error) {
	ctx, span := otel.Tracer("EventsClient").Start(ctx, "FetchEvents", trace.WithAttributes(
		attribute.Int("teams", len(teams)),
	))
	defer span.End()

	apiKey := c.apiKey()
	if apiKey == "" {
		span.SetStatus(codes.Error, "API key missing")
		return nil, fmt.Errorf("fixture API key is not configured")
	}

	l := c.logger.With(slog.String("method", "FetchEvents"))

	from := c.now().Format("2006-01-02")
	to := c.now().AddDate(0, 0, 7).Format("2006-01-02")

	if len(teams) > maxFixtureTeams {
		teams = teams[:maxFixtureTeams]
	}

	var events []types.Event
	for _, team := range teams {
		resp, err := c.client.R().
			SetContext(ctx).
			SetHeader("X-RapidAPI-Key", apiKey).
			SetQueryParams(map[string]string{
				"team": team,
				"from": from,
				"to":   to,
			}).
			SetResult(&fixtureResponse{}).
			Get(c.url)
		if err != nil || resp.IsError() {
			l.WarnContext(ctx, "Fixture lookup failed for team", slog.String("team", team))
			continue
		}

		payload := resp.Result().(*fixtureResponse)
		for i, fx := range payload.Response {
			if i >= maxFixturesPerTeam {
				break
			}
			events = append(events, types.Event{
				Name:   fmt.Sprintf("%s vs %s", fx.Teams.Home.Name, fx.Teams.Away.Name),
				Venue:  fx.Fixture.Venue.Name,
				Date:   fx.Fixture.Date,
				Teams:  []string{fx.Teams.Home.Name, fx.Teams.Away.Name},
				League: fx.League.Name,
			})
		}
	}

	if len(events) == 0 {
		span.SetStatus(codes.Error, "No fixtures returned")
		return nil, fmt.Errorf("fixture API returned no events")
	}

	span.SetStatus(codes.Ok, "Events fetched")
	span.SetAttributes(attribute.Int("count", len(events)))
	return events, nil
}

// MockEvents generates placeholder fixtures for a city using its known teams
// when available.
func MockEvents(city, eventType string, now time.Time) []types.Event {
	cityTitle := cases.Title(language.English).String(city)
	teams, known := CityTeams(city)

	if eventType != "football" || !known || len(teams) == 0 {
		return []types.Event{{
			Name:   fmt.Sprintf("Local Derby in %s", cityTitle),
			Venue:  cityTitle + " Stadium",
			Date:   now.AddDate(0, 0, 4).Format(time.RFC3339),
			Teams:  []string{"Local Team A", "Local Team B"},
			League: "Local League",
		}}
	}

	events := []types.Event{{
		Name:   teams[0] + " vs Visiting Team",
		Venue:  cityTitle + " Stadium",
		Date:   now.AddDate(0, 0, 3).Format(time.RFC3339),
		Teams:  []string{teams[0], "Visiting Team"},
		League: "League Match",
	}}
	if len(teams) >= 2 {
		events = append(events, types.Event{
			Name:   teams[1] + " vs Another Team",
			Venue:  cityTitle + " Arena",
			Date:   now.AddDate(0, 0, 5).Format(time.RFC3339),
			Teams:  []string{teams[1], "Another Team"},
			League: "League Match",
		})
	}
	return events
}
