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

	"github.com/voyago/tripweaver/internal/types"
)

const maxFlightResults = 10

// cityToIATA maps supported destination cities to their main airport code.
var cityToIATA = map[string]string{
	"barcelona":   "BCN",
	"tokyo":       "TYO",
	"paris":       "CDG",
	"london":      "LHR",
	"new york":    "JFK",
	"rome":        "FCO",
	"amsterdam":   "AMS",
	"berlin":      "BER",
	"madrid":      "MAD",
	"lisbon":      "LIS",
	"dubai":       "DXB",
	"singapore":   "SIN",
	"hong kong":   "HKG",
	"sydney":      "SYD",
	"los angeles": "LAX",
	"miami":       "MIA",
	"chicago":     "ORD",
	"toronto":     "YYZ",
	"vancouver":   "YVR",
	"tel aviv":    "TLV",
}

// CityToIATA resolves a city name to its airport code.
func CityToIATA(city string) (string, bool) {
	code, ok := cityToIATA[strings.ToLower(strings.TrimSpace(city))]
	return code, ok
}

type aviationstackResponse struct {
	Data []struct {
		Airline struct {
			Name string `json:"name"`
		} `json:"airline"`
		Flight struct {
			IATA string `json:"iata"`
		} `json:"flight"`
		Departure struct {
			Airport   string `json:"airport"`
			Scheduled string `json:"scheduled"`
		} `json:"departure"`
		Arrival struct {
			Scheduled string `json:"scheduled"`
		} `json:"arrival"`
	} `json:"data"`
}

// FlightsClient fetches scheduled arrivals for a destination airport from
// Aviationstack. Requests retry twice with exponential backoff.
type FlightsClient struct {
	logger *slog.Logger
	client *resty.Client
	url    string
	apiKey func() string
}

func NewFlightsClient(url string, timeout time.Duration, logger *slog.Logger) *FlightsClient {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(4 * time.Second)
	return &FlightsClient{
		logger: logger,
		client: client,
		url:    url,
		apiKey: func() string { return os.Getenv("AVIATIONSTACK_API_KEY") },
	}
}

// FetchFlights returns upcoming scheduled flights arriving at the airport.
func (c *FlightsClient) FetchFlights(ctx context.Context, destinationIATA string) ([]types.Flight, error) {
	ctx, span := otel.Tracer("FlightsClient").Start(ctx, "FetchFlights", trace.WithAttributes(
		attribute.String("destination_iata", destinationIATA),
	))
	defer span.End()

	apiKey := c.apiKey()
	if apiKey == "" {
		span.SetStatus(codes.Error, "API key missing")
		return nil, fmt.Errorf("flight API key is not configured")
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"access_key":    apiKey,
			"arr_iata":      destinationIATA,
			"flight_status": "scheduled",
			"limit":         "10",
		}).
		SetResult(&aviationstackResponse{}).
		Get(c.url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Flight request failed")
		return nil, fmt.Errorf("failed to fetch flights: %w", err)
	}
	if resp.IsError() {
		span.SetStatus(codes.Error, "Flight request failed")
		return nil, fmt.Errorf("flight API returned status %d", resp.StatusCode())
	}

	payload := resp.Result().(*aviationstackResponse)
	var flights []types.Flight
	for _, f := range payload.Data {
		flights = append(flights, types.Flight{
			Airline:       f.Airline.Name,
			FlightNumber:  f.Flight.IATA,
			Origin:        f.Departure.Airport,
			DepartureTime: f.Departure.Scheduled,
			ArrivalTime:   f.Arrival.Scheduled,
			Price:         nil,
			Currency:      "USD",
		})
		if len(flights) >= maxFlightResults {
			break
		}
	}

	if len(flights) == 0 {
		span.SetStatus(codes.Error, "No flights returned")
		return nil, fmt.Errorf("flight API returned no flights for %s", destinationIATA)
	}

	span.SetStatus(codes.Ok, "Flights fetched")
	span.SetAttributes(attribute.Int("count", len(flights)))
	return flights, nil
}

// MockFlights generates plausible placeholder flights for destinations the
// live API cannot serve.
func MockFlights(now time.Time) []types.Flight {
	day := now.Format("2006-01-02")
	price := func(v float64) *float64 { return &v }
	return []types.Flight{
		{
			Airline:       "Lufthansa",
			FlightNumber:  "LH1234",
			Origin:        "Frankfurt",
			DepartureTime: day + "T10:30:00",
			ArrivalTime:   day + "T14:00:00",
			Price:         price(289),
			Currency:      "USD",
		},
		{
			Airline:       "British Airways",
			FlightNumber:  "BA567",
			Origin:        "London",
			DepartureTime: day + "T08:15:00",
			ArrivalTime:   day + "T12:45:00",
			Price:         price(312),
			Currency:      "USD",
		},
		{
			Airline:       "Air France",
			FlightNumber:  "AF890",
			Origin:        "Paris",
			DepartureTime: day + "T14:00:00",
			ArrivalTime:   day + "T16:30:00",
			Price:         price(245),
			Currency:      "USD",
		},
	}
}
