package livedata

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// WeatherFallback is returned by the service when the forecast cannot be
// resolved for any reason.
const WeatherFallback = "Check local forecast"

type geocodeResponse struct {
	Results []struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type forecastResponse struct {
	Daily struct {
		TemperatureMax []float64 `json:"temperature_2m_max"`
		TemperatureMin []float64 `json:"temperature_2m_min"`
	} `json:"daily"`
}

type coordinates struct {
	Lat float64
	Lon float64
}

// WeatherClient resolves a city to a short min-max temperature summary via
// the Open-Meteo geocoding and forecast APIs. Geocoding results are memoized
// in-process since city coordinates do not move.
type WeatherClient struct {
	logger       *slog.Logger
	geocode      *resty.Client
	forecast     *resty.Client
	geocodeURL   string
	forecastURL  string
	geocodeCache *gocache.Cache
}

func NewWeatherClient(geocodeURL, forecastURL string, geocodeTimeout, forecastTimeout time.Duration, logger *slog.Logger) *WeatherClient {
	return &WeatherClient{
		logger:       logger,
		geocode:      resty.New().SetTimeout(geocodeTimeout),
		forecast:     resty.New().SetTimeout(forecastTimeout),
		geocodeURL:   geocodeURL,
		forecastURL:  forecastURL,
		geocodeCache: gocache.New(24*time.Hour, time.Hour),
	}
}

// FetchWeather returns a "Temp: <min>-<max>°C" summary for the city.
func (c *WeatherClient) FetchWeather(ctx context.Context, city string) (string, error) {
	ctx, span := otel.Tracer("WeatherClient").Start(ctx, "FetchWeather", trace.WithAttributes(
		attribute.String("city", city),
	))
	defer span.End()

	coords, err := c.geocodeCity(ctx, city)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Geocoding failed")
		return "", fmt.Errorf("failed to geocode city %q: %w", city, err)
	}

	resp, err := c.forecast.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latitude":  fmt.Sprintf("%f", coords.Lat),
			"longitude": fmt.Sprintf("%f", coords.Lon),
			"daily":     "temperature_2m_max,temperature_2m_min",
			"timezone":  "auto",
		}).
		SetResult(&forecastResponse{}).
		Get(c.forecastURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Forecast request failed")
		return "", fmt.Errorf("failed to fetch forecast: %w", err)
	}
	if resp.IsError() {
		span.SetStatus(codes.Error, "Forecast request failed")
		return "", fmt.Errorf("forecast API returned status %d", resp.StatusCode())
	}

	forecast := resp.Result().(*forecastResponse)
	if len(forecast.Daily.TemperatureMax) == 0 || len(forecast.Daily.TemperatureMin) == 0 {
		span.SetStatus(codes.Error, "Forecast payload empty")
		return "", fmt.Errorf("forecast API returned no daily temperatures")
	}

	summary := fmt.Sprintf("Temp: %.0f-%.0f°C",
		minOf(forecast.Daily.TemperatureMin), maxOf(forecast.Daily.TemperatureMax))

	span.SetStatus(codes.Ok, "Weather fetched")
	return summary, nil
}

func (c *WeatherClient) geocodeCity(ctx context.Context, city string) (coordinates, error) {
	key := strings.ToLower(strings.TrimSpace(city))
	if cached, found := c.geocodeCache.Get(key); found {
		return cached.(coordinates), nil
	}

	resp, err := c.geocode.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"name": city, "count": "1"}).
		SetResult(&geocodeResponse{}).
		Get(c.geocodeURL)
	if err != nil {
		return coordinates{}, fmt.Errorf("geocode request failed: %w", err)
	}
	if resp.IsError() {
		return coordinates{}, fmt.Errorf("geocode API returned status %d", resp.StatusCode())
	}

	geo := resp.Result().(*geocodeResponse)
	if len(geo.Results) == 0 {
		return coordinates{}, fmt.Errorf("no geocode match for %q", city)
	}

	coords := coordinates{Lat: geo.Results[0].Latitude, Lon: geo.Results[0].Longitude}
	c.geocodeCache.Set(key, coords, gocache.DefaultExpiration)
	return coords, nil
}

func minOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
