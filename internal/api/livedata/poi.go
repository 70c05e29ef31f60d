package livedata

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	maxPOITagFilters = 3
	maxPOIResults    = 10
)

// preferenceTags maps free-text preference keywords to Overpass tag filters.
var preferenceTags = map[string]string{
	"tennis":       "sport~'tennis'",
	"sports":       "sport",
	"food":         "amenity~'restaurant|cafe'",
	"restaurants":  "amenity~'restaurant'",
	"cafe":         "amenity~'cafe'",
	"art":          "tourism~'museum|gallery|artwork'",
	"museum":       "tourism~'museum'",
	"history":      "historic",
	"architecture": "building~'cathedral|church|castle'",
	"shopping":     "shop",
	"parks":        "leisure~'park|garden'",
	"nature":       "natural|leisure~'park|garden'",
	"beach":        "natural~'beach'",
	"nightlife":    "amenity~'bar|nightclub'",
}

// preferenceKeywords fixes iteration order over preferenceTags so the tag
// selection is deterministic for a given preferences string.
var preferenceKeywords = []string{
	"tennis", "sports", "food", "restaurants", "cafe", "art", "museum",
	"history", "architecture", "shopping", "parks", "nature", "beach",
	"nightlife",
}

type overpassResponse struct {
	Elements []struct {
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

// POIClient queries Overpass for named points of interest in a city,
// filtered by the visitor's stated preferences.
type POIClient struct {
	logger *slog.Logger
	client *resty.Client
	url    string
}

func NewPOIClient(url string, timeout time.Duration, logger *slog.Logger) *POIClient {
	return &POIClient{
		logger: logger,
		client: resty.New().SetTimeout(timeout),
		url:    url,
	}
}

// FetchPOIs returns up to 10 deduplicated place names matching the city and
// preferences. An empty result is reported as an error so the caller applies
// its fallback list.
func (c *POIClient) FetchPOIs(ctx context.Context, city, preferences string) ([]string, error) {
	ctx, span := otel.Tracer("POIClient").Start(ctx, "FetchPOIs", trace.WithAttributes(
		attribute.String("city", city),
		attribute.String("preferences", preferences),
	))
	defer span.End()

	query := buildOverpassQuery(city, preferences)

	resp, err := c.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{"data": query}).
		SetResult(&overpassResponse{}).
		Post(c.url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Overpass request failed")
		return nil, fmt.Errorf("failed to query points of interest: %w", err)
	}
	if resp.IsError() {
		span.SetStatus(codes.Error, "Overpass request failed")
		return nil, fmt.Errorf("overpass API returned status %d", resp.StatusCode())
	}

	payload := resp.Result().(*overpassResponse)
	seen := make(map[string]struct{})
	var names []string
	for _, el := range payload.Elements {
		name := el.Tags["name"]
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
		if len(names) >= maxPOIResults {
			break
		}
	}

	if len(names) == 0 {
		span.SetStatus(codes.Error, "No named POIs returned")
		return nil, fmt.Errorf("no points of interest found for %q", city)
	}

	span.SetStatus(codes.Ok, "POIs fetched")
	span.SetAttributes(attribute.Int("count", len(names)))
	return names, nil
}

// buildOverpassQuery assembles an area-scoped node query. Tourism attractions
// are always included; preference keywords add up to two more tag filters.
func buildOverpassQuery(city, preferences string) string {
	tags := []string{"tourism~'attraction|museum'"}
	prefLower := strings.ToLower(preferences)
	for _, keyword := range preferenceKeywords {
		if len(tags) >= maxPOITagFilters {
			break
		}
		if strings.Contains(prefLower, keyword) {
			tags = append(tags, preferenceTags[keyword])
		}
	}

	var nodes []string
	for _, tag := range tags {
		nodes = append(nodes, fmt.Sprintf("node(area.a)[%s]", tag))
	}

	return fmt.Sprintf(
		"[out:json][timeout:3];area['name'='%s']->.a;(%s;);out center 12;",
		city, strings.Join(nodes, ";"),
	)
}

// POIFallback is the generic place list used when Overpass fails or finds
// nothing named.
func POIFallback(city string) []string {
	return []string{
		city + " Old Town",
		city + " Cathedral",
		"Local Market",
		"City Park",
	}
}
