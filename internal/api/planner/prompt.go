package planner

import (
	"fmt"
	"strings"
	"time"

	"github.com/voyago/tripweaver/internal/types"
)

const maxPromptPOIs = 12

// systemPrompt sets the consultant persona for itinerary synthesis.
const systemPrompt = `You are a seasoned travel consultant with two decades of experience crafting bespoke trips across more than 80 countries.

YOUR PERSONALITY:
- Warm and genuinely enthusiastic, like a trusted friend who happens to be a travel expert
- Specific, never generic: you name actual places, dishes and streets
- You share insider tips and anticipate logistics proactively

YOUR EXPERTISE:
- Best times to visit attractions and avoid crowds
- Local customs, tipping culture and etiquette
- Restaurant picks a local would make, not a tourist guide
- A balance of must-see spots and hidden gems
- Weather, walking distances and realistic timing

RESPONSE STYLE:
- Enthusiastic but professional
- Specific and actionable (names, neighborhoods, times)
- Include pro tips naturally and vary your language
- End each day with something memorable`

// BuildUserPrompt assembles the synthesis prompt from the fetched state:
// trip parameters, forecast, numbered attractions, knowledge passages and,
// when those branches ran, flights and fixtures.
func BuildUserPrompt(s *types.AgentState) string {
	prefs := s.Preferences
	if prefs == "" {
		prefs = "culture, food, and authentic local experiences"
	}
	request := s.UserQuery
	if request == "" {
		request = "None - create the best possible trip!"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create a detailed %d-day itinerary for %s.\n\n", s.Days, s.City)

	fmt.Fprintf(&b, "TRIP DETAILS\n- Destination: %s\n- Duration: %d days\n- Traveler interests: %s\n- Special request: %s\n\n",
		s.City, s.Days, prefs, request)

	fmt.Fprintf(&b, "WEATHER FORECAST\n%s\n\n", s.WeatherData)

	b.WriteString("VERIFIED ATTRACTIONS\n")
	b.WriteString(formatPOIs(s.POIData))
	b.WriteString("\n\n")

	b.WriteString("LOCAL KNOWLEDGE BASE\n")
	b.WriteString(formatKnowledge(s.City, s.RetrievedContext))
	b.WriteString("\n\n")

	if len(s.FlightData) > 0 {
		b.WriteString(FormatFlights(s.FlightData))
		b.WriteString("\n\n")
	}
	if len(s.EventData) > 0 {
		b.WriteString(FormatEvents(s.EventData))
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, `YOUR TASK
Write a day-by-day itinerary in this exact format:

## Day 1: [Creative evocative title]
- **Morning (9:00 AM):** [specific attraction, why it is special, one insider tip]
- **Lunch (12:30 PM):** [specific neighborhood with actual local dishes by name]
- **Afternoon (2:30 PM):** [specific attraction or activity with a practical tip]
- **Evening (7:00 PM):** [specific dinner recommendation or activity]

**Pro Tip for Day 1:** [one golden piece of advice]

[Continue for all %d days, then close with a Practical Tips section covering transport, money-saving secrets, etiquette and photo spots, and a warm 2-3 sentence sign-off.]

Use real place names from the attractions list and the knowledge base, be specific about dishes and streets, and give each day a logical geographic flow.`, s.Days)

	return b.String()
}

func formatPOIs(pois []string) string {
	if len(pois) == 0 {
		return "  - Major landmarks and attractions in the city center"
	}
	if len(pois) > maxPromptPOIs {
		pois = pois[:maxPromptPOIs]
	}
	lines := make([]string, 0, len(pois))
	for i, poi := range pois {
		lines = append(lines, fmt.Sprintf("  %d. %s", i+1, poi))
	}
	return strings.Join(lines, "\n")
}

func formatKnowledge(city string, passages []string) string {
	if len(passages) == 0 {
		return fmt.Sprintf("No specific knowledge base entries found for %s. Use your general knowledge about this destination, but be clear about what you know versus what the traveler should research.", city)
	}
	return strings.Join(passages, "\n\n")
}

// FormatFlights renders cached flight rows as a prompt block.
func FormatFlights(flights []types.Flight) string {
	if len(flights) == 0 {
		return "No flight information available."
	}

	lines := []string{"AVAILABLE FLIGHTS"}
	for i, f := range flights {
		if i >= 5 {
			break
		}
		price := "Price varies"
		if f.Price != nil {
			price = fmt.Sprintf("$%.0f", *f.Price)
		}
		lines = append(lines, fmt.Sprintf("  - %s %s: from %s at %s (%s)",
			f.Airline, f.FlightNumber, valueOr(f.Origin, "Various"), clockTime(f.DepartureTime), price))
	}
	return strings.Join(lines, "\n")
}

// FormatEvents renders cached fixture rows as a prompt block.
func FormatEvents(events []types.Event) string {
	if len(events) == 0 {
		return "No upcoming events found."
	}

	lines := []string{"UPCOMING EVENTS"}
	for i, e := range events {
		if i >= 5 {
			break
		}
		entry := fmt.Sprintf("  - %s: %s at %s", e.Name, eventDate(e.Date), valueOr(e.Venue, "TBD"))
		if e.League != "" {
			entry += fmt.Sprintf(" (%s)", e.League)
		}
		lines = append(lines, entry)
	}
	return strings.Join(lines, "\n")
}

func clockTime(timestamp string) string {
	if t, err := time.Parse(time.RFC3339, timestamp); err == nil {
		return t.Format("15:04")
	}
	if t, err := time.Parse("2006-01-02T15:04:05", timestamp); err == nil {
		return t.Format("15:04")
	}
	if len(timestamp) > 5 {
		return timestamp[:5]
	}
	return timestamp
}

func eventDate(timestamp string) string {
	if t, err := time.Parse(time.RFC3339, timestamp); err == nil {
		return t.Format("Mon Jan 02, 15:04")
	}
	if len(timestamp) > 10 {
		return timestamp[:10]
	}
	return timestamp
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
