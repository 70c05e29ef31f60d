package planner

import (
	"fmt"
	"strings"
)

// FallbackItinerary builds a deterministic template plan when generation
// fails: points of interest are dealt round-robin across the days, and the
// remaining slots are filled with generic activities.
func FallbackItinerary(city string, days int, pois []string, weather string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Your %d-Day Adventure in %s\n\n", days, city)
	b.WriteString("*Note: a detailed itinerary could not be generated right now. Here is a solid starting plan.*\n\n")

	perDay := 0
	if len(pois) > 0 {
		perDay = len(pois) / days
		if perDay < 2 {
			perDay = 2
		}
	}

	for d := 1; d <= days; d++ {
		var dayPOIs []string
		if perDay > 0 {
			start := (d - 1) * perDay
			if start < len(pois) {
				end := start + perDay
				if end > len(pois) {
					end = len(pois)
				}
				dayPOIs = pois[start:end]
			}
		}

		fmt.Fprintf(&b, "## Day %d: Exploring %s\n", d, city)
		if len(dayPOIs) > 0 {
			fmt.Fprintf(&b, "- **Morning (9:00 AM):** Visit %s\n", dayPOIs[0])
		} else {
			b.WriteString("- **Morning (9:00 AM):** Visit the historic center\n")
		}
		b.WriteString("- **Lunch (12:30 PM):** Enjoy local cuisine in the neighborhood\n")
		if len(dayPOIs) > 1 {
			fmt.Fprintf(&b, "- **Afternoon (2:00 PM):** Discover %s\n", dayPOIs[1])
		} else {
			b.WriteString("- **Afternoon (2:00 PM):** Explore local shops and cafés\n")
		}
		b.WriteString("- **Evening (7:00 PM):** Dinner at a local restaurant\n\n")
	}

	fmt.Fprintf(&b, "**Current Weather:** %s\n", weather)
	return b.String()
}
