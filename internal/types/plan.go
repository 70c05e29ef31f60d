package types

// Intent is the classified purpose of a user query.
type Intent string

const (
	IntentPlan   Intent = "plan"
	IntentInfo   Intent = "info"
	IntentEvents Intent = "events"
	IntentBook   Intent = "book"
)

// PlanRequest is the incoming trip-plan request. Immutable once decoded.
type PlanRequest struct {
	City        string `json:"city"`
	Days        int    `json:"days"`
	Preferences string `json:"preferences,omitempty"`
	Query       string `json:"query,omitempty"`
}

// AgentState is the mutable record threaded through the pipeline stages.
// Each stage writes its own fields; later stages only read or overwrite
// fields populated by earlier stages.
type AgentState struct {
	// Input
	City        string
	Days        int
	Preferences string
	UserQuery   string

	// Processing
	Intent           Intent
	RetrievedContext []string
	WeatherData      string
	POIData          []string
	FlightData       []Flight
	EventData        []Event

	// Output
	Response   string
	Sources    []string
	Confidence float64
}

// TravelPlan is the final immutable result of a pipeline run.
type TravelPlan struct {
	City        string   `json:"city"`
	Days        int      `json:"days"`
	Preferences string   `json:"preferences,omitempty"`
	Summary     string   `json:"plan"`
	POIs        []string `json:"pois"`
	Weather     string   `json:"weather"`
	Sources     []string `json:"sources"`
	Confidence  float64  `json:"confidence"`
}

// PlanFromState derives the terminal TravelPlan from a finished state.
func PlanFromState(s *AgentState) *TravelPlan {
	return &TravelPlan{
		City:        s.City,
		Days:        s.Days,
		Preferences: s.Preferences,
		Summary:     s.Response,
		POIs:        s.POIData,
		Weather:     s.WeatherData,
		Sources:     s.Sources,
		Confidence:  s.Confidence,
	}
}
