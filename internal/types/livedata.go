package types

// Flight is one cached flight offer arriving at a destination.
type Flight struct {
	Airline       string   `json:"airline"`
	FlightNumber  string   `json:"flight_number"`
	Origin        string   `json:"origin"`
	DepartureTime string   `json:"departure_time"`
	ArrivalTime   string   `json:"arrival_time"`
	Price         *float64 `json:"price,omitempty"`
	Currency      string   `json:"currency"`
}

// Event is one cached event listing for a city.
type Event struct {
	Name   string   `json:"name"`
	Venue  string   `json:"venue"`
	Date   string   `json:"event_date"`
	Teams  []string `json:"teams,omitempty"`
	League string   `json:"league,omitempty"`
}
