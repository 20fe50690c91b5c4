package types

type TripOverview struct {
	Title       string `json:"title"`
	ImageURL    string `json:"image_url"`
	Location    string `json:"location"`
	DateRange   string `json:"date_range"`
	Description string `json:"description"`
}

type Activity struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Activity  string `json:"activity"`
	ImageURL  string `json:"image_url"`
}

type DailyItinerary struct {
	Day       int      `json:"day"`
	Itinerary Activity `json:"itinerary"`
}

type Flight struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureTime string `json:"departure_time"`
	DepartureDate string `json:"departure_date"`
	ArrivalTime   string `json:"arrival_time"`
	ArrivalDate   string `json:"arrival_date"`
	Duration      string `json:"duration"`
	Airline       string `json:"airline"`
	Nonstop       bool   `json:"nonstop"`
}

type Hotel struct {
	Name          string   `json:"name"`
	ImageURL      string   `json:"image_url"`
	Rating        float64  `json:"rating"`
	ReviewCount   int      `json:"review_count"`
	PricePerNight int      `json:"price_per_night"`
	Currency      string   `json:"currency"`
	Address       string   `json:"address"`
	Amenities     []string `json:"amenities,omitempty"`
	Link          string   `json:"link"`
}

type PriceSummary struct {
	FlightsTotal int    `json:"flights_total"`
	HotelsTotal  int    `json:"hotels_total"`
	GrandTotal   int    `json:"grand_total"`
	Currency     string `json:"currency"`
}

// Itinerary is the generated plan as known so far. Each key is replaced only
// when a backend response carries it.
type Itinerary struct {
	TripOverview   *TripOverview    `json:"trip_overview,omitempty"`
	Flights        []Flight         `json:"flights,omitempty"`
	Hotels         []Hotel          `json:"hotels,omitempty"`
	PriceSummary   *PriceSummary    `json:"price_summary,omitempty"`
	DailyItinerary []DailyItinerary `json:"daily_itinerary,omitempty"`
}

// ItineraryKeys are the response keys that carry itinerary content.
var ItineraryKeys = []string{"trip_overview", "flights", "hotels", "price_summary", "daily_itinerary"}

func (it *Itinerary) IsEmpty() bool {
	return it == nil || (it.TripOverview == nil && len(it.Flights) == 0 && len(it.Hotels) == 0 &&
		it.PriceSummary == nil && len(it.DailyItinerary) == 0)
}
