package main

import (
	"fmt"

	"github.com/tbxark/travelpilot/itinerary"
	"github.com/tbxark/travelpilot/types"
)

var dayPlans = []string{
	"Old town walking tour",
	"Local market and street food",
	"Museum morning, riverside evening",
	"Day trip to the hills",
	"Shopping district and night view",
}

func draftItinerary(info itinerary.TravelInfo) types.Itinerary {
	days := max(info.NumDays, 1)
	daily := make([]types.DailyItinerary, 0, days)
	for d := 1; d <= days; d++ {
		daily = append(daily, types.DailyItinerary{
			Day: d,
			Itinerary: types.Activity{
				StartTime: "09:00",
				EndTime:   "18:00",
				Activity:  dayPlans[(d-1)%len(dayPlans)],
			},
		})
	}
	flightPrice := 1200 * max(info.NumPeople, 1)
	hotelList := hotels(info, false)
	hotelTotal := hotelList[0].PricePerNight * days
	return types.Itinerary{
		TripOverview: &types.TripOverview{
			Title:       fmt.Sprintf("%d days in %s", days, info.Destination),
			Location:    info.Destination,
			Description: fmt.Sprintf("A relaxed trip from %s to %s.", info.Departure, info.Destination),
		},
		Flights: []types.Flight{{
			Origin:        info.Departure,
			Destination:   info.Destination,
			DepartureTime: "08:30",
			DepartureDate: info.StartDate,
			ArrivalTime:   "12:45",
			ArrivalDate:   info.StartDate,
			Duration:      "4h 15m",
			Airline:       "Mock Air",
			Nonstop:       true,
		}},
		Hotels: hotelList,
		PriceSummary: &types.PriceSummary{
			FlightsTotal: flightPrice,
			HotelsTotal:  hotelTotal,
			GrandTotal:   flightPrice + hotelTotal,
			Currency:     "HKD",
		},
		DailyItinerary: daily,
	}
}

func hotels(info itinerary.TravelInfo, revised bool) []types.Hotel {
	name := "Central " + info.Destination + " Hotel"
	price := 900
	if revised {
		name = info.Destination + " Garden Inn"
		price = 650
	}
	return []types.Hotel{{
		Name:          name,
		Rating:        4.4,
		ReviewCount:   1280,
		PricePerNight: price,
		Currency:      "HKD",
		Address:       "1 Main Street, " + info.Destination,
		Amenities:     []string{"Wi-Fi", "Breakfast"},
	}}
}
