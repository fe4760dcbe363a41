package service

import "math"

// FarePolicy holds the pricing constants shared by the fare estimator, the
// grouping engine and payments.
type FarePolicy struct {
	BaseFare  float64
	PerKmRate float64
	// RiderShare is the fraction of a solo fare a pooled rider pays.
	RiderShare float64
	// DefaultRequestFare replaces a stored fare <= 0 when grouping and
	// charging. Zero disables the substitution.
	DefaultRequestFare float64
}

// DefaultFarePolicy is base 30, 8 per km, riders pay 60%.
func DefaultFarePolicy() FarePolicy {
	return FarePolicy{BaseFare: 30, PerKmRate: 8, RiderShare: 0.6}
}

// Quote is a fare estimate for a party travelling together.
type Quote struct {
	DistanceKm     float64 `json:"distance_km"`
	Seats          int     `json:"seats"`
	PrivateCabFare float64 `json:"private_cab_fare"`
	PerSeatFare    float64 `json:"per_seat_fare"`
	TotalFare      float64 `json:"total_fare"`
	// ListFare is the undiscounted price of the party, stored on the request
	// as its estimated fare.
	ListFare float64 `json:"list_fare"`
}

// Estimate prices a trip. It is a pure function of its inputs.
func (p FarePolicy) Estimate(distanceKm float64, seats int) (Quote, error) {
	if math.IsNaN(distanceKm) || math.IsInf(distanceKm, 0) || distanceKm < 0 {
		return Quote{}, invalid("distance_km", ErrInvalidDistance)
	}
	if seats < 1 {
		return Quote{}, invalid("seats", ErrInvalidSeats)
	}

	privateCab := math.Round(p.BaseFare + distanceKm*p.PerKmRate)
	perSeat := math.Round(privateCab * p.RiderShare)

	return Quote{
		DistanceKm:     distanceKm,
		Seats:          seats,
		PrivateCabFare: privateCab,
		PerSeatFare:    perSeat,
		TotalFare:      perSeat * float64(seats),
		ListFare:       privateCab * float64(seats),
	}, nil
}

// requestFare returns the fare used for a stored request.
func (p FarePolicy) requestFare(estimated float64) float64 {
	if estimated <= 0 && p.DefaultRequestFare > 0 {
		return p.DefaultRequestFare
	}
	return estimated
}

// DriverEarnings is what a driver earns for carrying a request.
func (p FarePolicy) DriverEarnings(estimatedFare float64) float64 {
	return p.requestFare(estimatedFare) * p.RiderShare
}

// RiderPrice is what a rider pays for a completed request of seats seats.
// It prices each seat the way Estimate does, so a request stored with the
// list fare of a quote is charged that quote's TotalFare.
func (p FarePolicy) RiderPrice(estimatedFare float64, seats int) float64 {
	if seats < 1 {
		seats = 1
	}
	perSeat := math.Round(p.requestFare(estimatedFare) / float64(seats) * p.RiderShare)
	return roundCurrency(perSeat * float64(seats))
}

// roundCurrency rounds to two decimal places.
func roundCurrency(v float64) float64 {
	return math.Round(v*100) / 100
}
