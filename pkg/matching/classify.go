package matching

import (
	"time"

	"github.com/cityagent/emptyleg/pkg/transfer"
)

func (f *Finder) isNearHome(location transfer.Location) bool {
	return transfer.GeodesicDistanceKm(f.Config.HomeBase, location) <= f.Config.HomeRadiusKm
}

// determineDirection is descriptive only and never rejects a candidate
func (f *Finder) determineDirection(ride *transfer.Record, rideArrival time.Time, candidate *transfer.Record) transfer.Direction {
	ridePickup, ridePickupValid := ride.PickupLocation()
	candidateDropoff, candidateDropoffValid := candidate.DropoffLocation()

	if !ridePickupValid || !candidateDropoffValid {
		return transfer.DirectionUnknown
	}

	candidateNearHome := f.isNearHome(candidateDropoff)

	if candidateNearHome &&
		candidate.Departure().After(rideArrival) &&
		transfer.GeodesicDistanceKm(ridePickup, candidateDropoff) <= f.Config.MaxDistanceKm {
		return transfer.DirectionHomeReturn
	}

	if !f.isNearHome(ridePickup) && !candidateNearHome {
		return transfer.DirectionAwayReturn
	}

	return transfer.DirectionUnknown
}

// isDoubleUtilized certifies a back-to-back leg: short wait and within reposition range
func (f *Finder) isDoubleUtilized(waitMinutes float64, distanceKm float64) bool {
	return waitMinutes >= 0 &&
		waitMinutes <= f.Config.DoubleUtilizationMinutes &&
		distanceKm <= f.Config.MaxDistanceKm
}
