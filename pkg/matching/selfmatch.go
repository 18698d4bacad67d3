package matching

import (
	"github.com/cityagent/emptyleg/pkg/config"
	"github.com/cityagent/emptyleg/pkg/transfer"
	"github.com/cityagent/emptyleg/pkg/util"
)

// SelfMatcher flags calendar bookings whose dropoff feeds straight into another booking's pickup
type SelfMatcher struct {
	Config config.MatchingConfig
}

// FindPairs maps a task ID to the title of the first later task it can reach. Pairs are unordered in fetch order.
func (s *SelfMatcher) FindPairs(tasks []*transfer.Record) map[string]string {
	pairs := map[string]string{}

	for i, first := range tasks {
		firstDropoff, valid := first.DropoffLocation()
		if !valid {
			continue
		}
		firstArrival := first.Arrival()

		for _, second := range tasks[i+1:] {
			if first.ID == second.ID {
				continue
			}

			secondPickup, valid := second.PickupLocation()
			if !valid {
				continue
			}

			if transfer.GeodesicDistanceKm(firstDropoff, secondPickup) > s.Config.MaxDistanceKm {
				continue
			}

			wait := util.MinutesBetween(firstArrival, second.Departure())
			if wait >= 0 && wait <= s.Config.MaxWaitMinutes {
				pairs[first.ID] = second.Title
				break
			}
		}
	}

	return pairs
}
