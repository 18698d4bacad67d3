package matching

import (
	"context"
	"fmt"
	"math"
	"runtime/debug"
	"time"

	"github.com/cityagent/emptyleg/pkg/config"
	"github.com/cityagent/emptyleg/pkg/distance"
	"github.com/cityagent/emptyleg/pkg/transfer"
	"github.com/cityagent/emptyleg/pkg/util"
	"github.com/rs/zerolog/log"
)

// MatchGroup holds every plausible next leg for a single source ride
type MatchGroup struct {
	RideID      string
	RideTime    time.Time
	RideArrival time.Time
	Pickup      string
	Dropoff     string

	Candidates []Candidate
}

// Candidate is one scored next leg. Field names line up with transfer.Match for flattening.
type Candidate struct {
	MatchSource    transfer.RecordFamily
	MatchedID      string
	MatchTime      time.Time
	MatchArrival   time.Time
	MatchDirection transfer.Direction

	TimeDifferenceMin int
	GeoDistanceKm     float64
	RealDistanceKm    float64
	RealDurationMin   int

	MatchedPickup  string
	MatchedDropoff string

	DoubleUtilized bool
}

type Finder struct {
	Oracle distance.Oracle
	Config config.MatchingConfig

	loggedInvalidRides      map[string]struct{}
	loggedInvalidCandidates map[string]struct{}
}

func NewFinder(oracle distance.Oracle, cfg config.MatchingConfig) *Finder {
	return &Finder{
		Oracle: oracle,
		Config: cfg,

		loggedInvalidRides:      map[string]struct{}{},
		loggedInvalidCandidates: map[string]struct{}{},
	}
}

// FindMatches returns one group per ride with a valid dropoff. A ride that fails is logged and skipped.
func (f *Finder) FindMatches(ctx context.Context, rides []*transfer.Record, calendar []*transfer.Record) []MatchGroup {
	var groups []MatchGroup

	for _, ride := range rides {
		group, ok, err := f.matchRide(ctx, ride, rides, calendar)
		if err != nil {
			log.Error().Err(err).Str("ride", ride.ID).Msg("Failed to find matches for ride")
			continue
		}
		if !ok {
			continue
		}

		groups = append(groups, group)
	}

	return groups
}

func (f *Finder) matchRide(ctx context.Context, ride *transfer.Record, rides []*transfer.Record, calendar []*transfer.Record) (group MatchGroup, ok bool, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("panic: %v\n%s", recovered, debug.Stack())
		}
	}()

	rideArrival := ride.Arrival()

	rideDropoff, valid := ride.DropoffLocation()
	if !valid {
		f.logInvalidOnce(f.loggedInvalidRides, ride.ID, "Invalid ride dropoff, skipping")
		return MatchGroup{}, false, nil
	}

	group = MatchGroup{
		RideID:      ride.ID,
		RideTime:    ride.Departure(),
		RideArrival: rideArrival,
		Pickup:      ride.Pickup,
		Dropoff:     ride.Dropoff,
		Candidates:  []Candidate{},
	}

	for _, candidate := range rides {
		if candidate.ID == ride.ID {
			continue
		}

		if c, matched := f.evaluate(ctx, ride, rideArrival, rideDropoff, candidate, transfer.RecordFamilyRide); matched {
			group.Candidates = append(group.Candidates, c)
		}
	}

	for _, task := range calendar {
		if c, matched := f.evaluate(ctx, ride, rideArrival, rideDropoff, task, transfer.RecordFamilyCalendar); matched {
			group.Candidates = append(group.Candidates, c)
		}
	}

	return group, true, nil
}

func (f *Finder) evaluate(ctx context.Context, ride *transfer.Record, rideArrival time.Time, rideDropoff transfer.Location, candidate *transfer.Record, source transfer.RecordFamily) (Candidate, bool) {
	candidatePickup, valid := candidate.PickupLocation()
	if !valid {
		f.logInvalidOnce(f.loggedInvalidCandidates, candidate.ID, "Invalid candidate pickup, skipping")
		return Candidate{}, false
	}

	candidateDeparture := candidate.Departure()
	if candidateDeparture.Before(rideArrival) {
		return Candidate{}, false
	}

	geoDistance := transfer.GeodesicDistanceKm(rideDropoff, candidatePickup)
	if geoDistance > f.Config.MaxDistanceKm {
		return Candidate{}, false
	}

	wait := util.MinutesBetween(rideArrival, candidateDeparture)
	if wait > f.Config.MaxWaitMinutes {
		return Candidate{}, false
	}

	realDistance, realDuration := f.realDistance(ctx, rideDropoff, candidatePickup, geoDistance)

	return Candidate{
		MatchSource:    source,
		MatchedID:      candidate.ID,
		MatchTime:      candidateDeparture,
		MatchArrival:   candidate.Arrival(),
		MatchDirection: f.determineDirection(ride, rideArrival, candidate),

		TimeDifferenceMin: int(math.RoundToEven(wait)),
		GeoDistanceKm:     roundTo(geoDistance, 2),
		RealDistanceKm:    roundTo(realDistance, 2),
		RealDurationMin:   int(math.RoundToEven(realDuration)),

		MatchedPickup:  candidate.Pickup,
		MatchedDropoff: candidate.Dropoff,

		DoubleUtilized: f.isDoubleUtilized(wait, geoDistance),
	}, true
}

// realDistance returns road kilometres and minutes, degrading to the geodesic distance and zero duration
func (f *Finder) realDistance(ctx context.Context, from transfer.Location, to transfer.Location, geodesic float64) (float64, float64) {
	if f.Oracle == nil {
		return geodesic, 0
	}

	source := f.Config.DistanceSourceTag

	result, found, err := f.Oracle.ResolveCached(ctx, from, to, source)
	if err != nil {
		log.Debug().Err(err).Msg("Distance cache lookup failed")
		return geodesic, 0
	}
	if found {
		if result == nil {
			return geodesic, 0
		}
		return result.Kilometres(), result.Minutes()
	}

	result, err = f.Oracle.ComputeAndCache(ctx, from, to, source)
	if err != nil || result == nil {
		log.Debug().Err(err).Str("from", from.String()).Str("to", to.String()).Msg("Falling back to geodesic distance")
		return geodesic, 0
	}

	return result.Kilometres(), result.Minutes()
}

func (f *Finder) logInvalidOnce(logged map[string]struct{}, id string, message string) {
	if _, seen := logged[id]; seen {
		return
	}
	logged[id] = struct{}{}

	log.Warn().Str("id", id).Msg(message)
}

func roundTo(value float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(value*scale) / scale
}
