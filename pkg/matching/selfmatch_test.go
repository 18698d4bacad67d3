package matching

import (
	"context"
	"math"
	"testing"

	"github.com/cityagent/emptyleg/pkg/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelfMatcherPairsAndAnnotation(t *testing.T) {
	t2Pickup := offsetNorth(homeBase, 0.02)

	// T1 arrives 09:00 close to T2's pickup, T2 departs 10:00
	t1 := newTask("T1", "Villa to airport", fethiye, homeBase, at(8, 0), 3600)
	t2 := newTask("T2", "Airport to marina", t2Pickup, fethiye, at(10, 0), 3600)
	t3 := newTask("T3", "Late pickup", t2Pickup, fethiye, at(18, 0), 3600)

	selfMatcher := &SelfMatcher{Config: testConfig()}
	pairs := selfMatcher.FindPairs([]*transfer.Record{t1, t2, t3})

	assert.Equal(t, map[string]string{"T1": "Airport to marina"}, pairs)

	// A ride finishing near T1's pickup picks up T1 as a candidate
	ride := newRide("R1", homeBase, offsetNorth(fethiye, 0.01), at(6, 0), 3600)

	finder := NewFinder(nil, testConfig())
	proposals := Flatten(finder.FindMatches(context.Background(), []*transfer.Record{ride}, []*transfer.Record{t1, t2, t3}), at(12, 0))
	AnnotateCalendarPairs(proposals, pairs)

	// Pairs are keyed by the first task of a double booking, so the proposal matched to T1
	// carries the title of T2, the booking T1 feeds into.
	var annotated int
	for _, proposal := range proposals {
		if proposal.MatchSource == transfer.RecordFamilyCalendar && proposal.MatchedID == "T1" {
			assert.Equal(t, "Airport to marina", proposal.CalendarMatchPair)
			annotated++
		} else {
			assert.Empty(t, proposal.CalendarMatchPair)
		}
	}
	assert.Equal(t, 1, annotated)
}

func TestSelfMatcherFirstMatchWins(t *testing.T) {
	nearby := offsetNorth(homeBase, 0.01)

	t1 := newTask("T1", "First", fethiye, homeBase, at(8, 0), 0)
	t2 := newTask("T2", "Second", nearby, fethiye, at(9, 0), 0)
	t3 := newTask("T3", "Third", nearby, fethiye, at(8, 30), 0)

	selfMatcher := &SelfMatcher{Config: testConfig()}
	pairs := selfMatcher.FindPairs([]*transfer.Record{t1, t2, t3})

	require.Contains(t, pairs, "T1")
	assert.Equal(t, "Second", pairs["T1"])
}

func TestSelfMatcherWindow(t *testing.T) {
	nearby := offsetNorth(homeBase, 0.01)

	before := newTask("T1", "Arrives late", fethiye, homeBase, at(10, 0), 3600)
	after := newTask("T2", "Leaves early", nearby, fethiye, at(10, 30), 0)
	far := newTask("T3", "Too far", fethiye, offsetNorth(homeBase, 0.3), at(7, 0), 0)
	farNext := newTask("T4", "Next", nearby, fethiye, at(7, 30), 0)

	selfMatcher := &SelfMatcher{Config: testConfig()}
	pairs := selfMatcher.FindPairs([]*transfer.Record{before, after, far, farNext})

	assert.Empty(t, pairs)
}

func TestSelfMatcherSkipsInvalidCoordinates(t *testing.T) {
	nearby := offsetNorth(homeBase, 0.01)

	noDropoff := newTask("T1", "No dropoff", fethiye, homeBase, at(8, 0), 0)
	noDropoff.DropoffLat = nil
	valid := newTask("T2", "Valid", fethiye, homeBase, at(8, 0), 0)
	noPickup := newTask("T3", "No pickup", nearby, fethiye, at(8, 30), 0)
	noPickup.PickupLon = nil
	notANumber := newTask("T4", "Not a number", nearby, fethiye, at(8, 45), 0)
	notANumber.PickupLat = floatPointer(math.NaN())
	reachable := newTask("T5", "Reachable", nearby, fethiye, at(9, 0), 0)

	selfMatcher := &SelfMatcher{Config: testConfig()}

	var pairs map[string]string
	require.NotPanics(t, func() {
		pairs = selfMatcher.FindPairs([]*transfer.Record{noDropoff, valid, noPickup, notANumber, reachable})
	})

	assert.Equal(t, map[string]string{"T2": "Reachable"}, pairs)
}

func TestAnnotateIgnoresRideMatches(t *testing.T) {
	proposals := []*transfer.Match{
		{RideID: "R1", MatchedID: "X", MatchSource: transfer.RecordFamilyRide},
		{RideID: "R1", MatchedID: "X", MatchSource: transfer.RecordFamilyCalendar},
	}

	AnnotateCalendarPairs(proposals, map[string]string{"X": "Paired booking"})

	assert.Empty(t, proposals[0].CalendarMatchPair)
	assert.Equal(t, "Paired booking", proposals[1].CalendarMatchPair)
}
