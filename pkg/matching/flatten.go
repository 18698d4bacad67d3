package matching

import (
	"time"

	"github.com/cityagent/emptyleg/pkg/transfer"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
)

// Flatten turns match groups into proposal rows stamped with now and an Active status
func Flatten(groups []MatchGroup, now time.Time) []*transfer.Match {
	var proposals []*transfer.Match
	now = now.UTC()

	for i := range groups {
		group := &groups[i]

		for j := range group.Candidates {
			match := &transfer.Match{}

			if err := copier.Copy(match, group); err != nil {
				log.Error().Err(err).Str("ride", group.RideID).Msg("Failed to flatten match group")
				continue
			}
			if err := copier.Copy(match, &group.Candidates[j]); err != nil {
				log.Error().Err(err).Str("ride", group.RideID).Msg("Failed to flatten match candidate")
				continue
			}

			match.LastUpdated = now
			match.MatchStatus = transfer.MatchStatusActive

			proposals = append(proposals, match)
		}
	}

	return proposals
}

// AnnotateCalendarPairs stamps CalendarMatchPair onto calendar proposals whose matched task is double booked
func AnnotateCalendarPairs(proposals []*transfer.Match, pairs map[string]string) {
	for _, proposal := range proposals {
		if proposal.MatchSource != transfer.RecordFamilyCalendar {
			continue
		}

		if title, exists := pairs[proposal.MatchedID]; exists {
			proposal.CalendarMatchPair = title
		}
	}
}
