package transfer

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MatchStatus string

const (
	MatchStatusActive   MatchStatus = "Active"
	MatchStatusOutdated MatchStatus = "Outdated"
)

type Direction string

const (
	DirectionHomeReturn Direction = "Home Return"
	DirectionAwayReturn Direction = "Away Return"
	DirectionUnknown    Direction = "Unknown"
)

// Match is a persisted repositioning proposal from the ride identified by RideID to the
// record identified by MatchedID in the MatchSource family.
type Match struct {
	ObjectID primitive.ObjectID `bson:"_id,omitempty" json:"-" csv:"-"`

	RideID      string    `bson:"Ride_ID" json:"Ride_ID" csv:"Ride_ID" groups:"basic"`
	RideTime    time.Time `bson:"Ride_Time" json:"Ride_Time" csv:"Ride_Time" groups:"basic"`
	RideArrival time.Time `bson:"Ride_Arrival" json:"Ride_Arrival" csv:"Ride_Arrival" groups:"basic"`
	Pickup      string    `bson:"Pickup" json:"Pickup" csv:"Pickup" groups:"detailed"`
	Dropoff     string    `bson:"Dropoff" json:"Dropoff" csv:"Dropoff" groups:"detailed"`

	MatchSource    RecordFamily `bson:"Match_Source" json:"Match_Source" csv:"Match_Source" groups:"basic"`
	MatchedID      string       `bson:"Matched_ID" json:"Matched_ID" csv:"Matched_ID" groups:"basic"`
	MatchTime      time.Time    `bson:"Match_Time" json:"Match_Time" csv:"Match_Time" groups:"basic"`
	MatchArrival   time.Time    `bson:"Match_Arrival" json:"Match_Arrival" csv:"Match_Arrival" groups:"basic"`
	MatchDirection Direction    `bson:"Match_Direction" json:"Match_Direction" csv:"Match_Direction" groups:"basic"`

	TimeDifferenceMin int     `bson:"Time_Difference_min" json:"Time_Difference_min" csv:"Time_Difference_min" groups:"basic"`
	GeoDistanceKm     float64 `bson:"Geo_Distance_km" json:"Geo_Distance_km" csv:"Geo_Distance_km" groups:"basic"`
	RealDistanceKm    float64 `bson:"Real_Distance_km" json:"Real_Distance_km" csv:"Real_Distance_km" groups:"basic"`
	RealDurationMin   int     `bson:"Real_Duration_min" json:"Real_Duration_min" csv:"Real_Duration_min" groups:"basic"`

	MatchedPickup  string `bson:"Matched_Pickup" json:"Matched_Pickup" csv:"Matched_Pickup" groups:"detailed"`
	MatchedDropoff string `bson:"Matched_Dropoff" json:"Matched_Dropoff" csv:"Matched_Dropoff" groups:"detailed"`

	DoubleUtilized    bool   `bson:"DoubleUtilized" json:"DoubleUtilized" csv:"DoubleUtilized" groups:"basic"`
	CalendarMatchPair string `bson:"CalendarMatchPair,omitempty" json:"CalendarMatchPair,omitempty" csv:"CalendarMatchPair" groups:"basic"`

	MatchStatus MatchStatus `bson:"MatchStatus" json:"MatchStatus" csv:"MatchStatus" groups:"basic"`
	LastUpdated time.Time   `bson:"last_updated" json:"last_updated" csv:"last_updated" groups:"detailed"`
	OutdatedAt  *time.Time  `bson:"outdated_at,omitempty" json:"outdated_at,omitempty" csv:"outdated_at" groups:"detailed"`
}

// MatchKey is the identity of a match across cycles
type MatchKey struct {
	RideID    string
	MatchedID string
	Source    RecordFamily
}

func (m *Match) Key() MatchKey {
	return MatchKey{
		RideID:    m.RideID,
		MatchedID: m.MatchedID,
		Source:    m.MatchSource,
	}
}

func (m *Match) IsActive() bool {
	return m.MatchStatus == MatchStatusActive
}
