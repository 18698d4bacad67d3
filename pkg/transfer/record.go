package transfer

import (
	"math"
	"time"
)

type RecordFamily string

const (
	RecordFamilyRide     RecordFamily = "Rides"
	RecordFamilyCalendar RecordFamily = "Calendar"
)

type RecordStatus string

const (
	RecordStatusNew         RecordStatus = "NEW"
	RecordStatusUpdated     RecordStatus = "UPDATED"
	RecordStatusActive      RecordStatus = "ACTIVE"
	RecordStatusReactivated RecordStatus = "REACTIVATED"
	RecordStatusRemoved     RecordStatus = "REMOVED"
)

// CalendarAPIStatusNeedsAction is the task API status of calendar bookings that are still open
const CalendarAPIStatusNeedsAction = "needsAction"

// Record is a transfer as stored by the ingestion pipeline. Rides and calendar tasks share the
// same document shape apart from the departure field name.
type Record struct {
	ID     string       `bson:"ID"`
	Family RecordFamily `bson:"-"`

	Title   string `bson:"Title,omitempty"`
	Pickup  string `bson:"Pickup"`
	Dropoff string `bson:"Dropoff"`

	PickupLat  *float64 `bson:"Pickup_lat"`
	PickupLon  *float64 `bson:"Pickup_lon"`
	DropoffLat *float64 `bson:"Dropoff_lat"`
	DropoffLon *float64 `bson:"Dropoff_lon"`

	RideDatetime     time.Time `bson:"ride_datetime,omitempty"`
	TransferDatetime time.Time `bson:"Transfer_Datetime,omitempty"`
	DurationSeconds  *float64  `bson:"Duration_seconds"`

	Status         RecordStatus `bson:"Status"`
	APIStatus      string       `bson:"API_Status,omitempty"`
	GeoStatus      *string      `bson:"GeoStatus"`
	DistanceStatus *string      `bson:"DistanceStatus"`
	MatchAnalyzed  bool         `bson:"MatchAnalyzed"`
}

func (r *Record) PickupLocation() (Location, bool) {
	return NewLocation(r.PickupLat, r.PickupLon)
}

func (r *Record) DropoffLocation() (Location, bool) {
	return NewLocation(r.DropoffLat, r.DropoffLon)
}

// Departure is the scheduled start of the transfer. Records without a family use whichever timestamp is set.
func (r *Record) Departure() time.Time {
	switch r.Family {
	case RecordFamilyCalendar:
		return r.TransferDatetime
	case RecordFamilyRide:
		return r.RideDatetime
	}

	if r.RideDatetime.IsZero() {
		return r.TransferDatetime
	}

	return r.RideDatetime
}

// Arrival adds the travel duration to the departure. A missing, zero or unusable duration means arrival equals departure.
func (r *Record) Arrival() time.Time {
	departure := r.Departure()

	if r.DurationSeconds == nil {
		return departure
	}

	seconds := *r.DurationSeconds
	if seconds == 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return departure
	}

	return departure.Add(time.Duration(seconds * float64(time.Second)))
}

func (r *Record) IsRemoved() bool {
	return r.Status == RecordStatusRemoved
}

// Normalise stamps the family and converts the departure timestamps to UTC
func (r *Record) Normalise(family RecordFamily) {
	r.Family = family

	if !r.RideDatetime.IsZero() {
		r.RideDatetime = r.RideDatetime.UTC()
	}
	if !r.TransferDatetime.IsZero() {
		r.TransferDatetime = r.TransferDatetime.UTC()
	}
}
