package matching

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cityagent/emptyleg/pkg/elastic_client"
	"github.com/rs/zerolog/log"
)

// CycleReport summarises one pass of the match cycle
type CycleReport struct {
	StartedAt time.Time
	Duration  time.Duration

	Idle bool

	UnmatchedRides    int
	UnmatchedCalendar int
	ActiveRides       int
	ActiveCalendar    int

	Groups        int
	Proposals     int
	CalendarPairs int

	Inserted  int
	Refreshed int
	Outdated  int
	Failed    int

	Error string `json:",omitempty"`
}

type ReportSink interface {
	Record(report CycleReport)
}

// ElasticReportSink indexes cycle reports into a weekly index
type ElasticReportSink struct{}

func (e ElasticReportSink) Record(report CycleReport) {
	if !elastic_client.IsConnected() {
		return
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal cycle report")
		return
	}

	year, week := report.StartedAt.ISOWeek()
	elastic_client.IndexRequest(fmt.Sprintf("match-cycles-%d-%d", year, week), bytes.NewReader(reportJSON))
}
