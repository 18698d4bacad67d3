package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cityagent/emptyleg/pkg/stats/calculator"
	"github.com/cityagent/emptyleg/pkg/store"
	"github.com/cityagent/emptyleg/pkg/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	matches []*transfer.Match
	last    store.ListOptions
	err     error
}

func (f *fakeLister) ListMatches(ctx context.Context, listOptions store.ListOptions) ([]*transfer.Match, error) {
	f.last = listOptions
	return f.matches, f.err
}

func testStats(ctx context.Context) (calculator.RecordStatsData, error) {
	return calculator.RecordStatsData{
		Matches: calculator.MatchStats{Total: 3, Active: 2},
	}, nil
}

func decodeBody(t *testing.T, body io.Reader, into interface{}) {
	contents, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(contents, into))
}

func TestListMatches(t *testing.T) {
	lister := &fakeLister{matches: []*transfer.Match{
		{
			RideID:      "R1",
			MatchedID:   "T1",
			MatchSource: transfer.RecordFamilyCalendar,
			Pickup:      "Dalaman Airport",
			MatchStatus: transfer.MatchStatusActive,
			LastUpdated: time.Date(2025, 7, 14, 12, 0, 0, 0, time.UTC),
		},
	}}
	app := NewApp(lister, testStats)

	resp, err := app.Test(httptest.NewRequest("GET", "/matches/", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, int64(100), lister.last.Limit)

	var basic []map[string]interface{}
	decodeBody(t, resp.Body, &basic)
	require.Len(t, basic, 1)
	assert.Equal(t, "R1", basic[0]["Ride_ID"])
	assert.Equal(t, "Calendar", basic[0]["Match_Source"])
	assert.NotContains(t, basic[0], "Pickup")
	assert.NotContains(t, basic[0], "last_updated")

	resp, err = app.Test(httptest.NewRequest("GET", "/matches/?detailed=true&limit=5000&status=Outdated", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, int64(1000), lister.last.Limit)
	assert.Equal(t, transfer.MatchStatusOutdated, lister.last.Status)

	var detailed []map[string]interface{}
	decodeBody(t, resp.Body, &detailed)
	assert.Equal(t, "Dalaman Airport", detailed[0]["Pickup"])
}

func TestRideMatches(t *testing.T) {
	lister := &fakeLister{}
	app := NewApp(lister, testStats)

	resp, err := app.Test(httptest.NewRequest("GET", "/matches/R42", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "R42", lister.last.RideID)
	assert.Equal(t, transfer.MatchStatusActive, lister.last.Status)
}

func TestMatchErrors(t *testing.T) {
	lister := &fakeLister{err: errors.New("boom")}
	app := NewApp(lister, testStats)

	resp, err := app.Test(httptest.NewRequest("GET", "/matches/", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/matches/?limit=-3", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestStatsAndVersion(t *testing.T) {
	app := NewApp(&fakeLister{}, testStats)

	resp, err := app.Test(httptest.NewRequest("GET", "/stats", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var stats calculator.RecordStatsData
	decodeBody(t, resp.Body, &stats)
	assert.Equal(t, 2, stats.Matches.Active)

	resp, err = app.Test(httptest.NewRequest("GET", "/version", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}
