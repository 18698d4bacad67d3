package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUniqueStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, UniqueStrings([]string{"a", "b", "", "a", "c", "b"}))
	assert.Nil(t, UniqueStrings(nil))
}

func TestInPlaceFilter(t *testing.T) {
	values := []int{1, 2, 3, 4, 5, 6}
	InPlaceFilter(&values, func(v int) bool { return v%2 == 0 })

	assert.Equal(t, []int{2, 4, 6}, values)
}

func TestNormaliseUTC(t *testing.T) {
	istanbul := time.FixedZone("TRT", 3*3600)
	local := time.Date(2025, 6, 1, 13, 0, 0, 0, istanbul)

	normalised := NormaliseUTC(local)
	assert.Equal(t, time.UTC, normalised.Location())
	assert.Equal(t, 10, normalised.Hour())
	assert.True(t, NormaliseUTC(time.Time{}).IsZero())
}

func TestMinutesBetween(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, 30.0, MinutesBetween(start, start.Add(30*time.Minute)))
	assert.Equal(t, -15.0, MinutesBetween(start, start.Add(-15*time.Minute)))
}
