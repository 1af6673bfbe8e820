package location

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func floatPtr(f float64) *float64 { return &f }

func TestSignal_HasCoordinates(t *testing.T) {
	assert.False(t, Signal{}.HasCoordinates())
	assert.True(t, Signal{Latitude: floatPtr(1), Longitude: floatPtr(2)}.HasCoordinates())
}

func TestSignal_IsNullIsland(t *testing.T) {
	assert.True(t, Signal{Latitude: floatPtr(0), Longitude: floatPtr(0)}.IsNullIsland())
	assert.False(t, Signal{Latitude: floatPtr(0.001), Longitude: floatPtr(0)}.IsNullIsland())
	assert.False(t, Signal{}.IsNullIsland())
}

func TestSignal_HasIntegerCoordinates(t *testing.T) {
	assert.True(t, Signal{Latitude: floatPtr(37), Longitude: floatPtr(-122)}.HasIntegerCoordinates())
	assert.False(t, Signal{Latitude: floatPtr(37.5), Longitude: floatPtr(-122)}.HasIntegerCoordinates())
}

func TestSignal_AgeMS(t *testing.T) {
	now := time.Now()
	sig := Signal{TimestampMS: now.Add(-90 * time.Second).UnixMilli()}
	assert.InDelta(t, 90_000, sig.AgeMS(now), 50)
}
