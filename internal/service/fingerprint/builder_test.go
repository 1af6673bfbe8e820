package fingerprint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	environmentdomain "github.com/originwatch/originwatch/internal/domain/environment"
	"github.com/originwatch/originwatch/internal/domain/flag"
	locationdomain "github.com/originwatch/originwatch/internal/domain/location"
	"github.com/originwatch/originwatch/internal/domain/network"
	"github.com/originwatch/originwatch/internal/domain/session"
	"github.com/originwatch/originwatch/internal/domain/vpn"
)

func sampleRecord() session.Record {
	lat, lon, acc := 37.7749, -122.4194, 15.0
	return session.Record{
		LocationAvailable: true,
		Location: locationdomain.Signal{
			Latitude:       &lat,
			Longitude:      &lon,
			AccuracyMeters: &acc,
			ResponseTimeMS: 250,
		},
		Environment: environmentdomain.Signal{
			ScreenWidth:   1920,
			ScreenHeight:  1080,
			Platform:      "Win32",
			WebGLRenderer: "NVIDIA GeForce GTX 1080",
			UserAgent:     "Mozilla/5.0",
		},
		Network: network.Signal{ClientIP: "203.0.113.5"},
		VPN:     vpn.AggregateResult{IsVPN: false, Confidence: 0},
		LocationScore:    90,
		EnvironmentScore: 100,
		LocationFlags:    []flag.Flag{flag.New(flag.SeverityWarning, "Low location accuracy")},
	}
}

func TestBuilder_ProjectionIsDeterministic(t *testing.T) {
	b := NewBuilder()
	rec := sampleRecord()
	now := time.Unix(1700000000, 0)

	fp1 := b.Build(rec, now)
	fp2 := b.Build(rec, now)

	assert.Equal(t, Project(fp1), Project(fp2))
	assert.NotEqual(t, fp1.ID, fp2.ID, "ID is assigned fresh per call")
}

func TestBuilder_MissingLocationRecordsNull(t *testing.T) {
	b := NewBuilder()
	rec := sampleRecord()
	rec.LocationAvailable = false

	fp := b.Build(rec, time.Now())

	assert.Nil(t, fp.Location.Latitude)
	assert.Contains(t, Project(fp), "location: unknown")
}

func TestBuilder_OverallRiskBands(t *testing.T) {
	b := NewBuilder()

	high := sampleRecord()
	high.LocationScore, high.EnvironmentScore = 10, 20
	assert.Equal(t, "high", string(b.Build(high, time.Now()).Summary.OverallRisk))

	medium := sampleRecord()
	medium.LocationScore, medium.EnvironmentScore = 50, 60
	assert.Equal(t, "medium", string(b.Build(medium, time.Now()).Summary.OverallRisk))

	low := sampleRecord()
	low.LocationScore, low.EnvironmentScore = 90, 100
	assert.Equal(t, "low", string(b.Build(low, time.Now()).Summary.OverallRisk))
}

func TestBuilder_SpoofingIndicatorsPreserveOrder(t *testing.T) {
	b := NewBuilder()
	rec := sampleRecord()
	rec.LocationFlags = []flag.Flag{
		flag.New(flag.SeverityWarning, "first"),
		flag.New(flag.SeverityFail, "second"),
	}
	rec.EnvironmentFlags = []flag.Flag{
		flag.New(flag.SeverityWarning, "third"),
	}

	fp := b.Build(rec, time.Now())

	assert.Equal(t, []string{"first", "second", "third"}, fp.Summary.SpoofingIndicators)
}
