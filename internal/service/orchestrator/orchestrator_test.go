package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/originwatch/originwatch/internal/config"
	"github.com/originwatch/originwatch/internal/domain/environment"
	apperrors "github.com/originwatch/originwatch/internal/domain/errors"
	fingerprintdomain "github.com/originwatch/originwatch/internal/domain/fingerprint"
	"github.com/originwatch/originwatch/internal/domain/location"
	"github.com/originwatch/originwatch/internal/domain/network"
	riskdomain "github.com/originwatch/originwatch/internal/domain/risk"
	"github.com/originwatch/originwatch/internal/domain/vector"
	"github.com/originwatch/originwatch/internal/domain/verdict"
	environmentsvc "github.com/originwatch/originwatch/internal/service/environment"
	fingerprintsvc "github.com/originwatch/originwatch/internal/service/fingerprint"
	locationsvc "github.com/originwatch/originwatch/internal/service/location"
	"github.com/originwatch/originwatch/internal/service/vpnguard"
)

type stubEmbedder struct {
	vec []float32
	err error
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.vec, e.err
}

type stubStore struct {
	ensureErr error
	searchErr error
	upsertErr error
	neighbours []vector.Neighbour
}

func (s *stubStore) EnsureCollection(ctx context.Context) error { return s.ensureErr }
func (s *stubStore) Upsert(ctx context.Context, id string, vec []float32, payload fingerprintdomain.SessionFingerprint) error {
	return s.upsertErr
}
func (s *stubStore) Search(ctx context.Context, vec []float32, k int) ([]vector.Neighbour, error) {
	return s.neighbours, s.searchErr
}
func (s *stubStore) Close() error { return nil }

type stubEvaluator struct {
	result riskdomain.Evaluation
}

func (e *stubEvaluator) Evaluate(ctx context.Context, fp fingerprintdomain.SessionFingerprint, neighbours []vector.Neighbour) riskdomain.Evaluation {
	return e.result
}

func floatPtr(f float64) *float64 { return &f }

func newTestOrchestrator(embedder Embedder, store *stubStore) *Orchestrator {
	registry := config.NewRegistry()
	logger := zap.NewNop()
	return New(
		logger,
		locationsvc.NewVerifier(registry),
		environmentsvc.NewAnalyzer(registry),
		vpnguard.NewAggregator(logger, registry, nil),
		fingerprintsvc.NewBuilder(),
		embedder,
		store,
		&stubEvaluator{result: riskdomain.Evaluation{Tier: riskdomain.TierLow, Processing: riskdomain.ProcessingFast}},
		nil,
	)
}

func authenticRequest() Request {
	return Request{
		Location: location.Signal{
			Latitude:    floatPtr(37.7749),
			Longitude:   floatPtr(-122.4194),
			TimestampMS: 0,
		},
		Environment: environment.Signal{
			ScreenWidth:  1920,
			ScreenHeight: 1080,
			ColorDepth:   32,
			Platform:     "MacIntel",
		},
		Network: network.Signal{ClientIP: "8.8.8.8"},
	}
}

func TestOrchestrator_MissingClientIPIsInputInvalid(t *testing.T) {
	o := newTestOrchestrator(nil, nil)
	req := authenticRequest()
	req.Network.ClientIP = ""

	_, err := o.Verify(context.Background(), req)

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInputInvalid))
}

func TestOrchestrator_PartialCoordinatesIsInputInvalid(t *testing.T) {
	o := newTestOrchestrator(nil, nil)
	req := authenticRequest()
	req.Location.Longitude = nil

	_, err := o.Verify(context.Background(), req)

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInputInvalid))
}

func TestOrchestrator_NoVectorStoreConfiguredRecordsDiagnostic(t *testing.T) {
	o := newTestOrchestrator(nil, nil)

	v, err := o.Verify(context.Background(), authenticRequest())

	require.NoError(t, err)
	assert.Contains(t, v.Diagnostics, "vector similarity search skipped: no embedding/vector store configured")
	assert.Equal(t, verdict.StatusAuthentic, v.Status)
}

func TestOrchestrator_VectorStoreFailureDoesNotFailVerdict(t *testing.T) {
	embedder := &stubEmbedder{err: errors.New("embedding backend unreachable")}
	store := &stubStore{}
	o := newTestOrchestrator(embedder, store)

	v, err := o.Verify(context.Background(), authenticRequest())

	require.NoError(t, err)
	assert.Contains(t, v.Diagnostics, "embedding unavailable")
	assert.Equal(t, riskdomain.TierLow, v.Risk.Tier)
}

func TestOrchestrator_SuccessfulNeighbourSearchRecordsNoDiagnostics(t *testing.T) {
	embedder := &stubEmbedder{vec: make([]float32, vector.Dimension)}
	store := &stubStore{neighbours: []vector.Neighbour{{ID: "n1", Score: 0.9}}}
	o := newTestOrchestrator(embedder, store)

	v, err := o.Verify(context.Background(), authenticRequest())

	require.NoError(t, err)
	assert.Empty(t, v.Diagnostics)
}

func TestOrchestrator_MissingLocationYieldsUnableToVerify(t *testing.T) {
	o := newTestOrchestrator(nil, nil)
	req := authenticRequest()
	req.Location = location.Signal{}

	v, err := o.Verify(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, verdict.StatusUnableToVerify, v.Status)
	assert.Equal(t, 100, v.EnvironmentScore, "environment analysis still runs and is preserved on the verdict")
}
