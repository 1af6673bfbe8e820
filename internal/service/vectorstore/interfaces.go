// Package vectorstore implements the vector-store half of the
// Embedding & Vector Store Client: a cosine-metric collection holding
// one point per session, backed by Qdrant.
package vectorstore

import (
	"context"

	fingerprintdomain "github.com/originwatch/originwatch/internal/domain/fingerprint"
	"github.com/originwatch/originwatch/internal/domain/vector"
)

// Store is the capability the orchestrator depends on: idempotent
// collection setup, upsert, and nearest-neighbour search. Every
// operation is safe to call from multiple in-flight requests.
type Store interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, id string, vec []float32, payload fingerprintdomain.SessionFingerprint) error
	Search(ctx context.Context, vec []float32, k int) ([]vector.Neighbour, error)
	Close() error
}
