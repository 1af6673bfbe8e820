package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	qdrant "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	apperrors "github.com/originwatch/originwatch/internal/domain/errors"
	fingerprintdomain "github.com/originwatch/originwatch/internal/domain/fingerprint"
	"github.com/originwatch/originwatch/internal/domain/vector"
)

// CollectionName is the single fixed collection the core owns.
const CollectionName = "geo_spoofer_sessions"

// payloadKey is the single field under which the full SessionFingerprint
// is stored, JSON-encoded, as the Qdrant point payload. Storing it as
// one opaque field rather than decomposing it into a native Qdrant
// struct keeps the payload shape in lock-step with the domain type.
const payloadKey = "fingerprint"

// QdrantStore implements Store against a Qdrant collection. EnsureCollection
// is idempotent across concurrent callers via sync.Once; the underlying
// qdrant.Client holds its own pooled gRPC connection, safe for concurrent
// use.
type QdrantStore struct {
	conn       *qdrant.Client
	collection string
	dimension  uint64
	logger     *zap.Logger

	ensureOnce sync.Once
	ensureErr  error
}

// Config holds the connection parameters for a QdrantStore.
type Config struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	Dimension  int
}

// NewQdrantStore dials the configured Qdrant endpoint. Dialing is
// synchronous; EnsureCollection must still be called once at startup
// before the store is used.
func NewQdrantStore(cfg Config, logger *zap.Logger) (*QdrantStore, error) {
	collection := cfg.Collection
	if collection == "" {
		collection = CollectionName
	}

	conn, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("dial qdrant: %w", err)
	}

	return &QdrantStore{
		conn:       conn,
		collection: collection,
		dimension:  uint64(cfg.Dimension),
		logger:     logger,
	}, nil
}

// EnsureCollection idempotently creates the target collection with
// cosine distance and the configured dimensionality. Concurrent calls
// collapse to a single creation attempt; an "already exists" response
// is treated as success.
func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	s.ensureOnce.Do(func() {
		err := s.conn.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     s.dimension,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil && !isAlreadyExists(err) {
			s.ensureErr = apperrors.NewVectorStoreUnavailable("create_collection", err)
			return
		}
		s.logger.Info("vector collection ready", zap.String("collection", s.collection))
	})
	return s.ensureErr
}

// Upsert writes one point, replacing any prior point sharing id.
func (s *QdrantStore) Upsert(ctx context.Context, id string, vec []float32, payload fingerprintdomain.SessionFingerprint) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal fingerprint payload: %w", err)
	}

	point := &qdrant.PointStruct{
		Id:      qdrant.NewID(id),
		Vectors: qdrant.NewVectors(vec...),
		Payload: map[string]*qdrant.Value{
			payloadKey: qdrant.NewValueString(string(encoded)),
		},
	}

	_, err = s.conn.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return apperrors.NewVectorStoreUnavailable("upsert", err)
	}
	return nil
}

// Search runs a cosine nearest-neighbour query, returning up to k
// neighbours ordered by descending similarity. An empty collection
// yields an empty, non-error result.
func (s *QdrantStore) Search(ctx context.Context, vec []float32, k int) ([]vector.Neighbour, error) {
	limit := uint64(k)
	points, err := s.conn.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vec...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, apperrors.NewVectorStoreUnavailable("search", err)
	}

	neighbours := make([]vector.Neighbour, 0, len(points))
	for _, p := range points {
		fp, err := decodePayload(p.GetPayload())
		if err != nil {
			s.logger.Warn("skipping neighbour with unparseable payload", zap.Error(err))
			continue
		}
		neighbours = append(neighbours, vector.Neighbour{
			ID:      p.GetId().String(),
			Score:   p.GetScore(),
			Payload: fp,
		})
	}
	return neighbours, nil
}

// Close releases the underlying connection.
func (s *QdrantStore) Close() error {
	return s.conn.Close()
}

func decodePayload(payload map[string]*qdrant.Value) (fingerprintdomain.SessionFingerprint, error) {
	var fp fingerprintdomain.SessionFingerprint
	v, ok := payload[payloadKey]
	if !ok {
		return fp, fmt.Errorf("payload missing %q field", payloadKey)
	}
	if err := json.Unmarshal([]byte(v.GetStringValue()), &fp); err != nil {
		return fp, fmt.Errorf("unmarshal fingerprint payload: %w", err)
	}
	return fp, nil
}

func isAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}
