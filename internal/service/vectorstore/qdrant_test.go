package vectorstore

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fingerprintdomain "github.com/originwatch/originwatch/internal/domain/fingerprint"
)

func TestDecodePayload_RoundTrips(t *testing.T) {
	fp := fingerprintdomain.SessionFingerprint{
		ID: "abc",
		Summary: fingerprintdomain.Summary{
			OverallRisk: fingerprintdomain.RiskHigh,
		},
	}
	encoded, err := json.Marshal(fp)
	require.NoError(t, err)

	payload := map[string]*qdrant.Value{
		payloadKey: qdrant.NewValueString(string(encoded)),
	}

	decoded, err := decodePayload(payload)
	require.NoError(t, err)
	assert.Equal(t, fp.ID, decoded.ID)
	assert.Equal(t, fingerprintdomain.RiskHigh, decoded.Summary.OverallRisk)
}

func TestDecodePayload_MissingFieldErrors(t *testing.T) {
	_, err := decodePayload(map[string]*qdrant.Value{})
	assert.Error(t, err)
}

func TestIsAlreadyExists(t *testing.T) {
	assert.True(t, isAlreadyExists(errors.New("rpc error: Collection `geo_spoofer_sessions` already exists")))
	assert.False(t, isAlreadyExists(errors.New("connection refused")))
	assert.False(t, isAlreadyExists(nil))
}
