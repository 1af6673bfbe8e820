// Package providers holds the built-in IP-reputation adapters the VPN
// Aggregator dispatches to, each normalising one external schema into
// vpn.ProviderResult.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	apperrors "github.com/originwatch/originwatch/internal/domain/errors"
	"github.com/originwatch/originwatch/internal/domain/vpn"
)

// httpClient is shared by every adapter; the 5-second per-call deadline
// is applied by the aggregator via the request context, not here.
var httpClient = &http.Client{}

// getJSON issues a GET request against url and decodes a JSON response
// body into out. Non-2xx responses are reported as an error so the
// caller can fold them into a ProviderResult error marker.
func getJSON(ctx context.Context, url string, headers map[string]string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("provider returned HTTP %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// errorResult builds the error-marker ProviderResult a failed call
// collapses to; the aggregator treats it as an excluded-from-consensus
// provider, never as a request failure. The message is built from a
// ProviderTransient error, but only its text is kept on the result;
// the error value itself is not available to callers.
func errorResult(provider string, err error) vpn.ProviderResult {
	return vpn.ProviderResult{Provider: provider, Error: apperrors.NewProviderTransient(provider, err).Error()}
}
