// Package providers adapts external services to the tool contracts.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"voxd/internal/fault"
)

// getJSON fetches target and decodes a 200 response into v. Failures come
// back as *fault.ProviderError.
func getJSON(ctx context.Context, hc *http.Client, provider, target string, header http.Header, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fault.Provider(provider, fault.KindBadResponse, err)
	}
	for k, vals := range header {
		req.Header[k] = vals
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fault.FromTransport(provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fault.FromStatus(provider, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fault.Provider(provider, fault.KindBadResponse, fmt.Errorf("decode: %w", err))
	}
	return nil
}

func client(hc *http.Client) *http.Client {
	if hc == nil {
		return http.DefaultClient
	}
	return hc
}
