// SPDX-License-Identifier: MIT

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Capabilities records what Probe learned about the remote server beyond
// its wire protocol: a version string when the backend exposes one.
type Capabilities struct {
	Version string
}

// Probe determines whether baseURL speaks the Alist REST API or plain
// WebDAV: GET /api/public/settings returns JSON with a non-zero `code`
// field on Alist; anything else (including a non-JSON or error response) is
// treated as WebDAV.
func Probe(ctx context.Context, httpClient *http.Client, baseURL string) (Kind, Capabilities, error) {
	url := strings.TrimRight(baseURL, "/") + "/api/public/settings"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", Capabilities{}, fmt.Errorf("probe: build request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return KindWebDAV, Capabilities{}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return KindWebDAV, Capabilities{}, nil
	}

	var body struct {
		Code int `json:"code"`
		Data struct {
			Version string `json:"version"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return KindWebDAV, Capabilities{}, nil
	}
	if body.Code != 0 {
		return KindAlist, Capabilities{Version: body.Data.Version}, nil
	}
	return KindWebDAV, Capabilities{}, nil
}
