// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// doJSON sends body (if non-nil) as a JSON request and either prints the raw
// response body (when asJSON is set) or decodes it into out for the caller
// to format.
func doJSON(method, url string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to strmorgd failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if asJSON {
		fmt.Println(string(respBody))
		if resp.StatusCode >= 400 {
			return fmt.Errorf("strmorgd returned HTTP %d", resp.StatusCode)
		}
		return nil
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("strmorgd returned HTTP %d: %s", resp.StatusCode, string(respBody))
	}
	if out != nil {
		return json.Unmarshal(respBody, out)
	}
	return nil
}
