// SPDX-License-Identifier: MIT

package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() AlistOptions {
	return AlistOptions{
		MaxRetries:     2,
		RetryBaseDelay: time.Millisecond,
		RateLimitSleep: 2 * time.Millisecond,
		CopyPollEvery:  time.Millisecond,
		CopyPollMax:    20 * time.Millisecond,
	}
}

func writeEnvelope(w http.ResponseWriter, code int, message string, data any) {
	raw, _ := json.Marshal(data)
	_ = json.NewEncoder(w).Encode(alistEnvelope{Code: code, Message: message, Data: raw})
}

func newTestAlistServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *AlistClient) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 200, "success", map[string]string{"token": "test-token"})
	})
	mux.HandleFunc("/", handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewAlistClient(srv.URL, "user", "pass", testOptions())
	return srv, c
}

func TestAlistClient_List(t *testing.T) {
	_, c := newTestAlistServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 200, "success", map[string]any{
			"content": []map[string]any{
				{"name": "Show S01E01.mkv", "size": 1024, "is_dir": false, "modified": "2026-01-01T00:00:00Z"},
				{"name": "Subdir", "size": 0, "is_dir": true, "modified": "2026-01-01T00:00:00Z"},
			},
		})
	})

	entries, err := c.List(context.Background(), "/media")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Show S01E01.mkv", entries[0].Name)
	assert.False(t, entries[0].IsDir)
	assert.True(t, entries[1].IsDir)
}

func TestAlistClient_List_CachesResult(t *testing.T) {
	var calls atomic.Int32
	_, c := newTestAlistServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeEnvelope(w, 200, "success", map[string]any{"content": []map[string]any{}})
	})

	_, err := c.List(context.Background(), "/media")
	require.NoError(t, err)
	_, err = c.List(context.Background(), "/media")
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load(), "second List must be served from the directory cache")
}

func TestAlistClient_PutContent_SetsFilePathHeader(t *testing.T) {
	var gotHeader string
	_, c := newTestAlistServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("File-Path")
		writeEnvelope(w, 200, "success", nil)
	})

	err := c.PutContent(context.Background(), "/media/a [2026].mkv", []byte("data"))
	require.NoError(t, err)
	assert.NotContains(t, gotHeader, "[")
	assert.NotContains(t, gotHeader, " ")
}

func TestAlistClient_ReauthenticatesOn401(t *testing.T) {
	var loginCalls, listCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		loginCalls.Add(1)
		writeEnvelope(w, 200, "success", map[string]string{"token": "test-token"})
	})
	mux.HandleFunc("/api/fs/list", func(w http.ResponseWriter, r *http.Request) {
		n := listCalls.Add(1)
		if n == 1 {
			writeEnvelope(w, 401, "token expired", nil)
			return
		}
		writeEnvelope(w, 200, "success", map[string]any{"content": []map[string]any{}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewAlistClient(srv.URL, "user", "pass", testOptions())
	_, err := c.List(context.Background(), "/media")
	require.NoError(t, err)
	assert.Equal(t, int32(2), loginCalls.Load(), "401 must trigger exactly one re-login")
}

func TestAlistClient_RateLimitedRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	_, c := newTestAlistServer(t, func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n == 1 {
			writeEnvelope(w, 429, "too many requests", nil)
			return
		}
		writeEnvelope(w, 200, "success", map[string]any{"content": []map[string]any{}})
	})

	_, err := c.List(context.Background(), "/media")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAlistClient_Mkdir_InvalidatesParent(t *testing.T) {
	_, c := newTestAlistServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/fs/mkdir":
			writeEnvelope(w, 200, "success", nil)
		default:
			writeEnvelope(w, 200, "success", map[string]any{"content": []map[string]any{}})
		}
	})

	_, _ = c.List(context.Background(), "/media")
	err := c.Mkdir(context.Background(), "/media/Show")
	require.NoError(t, err)

	_, ok := c.cache.get("/media")
	assert.False(t, ok, "mkdir must invalidate the parent directory's cached listing")
}

func TestAlistClient_Move_SameDirUsesRename(t *testing.T) {
	var sawRename, sawMove bool
	_, c := newTestAlistServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/fs/rename":
			sawRename = true
			writeEnvelope(w, 200, "success", nil)
		case "/api/fs/move":
			sawMove = true
			writeEnvelope(w, 200, "success", nil)
		}
	})

	err := c.Move(context.Background(), "/media/a.mkv", "/media/b.mkv")
	require.NoError(t, err)
	assert.True(t, sawRename)
	assert.False(t, sawMove)
}

func TestAlistClient_Move_CrossDirUsesMove(t *testing.T) {
	var sawMove bool
	_, c := newTestAlistServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/fs/move":
			sawMove = true
			writeEnvelope(w, 200, "success", nil)
		}
	})

	err := c.Move(context.Background(), "/media/a.mkv", "/archive/a.mkv")
	require.NoError(t, err)
	assert.True(t, sawMove)
}

func TestAlistClient_Copy_PollsUntilExists(t *testing.T) {
	var listCalls atomic.Int32
	_, c := newTestAlistServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/fs/copy":
			writeEnvelope(w, 200, "success", nil)
		case "/api/fs/list":
			n := listCalls.Add(1)
			if n < 3 {
				writeEnvelope(w, 200, "success", map[string]any{"content": []map[string]any{}})
				return
			}
			writeEnvelope(w, 200, "success", map[string]any{
				"content": []map[string]any{{"name": "a.mkv", "size": 1, "is_dir": false, "modified": "2026-01-01T00:00:00Z"}},
			})
		}
	})

	err := c.Copy(context.Background(), "/media/a.mkv", "/archive/a.mkv")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, listCalls.Load(), int32(3))
}

func TestAlistClient_Exists(t *testing.T) {
	_, c := newTestAlistServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 200, "success", map[string]any{
			"content": []map[string]any{{"name": "a.mkv", "size": 1, "is_dir": false, "modified": "2026-01-01T00:00:00Z"}},
		})
	})

	ok, err := c.Exists(context.Background(), "/media/a.mkv")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Exists(context.Background(), "/media/missing.mkv")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAlistClient_DirectURL_EncodesPath(t *testing.T) {
	c := NewAlistClient("https://alist.example.com", "u", "p", testOptions())
	url, err := c.DirectURL(context.Background(), "/media/Show [2026]/ep 01.mkv")
	require.NoError(t, err)
	assert.Contains(t, url, "%5B")
	assert.Contains(t, url, "%20")
	assert.NotContains(t, url, "%2F")
}

func TestAlistClient_UploadBatch_RecordsFailures(t *testing.T) {
	_, c := newTestAlistServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/fs/mkdir":
			writeEnvelope(w, 200, "success", nil)
		case r.URL.Path == "/api/fs/put":
			if r.Header.Get("File-Path") == encodeURIPathSegment("/media/fail.mkv") {
				writeEnvelope(w, 500, "internal error", nil)
				return
			}
			writeEnvelope(w, 200, "success", nil)
		}
	})

	result, err := c.UploadBatch(context.Background(), []UploadFile{
		{Path: "/media/ok.mkv", Content: []byte("a")},
		{Path: "/media/fail.mkv", Content: []byte("b")},
	}, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []string{"/media/fail.mkv"}, result.FailedPaths)
}
