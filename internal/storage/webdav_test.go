// SPDX-License-Identifier: MIT

package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const propfindResponse = `<?xml version="1.0" encoding="utf-8"?>
<multistatus xmlns="DAV:">
  <response>
    <href>/dav/media/</href>
    <propstat><prop><resourcetype><collection/></resourcetype></prop></propstat>
  </response>
  <response>
    <href>/dav/media/Show%20S01E01.mkv</href>
    <propstat><prop>
      <resourcetype/>
      <getcontentlength>1024</getcontentlength>
      <getlastmodified>Thu, 01 Jan 2026 00:00:00 GMT</getlastmodified>
    </prop></propstat>
  </response>
  <response>
    <href>/dav/media/Subdir/</href>
    <propstat><prop><resourcetype><collection/></resourcetype></prop></propstat>
  </response>
</multistatus>`

func newTestWebDAVServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *WebDAVClient) {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewWebDAVClient(srv.URL, "user", "pass", testOptions())
	return srv, c
}

func TestWebDAVClient_List(t *testing.T) {
	_, c := newTestWebDAVServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PROPFIND", r.Method)
		assert.Equal(t, "1", r.Header.Get("Depth"))
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusMultiStatus)
		_, _ = w.Write([]byte(propfindResponse))
	})

	entries, err := c.List(context.Background(), "/media")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var file, dir *FileInfo
	for i := range entries {
		if entries[i].IsDir {
			dir = &entries[i]
		} else {
			file = &entries[i]
		}
	}
	require.NotNil(t, file)
	require.NotNil(t, dir)
	assert.Equal(t, "Show S01E01.mkv", file.Name)
	assert.Equal(t, int64(1024), file.Size)
	assert.Equal(t, "Subdir", dir.Name)
}

func TestWebDAVClient_List_CachesResult(t *testing.T) {
	calls := 0
	_, c := newTestWebDAVServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusMultiStatus)
		_, _ = w.Write([]byte(propfindResponse))
	})

	_, err := c.List(context.Background(), "/media")
	require.NoError(t, err)
	_, err = c.List(context.Background(), "/media")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWebDAVClient_PutContent(t *testing.T) {
	var gotBody []byte
	_, c := newTestWebDAVServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	})

	err := c.PutContent(context.Background(), "/media/a.strm", []byte("http://example/a.mkv"))
	require.NoError(t, err)
	assert.Equal(t, "http://example/a.mkv", string(gotBody))
}

func TestWebDAVClient_Mkdir_AlreadyExistsIsNotError(t *testing.T) {
	_, c := newTestWebDAVServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "MKCOL", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
	})

	err := c.Mkdir(context.Background(), "/media/Show")
	assert.NoError(t, err)
}

func TestWebDAVClient_Mkdir_Created(t *testing.T) {
	_, c := newTestWebDAVServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	err := c.Mkdir(context.Background(), "/media/Show")
	assert.NoError(t, err)
}

func TestWebDAVClient_Move_SetsDestinationHeader(t *testing.T) {
	var dest string
	_, c := newTestWebDAVServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "MOVE", r.Method)
		dest = r.Header.Get("Destination")
		w.WriteHeader(http.StatusCreated)
	})

	err := c.Move(context.Background(), "/media/a.mkv", "/archive/a.mkv")
	require.NoError(t, err)
	assert.Contains(t, dest, "/archive/a.mkv")
}

func TestWebDAVClient_Exists(t *testing.T) {
	_, c := newTestWebDAVServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMultiStatus)
	})

	ok, err := c.Exists(context.Background(), "/media/a.mkv")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWebDAVClient_Exists_FalseOnNotFound(t *testing.T) {
	_, c := newTestWebDAVServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	ok, err := c.Exists(context.Background(), "/media/missing.mkv")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWebDAVClient_UploadBatch(t *testing.T) {
	_, c := newTestWebDAVServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "MKCOL":
			w.WriteHeader(http.StatusCreated)
		case http.MethodPut:
			w.WriteHeader(http.StatusCreated)
		}
	})

	result, err := c.UploadBatch(context.Background(), []UploadFile{
		{Path: "/media/a.strm", Content: []byte("a")},
		{Path: "/media/b.strm", Content: []byte("b")},
	}, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Success)
	assert.Equal(t, 0, result.Failed)
}

func TestDecodeForLogging_ValidUTF8PassesThrough(t *testing.T) {
	assert.Equal(t, "hello", decodeForLogging([]byte("hello")))
}

func TestDecodeForLogging_FallsBackToGBK(t *testing.T) {
	// GBK encoding of "简体" (two bytes per char, non-UTF-8 valid sequence).
	gbk := []byte{0xBC, 0xF2, 0xCC, 0xE5}
	decoded := decodeForLogging(gbk)
	assert.NotEmpty(t, decoded)
}
