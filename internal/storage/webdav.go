// SPDX-License-Identifier: MIT

package storage

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/net/http/httpguts"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/castlib/strmorg/internal/apperr"
	"github.com/castlib/strmorg/internal/log"
	"github.com/castlib/strmorg/internal/ratelimit"
	"github.com/castlib/strmorg/internal/resilience"
)

// WebDAVClient implements Client against a generic WebDAV server:
// PROPFIND Depth:1 for listing, PUT for upload, MKCOL for mkdir, MOVE with
// a Destination header for rename/move.
type WebDAVClient struct {
	baseURL  string
	username string
	password string

	http   *http.Client
	gate   *ratelimit.Gate
	cache  *dirCache
	cb     *resilience.CircuitBreaker
	policy RetryPolicy
}

// WebDAVOptions mirrors AlistOptions for the WebDAV backend.
type WebDAVOptions = AlistOptions

// NewWebDAVClient builds a fresh WebDAV client.
func NewWebDAVClient(baseURL, username, password string, opts WebDAVOptions) *WebDAVClient {
	connectTimeout := nonZeroDuration(opts.ConnectTimeout, 10*time.Second)
	rwTimeout := nonZeroDuration(opts.ReadWriteTimeout, 30*time.Second)
	maxConns := opts.MaxConnsPerHost
	if maxConns <= 0 {
		maxConns = 32
	}

	return &WebDAVClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		http:     newHTTPClient(connectTimeout, rwTimeout, maxConns),
		gate:     ratelimit.NewGate(opts.GateInterval),
		cache:    newDirCache(nonZeroInt(opts.CacheCapacity, 100), nonZeroDuration(opts.CacheTTL, 300*time.Second)),
		cb:       resilience.NewCircuitBreaker("storage.webdav", 5, 5, time.Minute, 30*time.Second),
		policy: RetryPolicy{
			MaxRetries:     nonZeroInt(opts.MaxRetries, 3),
			BaseDelay:      nonZeroDuration(opts.RetryBaseDelay, time.Second),
			RateLimitSleep: nonZeroDuration(opts.RateLimitSleep, 5*time.Second),
		},
	}
}

func (c *WebDAVClient) Kind() Kind { return KindWebDAV }

func (c *WebDAVClient) davURL(p string) string {
	return c.baseURL + "/dav" + encodeURIPathSegment(p)
}

func (c *WebDAVClient) do(ctx context.Context, method, p string, headers map[string]string, body []byte) (*http.Response, error) {
	var err error
	var resp *http.Response
	doErr := withRetry(ctx, c.policy, func(ctx context.Context) attemptResult {
		if gerr := c.gate.Wait(ctx); gerr != nil {
			return attemptResult{err: gerr}
		}

		var status int
		cbErr := c.cb.Execute(func() error {
			var reader io.Reader
			if body != nil {
				reader = bytes.NewReader(body)
			}
			req, rerr := http.NewRequestWithContext(ctx, method, c.davURL(p), reader)
			if rerr != nil {
				return rerr
			}
			if c.username != "" {
				req.SetBasicAuth(c.username, c.password)
			}
			for k, v := range headers {
				if !httpguts.ValidHeaderFieldValue(v) {
					return fmt.Errorf("webdav: invalid header value for %s", k)
				}
				req.Header.Set(k, v)
			}

			var derr error
			resp, derr = c.http.Do(req)
			if derr != nil {
				return derr
			}
			status = resp.StatusCode
			if isRetryableStatus(status) {
				resp.Body.Close()
				return fmt.Errorf("webdav %s %s: http %d", method, p, status)
			}
			return nil
		})
		if cbErr != nil {
			return attemptResult{err: cbErr, retryable: isRetryableStatus(status), rateLimited: isRateLimitStatus(status)}
		}
		return attemptResult{}
	})
	err = doErr
	return resp, err
}

type davMultistatus struct {
	Responses []davResponse `xml:"response"`
}

type davResponse struct {
	Href     string       `xml:"href"`
	Propstat []davPropstat `xml:"propstat"`
}

type davPropstat struct {
	Prop davProp `xml:"prop"`
}

type davProp struct {
	ResourceType     davResourceType `xml:"resourcetype"`
	ContentLength    string          `xml:"getcontentlength"`
	LastModified     string          `xml:"getlastmodified"`
	DisplayName      string          `xml:"displayname"`
}

type davResourceType struct {
	Collection *struct{} `xml:"collection"`
}

func (c *WebDAVClient) List(ctx context.Context, p string) ([]FileInfo, error) {
	if entries, ok := c.cache.get(p); ok {
		return entries, nil
	}

	const body = `<?xml version="1.0" encoding="utf-8" ?><propfind xmlns="DAV:"><allprop/></propfind>`
	resp, err := c.do(ctx, "PROPFIND", p, map[string]string{"Depth": "1", "Content-Type": "application/xml"}, []byte(body))
	if err != nil {
		return nil, apperr.New(apperr.KindTransient, "list", p, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperr.New(apperr.KindNotFound, "list", p, apperr.ErrEmptyInventory)
	}

	var ms davMultistatus
	if err := xml.NewDecoder(resp.Body).Decode(&ms); err != nil {
		return nil, apperr.New(apperr.KindData, "list", p, err)
	}

	entries := make([]FileInfo, 0, len(ms.Responses))
	selfHref, _ := url.PathUnescape(strings.TrimRight(strings.TrimPrefix(c.davURL(p), c.baseURL+"/dav"), "/"))
	for _, r := range ms.Responses {
		href, _ := url.PathUnescape(r.Href)
		href = strings.TrimPrefix(href, "/dav")
		href = strings.TrimRight(href, "/")
		if href == "" || href == selfHref {
			continue
		}
		if len(r.Propstat) == 0 {
			continue
		}
		prop := r.Propstat[0].Prop
		size, _ := strconv.ParseInt(prop.ContentLength, 10, 64)
		modified, _ := time.Parse(time.RFC1123, prop.LastModified)
		entries = append(entries, FileInfo{
			Path:     href,
			Name:     path.Base(href),
			IsDir:    prop.ResourceType.Collection != nil,
			Size:     size,
			Modified: modified,
		})
	}

	c.cache.set(p, entries)
	return entries, nil
}

func (c *WebDAVClient) GetContent(ctx context.Context, p string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, p, nil, nil)
	if err != nil {
		return nil, apperr.New(apperr.KindTransient, "get", p, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, apperr.New(apperr.KindNotFound, "get", p, apperr.ErrEmptyInventory)
	}
	return io.ReadAll(resp.Body)
}

func (c *WebDAVClient) PutContent(ctx context.Context, p string, content []byte) error {
	resp, err := c.do(ctx, http.MethodPut, p, map[string]string{"Content-Type": "application/octet-stream"}, content)
	if err != nil {
		return apperr.New(apperr.KindTransient, "put", p, err)
	}
	defer resp.Body.Close()
	c.cache.invalidateParent(p)
	return nil
}

func (c *WebDAVClient) Mkdir(ctx context.Context, p string) error {
	resp, err := c.do(ctx, "MKCOL", p, nil, nil)
	if err != nil {
		return apperr.New(apperr.KindTransient, "mkdir", p, err)
	}
	defer resp.Body.Close()
	// 405 Method Not Allowed means the collection already exists — not an
	// error.
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusMethodNotAllowed {
		return apperr.New(apperr.KindTransient, "mkdir", p, fmt.Errorf("http %d", resp.StatusCode))
	}
	c.cache.invalidateParent(p)
	return nil
}

func (c *WebDAVClient) Move(ctx context.Context, src, dst string) error {
	resp, err := c.do(ctx, "MOVE", src, map[string]string{"Destination": c.davURL(dst), "Overwrite": "T"}, nil)
	if err != nil {
		return apperr.New(apperr.KindTransient, "move", src, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return apperr.New(apperr.KindNotFound, "move", src, fmt.Errorf("http %d", resp.StatusCode))
	}
	c.cache.invalidateParent(src)
	c.cache.invalidateParent(dst)
	return nil
}

func (c *WebDAVClient) Copy(ctx context.Context, src, dst string) error {
	resp, err := c.do(ctx, "COPY", src, map[string]string{"Destination": c.davURL(dst), "Overwrite": "T"}, nil)
	if err != nil {
		return apperr.New(apperr.KindTransient, "copy", src, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return apperr.New(apperr.KindNotFound, "copy", src, fmt.Errorf("http %d", resp.StatusCode))
	}
	c.cache.invalidateParent(dst)
	return nil
}

func (c *WebDAVClient) Delete(ctx context.Context, p string) error {
	resp, err := c.do(ctx, http.MethodDelete, p, nil, nil)
	if err != nil {
		return apperr.New(apperr.KindTransient, "delete", p, err)
	}
	defer resp.Body.Close()
	c.cache.invalidateParent(p)
	return nil
}

func (c *WebDAVClient) Exists(ctx context.Context, p string) (bool, error) {
	resp, err := c.do(ctx, "PROPFIND", p, map[string]string{"Depth": "0"}, nil)
	if err != nil {
		return false, nil
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusMultiStatus, nil
}

func (c *WebDAVClient) DirectURL(ctx context.Context, p string) (string, error) {
	return c.davURL(p), nil
}

func (c *WebDAVClient) RefreshDir(ctx context.Context, p string) error {
	c.cache.invalidate(p)
	return nil
}

func (c *WebDAVClient) UploadBatch(ctx context.Context, files []UploadFile, concurrency int) (BatchResult, error) {
	if len(files) == 0 {
		return BatchResult{}, nil
	}
	dirs := map[string]bool{}
	for _, f := range files {
		dirs[path.Dir(f.Path)] = true
	}
	for d := range dirs {
		_ = c.Mkdir(ctx, d)
	}

	if concurrency <= 0 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	var mu sync.Mutex
	var wg sync.WaitGroup
	result := BatchResult{}

	for _, f := range files {
		f := f
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			resp, err := c.do(ctx, http.MethodPut, f.Path, map[string]string{"Content-Type": "application/octet-stream"}, f.Content)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				result.FailedPaths = append(result.FailedPaths, f.Path)
				return
			}
			resp.Body.Close()
			c.cache.invalidateParent(f.Path)
			result.Success++
		}()
	}
	wg.Wait()
	return result, nil
}

// decodeForLogging best-effort decodes subtitle bytes for log messages only;
// the bytes actually written to storage are never transformed. Falls back to
// GBK when UTF-8 decoding fails.
func decodeForLogging(data []byte) string {
	if isValidUTF8(data) {
		return string(data)
	}
	decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(data)
	if err != nil {
		log.L().Debug().Err(err).Msg("gbk fallback decode failed, logging raw bytes")
		return string(data)
	}
	return string(decoded)
}

func isValidUTF8(b []byte) bool {
	return utf8.Valid(b)
}
