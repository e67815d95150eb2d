// SPDX-License-Identifier: MIT

package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/castlib/strmorg/internal/apperr"
	"github.com/castlib/strmorg/internal/log"
	"github.com/castlib/strmorg/internal/ratelimit"
	"github.com/castlib/strmorg/internal/resilience"
	"github.com/castlib/strmorg/internal/telemetry"
)

var tooManyRe = regexp.MustCompile(`(?i)too many`)

// AlistClient implements Client against the Alist REST API
// (https://alist.nn.ci/guide/api/): POST-JSON endpoints under /api/fs/*,
// bearer-token auth from /api/auth/login.
type AlistClient struct {
	baseURL  string
	username string
	password string

	http   *http.Client
	gate   *ratelimit.Gate
	cache  *dirCache
	cb     *resilience.CircuitBreaker
	policy RetryPolicy

	copyPollEvery time.Duration
	copyPollMax   time.Duration

	tokenMu sync.RWMutex
	token   string
}

// AlistOptions configures a new AlistClient. Zero values fall back to
// config.Default().Storage.
type AlistOptions struct {
	GateInterval    time.Duration
	CacheTTL        time.Duration
	CacheCapacity   int
	RateLimitSleep  time.Duration
	MaxRetries      int
	RetryBaseDelay  time.Duration
	CopyPollEvery   time.Duration
	CopyPollMax     time.Duration
	ConnectTimeout  time.Duration
	ReadWriteTimeout time.Duration
	MaxConnsPerHost int
}

// NewAlistClient builds a fresh Alist client. Use Connect (package-level) to
// go through the process-wide interning cache instead of calling this
// directly in orchestrator code.
func NewAlistClient(baseURL, username, password string, opts AlistOptions) *AlistClient {
	connectTimeout := nonZeroDuration(opts.ConnectTimeout, 10*time.Second)
	rwTimeout := nonZeroDuration(opts.ReadWriteTimeout, 30*time.Second)
	maxConns := opts.MaxConnsPerHost
	if maxConns <= 0 {
		maxConns = 32
	}

	return &AlistClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		http:     newHTTPClient(connectTimeout, rwTimeout, maxConns),
		gate:     ratelimit.NewGate(opts.GateInterval),
		cache:    newDirCache(nonZeroInt(opts.CacheCapacity, 100), nonZeroDuration(opts.CacheTTL, 300*time.Second)),
		cb:       resilience.NewCircuitBreaker("storage.alist", 5, 5, time.Minute, 30*time.Second),
		policy: RetryPolicy{
			MaxRetries:     nonZeroInt(opts.MaxRetries, 3),
			BaseDelay:      nonZeroDuration(opts.RetryBaseDelay, time.Second),
			RateLimitSleep: nonZeroDuration(opts.RateLimitSleep, 5*time.Second),
		},
		copyPollEvery: nonZeroDuration(opts.CopyPollEvery, 500*time.Millisecond),
		copyPollMax:   nonZeroDuration(opts.CopyPollMax, 30*time.Second),
	}
}

func nonZeroDuration(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

func nonZeroInt(n, fallback int) int {
	if n <= 0 {
		return fallback
	}
	return n
}

func (c *AlistClient) Kind() Kind { return KindAlist }

type alistEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *AlistClient) login(ctx context.Context) error {
	body, _ := json.Marshal(map[string]string{"username": c.username, "password": c.password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return apperr.New(apperr.KindFatal, "login", "", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.New(apperr.KindTransient, "login", "", err)
	}
	defer resp.Body.Close()

	var env alistEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return apperr.New(apperr.KindAuthentication, "login", "", err)
	}
	if env.Code != 200 {
		return apperr.New(apperr.KindAuthentication, "login", "", apperr.ErrAuthFailed)
	}

	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		return apperr.New(apperr.KindAuthentication, "login", "", apperr.ErrAuthFailed)
	}

	c.tokenMu.Lock()
	c.token = data.Token
	c.tokenMu.Unlock()
	return nil
}

func (c *AlistClient) ensureLoggedIn(ctx context.Context) error {
	c.tokenMu.RLock()
	has := c.token != ""
	c.tokenMu.RUnlock()
	if has {
		return nil
	}
	return c.login(ctx)
}

func (c *AlistClient) authHeader() string {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	return c.token
}

// doJSON executes one Alist POST-JSON call with the shared retry/backoff
// and rate-gate policy, re-logging-in once on a 401 without counting it
// against the retry budget.
func (c *AlistClient) doJSON(ctx context.Context, op, endpoint string, payload any) (*alistEnvelope, error) {
	done := log.Op(ctx, "storage.alist", op)
	var result error
	defer func() { done(result) }()

	if err := c.ensureLoggedIn(ctx); err != nil {
		result = err
		return nil, err
	}

	tracer := telemetry.Tracer("storage.alist")
	ctx, span := tracer.Start(ctx, op, trace.WithAttributes(telemetry.StorageAttributes(KindAlist.String(), op, endpoint)...))
	defer span.End()

	reauthed := false
	var env alistEnvelope
	var attempt func(ctx context.Context) attemptResult
	attempt = func(ctx context.Context) attemptResult {
		if err := c.gate.Wait(ctx); err != nil {
			return attemptResult{err: err}
		}

		body, _ := json.Marshal(payload)
		var status int
		cbErr := c.cb.Execute(func() error {
			req, rerr := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
			if rerr != nil {
				return rerr
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", c.authHeader())

			resp, derr := c.http.Do(req)
			if derr != nil {
				return derr
			}
			defer resp.Body.Close()
			status = resp.StatusCode

			if isRetryableStatus(status) && status != http.StatusOK {
				return fmt.Errorf("alist %s: http %d", op, status)
			}

			env = alistEnvelope{}
			return json.NewDecoder(resp.Body).Decode(&env)
		})

		if cbErr != nil {
			return attemptResult{err: cbErr, retryable: isRetryableStatus(status)}
		}

		if env.Code == 401 && !reauthed {
			reauthed = true
			if lerr := c.login(ctx); lerr != nil {
				return attemptResult{err: lerr}
			}
			return attempt(ctx)
		}
		if env.Code == 429 || tooManyRe.MatchString(env.Message) {
			return attemptResult{err: fmt.Errorf("alist %s: rate limited: %s", op, env.Message), retryable: true, rateLimited: true}
		}
		if env.Code != 200 {
			return attemptResult{err: fmt.Errorf("alist %s: code=%d message=%s", op, env.Code, env.Message)}
		}
		return attemptResult{}
	}
	err := withRetry(ctx, c.policy, attempt)

	result = err
	if err != nil {
		return nil, apperr.New(apperr.KindTransient, op, endpoint, err)
	}
	return &env, nil
}

func (c *AlistClient) List(ctx context.Context, p string) ([]FileInfo, error) {
	if entries, ok := c.cache.get(p); ok {
		return entries, nil
	}

	env, err := c.doJSON(ctx, "list", "/api/fs/list", map[string]any{
		"path": p, "page": 1, "per_page": 0, "refresh": false,
	})
	if err != nil {
		return nil, err
	}

	var data struct {
		Content []struct {
			Name     string `json:"name"`
			Size     int64  `json:"size"`
			IsDir    bool   `json:"is_dir"`
			Modified string `json:"modified"`
		} `json:"content"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, apperr.New(apperr.KindData, "list", p, err)
	}

	entries := make([]FileInfo, 0, len(data.Content))
	for _, item := range data.Content {
		modified, _ := time.Parse(time.RFC3339, item.Modified)
		entries = append(entries, FileInfo{
			Path:     path.Join(p, item.Name),
			Name:     item.Name,
			IsDir:    item.IsDir,
			Size:     item.Size,
			Modified: modified,
		})
	}

	c.cache.set(p, entries)
	return entries, nil
}

func (c *AlistClient) GetContent(ctx context.Context, p string) ([]byte, error) {
	env, err := c.doJSON(ctx, "get", "/api/fs/get", map[string]any{"path": p, "password": ""})
	if err != nil {
		return nil, err
	}

	var data struct {
		RawURL string `json:"raw_url"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.RawURL == "" {
		return nil, apperr.New(apperr.KindNotFound, "get", p, apperr.ErrEmptyInventory)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, data.RawURL, nil)
	if err != nil {
		return nil, apperr.New(apperr.KindFatal, "get", p, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.New(apperr.KindTransient, "get", p, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.New(apperr.KindTransient, "get", p, fmt.Errorf("http %d", resp.StatusCode))
	}
	return io.ReadAll(resp.Body)
}

func (c *AlistClient) PutContent(ctx context.Context, p string, content []byte) error {
	done := log.Op(ctx, "storage.alist", "put")
	var result error
	defer func() { done(result) }()

	if err := c.ensureLoggedIn(ctx); err != nil {
		result = err
		return err
	}

	err := withRetry(ctx, c.policy, func(ctx context.Context) attemptResult {
		if err := c.gate.Wait(ctx); err != nil {
			return attemptResult{err: err}
		}

		var status int
		var env alistEnvelope
		cbErr := c.cb.Execute(func() error {
			req, rerr := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/api/fs/put", bytes.NewReader(content))
			if rerr != nil {
				return rerr
			}
			req.Header.Set("Content-Type", "application/octet-stream")
			req.Header.Set("Authorization", c.authHeader())
			req.Header.Set("File-Path", encodeURIPathSegment(p))

			resp, derr := c.http.Do(req)
			if derr != nil {
				return derr
			}
			defer resp.Body.Close()
			status = resp.StatusCode
			if isRetryableStatus(status) && status != http.StatusOK {
				return fmt.Errorf("put: http %d", status)
			}
			return json.NewDecoder(resp.Body).Decode(&env)
		})
		if cbErr != nil {
			return attemptResult{err: cbErr, retryable: isRetryableStatus(status)}
		}
		if env.Code == 429 || tooManyRe.MatchString(env.Message) {
			return attemptResult{err: fmt.Errorf("put: rate limited"), retryable: true, rateLimited: true}
		}
		if env.Code != 200 {
			return attemptResult{err: fmt.Errorf("put: code=%d message=%s", env.Code, env.Message)}
		}
		return attemptResult{}
	})

	if err != nil {
		result = apperr.New(apperr.KindTransient, "put", p, err)
		return result
	}
	c.cache.invalidateParent(p)
	return nil
}

func (c *AlistClient) Mkdir(ctx context.Context, p string) error {
	_, err := c.doJSON(ctx, "mkdir", "/api/fs/mkdir", map[string]any{"path": p})
	if err != nil {
		return err
	}
	c.cache.invalidateParent(p)
	return nil
}

func (c *AlistClient) Move(ctx context.Context, src, dst string) error {
	srcDir, srcName := path.Dir(src), path.Base(src)
	dstDir, dstName := path.Dir(dst), path.Base(dst)

	if srcDir == dstDir {
		_, err := c.doJSON(ctx, "rename", "/api/fs/rename", map[string]any{"path": src, "name": dstName})
		if err != nil {
			return err
		}
		c.cache.invalidateParent(src)
		return nil
	}

	_, err := c.doJSON(ctx, "move", "/api/fs/move", map[string]any{
		"src_dir": srcDir, "dst_dir": dstDir, "names": []string{srcName},
	})
	if err != nil {
		return err
	}
	c.cache.invalidateParent(src)
	c.cache.invalidateParent(dst)

	if srcName != dstName {
		moved := path.Join(dstDir, srcName)
		if _, rerr := c.doJSON(ctx, "rename", "/api/fs/rename", map[string]any{"path": moved, "name": dstName}); rerr != nil {
			return rerr
		}
	}
	return nil
}

func (c *AlistClient) Copy(ctx context.Context, src, dst string) error {
	srcDir, srcName := path.Dir(src), path.Base(src)
	dstDir := path.Dir(dst)

	_, err := c.doJSON(ctx, "copy", "/api/fs/copy", map[string]any{
		"src_dir": srcDir, "dst_dir": dstDir, "names": []string{srcName},
	})
	if err != nil {
		return err
	}
	c.cache.invalidateParent(dst)

	// Alist copy completes asynchronously; poll for the target to appear,
	// continuing optimistically on timeout. Each poll must bypass the
	// directory cache or it would just keep re-reading the first (negative)
	// listing.
	deadline := time.Now().Add(c.copyPollMax)
	expected := path.Join(dstDir, srcName)
	for time.Now().Before(deadline) {
		c.cache.invalidate(dstDir)
		if ok, _ := c.Exists(ctx, expected); ok {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.copyPollEvery):
		}
	}

	if path.Base(dst) != srcName {
		return c.Move(ctx, expected, dst)
	}
	return nil
}

func (c *AlistClient) Delete(ctx context.Context, p string) error {
	dir, name := path.Dir(p), path.Base(p)
	_, err := c.doJSON(ctx, "remove", "/api/fs/remove", map[string]any{"dir": dir, "names": []string{name}})
	if err != nil {
		return err
	}
	c.cache.invalidateParent(p)
	return nil
}

func (c *AlistClient) Exists(ctx context.Context, p string) (bool, error) {
	entries, err := c.List(ctx, path.Dir(p))
	if err != nil {
		return false, err
	}
	name := path.Base(p)
	for _, e := range entries {
		if e.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (c *AlistClient) DirectURL(ctx context.Context, p string) (string, error) {
	return c.baseURL + "/d" + encodeURIPathSegment(p), nil
}

func (c *AlistClient) RefreshDir(ctx context.Context, p string) error {
	c.cache.invalidate(p)
	_, err := c.doJSON(ctx, "refresh", "/api/fs/list", map[string]any{
		"path": p, "page": 1, "per_page": 0, "refresh": true,
	})
	return err
}

// UploadBatch creates the required parent directories serially (through the
// rate gate), then uploads files in parallel bounded by concurrency,
// bypassing the gate.
func (c *AlistClient) UploadBatch(ctx context.Context, files []UploadFile, concurrency int) (BatchResult, error) {
	if len(files) == 0 {
		return BatchResult{}, nil
	}
	if err := c.ensureLoggedIn(ctx); err != nil {
		return BatchResult{}, err
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

			err := c.putNoGate(ctx, f.Path, f.Content)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				result.FailedPaths = append(result.FailedPaths, f.Path)
			} else {
				result.Success++
			}
		}()
	}
	wg.Wait()
	return result, nil
}

// putNoGate issues a single PUT without passing through the rate gate, used
// by UploadBatch which governs concurrency with its own semaphore instead.
func (c *AlistClient) putNoGate(ctx context.Context, p string, content []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/api/fs/put", bytes.NewReader(content))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Authorization", c.authHeader())
	req.Header.Set("File-Path", encodeURIPathSegment(p))

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env alistEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return err
	}
	if env.Code != 200 {
		return fmt.Errorf("put %s: code=%d message=%s", p, env.Code, env.Message)
	}
	c.cache.invalidateParent(p)
	return nil
}

func (k Kind) String() string { return string(k) }
