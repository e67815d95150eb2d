// SPDX-License-Identifier: MIT

package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternKey_StableForSameInputs(t *testing.T) {
	a := internKey("https://host", "user", "pass")
	b := internKey("https://host", "user", "pass")
	assert.Equal(t, a, b)
}

func TestInternKey_DiffersOnAnyField(t *testing.T) {
	base := internKey("https://host", "user", "pass")
	assert.NotEqual(t, base, internKey("https://other", "user", "pass"))
	assert.NotEqual(t, base, internKey("https://host", "other", "pass"))
	assert.NotEqual(t, base, internKey("https://host", "user", "other"))
}

func TestClientCache_GetOrCreate_ReusesInstance(t *testing.T) {
	c := &clientCache{entries: make(map[string]Client)}
	builds := 0
	build := func() Client {
		builds++
		return &fakeClient{}
	}

	first := c.getOrCreate("https://host", "u", "p", build)
	second := c.getOrCreate("https://host", "u", "p", build)

	assert.Same(t, first, second)
	assert.Equal(t, 1, builds)
}

func TestClientCache_GetOrCreate_DistinctCredentialsBuildSeparately(t *testing.T) {
	c := &clientCache{entries: make(map[string]Client)}
	builds := 0
	build := func() Client {
		builds++
		return &fakeClient{}
	}

	c.getOrCreate("https://host", "u1", "p", build)
	c.getOrCreate("https://host", "u2", "p", build)

	assert.Equal(t, 2, builds)
}

func TestClear_EmptiesGlobalCache(t *testing.T) {
	globalClientCache.getOrCreate("https://host", "u", "p", func() Client { return &fakeClient{} })
	Clear()
	globalClientCache.mu.Lock()
	n := len(globalClientCache.entries)
	globalClientCache.mu.Unlock()
	assert.Equal(t, 0, n)
}

type fakeClient struct{}

func (f *fakeClient) Kind() Kind { return KindWebDAV }
func (f *fakeClient) List(ctx context.Context, path string) ([]FileInfo, error) {
	return nil, nil
}
func (f *fakeClient) GetContent(ctx context.Context, path string) ([]byte, error) {
	return nil, nil
}
func (f *fakeClient) PutContent(ctx context.Context, path string, content []byte) error {
	return nil
}
func (f *fakeClient) Mkdir(ctx context.Context, path string) error      { return nil }
func (f *fakeClient) Move(ctx context.Context, src, dst string) error   { return nil }
func (f *fakeClient) Copy(ctx context.Context, src, dst string) error   { return nil }
func (f *fakeClient) Delete(ctx context.Context, path string) error     { return nil }
func (f *fakeClient) Exists(ctx context.Context, path string) (bool, error) {
	return false, nil
}
func (f *fakeClient) DirectURL(ctx context.Context, path string) (string, error) {
	return "", nil
}
func (f *fakeClient) RefreshDir(ctx context.Context, path string) error { return nil }
func (f *fakeClient) UploadBatch(ctx context.Context, files []UploadFile, concurrency int) (BatchResult, error) {
	return BatchResult{}, nil
}
