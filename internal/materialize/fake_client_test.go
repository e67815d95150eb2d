// SPDX-License-Identifier: MIT

package materialize

import (
	"context"
	"sync"

	"github.com/castlib/strmorg/internal/storage"
)

// fakeClient is an in-memory storage.Client recording every mutating call.
type fakeClient struct {
	mu       sync.Mutex
	content  map[string][]byte
	moves    []string
	copies   []string
	mkdirs   []string
	refresh  []string
	failMove map[string]bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{content: make(map[string][]byte), failMove: map[string]bool{}}
}

func (f *fakeClient) Kind() storage.Kind { return storage.KindWebDAV }

func (f *fakeClient) List(ctx context.Context, path string) ([]storage.FileInfo, error) {
	return nil, nil
}

func (f *fakeClient) GetContent(ctx context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	content, ok := f.content[path]
	if !ok {
		return nil, errTest
	}
	return content, nil
}

func (f *fakeClient) PutContent(ctx context.Context, path string, content []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.content[path] = content
	return nil
}

func (f *fakeClient) Mkdir(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mkdirs = append(f.mkdirs, path)
	return nil
}

func (f *fakeClient) Move(ctx context.Context, src, dst string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMove[src] {
		return errTest
	}
	f.moves = append(f.moves, src+"->"+dst)
	f.content[dst] = f.content[src]
	delete(f.content, src)
	return nil
}

func (f *fakeClient) Copy(ctx context.Context, src, dst string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.copies = append(f.copies, src+"->"+dst)
	f.content[dst] = f.content[src]
	return nil
}

func (f *fakeClient) Delete(ctx context.Context, path string) error { return nil }

func (f *fakeClient) Exists(ctx context.Context, path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.content[path]
	return ok, nil
}

func (f *fakeClient) DirectURL(ctx context.Context, path string) (string, error) {
	return "https://example.test" + path, nil
}

func (f *fakeClient) RefreshDir(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh = append(f.refresh, path)
	return nil
}

func (f *fakeClient) UploadBatch(ctx context.Context, files []storage.UploadFile, concurrency int) (storage.BatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := storage.BatchResult{}
	for _, uf := range files {
		f.content[uf.Path] = uf.Content
		result.Success++
	}
	return result, nil
}

type testError string

func (e testError) Error() string { return string(e) }

const errTest = testError("simulated failure")
