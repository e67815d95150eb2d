// SPDX-License-Identifier: MIT

// Package storage provides a uniform file-operations interface over the two
// HTTP-based backends this system targets: Alist (a REST API in front of a
// cloud-drive aggregator) and plain WebDAV.
package storage

import (
	"context"
	"time"
)

// Kind identifies which wire protocol a Client speaks.
type Kind string

const (
	KindAlist  Kind = "alist"
	KindWebDAV Kind = "webdav"
)

// FileInfo describes one entry returned by List.
type FileInfo struct {
	Path     string
	Name     string
	IsDir    bool
	Size     int64
	Modified time.Time
}

// UploadFile is one item in an upload_batch call: a destination path paired
// with the bytes to write there.
type UploadFile struct {
	Path    string
	Content []byte
}

// BatchResult is the outcome of an upload_batch call. It never carries an
// error for the call as a whole — individual failures land in FailedPaths.
type BatchResult struct {
	Success     int
	Failed      int
	FailedPaths []string
}

// Client is the polymorphic storage interface implemented by Alist and
// WebDAV. All paths are absolute, POSIX-style, and relative to the backend's
// own root (not the OS filesystem).
type Client interface {
	Kind() Kind

	List(ctx context.Context, path string) ([]FileInfo, error)
	GetContent(ctx context.Context, path string) ([]byte, error)
	PutContent(ctx context.Context, path string, content []byte) error
	Mkdir(ctx context.Context, path string) error
	Move(ctx context.Context, src, dst string) error
	Copy(ctx context.Context, src, dst string) error
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	DirectURL(ctx context.Context, path string) (string, error)
	RefreshDir(ctx context.Context, path string) error
	UploadBatch(ctx context.Context, files []UploadFile, concurrency int) (BatchResult, error)
}
