// SPDX-License-Identifier: MIT

package storage

import (
	"context"
	"fmt"

	"github.com/castlib/strmorg/internal/log"
)

// Options configures Connect. Zero-valued fields fall back to the
// corresponding AlistOptions/WebDAVOptions defaults.
type Options = AlistOptions

// ConnectResult is the outcome of connecting to a storage backend: a ready
// Client plus what Probe learned about the server.
type ConnectResult struct {
	Client       Client
	Kind         Kind
	Capabilities Capabilities
}

// Connect probes baseURL, builds (or reuses, via the process-wide client
// cache) the matching backend Client, and returns both. It is the single
// entry point orchestrator code should use instead of calling
// NewAlistClient/NewWebDAVClient directly.
func Connect(ctx context.Context, baseURL, username, password string, opts Options) (ConnectResult, error) {
	probeHTTP := newHTTPClient(opts.ConnectTimeout, opts.ReadWriteTimeout, nonZeroInt(opts.MaxConnsPerHost, 32))
	kind, caps, err := Probe(ctx, probeHTTP, baseURL)
	if err != nil {
		return ConnectResult{}, fmt.Errorf("storage: connect: %w", err)
	}

	log.FromContext(ctx).Info().
		Str("backend", string(kind)).
		Str("version", caps.Version).
		Msg("storage backend probed")

	client := globalClientCache.getOrCreate(baseURL, username, password, func() Client {
		switch kind {
		case KindAlist:
			return NewAlistClient(baseURL, username, password, opts)
		default:
			return NewWebDAVClient(baseURL, username, password, opts)
		}
	})

	return ConnectResult{Client: client, Kind: kind, Capabilities: caps}, nil
}
