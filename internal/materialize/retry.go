// SPDX-License-Identifier: MIT

package materialize

import (
	"context"

	"github.com/castlib/strmorg/internal/session"
	"github.com/castlib/strmorg/internal/storage"
)

// RetryFailed replays failedUploads serially against source/target,
// returning the subset that still failed (with refreshed error strings)
// and the count that succeeded. Callers replace their failed_uploads list
// with the returned slice.
func RetryFailed(ctx context.Context, source, target storage.Client, failedUploads []session.FailedUpload) (stillFailing []session.FailedUpload, succeeded int) {
	for _, f := range failedUploads {
		content, err := source.GetContent(ctx, f.SourcePath)
		if err != nil {
			f.Error = err.Error()
			stillFailing = append(stillFailing, f)
			continue
		}
		if err := target.PutContent(ctx, f.TargetPath, content); err != nil {
			f.Error = err.Error()
			stillFailing = append(stillFailing, f)
			continue
		}
		succeeded++
	}
	return stillFailing, succeeded
}
