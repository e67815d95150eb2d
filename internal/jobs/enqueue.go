// SPDX-License-Identifier: MIT

package jobs

import (
	"context"

	"github.com/hibiken/asynq"
)

// Enqueuer hands materialization tasks to the Redis-backed asynq queue.
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer connects to the given Redis address for task submission.
func NewEnqueuer(redisAddr string) *Enqueuer {
	return &Enqueuer{client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})}
}

// Close releases the underlying Redis connection.
func (e *Enqueuer) Close() error {
	return e.client.Close()
}

// EnqueueGenerateStrm submits a generate_strm run and returns its task ID.
func (e *Enqueuer) EnqueueGenerateStrm(ctx context.Context, p GenerateStrmPayload) (string, error) {
	task, err := NewGenerateStrmTask(p)
	if err != nil {
		return "", err
	}
	info, err := e.client.EnqueueContext(ctx, task, asynq.Queue("materialize"))
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

// EnqueueOrganize submits an organize run and returns its task ID.
func (e *Enqueuer) EnqueueOrganize(ctx context.Context, p OrganizePayload) (string, error) {
	task, err := NewOrganizeTask(p)
	if err != nil {
		return "", err
	}
	info, err := e.client.EnqueueContext(ctx, task, asynq.Queue("materialize"))
	if err != nil {
		return "", err
	}
	return info.ID, nil
}
