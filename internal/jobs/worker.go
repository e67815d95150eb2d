// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/castlib/strmorg/internal/log"
	"github.com/castlib/strmorg/internal/orchestrator"
)

// NewServeMux builds the asynq handler table executing materialization
// tasks against orch. A worker pool (see NewServer) pulls from Redis and
// dispatches into this mux.
func NewServeMux(orch *orchestrator.Orchestrator) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeGenerateStrm, handleGenerateStrm(orch))
	mux.HandleFunc(TypeOrganize, handleOrganize(orch))
	return mux
}

// NewServer returns an asynq worker server pulling from the given Redis
// address with the given queue concurrency.
func NewServer(redisAddr string, concurrency int) *asynq.Server {
	return asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: concurrency,
			Queues:      map[string]int{"materialize": 1},
		},
	)
}

func handleGenerateStrm(orch *orchestrator.Orchestrator) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var p GenerateStrmPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		delay := time.Duration(p.UploadDelaySeconds * float64(time.Second))
		msg, _, err := orch.GenerateStrm(ctx, p.SessionID, p.OutputRoot, p.Language, delay, p.Items)
		if err != nil {
			return fmt.Errorf("generate_strm job for session %s: %w", p.SessionID, err)
		}
		log.WithComponent("jobs").Info().Str("session_id", p.SessionID).Str("result", msg).Msg("generate_strm job finished")
		return nil
	}
}

func handleOrganize(orch *orchestrator.Orchestrator) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var p OrganizePayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		msg, _, err := orch.Organize(ctx, p.SessionID, p.OutputRoot, p.Language, p.Items)
		if err != nil {
			return fmt.Errorf("organize job for session %s: %w", p.SessionID, err)
		}
		log.WithComponent("jobs").Info().Str("session_id", p.SessionID).Str("result", msg).Msg("organize job finished")
		return nil
	}
}
