// SPDX-License-Identifier: MIT

// Package jobs dispatches the orchestrator's long-running materialization
// operations as asynq tasks, so a session's generate_strm/organize run
// survives the originating HTTP request disconnecting.
package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/castlib/strmorg/internal/materialize"
)

const (
	TypeGenerateStrm = "materialize:generate_strm"
	TypeOrganize     = "materialize:organize"
)

// GenerateStrmPayload is the asynq task payload for a generate_strm run.
type GenerateStrmPayload struct {
	SessionID          string                    `json:"session_id"`
	OutputRoot         string                    `json:"output_root"`
	Language           string                    `json:"language"`
	UploadDelaySeconds float64                   `json:"upload_delay_s"`
	Items              []materialize.VideoItem   `json:"items"`
}

// OrganizePayload is the asynq task payload for an organize run.
type OrganizePayload struct {
	SessionID  string                  `json:"session_id"`
	OutputRoot string                  `json:"output_root"`
	Language   string                  `json:"language"`
	Items      []materialize.VideoItem `json:"items"`
}

// NewGenerateStrmTask builds the asynq.Task for a generate_strm dispatch.
func NewGenerateStrmTask(p GenerateStrmPayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal generate_strm payload: %w", err)
	}
	return asynq.NewTask(TypeGenerateStrm, b, asynq.MaxRetry(3), asynq.Timeout(10*time.Minute)), nil
}

// NewOrganizeTask builds the asynq.Task for an organize dispatch.
func NewOrganizeTask(p OrganizePayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal organize payload: %w", err)
	}
	return asynq.NewTask(TypeOrganize, b, asynq.MaxRetry(3), asynq.Timeout(10*time.Minute)), nil
}
