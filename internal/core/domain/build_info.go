package domain

import "time"

// BuildStatus is the outcome of the most recent render attempt of a target.
type BuildStatus string

const (
	// StatusPending means the target has not been rendered in this workspace yet.
	StatusPending BuildStatus = "pending"
	// StatusOK means the last render succeeded and the preview was replaced.
	StatusOK BuildStatus = "ok"
	// StatusFailed means the last render failed and the previous preview was kept.
	StatusFailed BuildStatus = "failed"
)

// BuildInfo records the last render attempt of a target.
type BuildInfo struct {
	Target        string        `json:"target,omitzero"`
	Scene         string        `json:"scene,omitzero"`
	Status        BuildStatus   `json:"status,omitzero"`
	StartedAt     time.Time     `json:"started_at,omitzero"`
	Duration      time.Duration `json:"duration,omitzero"`
	PreviewDigest string        `json:"preview_digest,omitzero"`
	Error         string        `json:"error,omitzero"`
	Attempts      int           `json:"attempts,omitzero"`
	Failures      int           `json:"failures,omitzero"`
}

// RenderResult is the outcome of one render invocation.
type RenderResult struct {
	// Target is the name of the rendered target.
	Target string
	// OK reports whether the preview was replaced.
	OK bool
	// Duration is the wall-clock time of the invocation.
	Duration time.Duration
	// Err describes the failure when OK is false.
	Err error
}
