package model

import "time"

// RunState is the lifecycle of an asynchronous scoring run.
type RunState string

const (
	RunQueued    RunState = "queued"
	RunRunning   RunState = "running"
	RunSucceeded RunState = "succeeded"
	RunFailed    RunState = "failed"
	RunCancelled RunState = "cancelled"
)

// Done reports whether the run reached a terminal state.
func (s RunState) Done() bool {
	return s == RunSucceeded || s == RunFailed || s == RunCancelled
}

// RunRequest asks for a role to be scored against the stored cohort.
type RunRequest struct {
	RunID          string    `json:"run_id"`
	RoleID         string    `json:"role_id"`
	Policy         string    `json:"policy,omitempty"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// RunStatus is the observable state of a run.
type RunStatus struct {
	RunID       string     `json:"run_id"`
	RoleID      string     `json:"role_id"`
	RoleVersion int        `json:"role_version,omitempty"`
	State       RunState   `json:"state"`
	SubmittedAt time.Time  `json:"submitted_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Scored      int        `json:"scored"`
	Failed      int        `json:"failed"`
	Rejected    int        `json:"rejected"`
	Error       string     `json:"error,omitempty"`
}
