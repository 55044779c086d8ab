package models

import "time"

// RunOptions tweaks a single pipeline run.
type RunOptions struct {
	// Manual activates every configured interval regardless of the clock.
	Manual bool
	// Intervals, when set, restricts the run to these interval codes.
	Intervals []string
	// Symbols, when set, replaces the listed instrument universe.
	Symbols []string
}

// RunReport summarises a finished run.
type RunReport struct {
	ID          string        `json:"id"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
	Duration    time.Duration `json:"duration_ns"`
	Manual      bool          `json:"manual"`
	Intervals   []string      `json:"intervals"`
	Instruments int           `json:"instruments"`
	Enqueued    int           `json:"enqueued"`
	Delivered   int           `json:"delivered"`
	Dropped     int           `json:"dropped"`
	CutOff      bool          `json:"cut_off"`
	Error       string        `json:"error,omitempty"`
}

// RunRequest is the body of POST /api/runs.
type RunRequest struct {
	Intervals []string `json:"intervals" validate:"omitempty,dive,oneof=5 15 30 60 240 720"`
	Symbols   []string `json:"symbols" validate:"omitempty,max=200,dive,required,uppercase"`
	Manual    *bool    `json:"manual" default:"true"`
}
