// Package attribution turns raw chapter text into a validated document of
// speaker-labeled lines. Discovery and labeling are delegated to an LLM;
// this package owns the contract: the roster stays closed, "Narrator"
// catches everything unattributable, and nothing is written until the
// whole document validates.
package attribution

import (
	"errors"

	"aabook/internal/llm"
)

var (
	// ErrInvalidInput marks an empty or whitespace-only chapter. No
	// upstream call is made when this fires.
	ErrInvalidInput = errors.New("invalid chapter input")

	// ErrValidation marks an assembled document that violates an
	// invariant remapping cannot repair.
	ErrValidation = errors.New("document validation failed")

	// Upstream and schema failures keep the llm package's identity so
	// callers can match them with errors.Is across layers.
	ErrUpstream = llm.ErrUpstream
	ErrSchema   = llm.ErrSchema
)
