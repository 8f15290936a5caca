package attribution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"aabook/internal/llm"
)

const (
	defaultTimeout = 90 * time.Second
	defaultRetries = 1
)

type Options struct {
	// Timeout bounds each upstream call. Zero means the default.
	Timeout time.Duration
	// Retries is the re-request budget for schema failures. Zero means
	// the default of one retry.
	Retries int
}

// Pipeline runs the strict discovery -> attribution -> assembly chain for
// a single chapter. It holds no state across runs.
type Pipeline struct {
	client  llm.Client
	timeout time.Duration
	retries int
}

func New(client llm.Client, opts Options) *Pipeline {
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Retries == 0 {
		opts.Retries = defaultRetries
	}

	return &Pipeline{
		client:  client,
		timeout: opts.Timeout,
		retries: opts.Retries,
	}
}

// Run produces a validated Document for one chapter. Discovery completes
// before attribution begins; assembly runs last. Any error aborts the
// run with no partial result.
func (p *Pipeline) Run(ctx context.Context, chapter string) (*Document, error) {
	slog.Info("Discovering characters...", "chars", len(chapter))
	roster, err := p.Discover(ctx, chapter)
	if err != nil {
		return nil, err
	}
	slog.Info("Characters discovered", "count", len(roster))

	slog.Info("Labeling lines...")
	lines, err := p.Attribute(ctx, chapter, roster)
	if err != nil {
		return nil, err
	}
	slog.Info("Lines labeled", "count", len(lines))

	return Assemble(roster, lines)
}

// Discover returns the sanitized speaker roster for the chapter.
func (p *Pipeline) Discover(ctx context.Context, chapter string) (Roster, error) {
	if strings.TrimSpace(chapter) == "" {
		return nil, fmt.Errorf("%w: chapter text is empty", ErrInvalidInput)
	}

	var names []string
	err := p.withRetry(ctx, "discovery", func(callCtx context.Context) error {
		var callErr error
		names, callErr = p.client.ExtractCharacters(callCtx, chapter)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("discover characters: %w", err)
	}

	return NewRoster(names), nil
}

// Attribute labels every segment of the chapter with a roster member.
// The raw result still needs Assemble to enforce the closed-set
// guarantee.
func (p *Pipeline) Attribute(ctx context.Context, chapter string, roster Roster) ([]llm.Line, error) {
	if len(roster) == 0 {
		return nil, fmt.Errorf("%w: roster is empty", ErrInvalidInput)
	}

	var lines []llm.Line
	err := p.withRetry(ctx, "attribution", func(callCtx context.Context) error {
		var callErr error
		lines, callErr = p.client.LabelLines(callCtx, chapter, roster)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("attribute lines: %w", err)
	}

	return lines, nil
}

// withRetry runs fn under the per-call timeout, re-requesting only on
// schema failures and only up to the retry budget. Upstream failures are
// never retried here.
func (p *Pipeline) withRetry(ctx context.Context, stage string, fn func(context.Context) error) error {
	var err error
	for attempt := 0; attempt <= p.retries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		err = fn(callCtx)
		cancel()

		if err == nil || !errors.Is(err, llm.ErrSchema) {
			return err
		}
		if attempt < p.retries {
			slog.Warn("Response failed schema validation, retrying", "stage", stage, "error", err)
		}
	}
	return err
}
