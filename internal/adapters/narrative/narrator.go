// Package narrative turns a role's match results into LLM generated job descriptions.
// Narratives are advisory; their failures never touch scoring results.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/pkg/logger"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/pkg/metrics"
)

// Narrative is the generated text for a role.
type Narrative struct {
	Provider       string              `json:"provider"`
	Model          string              `json:"model"`
	JobDescription string              `json:"job_description"`
	JobDetails     string              `json:"job_details"`
	Sections       map[string][]string `json:"sections,omitempty"`
}

// Narrator describes a role from a brief.
type Narrator interface {
	Describe(ctx context.Context, brief Brief) (Narrative, error)
}

// Completer sends one system + user prompt pair to a model.
type Completer interface {
	Name() string
	Model() string
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// LLM is a Narrator backed by a single Completer.
type LLM struct {
	completer Completer
	timeout   time.Duration
	log       logger.Logger
}

// Option configures an LLM narrator.
type Option func(*LLM)

// WithTimeout bounds each Describe call.
func WithTimeout(d time.Duration) Option {
	return func(l *LLM) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(l *LLM) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLLM wraps a Completer.
func NewLLM(c Completer, opts ...Option) *LLM {
	l := &LLM{completer: c, timeout: 90 * time.Second, log: logger.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Describe implements Narrator.
func (l *LLM) Describe(ctx context.Context, brief Brief) (Narrative, error) {
	if err := brief.Validate(); err != nil {
		return Narrative{}, err
	}
	provider := l.completer.Name()
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	desc, err := l.complete(ctx, DescriptionPrompt(brief))
	if err != nil {
		return Narrative{}, l.fail(ctx, provider, start, err)
	}
	details, err := l.complete(ctx, DetailsPrompt(brief))
	if err != nil {
		return Narrative{}, l.fail(ctx, provider, start, err)
	}

	metrics.RecordNarrative(provider, "success", float64(time.Since(start).Milliseconds()))
	l.log.Info(ctx, "narrative generated",
		logger.String("provider", provider),
		logger.String("role", brief.title()),
		logger.Int("benchmarks", len(brief.Benchmarks)),
	)
	return Narrative{
		Provider:       provider,
		Model:          l.completer.Model(),
		JobDescription: desc,
		JobDetails:     details,
		Sections:       ParseSections(details),
	}, nil
}

func (l *LLM) complete(ctx context.Context, prompt string) (string, error) {
	text, err := l.completer.Complete(ctx, SystemPrompt, prompt)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (l *LLM) fail(ctx context.Context, provider string, start time.Time, err error) error {
	metrics.RecordNarrative(provider, "error", float64(time.Since(start).Milliseconds()))
	l.log.Warn(ctx, "narrative failed", logger.String("provider", provider), logger.Error(err))
	return &ProviderError{Provider: provider, Err: err}
}

// Fallback tries narrators in order and returns the first success.
type Fallback []Narrator

// Describe implements Narrator.
func (f Fallback) Describe(ctx context.Context, brief Brief) (Narrative, error) {
	if len(f) == 0 {
		return Narrative{}, ErrNoProvider
	}
	if err := brief.Validate(); err != nil {
		return Narrative{}, err
	}
	var errs error
	for _, n := range f {
		out, err := n.Describe(ctx, brief)
		if err == nil {
			return out, nil
		}
		errs = multierr.Append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return Narrative{}, fmt.Errorf("all narrative providers failed: %w", errs)
}

// Disabled is a Narrator that always reports ErrNoProvider.
type Disabled struct{}

// Describe implements Narrator.
func (Disabled) Describe(context.Context, Brief) (Narrative, error) {
	return Narrative{}, ErrNoProvider
}

// IsBriefError reports whether err comes from brief validation.
func IsBriefError(err error) bool {
	return errors.Is(err, ErrInvalidBrief)
}
