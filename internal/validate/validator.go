// Package validate checks solutions against the repository's structural
// rules: closure, naming, leanness, test coverage and framework
// compatibility.
package validate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"sync"
	"time"

	"github.com/leapstack-labs/slnlint/internal/graph"
	"github.com/leapstack-labs/slnlint/internal/project"
	"github.com/leapstack-labs/slnlint/internal/solution"
)

// ErrNoConvergence is returned by fixed-point loops that hit their cap.
var ErrNoConvergence = errors.New("fixed-point iteration did not converge")

// Context is what validators see for one solution. Loader and builders are
// shared across solutions so projects are only read once.
type Context struct {
	Solution *solution.Solution
	Loader   *project.Loader
	Graphs   *graph.Builder
	Targets  *graph.TargetBuilder
	Tests    TestProjectFinder
	// Exclude keeps matching executables out of lean solution checks.
	Exclude *regexp.Regexp
	Logger  *slog.Logger
}

// NewContext wires builders on top of loader.
func NewContext(sln *solution.Solution, loader *project.Loader, exclude *regexp.Regexp, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Context{
		Solution: sln,
		Loader:   loader,
		Graphs:   graph.NewBuilder(loader, logger),
		Targets:  graph.NewTargetBuilder(loader, logger),
		Tests:    project.NewTestFinder(logger),
		Exclude:  exclude,
		Logger:   logger,
	}
}

// Diagnostic is one validation finding.
type Diagnostic struct {
	Validator string `json:"validator"`
	Message   string `json:"message"`
	Project   string `json:"project,omitempty"`
}

// Check runs one validator. An error marks the validator as failed.
type Check func(c *Context) ([]Diagnostic, error)

// Validator is a registered solution check.
type Validator struct {
	ID          string // e.g. "SV01"
	Name        string // e.g. "lean-solution"
	Description string
	Check       Check
}

var registry = struct {
	mu         sync.RWMutex
	validators map[string]Validator
}{validators: make(map[string]Validator)}

// Register adds a validator. Call it from init functions.
func Register(v Validator) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.validators[v.ID] = v
}

// GetAll returns every registered validator ordered by ID.
func GetAll() []Validator {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	out := make([]Validator, 0, len(registry.validators))
	for _, v := range registry.validators {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b Validator) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// GetByName returns the validator with the given ID or name.
func GetByName(name string) (Validator, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	for _, v := range registry.validators {
		if v.ID == name || v.Name == name {
			return v, true
		}
	}
	return Validator{}, false
}

// Result is the outcome of one validator on one solution.
type Result struct {
	Validator   string        `json:"validator"`
	Passed      bool          `json:"passed"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
	Diagnostics []Diagnostic  `json:"diagnostics,omitempty"`
}

// Summary collects the results for one solution.
type Summary struct {
	Solution string   `json:"solution"`
	Results  []Result `json:"results"`
}

// Passed reports whether every validator passed.
func (s Summary) Passed() bool {
	for _, r := range s.Results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// Run executes validators in order. Cancellation is checked between
// validators; the partial summary is returned with the context's error.
func Run(ctx context.Context, c *Context, validators ...Validator) (Summary, error) {
	summary := Summary{Solution: c.Solution.Path}

	for _, v := range validators {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		c.Logger.Info("running validator", "validator", v.Name, "solution", c.Solution.Name)
		start := time.Now()
		diags, err := v.Check(c)
		result := Result{
			Validator:   v.Name,
			Passed:      err == nil && len(diags) == 0,
			Duration:    time.Since(start),
			Diagnostics: diags,
		}
		if err != nil {
			result.Error = err.Error()
			c.Logger.Error("validator errored", "validator", v.Name, "solution", c.Solution.Name, "error", err)
		}

		if result.Passed {
			c.Logger.Info("validator passed", "validator", v.Name, "solution", c.Solution.Name, "duration", result.Duration)
		} else {
			c.Logger.Error("validator failed", "validator", v.Name, "solution", c.Solution.Name, "issues", len(diags))
		}
		summary.Results = append(summary.Results, result)
	}
	return summary, nil
}

func diag(v, format string, args ...any) Diagnostic {
	return Diagnostic{Validator: v, Message: fmt.Sprintf(format, args...)}
}
