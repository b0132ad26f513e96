// Package rules scores chat messages against a per-scenario rule table.
// Detection is layered: config-supplied CEL expressions first, then built-in
// regex patterns and predicates, then curated keyword lists.
package rules

import (
	"errors"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/opensource-safety/decoy/internal/domain"
)

// ErrUnknownScenario is returned when no rule group exists for a scenario.
var ErrUnknownScenario = errors.New("unknown scenario")

// Options configures engine behavior.
type Options struct {
	// DedupeEvents fires an event at most once per message even when it
	// appears in both the scenario group and the common group. Off by
	// default; the layered double count is the documented behavior.
	DedupeEvents bool

	Logger *slog.Logger
}

// Engine evaluates messages against a compiled rule table. Evaluation is
// pure and safe for concurrent use; Reload swaps the table atomically so
// in-flight evaluations see a consistent snapshot.
type Engine struct {
	mu        sync.RWMutex
	table     *domain.RuleTable
	detectors map[string]*detector

	dedupe bool
	logger *slog.Logger
}

// NewEngine compiles the rule table into a ready engine.
func NewEngine(table *domain.RuleTable, opts Options) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	detectors, err := compileDetectors(table, logger)
	if err != nil {
		return nil, err
	}

	return &Engine{
		table:     table,
		detectors: detectors,
		dedupe:    opts.DedupeEvents,
		logger:    logger,
	}, nil
}

// Evaluate scores one user message for a scenario. The scenario's own rules
// run first, then the common rules; an event listed in both contributes
// twice unless DedupeEvents is set.
func (e *Engine) Evaluate(message, scenario string) (*domain.Evaluation, error) {
	e.mu.RLock()
	table := e.table
	detectors := e.detectors
	e.mu.RUnlock()

	scenarioRules, ok := table.Groups[scenario]
	if !ok || scenario == domain.CommonKey {
		return nil, ErrUnknownScenario
	}

	rules := make([]domain.Rule, 0, len(scenarioRules)+len(table.Groups[domain.CommonKey]))
	rules = append(rules, scenarioRules...)
	rules = append(rules, table.Groups[domain.CommonKey]...)

	normalized := Normalize(message)

	eval := &domain.Evaluation{Events: []domain.TriggeredEvent{}}
	var total float64
	seen := make(map[string]bool)

	for _, r := range rules {
		if e.dedupe && seen[r.Event] {
			continue
		}
		d := detectors[r.Event]
		if d == nil || !d.match(message, normalized) {
			continue
		}
		seen[r.Event] = true
		total += r.Weight
		eval.Events = append(eval.Events, domain.TriggeredEvent{
			Code:        r.Code,
			Event:       r.Event,
			Weight:      r.Weight,
			Description: r.Description,
		})
	}

	eval.ScoreDelta = round2(total)
	return eval, nil
}

// Scenarios returns the scenario keys the table covers, sorted, without the
// common group.
func (e *Engine) Scenarios() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	keys := make([]string, 0, len(e.table.Groups))
	for k := range e.table.Groups {
		if k != domain.CommonKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Table returns the current rule table snapshot.
func (e *Engine) Table() *domain.RuleTable {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.table
}

// Detectors reports how each event resolved, sorted by event name.
func (e *Engine) Detectors() []domain.DetectorInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()

	infos := make([]domain.DetectorInfo, 0, len(e.detectors))
	for _, d := range e.detectors {
		infos = append(infos, domain.DetectorInfo{Event: d.event, Tier: d.tier})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Event < infos[j].Event })
	return infos
}

// Reload compiles a new table and swaps it in. On error the engine keeps
// serving the previous table.
func (e *Engine) Reload(table *domain.RuleTable) error {
	detectors, err := compileDetectors(table, e.logger)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.table = table
	e.detectors = detectors
	e.mu.Unlock()
	return nil
}

// round2 rounds to two decimals, halves away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
