package rules

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/opensource-safety/decoy/internal/domain"
)

//go:embed rules.json
var defaultRules []byte

// rawRule mirrors domain.Rule with a pointer weight so a missing weight is
// distinguishable from an explicit zero.
type rawRule struct {
	Event       string   `json:"event"`
	Weight      *float64 `json:"weight"`
	Code        string   `json:"code"`
	Description string   `json:"description"`
}

type rawTable struct {
	Groups    map[string][]rawRule `json:"groups"`
	Detectors map[string]string    `json:"detectors"`
}

// LoadTable reads a rule table from path, or the embedded default table when
// path is empty. Structural problems are load errors: rules without an event,
// weight, or code never make it into a running engine.
func LoadTable(path string) (*domain.RuleTable, error) {
	data := defaultRules
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read rule table %s: %w", path, err)
		}
	}
	return parseTable(data)
}

func parseTable(data []byte) (*domain.RuleTable, error) {
	var raw rawTable
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse rule table: %w", err)
	}
	if len(raw.Groups) == 0 {
		return nil, fmt.Errorf("rule table has no groups")
	}

	table := &domain.RuleTable{
		Groups:    make(map[string][]domain.Rule, len(raw.Groups)),
		Detectors: raw.Detectors,
	}
	for group, rules := range raw.Groups {
		out := make([]domain.Rule, 0, len(rules))
		for i, r := range rules {
			if r.Event == "" {
				return nil, fmt.Errorf("group %s rule %d: event is required", group, i)
			}
			if r.Weight == nil {
				return nil, fmt.Errorf("group %s rule %s: weight is required", group, r.Event)
			}
			if r.Code == "" {
				return nil, fmt.Errorf("group %s rule %s: code is required", group, r.Event)
			}
			out = append(out, domain.Rule{
				Event:       r.Event,
				Weight:      *r.Weight,
				Code:        r.Code,
				Description: r.Description,
			})
		}
		table.Groups[group] = out
	}
	return table, nil
}
