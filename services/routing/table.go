// Package routing holds the static routing table and the provider
// availability registry. Both are configuration from the gateway's point of
// view: read-only during a call, swapped atomically on reload.
package routing

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultTaskType is consulted when a request's task type has no entry.
const DefaultTaskType = "general"

// DefaultPriority is assumed when a request omits its priority tier.
const DefaultPriority = "balanced"

// Candidate is one (provider, model) pair in a fallback chain.
type Candidate struct {
	Provider string `yaml:"provider" json:"provider"`
	Model    string `yaml:"model" json:"model"`
}

// tableFile is the on-disk YAML shape.
type tableFile struct {
	Tasks map[string]map[string][]Candidate `yaml:"tasks"`
}

// Table maps (taskType, priority) to an ordered candidate chain. The mapping
// is immutable between reloads; Resolve never mutates and always returns a
// copy, so one request can never observe a partial update.
type Table struct {
	mu    sync.RWMutex
	tasks map[string]map[string][]Candidate
}

// NewTable builds a table from an in-memory mapping. The mapping must contain
// a "general" task so unrecognized task types have somewhere to land.
func NewTable(tasks map[string]map[string][]Candidate) (*Table, error) {
	if err := validateTasks(tasks); err != nil {
		return nil, err
	}
	return &Table{tasks: copyTasks(tasks)}, nil
}

// LoadTable reads and validates a routing table from a YAML file.
func LoadTable(path string) (*Table, error) {
	tasks, err := readTasks(path)
	if err != nil {
		return nil, err
	}
	return &Table{tasks: tasks}, nil
}

// Resolve returns the ordered candidate chain for (taskType, priority).
// An unrecognized task type falls back to the "general" entry. An
// unrecognized priority for a known task type fails closed: the empty chain
// surfaces as an aggregate failure downstream rather than guessing a tier.
func (t *Table) Resolve(taskType, priority string) []Candidate {
	if priority == "" {
		priority = DefaultPriority
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	tiers, ok := t.tasks[taskType]
	if !ok {
		tiers = t.tasks[DefaultTaskType]
	}

	chain := tiers[priority]
	if len(chain) == 0 {
		return nil
	}
	out := make([]Candidate, len(chain))
	copy(out, chain)
	return out
}

// TaskTypes returns the configured task type names.
func (t *Table) TaskTypes() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.tasks))
	for name := range t.tasks {
		names = append(names, name)
	}
	return names
}

// Reload re-reads the YAML file and swaps the mapping in one step. In-flight
// calls that already resolved their chain are unaffected.
func (t *Table) Reload(path string) error {
	tasks, err := readTasks(path)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.tasks = tasks
	t.mu.Unlock()
	return nil
}

func readTasks(path string) (map[string]map[string][]Candidate, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading routing table: %w", err)
	}

	var file tableFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing routing table: %w", err)
	}
	if err := validateTasks(file.Tasks); err != nil {
		return nil, err
	}
	return file.Tasks, nil
}

func validateTasks(tasks map[string]map[string][]Candidate) error {
	if len(tasks) == 0 {
		return fmt.Errorf("routing table has no tasks")
	}
	if _, ok := tasks[DefaultTaskType]; !ok {
		return fmt.Errorf("routing table must define a %q task", DefaultTaskType)
	}
	for taskType, tiers := range tasks {
		for priority, chain := range tiers {
			for i, c := range chain {
				if c.Provider == "" || c.Model == "" {
					return fmt.Errorf("routing table entry %s/%s[%d] is missing provider or model", taskType, priority, i)
				}
			}
		}
	}
	return nil
}

func copyTasks(tasks map[string]map[string][]Candidate) map[string]map[string][]Candidate {
	out := make(map[string]map[string][]Candidate, len(tasks))
	for taskType, tiers := range tasks {
		outTiers := make(map[string][]Candidate, len(tiers))
		for priority, chain := range tiers {
			outChain := make([]Candidate, len(chain))
			copy(outChain, chain)
			outTiers[priority] = outChain
		}
		out[taskType] = outTiers
	}
	return out
}
