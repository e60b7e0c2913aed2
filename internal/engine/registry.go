package engine

import (
	"fmt"
	"sort"
	"sync"

	"COGNITIVE_BIAS_PLAYGROUND/pkg/scenario"
)

var (
	// rules is a thread-safe map of all registered transition rules.
	rules = make(map[string]scenario.Rule)
	// lock protects access to the rules map.
	lock = &sync.RWMutex{}
)

// Register adds a transition rule to the registry. It panics if a rule with
// the same scenario id is already registered, ensuring ids are unique at
// startup. Scenario packages call it from init().
func Register(r scenario.Rule) {
	lock.Lock()
	defer lock.Unlock()

	id := r.ID()
	if _, exists := rules[id]; exists {
		panic(fmt.Sprintf("transition rule for scenario '%s' is already registered", id))
	}
	rules[id] = r
}

// Lookup retrieves the rule for a scenario id.
func Lookup(id string) (scenario.Rule, bool) {
	lock.RLock()
	defer lock.RUnlock()

	r, ok := rules[id]
	return r, ok
}

// RuleIDs returns the ids of all registered rules, sorted.
func RuleIDs() []string {
	lock.RLock()
	defer lock.RUnlock()

	ids := make([]string, 0, len(rules))
	for id := range rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
