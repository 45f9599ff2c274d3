package models

import (
	"errors"
	"fmt"

	derr "github.com/sllynn/airport-stand-allocation/internal/domain/errors"
)

// Snapshot is one static allocation problem.
type Snapshot struct {
	ID     string
	Turns  []Turn
	Stands []Stand
	Rules  []AdjacencyRule
	// AllowList, when set, lists the stands each flight may use and replaces
	// the category predicate.
	AllowList map[string][]string
}

// Validate checks identity, ordering and reference invariants. Every problem
// is reported, each wrapping ErrConfiguration.
func (s Snapshot) Validate() error {
	var errs []error
	add := func(err error) {
		errs = append(errs, fmt.Errorf("%w: %v", derr.ErrConfiguration, err))
	}

	if len(s.Turns) == 0 {
		add(fmt.Errorf("snapshot has no turns"))
	}
	if len(s.Stands) == 0 {
		add(fmt.Errorf("snapshot has no stands"))
	}

	flights := make(map[string]struct{}, len(s.Turns))
	for _, t := range s.Turns {
		if err := t.validate(); err != nil {
			add(err)
		}
		if _, dup := flights[t.FlightID]; dup {
			add(fmt.Errorf("duplicate flight_id %q", t.FlightID))
		}
		flights[t.FlightID] = struct{}{}
	}

	stands := make(map[string]struct{}, len(s.Stands))
	for _, st := range s.Stands {
		if err := st.validate(); err != nil {
			add(err)
		}
		if _, dup := stands[st.ID]; dup {
			add(fmt.Errorf("duplicate stand id %q", st.ID))
		}
		stands[st.ID] = struct{}{}
	}

	ruleIDs := make(map[string]struct{}, len(s.Rules))
	for _, r := range s.Rules {
		if err := r.validate(stands); err != nil {
			add(err)
		}
		if r.ID == "" {
			continue
		}
		if _, dup := ruleIDs[r.ID]; dup {
			add(fmt.Errorf("duplicate adjacency rule id %q", r.ID))
		}
		ruleIDs[r.ID] = struct{}{}
	}

	return errors.Join(errs...)
}
