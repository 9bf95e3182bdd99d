package reconciler

import (
	"strings"

	"github.com/cbme/epamerge/pkg/epa"
)

// StrategyType represents the type of resolution strategy.
type StrategyType string

// String returns the string representation of a strategy type.
func (s StrategyType) String() string {
	return string(s)
}

// Name returns the display name of the strategy type.
func (s StrategyType) Name() string {
	words := strings.Split(s.String(), "-")
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

const (
	// StrategyTypeSourcePriority prefers current-system records over
	// historical ones inside a merge-key group.
	StrategyTypeSourcePriority StrategyType = "source-priority"
	// StrategyTypeFirstWins keeps the first record of a merge-key group
	// in stable input order, regardless of source.
	StrategyTypeFirstWins StrategyType = "first-wins"
)

// Discard reasons attached to dropped group members.
const (
	reasonSuperseded      = "superseded by current-system record"
	reasonDuplicateInKey  = "duplicate record within merge key"
	reasonLaterOccurrence = "later occurrence of merge key"
)

// Strategy decides which members of a merge-key group survive.
type Strategy interface {
	// Type returns the strategy type
	Type() StrategyType

	// Description returns a human-readable description
	Description() string

	// Resolve splits one merge-key group into kept records and
	// discards. Group order is the stable input order.
	Resolve(key string, group []epa.Record) ([]epa.Record, []Discard)
}

// baseStrategy provides common strategy functionality.
type baseStrategy struct {
	typ         StrategyType
	description string
}

// Type returns the strategy type.
func (s *baseStrategy) Type() StrategyType {
	return s.typ
}

// Description returns a human-readable description.
func (s *baseStrategy) Description() string {
	return s.description
}

// SourcePriorityStrategy resolves merge-key conflicts in favor of the
// current system: any current-system member discards every historical
// member of the group. Groups with no current member fall back to
// first-wins; groups that are entirely current keep all members, since
// the live system is allowed to hold repeat assessments under one key.
type SourcePriorityStrategy struct {
	baseStrategy
}

// NewSourcePriorityStrategy creates the default resolution strategy.
func NewSourcePriorityStrategy() Strategy {
	return &SourcePriorityStrategy{
		baseStrategy: baseStrategy{
			typ:         StrategyTypeSourcePriority,
			description: "Resolves merge-key conflicts in favor of current-system records",
		},
	}
}

// Resolve implements Strategy.
func (s *SourcePriorityStrategy) Resolve(key string, group []epa.Record) ([]epa.Record, []Discard) {
	hasCurrent := false
	for _, rec := range group {
		if rec.Source == epa.SourceCurrent {
			hasCurrent = true
			break
		}
	}

	if !hasCurrent {
		return firstWins(key, group, reasonDuplicateInKey)
	}

	var kept []epa.Record
	var discards []Discard
	for _, rec := range group {
		if rec.Source == epa.SourceCurrent {
			kept = append(kept, rec)
			continue
		}
		discards = append(discards, Discard{
			Key:    key,
			Record: rec,
			Reason: reasonSuperseded,
		})
	}
	return kept, discards
}

// FirstWinsStrategy keeps the first member of every merge-key group in
// stable input order, ignoring sources entirely.
type FirstWinsStrategy struct {
	baseStrategy
}

// NewFirstWinsStrategy creates a first-occurrence-wins strategy.
func NewFirstWinsStrategy() Strategy {
	return &FirstWinsStrategy{
		baseStrategy: baseStrategy{
			typ:         StrategyTypeFirstWins,
			description: "Keeps the first record of every merge key in input order",
		},
	}
}

// Resolve implements Strategy.
func (s *FirstWinsStrategy) Resolve(key string, group []epa.Record) ([]epa.Record, []Discard) {
	return firstWins(key, group, reasonLaterOccurrence)
}

// firstWins keeps group[0] and discards the rest with the given reason.
func firstWins(key string, group []epa.Record, reason string) ([]epa.Record, []Discard) {
	if len(group) == 0 {
		return nil, nil
	}
	kept := group[:1:1]
	var discards []Discard
	for _, rec := range group[1:] {
		discards = append(discards, Discard{
			Key:    key,
			Record: rec,
			Reason: reason,
		})
	}
	return kept, discards
}

// NewStrategy returns the strategy for a named type, defaulting to
// source priority for unknown names.
func NewStrategy(typ StrategyType) Strategy {
	if typ == StrategyTypeFirstWins {
		return NewFirstWinsStrategy()
	}
	return NewSourcePriorityStrategy()
}
