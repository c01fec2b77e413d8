package catalog

import (
	"fmt"
	"sort"

	"transitvet/domain/core"
)

// Disposition strings as published by the KOI archive
const (
	DispositionConfirmed     = "CONFIRMED"
	DispositionCandidate     = "CANDIDATE"
	DispositionFalsePositive = "FALSE POSITIVE"
)

// Labels is the frozen bijection between disposition strings and the
// contiguous class indices 0..k-1 the classifier works in. It encodes
// labels for training and decodes predictions for display; nothing
// outside it may hardcode the mapping.
type Labels struct {
	byName  map[string]int
	byIndex []string
}

// NewLabels builds a label map from name→index pairs, rejecting anything
// that is not a bijection onto 0..k-1.
func NewLabels(byName map[string]int) (Labels, error) {
	byIndex := make([]string, len(byName))
	seen := make([]bool, len(byName))
	for name, idx := range byName {
		if idx < 0 || idx >= len(byName) {
			return Labels{}, fmt.Errorf("label %q has index %d outside 0..%d", name, idx, len(byName)-1)
		}
		if seen[idx] {
			return Labels{}, fmt.Errorf("labels %q and %q share index %d", name, byIndex[idx], idx)
		}
		seen[idx] = true
		byIndex[idx] = name
	}
	m := make(map[string]int, len(byName))
	for k, v := range byName {
		m[k] = v
	}
	return Labels{byName: m, byIndex: byIndex}, nil
}

// DefaultLabels returns the three-way disposition map
func DefaultLabels() Labels {
	l, err := NewLabels(map[string]int{
		DispositionConfirmed:     0,
		DispositionCandidate:     1,
		DispositionFalsePositive: 2,
	})
	if err != nil {
		panic(err) // static mapping, cannot fail
	}
	return l
}

// Index returns the class index for a disposition string
func (l Labels) Index(name string) (int, error) {
	idx, ok := l.byName[name]
	if !ok {
		return 0, core.NewUnknownLabelError(name)
	}
	return idx, nil
}

// Name returns the disposition string for a class index
func (l Labels) Name(idx int) (string, error) {
	if idx < 0 || idx >= len(l.byIndex) {
		return "", fmt.Errorf("%w: %d", core.ErrUnknownClass, idx)
	}
	return l.byIndex[idx], nil
}

// Contains reports whether the disposition string is in the map
func (l Labels) Contains(name string) bool {
	_, ok := l.byName[name]
	return ok
}

// Count returns the number of classes
func (l Labels) Count() int { return len(l.byIndex) }

// Names returns disposition strings in index order
func (l Labels) Names() []string {
	out := make([]string, len(l.byIndex))
	copy(out, l.byIndex)
	return out
}

// ByName returns a copy of the name→index map, keys sorted on iteration
// via Names; the copy keeps callers from mutating the frozen mapping.
func (l Labels) ByName() map[string]int {
	out := make(map[string]int, len(l.byName))
	for k, v := range l.byName {
		out[k] = v
	}
	return out
}

// SortedNames returns disposition strings in lexical order
func (l Labels) SortedNames() []string {
	out := l.Names()
	sort.Strings(out)
	return out
}
