package model

import (
	"fmt"
	"math"
)

// StatPointBudget caps both the total and the single highest stat of a new character.
const StatPointBudget = 5

// Stats holds one signed value per Attribute.
// Bounds are enforced only at character creation (see ValidateAllocation);
// effects may push values anywhere afterwards.
type Stats struct {
	Charisma int16
	Strength int16
	Wisdom   int16
	Agility  int16
}

// Get returns the value of the given attribute.
func (s Stats) Get(a Attribute) int16 {
	return *s.field(a)
}

// Ref returns a pointer to the value of the given attribute.
func (s *Stats) Ref(a Attribute) *int16 {
	return s.field(a)
}

// Add adds delta to the given attribute, saturating at the int16 bounds.
func (s *Stats) Add(a Attribute, delta int16) {
	v := s.field(a)
	*v = clampInt16(int32(*v) + int32(delta))
}

// clampInt16 narrows v to int16, saturating at the bounds.
func clampInt16(v int32) int16 {
	return int16(max(math.MinInt16, min(math.MaxInt16, v)))
}

// Sum returns the total of all four stats.
func (s Stats) Sum() int16 {
	return s.Charisma + s.Strength + s.Wisdom + s.Agility
}

// Max returns the highest of the four stats.
func (s Stats) Max() int16 {
	m := s.Charisma
	for _, v := range [...]int16{s.Strength, s.Wisdom, s.Agility} {
		if v > m {
			m = v
		}
	}
	return m
}

// ValidateAllocation checks a freshly allocated stat block against StatPointBudget.
// The caller is expected to re-prompt on error; values are never clamped.
func (s Stats) ValidateAllocation() error {
	if sum := s.Sum(); sum > StatPointBudget {
		return fmt.Errorf("%w: total %d > %d", ErrStatsAllocationInvalid, sum, StatPointBudget)
	}
	if m := s.Max(); m > StatPointBudget {
		return fmt.Errorf("%w: highest %d > %d", ErrStatsAllocationInvalid, m, StatPointBudget)
	}
	return nil
}

func (s *Stats) field(a Attribute) *int16 {
	switch a {
	case Charisma:
		return &s.Charisma
	case Strength:
		return &s.Strength
	case Wisdom:
		return &s.Wisdom
	case Agility:
		return &s.Agility
	}
	panic(fmt.Sprintf("stats: %v", a))
}

// StatsBuilder collects the four stats and refuses to build until all are set.
type StatsBuilder struct {
	values [len(Attributes)]*int16
}

// NewStatsBuilder returns an empty builder.
func NewStatsBuilder() *StatsBuilder {
	return &StatsBuilder{}
}

// Set records the value for one attribute.
func (b *StatsBuilder) Set(a Attribute, value int16) *StatsBuilder {
	v := value
	b.values[a] = &v
	return b
}

// Build returns the completed Stats or ErrIncompleteStats naming the first missing attribute.
func (b *StatsBuilder) Build() (Stats, error) {
	var s Stats
	for _, a := range Attributes {
		v := b.values[a]
		if v == nil {
			return Stats{}, fmt.Errorf("%w: %s not set", ErrIncompleteStats, a)
		}
		*s.Ref(a) = *v
	}
	return s, nil
}
