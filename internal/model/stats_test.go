package model

import (
	"errors"
	"testing"
)

func TestStatsBuilder_Build(t *testing.T) {
	s, err := NewStatsBuilder().
		Set(Charisma, 2).
		Set(Strength, 2).
		Set(Wisdom, 1).
		Set(Agility, 0).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	want := Stats{Charisma: 2, Strength: 2, Wisdom: 1, Agility: 0}
	if s != want {
		t.Errorf("Build() = %+v; want %+v", s, want)
	}
}

func TestStatsBuilder_Incomplete(t *testing.T) {
	_, err := NewStatsBuilder().Set(Charisma, 1).Set(Strength, 1).Set(Agility, 1).Build()
	if !errors.Is(err, ErrIncompleteStats) {
		t.Fatalf("Build() error = %v; want ErrIncompleteStats", err)
	}
}

func TestStatsBuilder_LastSetWins(t *testing.T) {
	b := NewStatsBuilder()
	for _, a := range Attributes {
		b.Set(a, 0)
	}
	b.Set(Wisdom, 4)
	s, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if s.Wisdom != 4 {
		t.Errorf("Wisdom = %d; want 4", s.Wisdom)
	}
}

func TestStats_ValidateAllocation(t *testing.T) {
	tests := []struct {
		name    string
		stats   Stats
		wantErr bool
	}{
		{"sum 5 max 2", Stats{Charisma: 2, Strength: 2, Wisdom: 1, Agility: 0}, false},
		{"sum 6", Stats{Charisma: 3, Strength: 3}, true},
		{"max 6", Stats{Charisma: 6}, true},
		{"all zero", Stats{}, false},
		{"single 5", Stats{Agility: 5}, false},
		{"negatives keep sum under budget", Stats{Charisma: 5, Strength: -2, Wisdom: 2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.stats.ValidateAllocation()
			if tt.wantErr && !errors.Is(err, ErrStatsAllocationInvalid) {
				t.Errorf("ValidateAllocation() error = %v; want ErrStatsAllocationInvalid", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateAllocation() error = %v; want nil", err)
			}
		})
	}
}

func TestStats_GetRefSumMax(t *testing.T) {
	s := Stats{Charisma: 10, Strength: 3, Wisdom: 2, Agility: 1}

	if got := s.Get(Strength); got != 3 {
		t.Errorf("Get(Strength) = %d; want 3", got)
	}
	*s.Ref(Agility) -= 4
	if s.Agility != -3 {
		t.Errorf("Agility after Ref = %d; want -3", s.Agility)
	}
	if got := s.Sum(); got != 12 {
		t.Errorf("Sum() = %d; want 12", got)
	}
	if got := s.Max(); got != 10 {
		t.Errorf("Max() = %d; want 10", got)
	}

	neg := Stats{Charisma: -4, Strength: -1, Wisdom: -9, Agility: -2}
	if got := neg.Max(); got != -1 {
		t.Errorf("Max() on negatives = %d; want -1", got)
	}
}
