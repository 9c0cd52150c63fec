package model

import (
	"fmt"
	"slices"
)

// Color is a 24-bit RGB color (0xRRGGBB) carried by an encounter for rendering.
type Color uint32

// Encounter is one scene drawn from the pool. It is not modified once fetched.
type Encounter struct {
	Title   string
	Text    string
	Color   *Color
	Options map[string]EncounterOption
}

// Labels returns the option labels in lexical order.
func (e *Encounter) Labels() []string {
	labels := make([]string, 0, len(e.Options))
	for label := range e.Options {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	return labels
}

// Option looks up an option by label.
func (e *Encounter) Option(label string) (EncounterOption, error) {
	opt, ok := e.Options[label]
	if !ok {
		return EncounterOption{}, fmt.Errorf("%w: %q", ErrUnknownOption, label)
	}
	return opt, nil
}

// EncounterOption is a stat check: roll Stat against Threshold.
type EncounterOption struct {
	Threshold uint8
	Stat      Attribute
	Success   EncounterResult
	Fail      EncounterResult
}

// Test selects the result for a roll. Critical rolls ignore the threshold.
func (o EncounterOption) Test(roll RollResult) EncounterResult {
	switch roll.Kind {
	case RollCriticalFail:
		return o.Fail
	case RollCriticalSuccess:
		return o.Success
	case RollValue:
		if roll.Value >= int16(o.Threshold) {
			return o.Success
		}
		return o.Fail
	}
	panic(fmt.Sprintf("encounter option: roll %v", roll.Kind))
}

// Outcome tells which branch of an option produced a result.
type Outcome uint8

const (
	OutcomeSuccess Outcome = iota + 1
	OutcomeFail
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "Success"
	case OutcomeFail:
		return "Fail"
	}
	return fmt.Sprintf("Outcome(%d)", uint8(o))
}

// ResultKind is Success(flavor) or Fail(flavor). Flavor is free-form text.
type ResultKind struct {
	Outcome Outcome
	Flavor  string
}

// EncounterResult is what happens after a check.
// Effects are templates: they are copied into the player, never mutated.
type EncounterResult struct {
	Kind            ResultKind
	Title           string
	Text            string
	BaseEffect      *BaseEffect
	LingeringEffect *LingeringEffect
}

// Validate checks every effect template carried by the option.
func (o EncounterOption) Validate() error {
	if !o.Stat.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownAttribute, uint8(o.Stat))
	}
	for _, r := range [...]EncounterResult{o.Success, o.Fail} {
		if r.BaseEffect != nil {
			if err := r.BaseEffect.Validate(); err != nil {
				return fmt.Errorf("%s base effect: %w", r.Kind.Outcome, err)
			}
		}
		if r.LingeringEffect != nil {
			if err := r.LingeringEffect.Validate(); err != nil {
				return fmt.Errorf("%s lingering effect: %w", r.Kind.Outcome, err)
			}
		}
	}
	return nil
}
