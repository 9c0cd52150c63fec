package model

import (
	"fmt"
	"math/rand/v2"
)

// DieSides is the size of the die rolled for stat checks. Draws are inclusive: 1..DieSides.
const DieSides = 20

// Die draws an integer uniformly from [1, sides].
type Die interface {
	Roll(sides int) int
}

// RandomDie rolls with math/rand/v2.
type RandomDie struct{}

// Roll returns a value in [1, sides].
func (RandomDie) Roll(sides int) int {
	return rand.IntN(sides) + 1
}

// RollKind discriminates RollResult variants.
type RollKind uint8

const (
	RollValue RollKind = iota
	RollCriticalFail
	RollCriticalSuccess
)

// RollResult is the outcome of one stat check. Value is set only for RollValue.
type RollResult struct {
	Kind  RollKind
	Value int16
}

// CriticalFail is a natural 1.
var CriticalFail = RollResult{Kind: RollCriticalFail}

// CriticalSuccess is a natural DieSides.
var CriticalSuccess = RollResult{Kind: RollCriticalSuccess}

// ValueRoll builds a plain numeric roll.
func ValueRoll(v int16) RollResult {
	return RollResult{Kind: RollValue, Value: v}
}

// IsCritical reports whether the roll was a natural 1 or a natural DieSides.
func (r RollResult) IsCritical() bool {
	return r.Kind == RollCriticalFail || r.Kind == RollCriticalSuccess
}

func (r RollResult) String() string {
	switch r.Kind {
	case RollCriticalFail:
		return "critical fail"
	case RollCriticalSuccess:
		return "critical success"
	case RollValue:
		return fmt.Sprintf("%d", r.Value)
	}
	return fmt.Sprintf("RollKind(%d)", uint8(r.Kind))
}

// ResolveRoll maps a raw draw plus a stat bonus to a RollResult.
func ResolveRoll(draw int, stat int16) RollResult {
	switch draw {
	case 1:
		return CriticalFail
	case DieSides:
		return CriticalSuccess
	}
	return ValueRoll(int16(draw) + stat)
}
