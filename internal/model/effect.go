package model

import "fmt"

// BaseEffectKind discriminates the BaseEffect variants.
type BaseEffectKind uint8

const (
	// BaseAttribute adds Potency to the stat named by Attribute.
	BaseAttribute BaseEffectKind = iota + 1
	// BaseHealth adds Potency to health. Positive heals, negative damages.
	BaseHealth
)

func (k BaseEffectKind) String() string {
	switch k {
	case BaseAttribute:
		return "Attribute"
	case BaseHealth:
		return "Health"
	}
	return fmt.Sprintf("BaseEffectKind(%d)", uint8(k))
}

// BaseEffect is an instant, one-shot modification.
// Attribute is meaningful only when Kind == BaseAttribute.
type BaseEffect struct {
	Kind      BaseEffectKind
	Attribute Attribute
	Potency   int16
}

// AttributeEffect builds a BaseAttribute effect.
func AttributeEffect(a Attribute, potency int16) BaseEffect {
	return BaseEffect{Kind: BaseAttribute, Attribute: a, Potency: potency}
}

// HealthEffect builds a BaseHealth effect.
func HealthEffect(potency int16) BaseEffect {
	return BaseEffect{Kind: BaseHealth, Potency: potency}
}

// WithPotency returns a copy of e carrying the given potency.
func (e BaseEffect) WithPotency(potency int16) BaseEffect {
	e.Potency = potency
	return e
}

// Validate reports whether e is a well-formed variant.
func (e BaseEffect) Validate() error {
	switch e.Kind {
	case BaseAttribute:
		if !e.Attribute.Valid() {
			return fmt.Errorf("%w: attribute %d", ErrInvalidEffect, uint8(e.Attribute))
		}
		return nil
	case BaseHealth:
		return nil
	}
	return fmt.Errorf("%w: base effect kind %d", ErrInvalidEffect, uint8(e.Kind))
}

// Label is the short display name of the affected quantity ("Health", "Wisdom").
func (e BaseEffect) Label() string {
	switch e.Kind {
	case BaseAttribute:
		return e.Attribute.String()
	case BaseHealth:
		return "Health"
	}
	return e.Kind.String()
}

// LingeringKind tells whether a lingering effect helps or hurts its holder.
type LingeringKind uint8

const (
	Buff LingeringKind = iota + 1
	Debuff
)

func (k LingeringKind) String() string {
	switch k {
	case Buff:
		return "Buff"
	case Debuff:
		return "Debuff"
	}
	return fmt.Sprintf("LingeringKind(%d)", uint8(k))
}

// sign is the direction a stat moves when an effect of this kind is added.
func (k LingeringKind) sign() int16 {
	switch k {
	case Buff:
		return 1
	case Debuff:
		return -1
	}
	panic(fmt.Sprintf("lingering kind: %v", k))
}

// LingeringTarget discriminates what a lingering effect acts on.
type LingeringTarget uint8

const (
	// TargetStat shifts a stat once when added and reverts it when removed.
	TargetStat LingeringTarget = iota + 1
	// TargetPoison removes Potency health every tick.
	TargetPoison
	// TargetRegenerate restores Potency health every tick.
	TargetRegenerate
)

// LingeringName is the tagged name of a lingering effect: Stat(Attribute), Poison or Regenerate.
type LingeringName struct {
	Target    LingeringTarget
	Attribute Attribute
}

// StatName returns the Stat(a) name.
func StatName(a Attribute) LingeringName {
	return LingeringName{Target: TargetStat, Attribute: a}
}

var (
	PoisonName     = LingeringName{Target: TargetPoison}
	RegenerateName = LingeringName{Target: TargetRegenerate}
)

func (n LingeringName) String() string {
	switch n.Target {
	case TargetStat:
		return n.Attribute.String()
	case TargetPoison:
		return "Poison"
	case TargetRegenerate:
		return "Regenerate"
	}
	return fmt.Sprintf("LingeringTarget(%d)", uint8(n.Target))
}

// LingeringEffect attaches to a holder and ticks down once per turn.
// Duration counts remaining ticks; a value of 1 expires on the next tick.
// Effects are plain values: the holder owns its copy and equality is by value.
type LingeringEffect struct {
	Kind     LingeringKind
	Name     LingeringName
	Potency  int16
	Duration int16
}

// Validate reports whether e is a well-formed variant.
func (e LingeringEffect) Validate() error {
	switch e.Kind {
	case Buff, Debuff:
	default:
		return fmt.Errorf("%w: lingering kind %d", ErrInvalidEffect, uint8(e.Kind))
	}
	switch e.Name.Target {
	case TargetStat:
		if !e.Name.Attribute.Valid() {
			return fmt.Errorf("%w: attribute %d", ErrInvalidEffect, uint8(e.Name.Attribute))
		}
	case TargetPoison, TargetRegenerate:
	default:
		return fmt.Errorf("%w: lingering target %d", ErrInvalidEffect, uint8(e.Name.Target))
	}
	if e.Duration < 1 {
		return fmt.Errorf("%w: duration %d", ErrInvalidEffect, e.Duration)
	}
	return nil
}

func (e LingeringEffect) String() string {
	return fmt.Sprintf("%s %s (potency %d, %d turns)", e.Name, e.Kind, e.Potency, e.Duration)
}
