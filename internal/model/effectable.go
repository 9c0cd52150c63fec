package model

import "log/slog"

// Effectable is anything that holds health, stats and lingering effects.
// The behavior (Affect, AddEffect, ...) lives in free functions so every holder shares it.
type Effectable interface {
	Effects() []LingeringEffect
	SetEffects(effects []LingeringEffect)
	Health() int16
	SetHealth(health int16)
	Stats() Stats
	SetStats(stats Stats)
}

// Affect applies an instant effect. Health effects add potency to health and attribute
// effects add potency to the named stat. Both saturate at the int16 bounds instead of wrapping.
// There is no other clamping: health may go past its starting value or below zero.
func Affect(h Effectable, e BaseEffect) {
	switch e.Kind {
	case BaseHealth:
		shiftHealth(h, int32(e.Potency))
	case BaseAttribute:
		shiftStat(h, e.Attribute, int32(e.Potency))
	default:
		slog.Warn("ignoring malformed base effect", "kind", e.Kind)
	}
}

// AddEffect attaches a lingering effect. A stat effect shifts its stat once, right away:
// up by Potency for a Buff, down by Potency for a Debuff.
// The sign comes from the kind, not from Potency alone. This departs from legacy behavior on
// purpose: RemoveEffect undoes AddEffect for both kinds, and legacy debuffs, stored with
// non-negative potency, still lower the stat.
func AddEffect(h Effectable, e LingeringEffect) {
	if e.Name.Target == TargetStat {
		shiftStat(h, e.Name.Attribute, int32(e.Kind.sign())*int32(e.Potency))
	}
	h.SetEffects(append(h.Effects(), e))
}

// RemoveEffect detaches every effect equal to e. A stat effect's shift is reverted once:
// a Buff subtracts Potency, a Debuff adds it back.
func RemoveEffect(h Effectable, e LingeringEffect) {
	if e.Name.Target == TargetStat {
		shiftStat(h, e.Name.Attribute, -int32(e.Kind.sign())*int32(e.Potency))
	}

	current := h.Effects()
	kept := make([]LingeringEffect, 0, len(current))
	for _, held := range current {
		if held != e {
			kept = append(kept, held)
		}
	}
	h.SetEffects(kept)
}

// ClearEffects removes every held effect through RemoveEffect, so stat shifts are reverted.
func ClearEffects(h Effectable) {
	for _, e := range h.Effects() {
		RemoveEffect(h, e)
	}
	h.SetEffects(nil)
}

// ApplyEffects ticks every held effect once.
// Poison subtracts potency from health, Regenerate adds it, stat effects do nothing per tick.
// Each effect is then removed and, unless its duration was 1, re-added with duration-1.
// Returns the effects that expired on this tick.
func ApplyEffects(h Effectable) []LingeringEffect {
	var expired []LingeringEffect

	for _, e := range h.Effects() {
		switch e.Name.Target {
		case TargetPoison:
			shiftHealth(h, -int32(e.Potency))
		case TargetRegenerate:
			shiftHealth(h, int32(e.Potency))
		case TargetStat:
		}

		RemoveEffect(h, e)

		if e.Duration == 1 {
			expired = append(expired, e)
			continue
		}
		next := e
		next.Duration--
		AddEffect(h, next)
	}

	return expired
}

// ExpiringEffects returns the held effects that the next ApplyEffects call will expire.
func ExpiringEffects(h Effectable) []LingeringEffect {
	var out []LingeringEffect
	for _, e := range h.Effects() {
		if e.Duration == 1 {
			out = append(out, e)
		}
	}
	return out
}

func shiftHealth(h Effectable, delta int32) {
	h.SetHealth(clampInt16(int32(h.Health()) + delta))
}

func shiftStat(h Effectable, a Attribute, delta int32) {
	stats := h.Stats()
	v := stats.Ref(a)
	*v = clampInt16(int32(*v) + delta)
	h.SetStats(stats)
}
