package model

import (
	"fmt"
	"strings"
)

// Attribute identifies one of the four character stats.
type Attribute uint8

const (
	Charisma Attribute = iota
	Strength
	Wisdom
	Agility
)

// Attributes lists every Attribute in display order.
var Attributes = [...]Attribute{Charisma, Strength, Wisdom, Agility}

// String returns the canonical-case attribute name ("Charisma").
func (a Attribute) String() string {
	switch a {
	case Charisma:
		return "Charisma"
	case Strength:
		return "Strength"
	case Wisdom:
		return "Wisdom"
	case Agility:
		return "Agility"
	}
	return fmt.Sprintf("Attribute(%d)", uint8(a))
}

// Valid reports whether a is one of the four known attributes.
func (a Attribute) Valid() bool {
	return a <= Agility
}

// ParseAttribute parses an attribute name case-insensitively.
func ParseAttribute(s string) (Attribute, error) {
	s = strings.TrimSpace(s)
	for _, a := range Attributes {
		if strings.EqualFold(s, a.String()) {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAttribute, s)
}

// MarshalText encodes the attribute by its canonical name.
func (a Attribute) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAttribute, uint8(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText decodes an attribute name (case-insensitive).
func (a *Attribute) UnmarshalText(text []byte) error {
	parsed, err := ParseAttribute(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
