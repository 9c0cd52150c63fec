package model

import (
	"fmt"
	"math"
	"slices"
)

// StartingHealth is the health of a freshly created character.
const StartingHealth int16 = 20

// PlayerDetails are the narrative fields chosen in the character builder.
type PlayerDetails struct {
	Name        string
	Description string
}

// PlayerState is a plain snapshot of a Player, used to persist and restore it.
type PlayerState struct {
	Tag         string
	Name        string
	Description string
	Health      int16
	Score       uint16
	Stats       Stats
	Effects     []LingeringEffect
}

// Player is the persistent character of one user, keyed by Tag.
// A Player is owned by a single session at a time and is not safe for concurrent use.
type Player struct {
	tag         string
	name        string
	description string
	health      int16
	score       uint16
	stats       Stats
	effects     []LingeringEffect
}

// NewPlayer creates a fresh character with StartingHealth and zero score.
func NewPlayer(tag string, details PlayerDetails, stats Stats) (*Player, error) {
	if tag == "" {
		return nil, fmt.Errorf("player tag cannot be empty")
	}
	if details.Name == "" {
		return nil, fmt.Errorf("player name cannot be empty")
	}
	return &Player{
		tag:         tag,
		name:        details.Name,
		description: details.Description,
		health:      StartingHealth,
		stats:       stats,
	}, nil
}

// RestorePlayer rebuilds a Player from a stored snapshot.
func RestorePlayer(s PlayerState) *Player {
	return &Player{
		tag:         s.Tag,
		name:        s.Name,
		description: s.Description,
		health:      s.Health,
		score:       s.Score,
		stats:       s.Stats,
		effects:     slices.Clone(s.Effects),
	}
}

// State returns a snapshot of the player.
func (p *Player) State() PlayerState {
	return PlayerState{
		Tag:         p.tag,
		Name:        p.name,
		Description: p.description,
		Health:      p.health,
		Score:       p.score,
		Stats:       p.stats,
		Effects:     slices.Clone(p.effects),
	}
}

func (p *Player) Tag() string         { return p.tag }
func (p *Player) Name() string        { return p.name }
func (p *Player) Description() string { return p.description }
func (p *Player) Score() uint16       { return p.score }

// AddScore raises the score, saturating at the uint16 maximum.
func (p *Player) AddScore(n uint16) {
	if p.score > math.MaxUint16-n {
		p.score = math.MaxUint16
		return
	}
	p.score += n
}

// IsDead reports whether health has dropped to zero or below.
func (p *Player) IsDead() bool {
	return p.health <= 0
}

// RollStat rolls the die and adds the player's value for stat.
// A natural 1 is a critical fail and a natural DieSides a critical success.
func (p *Player) RollStat(die Die, stat Attribute) RollResult {
	return ResolveRoll(die.Roll(DieSides), p.stats.Get(stat))
}

// Effectable implementation.

func (p *Player) Effects() []LingeringEffect { return slices.Clone(p.effects) }

func (p *Player) SetEffects(effects []LingeringEffect) { p.effects = effects }

func (p *Player) Health() int16 { return p.health }

func (p *Player) SetHealth(health int16) { p.health = health }

func (p *Player) Stats() Stats { return p.stats }

func (p *Player) SetStats(stats Stats) { p.stats = stats }

var _ Effectable = (*Player)(nil)
