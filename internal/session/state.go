package session

import "fmt"

// State is a step of the session loop.
type State uint8

const (
	AwaitingInstanceLock State = iota
	LoadOrCreatePlayer
	TurnStart
	AwaitingChoice
	Resolving
	CheckDeath
	AwaitingContinue
	Resting
	Saved
	Dead
	Done
)

func (s State) String() string {
	switch s {
	case AwaitingInstanceLock:
		return "AwaitingInstanceLock"
	case LoadOrCreatePlayer:
		return "LoadOrCreatePlayer"
	case TurnStart:
		return "TurnStart"
	case AwaitingChoice:
		return "AwaitingChoice"
	case Resolving:
		return "Resolving"
	case CheckDeath:
		return "CheckDeath"
	case AwaitingContinue:
		return "AwaitingContinue"
	case Resting:
		return "Resting"
	case Saved:
		return "Saved"
	case Dead:
		return "Dead"
	case Done:
		return "Done"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// transitions lists the legal successors of each state.
var transitions = map[State][]State{
	AwaitingInstanceLock: {LoadOrCreatePlayer},
	LoadOrCreatePlayer:   {TurnStart},
	TurnStart:            {AwaitingChoice},
	AwaitingChoice:       {Resolving},
	Resolving:            {CheckDeath},
	CheckDeath:           {AwaitingContinue, Dead},
	AwaitingContinue:     {TurnStart, Resting},
	Resting:              {Saved},
	Saved:                {Done},
	Dead:                 {Done},
}

// CanTransition reports whether next may follow s.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no state follows s.
func (s State) Terminal() bool {
	return s == Done
}
