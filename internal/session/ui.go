package session

import (
	"context"

	"github.com/udisondev/zumbor/internal/model"
)

// MessageKind classifies a notification so the UI can style it.
type MessageKind uint8

const (
	MessageInfo MessageKind = iota
	MessageSheet
	MessageResult
	MessageEffect
	MessageExpired
	MessageWarning
	MessageDeath
)

func (k MessageKind) String() string {
	switch k {
	case MessageInfo:
		return "info"
	case MessageSheet:
		return "sheet"
	case MessageResult:
		return "result"
	case MessageEffect:
		return "effect"
	case MessageExpired:
		return "expired"
	case MessageWarning:
		return "warning"
	case MessageDeath:
		return "death"
	}
	return "unknown"
}

// Message is a one-way notification to the player.
// Color is the color of the encounter the message belongs to, if it has one.
type Message struct {
	Kind  MessageKind
	Title string
	Text  string
	Color *model.Color
}

// Decision is the player's answer after a resolved turn.
type Decision uint8

const (
	Continue Decision = iota + 1
	Rest
)

func (d Decision) String() string {
	switch d {
	case Continue:
		return "continue"
	case Rest:
		return "rest"
	}
	return "unknown"
}

// UI is the interaction collaborator. Blocking calls must return promptly
// with ctx.Err() once ctx is done; the session bounds them with timeouts.
type UI interface {
	// Notify shows a message. Errors are logged by the session and otherwise ignored.
	Notify(ctx context.Context, msg Message) error
	// PresentChoice shows the encounter and returns the chosen option label.
	PresentChoice(ctx context.Context, enc *model.Encounter) (string, error)
	// PresentContinue asks whether to keep playing or rest.
	PresentContinue(ctx context.Context) (Decision, error)
	// RequestDetails runs the name/description step of the character builder.
	RequestDetails(ctx context.Context) (model.PlayerDetails, error)
	// RequestStats runs the stat allocation step. problem is the reason the
	// previous allocation was rejected, or nil on the first attempt.
	RequestStats(ctx context.Context, problem error) (model.Stats, error)
}
