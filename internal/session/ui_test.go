package session

import (
	"context"
	"sync"

	"github.com/udisondev/zumbor/internal/model"
)

// scriptedUI answers from queues. An empty queue blocks until ctx is done,
// which is how tests exercise timeouts.
type scriptedUI struct {
	mu        sync.Mutex
	details   []model.PlayerDetails
	stats     []model.Stats
	choices   []string
	decisions []Decision
	notifyErr error

	messages []Message
	problems []error
	prompted chan struct{}
}

func newScriptedUI() *scriptedUI {
	return &scriptedUI{prompted: make(chan struct{}, 16)}
}

func pop[T any](ui *scriptedUI, q *[]T) (T, bool) {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	var zero T
	if len(*q) == 0 {
		return zero, false
	}
	v := (*q)[0]
	*q = (*q)[1:]
	return v, true
}

func wait[T any](ctx context.Context, ui *scriptedUI, q *[]T) (T, error) {
	if v, ok := pop(ui, q); ok {
		return v, nil
	}
	select {
	case ui.prompted <- struct{}{}:
	default:
	}
	<-ctx.Done()
	var zero T
	return zero, ctx.Err()
}

func (ui *scriptedUI) Notify(_ context.Context, msg Message) error {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	ui.messages = append(ui.messages, msg)
	return ui.notifyErr
}

func (ui *scriptedUI) PresentChoice(ctx context.Context, _ *model.Encounter) (string, error) {
	return wait(ctx, ui, &ui.choices)
}

func (ui *scriptedUI) PresentContinue(ctx context.Context) (Decision, error) {
	return wait(ctx, ui, &ui.decisions)
}

func (ui *scriptedUI) RequestDetails(ctx context.Context) (model.PlayerDetails, error) {
	return wait(ctx, ui, &ui.details)
}

func (ui *scriptedUI) RequestStats(ctx context.Context, problem error) (model.Stats, error) {
	ui.mu.Lock()
	ui.problems = append(ui.problems, problem)
	ui.mu.Unlock()
	return wait(ctx, ui, &ui.stats)
}

func (ui *scriptedUI) texts(kind MessageKind) []string {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	var out []string
	for _, m := range ui.messages {
		if m.Kind == kind {
			out = append(out, m.Text)
		}
	}
	return out
}
