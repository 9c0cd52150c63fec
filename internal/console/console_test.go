package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/zumbor/internal/model"
	"github.com/udisondev/zumbor/internal/session"
)

// syncBuffer guards a bytes.Buffer shared with the console goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func encounter() *model.Encounter {
	return &model.Encounter{
		Title: "Crossroads",
		Text:  "Two paths.",
		Options: map[string]model.EncounterOption{
			"Left":  {Threshold: 8, Stat: model.Wisdom},
			"Right": {Threshold: 12, Stat: model.Strength},
		},
	}
}

func TestPresentChoice(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1\n", "Left"},
		{"2\n", "Right"},
		{"right\n", "Right"},
		{"  Left  \n", "Left"},
		{"3\n", "3"},
		{"up\n", "up"},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			out := &syncBuffer{}
			c := New(strings.NewReader(tt.input), out)

			got, err := c.PresentChoice(context.Background(), encounter())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "1) Left [Wisdom vs 8]")
			assert.Contains(t, out.String(), "2) Right [Strength vs 12]")
		})
	}
}

func TestPresentContinue(t *testing.T) {
	c := New(strings.NewReader("maybe\nR\n"), io.Discard)
	d, err := c.PresentContinue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.Rest, d)

	c = New(strings.NewReader("continue\n"), io.Discard)
	d, err = c.PresentContinue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.Continue, d)
}

func TestRequestCharacter(t *testing.T) {
	out := &syncBuffer{}
	c := New(strings.NewReader("Ada\nA bard\n2\nlots\n2\n1\n0\n"), out)
	ctx := context.Background()

	details, err := c.RequestDetails(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.PlayerDetails{Name: "Ada", Description: "A bard"}, details)

	stats, err := c.RequestStats(ctx, model.ErrStatsAllocationInvalid)
	require.NoError(t, err)
	assert.Equal(t, model.Stats{Charisma: 2, Strength: 2, Wisdom: 1, Agility: 0}, stats)
	assert.Contains(t, out.String(), "Enter a whole number.")
	assert.Contains(t, out.String(), "That allocation does not work")
}

func TestReadLine_EOF(t *testing.T) {
	c := New(strings.NewReader(""), io.Discard)
	_, err := c.PresentContinue(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadLine_TimeoutKeepsStream(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	c := New(pr, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.PresentContinue(ctx)
	require.True(t, errors.Is(err, context.DeadlineExceeded), "err = %v", err)

	go func() { _, _ = io.WriteString(pw, "c\n") }()
	d, err := c.PresentContinue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.Continue, d)
}

func TestNotify(t *testing.T) {
	out := &syncBuffer{}
	c := New(strings.NewReader(""), out)

	require.NoError(t, c.Notify(context.Background(), session.Message{Title: "You died", Text: "Game over."}))
	require.NoError(t, c.Notify(context.Background(), session.Message{Text: "untitled"}))
	assert.Equal(t, "== You died ==\nGame over.\n\nuntitled\n\n", out.String())
}

func TestNotify_Color(t *testing.T) {
	out := &syncBuffer{}
	c := New(strings.NewReader(""), out)
	color := model.Color(0x2e8b57)

	require.NoError(t, c.Notify(context.Background(), session.Message{Title: "Across", Text: "You land hard.", Color: &color}))
	assert.Equal(t, "== Across == [#2e8b57]\nYou land hard.\n\n", out.String())
}
