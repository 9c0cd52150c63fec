// Package console implements the session UI over a line-oriented text stream.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/udisondev/zumbor/internal/model"
	"github.com/udisondev/zumbor/internal/session"
)

// Console reads answers line by line from in and writes prompts to out.
// A single goroutine owns in; prompts select on it and on the caller's ctx,
// so a timed-out prompt leaves the stream intact for the next one.
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	lines <-chan string
	err   error
}

var _ session.UI = (*Console)(nil)

// New starts reading in and returns the console.
func New(in io.Reader, out io.Writer) *Console {
	lines := make(chan string)
	c := &Console{out: out, lines: lines}
	go c.read(in, lines)
	return c
}

func (c *Console) read(in io.Reader, lines chan<- string) {
	defer close(lines)
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		lines <- sc.Text()
	}
	c.mu.Lock()
	c.err = sc.Err()
	c.mu.Unlock()
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// readLine returns the next trimmed line, io.EOF at end of input, or ctx.Err().
func (c *Console) readLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		c.printf("\n")
		return "", ctx.Err()
	case line, ok := <-c.lines:
		if !ok {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.err != nil {
				return "", c.err
			}
			return "", io.EOF
		}
		return strings.TrimSpace(line), nil
	}
}

func (c *Console) ask(ctx context.Context, prompt string) (string, error) {
	c.printf("%s", prompt)
	return c.readLine(ctx)
}

// Notify prints msg as a titled block.
func (c *Console) Notify(_ context.Context, msg session.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if msg.Title != "" {
		var err error
		if msg.Color != nil {
			_, err = fmt.Fprintf(c.out, "== %s == [#%06x]\n", msg.Title, uint32(*msg.Color))
		} else {
			_, err = fmt.Fprintf(c.out, "== %s ==\n", msg.Title)
		}
		if err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(c.out, "%s\n\n", msg.Text)
	return err
}

// PresentChoice prints the encounter with numbered options and returns the
// label picked by number or by name. Unrecognized input is returned as typed
// so the session can reject it.
func (c *Console) PresentChoice(ctx context.Context, enc *model.Encounter) (string, error) {
	labels := enc.Labels()

	c.mu.Lock()
	fmt.Fprintf(c.out, "### %s ###\n%s\n\n", enc.Title, enc.Text)
	for i, label := range labels {
		opt := enc.Options[label]
		fmt.Fprintf(c.out, "  %d) %s [%s vs %d]\n", i+1, label, opt.Stat, opt.Threshold)
	}
	c.mu.Unlock()

	answer, err := c.ask(ctx, "> ")
	if err != nil {
		return "", err
	}
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(labels) {
		return labels[n-1], nil
	}
	for _, label := range labels {
		if strings.EqualFold(answer, label) {
			return label, nil
		}
	}
	return answer, nil
}

// PresentContinue asks until the answer is continue or rest.
func (c *Console) PresentContinue(ctx context.Context) (session.Decision, error) {
	for {
		answer, err := c.ask(ctx, "[c]ontinue or [r]est? ")
		if err != nil {
			return 0, err
		}
		switch strings.ToLower(answer) {
		case "c", "continue":
			return session.Continue, nil
		case "r", "rest":
			return session.Rest, nil
		}
	}
}

// RequestDetails asks for a name and a description.
func (c *Console) RequestDetails(ctx context.Context) (model.PlayerDetails, error) {
	c.printf("A new adventurer steps forward.\n")
	name, err := c.ask(ctx, "Name: ")
	if err != nil {
		return model.PlayerDetails{}, err
	}
	desc, err := c.ask(ctx, "Description: ")
	if err != nil {
		return model.PlayerDetails{}, err
	}
	return model.PlayerDetails{Name: name, Description: desc}, nil
}

// RequestStats asks for each attribute in turn, repeating a field until it parses.
func (c *Console) RequestStats(ctx context.Context, problem error) (model.Stats, error) {
	if problem != nil {
		c.printf("That allocation does not work: %v\n", problem)
	}
	c.printf("Distribute %d points among your stats.\n", model.StatPointBudget)

	b := model.NewStatsBuilder()
	for _, a := range model.Attributes {
		for {
			answer, err := c.ask(ctx, a.String()+": ")
			if err != nil {
				return model.Stats{}, err
			}
			v, err := strconv.ParseInt(answer, 10, 16)
			if err != nil {
				c.printf("Enter a whole number.\n")
				continue
			}
			b.Set(a, int16(v))
			break
		}
	}
	return b.Build()
}
