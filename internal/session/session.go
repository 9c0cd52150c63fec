package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/udisondev/zumbor/internal/model"
	"github.com/udisondev/zumbor/internal/save"
)

// PlayerStore loads and persists players by tag.
type PlayerStore interface {
	Load(ctx context.Context, tag string) (*model.Player, error)
	Save(ctx context.Context, p *model.Player) error
	Delete(ctx context.Context, tag string) error
}

// EncounterSupplier draws a random encounter.
type EncounterSupplier interface {
	Random(ctx context.Context) (*model.Encounter, error)
}

var (
	_ PlayerStore       = (*save.Players)(nil)
	_ EncounterSupplier = (*save.Encounters)(nil)
)

// Config holds the session timeouts and character defaults.
type Config struct {
	ChoiceTimeout    time.Duration
	ContinueTimeout  time.Duration
	CharacterTimeout time.Duration
	StartingHealth   int16
}

// DefaultConfig returns the stock timeouts of 120s and model.StartingHealth.
func DefaultConfig() Config {
	return Config{
		ChoiceTimeout:    120 * time.Second,
		ContinueTimeout:  120 * time.Second,
		CharacterTimeout: 120 * time.Second,
		StartingHealth:   model.StartingHealth,
	}
}

// Game runs play-throughs. One Game serves any number of concurrent sessions;
// the registry keeps them to one per user.
type Game struct {
	registry   Registry
	players    PlayerStore
	encounters EncounterSupplier
	die        model.Die
	cfg        Config
	metrics    *Metrics
}

// NewGame creates a Game with a random die and no metrics.
func NewGame(registry Registry, players PlayerStore, encounters EncounterSupplier, cfg Config) *Game {
	def := DefaultConfig()
	if cfg.ChoiceTimeout <= 0 {
		cfg.ChoiceTimeout = def.ChoiceTimeout
	}
	if cfg.ContinueTimeout <= 0 {
		cfg.ContinueTimeout = def.ContinueTimeout
	}
	if cfg.CharacterTimeout <= 0 {
		cfg.CharacterTimeout = def.CharacterTimeout
	}
	if cfg.StartingHealth <= 0 {
		cfg.StartingHealth = def.StartingHealth
	}
	return &Game{
		registry:   registry,
		players:    players,
		encounters: encounters,
		die:        model.RandomDie{},
		cfg:        cfg,
	}
}

// WithDie replaces the die used for stat rolls.
func (g *Game) WithDie(d model.Die) *Game {
	g.die = d
	return g
}

// WithMetrics enables metric recording.
func (g *Game) WithMetrics(m *Metrics) *Game {
	g.metrics = m
	return g
}

// Summary describes how a play-through ended.
type Summary struct {
	SessionID string
	Final     State
	Turns     int
	Player    model.PlayerState
	Died      bool
	Saved     bool
}

// session is the state of one running play-through.
type session struct {
	game   *Game
	ui     UI
	user   string
	state  State
	log    *slog.Logger
	player *model.Player
	turns  int
}

// Play runs one play-through for user until the player rests, dies, times
// out or ctx is cancelled. The user's registry lease is released on every
// return path.
func (g *Game) Play(ctx context.Context, user string, ui UI) (Summary, error) {
	s := &session{
		game:  g,
		ui:    ui,
		user:  user,
		state: AwaitingInstanceLock,
		log:   slog.With("user", user),
	}

	guard, err := g.registry.Acquire(ctx, user)
	if err != nil {
		if errors.Is(err, ErrSessionAlreadyActive) {
			s.notify(ctx, Message{Kind: MessageWarning, Title: "Already playing", Text: "You already have an adventure in progress."})
		}
		return Summary{Final: AwaitingInstanceLock}, err
	}
	defer guard.Release()

	s.log = s.log.With("sessionID", guard.Token())
	g.metrics.sessionStarted()
	s.log.Info("session started")

	summary, err := s.run(ctx, guard)
	summary.SessionID = guard.Token()
	summary.Final = s.state
	summary.Turns = s.turns
	if s.player != nil {
		summary.Player = s.player.State()
	}

	reason := endReason(summary, err)
	g.metrics.sessionEnded(reason)
	if err != nil {
		s.log.Warn("session aborted", "state", s.state, "turns", s.turns, "error", err)
	} else {
		s.log.Info("session ended", "reason", reason, "turns", s.turns)
	}
	return summary, err
}

func endReason(sum Summary, err error) string {
	switch {
	case err == nil && sum.Died:
		return "death"
	case err == nil:
		return "rest"
	case errors.Is(err, ErrChoiceTimedOut), errors.Is(err, ErrContinueTimedOut), errors.Is(err, ErrCharacterTimedOut):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	}
	return "error"
}

func (s *session) run(ctx context.Context, guard *Guard) (Summary, error) {
	s.transition(LoadOrCreatePlayer)
	p, err := s.loadOrCreate(ctx)
	if err != nil {
		return Summary{}, err
	}
	s.player = p

	for {
		s.transition(TurnStart)
		enc, err := s.game.encounters.Random(ctx)
		if err != nil {
			s.notify(ctx, Message{Kind: MessageWarning, Title: "No encounter", Text: "The road ahead is empty. Try again later."})
			return Summary{}, fmt.Errorf("drawing encounter: %w", err)
		}
		s.notify(ctx, PlayerSheet(p))

		s.transition(AwaitingChoice)
		opt, err := s.choose(ctx, enc)
		if err != nil {
			return Summary{}, err
		}

		s.transition(Resolving)
		s.resolve(ctx, p, enc, opt)
		s.turns++

		s.transition(CheckDeath)
		if p.IsDead() {
			s.transition(Dead)
			s.die(ctx, guard, p)
			s.transition(Done)
			return Summary{Died: true}, nil
		}

		s.transition(AwaitingContinue)
		decision, err := s.askContinue(ctx)
		if err != nil {
			return Summary{}, err
		}
		if decision == Rest {
			break
		}
	}

	s.transition(Resting)
	guard.Release()
	saved := true
	if err := s.game.players.Save(ctx, p); err != nil {
		saved = false
		s.log.Error("saving player", "tag", p.Tag(), "error", err)
		s.notify(ctx, Message{Kind: MessageWarning, Title: "Save failed", Text: "Your progress could not be saved."})
	} else {
		s.log.Info("player saved", "tag", p.Tag(), "score", p.Score())
		s.notify(ctx, Message{Kind: MessageInfo, Title: "Resting", Text: fmt.Sprintf("%s makes camp. Progress saved.", p.Name())})
	}
	s.transition(Saved)
	s.transition(Done)
	return Summary{Saved: saved}, nil
}

func (s *session) transition(next State) {
	if !s.state.CanTransition(next) {
		panic(fmt.Sprintf("session: illegal transition %s -> %s", s.state, next))
	}
	s.log.Debug("session state", "from", s.state, "to", next)
	s.state = next
}

func (s *session) notify(ctx context.Context, msg Message) {
	if err := s.ui.Notify(ctx, msg); err != nil {
		s.log.Warn("notification failed", "kind", msg.Kind, "error", err)
	}
}

// waitErr turns a deadline on a bounded wait into timeoutErr.
func waitErr(parent, bounded context.Context, err, timeoutErr error) error {
	if parent.Err() == nil && errors.Is(bounded.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", timeoutErr, err)
	}
	return err
}

func (s *session) loadOrCreate(ctx context.Context) (*model.Player, error) {
	p, err := s.game.players.Load(ctx, s.user)
	if err == nil {
		s.log.Info("player loaded", "tag", p.Tag(), "health", p.Health(), "score", p.Score())
		return p, nil
	}
	if errors.Is(err, save.ErrInvalidTag) {
		return nil, err
	}
	if !errors.Is(err, save.ErrNoSave) {
		s.log.Warn("loading player", "error", err)
		s.notify(ctx, Message{Kind: MessageWarning, Title: "No valid save", Text: "Your saved character could not be read. Let's make a new one."})
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return s.createPlayer(ctx)
}

// createPlayer runs the character builder until it yields a valid character.
func (s *session) createPlayer(ctx context.Context) (*model.Player, error) {
	bctx, cancel := context.WithTimeout(ctx, s.game.cfg.CharacterTimeout)
	defer cancel()

	var details model.PlayerDetails
	for {
		d, err := s.ui.RequestDetails(bctx)
		if err != nil {
			return nil, waitErr(ctx, bctx, err, ErrCharacterTimedOut)
		}
		d.Name = strings.TrimSpace(d.Name)
		if d.Name != "" {
			details = d
			break
		}
		s.notify(ctx, Message{Kind: MessageWarning, Title: "Name required", Text: "Your character needs a name."})
	}

	var (
		stats   model.Stats
		problem error
	)
	for {
		st, err := s.ui.RequestStats(bctx, problem)
		if err != nil {
			return nil, waitErr(ctx, bctx, err, ErrCharacterTimedOut)
		}
		if problem = st.ValidateAllocation(); problem == nil {
			stats = st
			break
		}
		s.log.Debug("stat allocation rejected", "error", problem)
	}

	p, err := model.NewPlayer(s.user, details, stats)
	if err != nil {
		return nil, err
	}
	p.SetHealth(s.game.cfg.StartingHealth)
	s.game.metrics.playerCreated()
	s.log.Info("player created", "name", p.Name())
	return p, nil
}

// choose waits for a label naming one of the encounter's options.
func (s *session) choose(ctx context.Context, enc *model.Encounter) (model.EncounterOption, error) {
	cctx, cancel := context.WithTimeout(ctx, s.game.cfg.ChoiceTimeout)
	defer cancel()

	for {
		label, err := s.ui.PresentChoice(cctx, enc)
		if err != nil {
			return model.EncounterOption{}, waitErr(ctx, cctx, err, ErrChoiceTimedOut)
		}
		opt, err := enc.Option(label)
		if err == nil {
			s.log.Debug("option chosen", "encounter", enc.Title, "option", label)
			return opt, nil
		}
		s.notify(ctx, Message{Kind: MessageWarning, Title: "Unknown option", Text: fmt.Sprintf("%q is not one of the choices.", label)})
	}
}

func (s *session) askContinue(ctx context.Context) (Decision, error) {
	cctx, cancel := context.WithTimeout(ctx, s.game.cfg.ContinueTimeout)
	defer cancel()

	d, err := s.ui.PresentContinue(cctx)
	if err != nil {
		return 0, waitErr(ctx, cctx, err, ErrContinueTimedOut)
	}
	switch d {
	case Continue, Rest:
		return d, nil
	}
	return 0, fmt.Errorf("invalid decision %d", uint8(d))
}

// resolve rolls against the option and applies the chosen result to p.
// Order: base effect, lingering effect, expiry notices, tick, score.
// Every notice sent here carries the encounter's color.
func (s *session) resolve(ctx context.Context, p *model.Player, enc *model.Encounter, opt model.EncounterOption) {
	roll := p.RollStat(s.game.die, opt.Stat)
	result := opt.Test(roll)
	s.game.metrics.turnResolved(rollLabel(roll))
	s.log.Debug("roll resolved", "stat", opt.Stat, "roll", roll, "threshold", opt.Threshold, "outcome", result.Kind.Outcome)

	s.notify(ctx, Message{
		Kind:  MessageResult,
		Title: result.Title,
		Text:  fmt.Sprintf("%s\n\n%s check: %s (needed %d). %s", result.Text, opt.Stat, roll, opt.Threshold, result.Kind.Outcome),
		Color: enc.Color,
	})

	if result.BaseEffect != nil {
		effect := *result.BaseEffect
		if roll.IsCritical() {
			effect = effect.WithPotency(doubled(effect.Potency))
		}
		model.Affect(p, effect)
		s.notify(ctx, Message{Kind: MessageEffect, Title: effect.Label(), Text: fmt.Sprintf("%s %+d", effect.Label(), effect.Potency), Color: enc.Color})
	}

	if result.LingeringEffect != nil {
		effect := *result.LingeringEffect
		model.AddEffect(p, effect)
		s.notify(ctx, Message{Kind: MessageEffect, Title: "Effect gained", Text: fmt.Sprintf("Received a %s %s", effect.Name, effect.Kind), Color: enc.Color})
	}

	for _, e := range model.ExpiringEffects(p) {
		s.notify(ctx, Message{Kind: MessageExpired, Title: "Effect expired", Text: fmt.Sprintf("Your %s %s has worn off", e.Name, e.Kind), Color: enc.Color})
	}
	model.ApplyEffects(p)
	p.AddScore(1)
}

// die runs the death path: effects cleared, save deleted, lease released.
func (s *session) die(ctx context.Context, guard *Guard, p *model.Player) {
	model.ClearEffects(p)
	s.game.metrics.playerDied()
	s.log.Info("player died", "tag", p.Tag(), "score", p.Score())
	s.notify(ctx, Message{
		Kind:  MessageDeath,
		Title: "You died",
		Text:  fmt.Sprintf("%s has fallen with a score of %d.", p.Name(), p.Score()),
	})

	if err := s.game.players.Delete(ctx, p.Tag()); err != nil && !errors.Is(err, save.ErrNoSave) {
		s.log.Error("deleting dead player's save", "tag", p.Tag(), "error", err)
		s.notify(ctx, Message{Kind: MessageWarning, Title: "Cleanup failed", Text: "Your old save could not be removed."})
	}
	guard.Release()
}

func doubled(potency int16) int16 {
	v := int32(potency) * 2
	return int16(max(math.MinInt16, min(math.MaxInt16, v)))
}

func rollLabel(r model.RollResult) string {
	switch r.Kind {
	case model.RollCriticalFail:
		return "critical_fail"
	case model.RollCriticalSuccess:
		return "critical_success"
	case model.RollValue:
		return "value"
	}
	return "unknown"
}

// PlayerSheet renders the player's current state as a notification.
func PlayerSheet(p *model.Player) Message {
	var b strings.Builder
	if p.Description() != "" {
		fmt.Fprintf(&b, "%s\n", p.Description())
	}
	fmt.Fprintf(&b, "Score: %d  Health: %d\n", p.Score(), p.Health())
	stats := p.Stats()
	for i, a := range model.Attributes {
		if i > 0 {
			b.WriteString("  ")
		}
		fmt.Fprintf(&b, "%s: %d", a, stats.Get(a))
	}
	for _, e := range p.Effects() {
		fmt.Fprintf(&b, "\n%s", e)
	}
	return Message{Kind: MessageSheet, Title: p.Name(), Text: b.String()}
}
