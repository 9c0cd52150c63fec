package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/zumbor/internal/db"
	"github.com/udisondev/zumbor/internal/model"
	"github.com/udisondev/zumbor/internal/save"
	zumbortest "github.com/udisondev/zumbor/internal/testutil"
)

const testUser = "1234"

type fixture struct {
	store      *db.MemoryStore
	players    *save.Players
	encounters *save.Encounters
	registry   *MemoryRegistry
	ui         *scriptedUI
	game       *Game
	metrics    *Metrics
}

func newFixture(t *testing.T, enc *model.Encounter, draws ...int) *fixture {
	t.Helper()
	store := db.NewMemoryStore()
	f := &fixture{
		store:      store,
		players:    save.NewPlayers(store),
		encounters: save.NewEncounters(store),
		registry:   NewMemoryRegistry(),
		ui:         newScriptedUI(),
		metrics:    NewMetrics(prometheus.NewRegistry()),
	}
	if enc != nil {
		data, err := save.EncodeEncounter(enc)
		require.NoError(t, err)
		_, err = f.encounters.Import(context.Background(), "bridge", data)
		require.NoError(t, err)
	}
	if len(draws) == 0 {
		draws = []int{10}
	}
	f.game = NewGame(f.registry, f.players, f.encounters, Config{
		ChoiceTimeout:    50 * time.Millisecond,
		ContinueTimeout:  50 * time.Millisecond,
		CharacterTimeout: 50 * time.Millisecond,
	}).WithDie(zumbortest.NewSequenceDie(draws...)).WithMetrics(f.metrics)
	return f
}

func (f *fixture) seedPlayer(t *testing.T, health int16) []byte {
	t.Helper()
	p := model.RestorePlayer(model.PlayerState{
		Tag:    testUser,
		Name:   "Ada",
		Health: health,
		Stats:  model.Stats{Charisma: 1, Strength: 1, Wisdom: 1, Agility: 2},
	})
	require.NoError(t, f.players.Save(context.Background(), p))
	data, err := f.store.Get(context.Background(), save.PlayerKey(testUser))
	require.NoError(t, err)
	return data
}

// bridge has one option, "Jump": Agility against 12.
// Success hurts for 5, failure poisons for one tick.
func bridge() *model.Encounter {
	hurt := model.HealthEffect(-5)
	poison := model.LingeringEffect{Kind: model.Debuff, Name: model.PoisonName, Potency: 2, Duration: 1}
	return &model.Encounter{
		Title: "Bridge",
		Text:  "A rope bridge sways.",
		Options: map[string]model.EncounterOption{
			"Jump": {
				Threshold: 12,
				Stat:      model.Agility,
				Success: model.EncounterResult{
					Kind:       model.ResultKind{Outcome: model.OutcomeSuccess, Flavor: "Across"},
					Title:      "Across",
					Text:       "You land hard.",
					BaseEffect: &hurt,
				},
				Fail: model.EncounterResult{
					Kind:            model.ResultKind{Outcome: model.OutcomeFail, Flavor: "Splash"},
					Title:           "Splash",
					Text:            "The river is foul.",
					LingeringEffect: &poison,
				},
			},
		},
	}
}

func TestPlay_SecondSessionRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bridge())
	before := f.seedPlayer(t, 20)

	guard, err := f.registry.Acquire(ctx, testUser)
	require.NoError(t, err)
	defer guard.Release()

	sum, err := f.game.Play(ctx, testUser, f.ui)
	require.ErrorIs(t, err, ErrSessionAlreadyActive)
	assert.Equal(t, AwaitingInstanceLock, sum.Final)

	active, err := f.registry.Active(ctx, testUser)
	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, 1, f.registry.Len())

	after, err := f.store.Get(ctx, save.PlayerKey(testUser))
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Len(t, f.ui.texts(MessageWarning), 1)
}

func TestPlay_CriticalDamageKills(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bridge(), model.DieSides)
	f.seedPlayer(t, 3)
	f.ui.choices = []string{"Jump"}

	sum, err := f.game.Play(ctx, testUser, f.ui)
	require.NoError(t, err)

	assert.True(t, sum.Died)
	assert.Equal(t, Done, sum.Final)
	assert.Equal(t, int16(-7), sum.Player.Health)
	assert.Empty(t, sum.Player.Effects)
	assert.Contains(t, f.ui.texts(MessageEffect), "Health -10")
	assert.Len(t, f.ui.texts(MessageDeath), 1)

	_, err = f.store.Get(ctx, save.PlayerKey(testUser))
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.Equal(t, 0, f.registry.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.deaths))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.sessionsEnded.WithLabelValues("death")))
}

func TestPlay_EncounterTemplateNotMutatedByCritical(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bridge(), model.DieSides)
	f.seedPlayer(t, 30)
	f.ui.choices = []string{"Jump"}
	f.ui.decisions = []Decision{Rest}

	_, err := f.game.Play(ctx, testUser, f.ui)
	require.NoError(t, err)

	enc, err := f.encounters.Load(ctx, save.EncounterKey("bridge"))
	require.NoError(t, err)
	assert.Equal(t, int16(-5), enc.Options["Jump"].Success.BaseEffect.Potency)
}

func TestPlay_NewPlayerRestsAndSaves(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bridge(), 11)
	f.ui.details = []model.PlayerDetails{{Name: "  Bram ", Description: "Ferryman"}}
	f.ui.stats = []model.Stats{
		{Charisma: 3, Strength: 3},
		{Charisma: 6},
		{Charisma: 2, Strength: 2, Wisdom: 1},
	}
	f.ui.choices = []string{"Jump"}
	f.ui.decisions = []Decision{Rest}

	sum, err := f.game.Play(ctx, testUser, f.ui)
	require.NoError(t, err)
	assert.True(t, sum.Saved)
	assert.Equal(t, Done, sum.Final)
	assert.Equal(t, 1, sum.Turns)

	require.Len(t, f.ui.problems, 3)
	assert.NoError(t, f.ui.problems[0])
	assert.ErrorIs(t, f.ui.problems[1], model.ErrStatsAllocationInvalid)
	assert.ErrorIs(t, f.ui.problems[2], model.ErrStatsAllocationInvalid)

	p, err := f.players.Load(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, "Bram", p.Name())
	assert.Equal(t, "Ferryman", p.Description())
	assert.Equal(t, uint16(1), p.Score())
	// 11 + Agility 0 misses 12: poisoned for one tick, which expires at once.
	assert.Equal(t, model.StartingHealth-2, p.Health())
	assert.Empty(t, p.Effects())
	assert.Equal(t, 0, f.registry.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.playersCreated))
}

func TestPlay_LingeringEffectNotices(t *testing.T) {
	f := newFixture(t, bridge(), 2)
	f.seedPlayer(t, 20)
	f.ui.choices = []string{"Jump"}
	f.ui.decisions = []Decision{Rest}

	sum, err := f.game.Play(context.Background(), testUser, f.ui)
	require.NoError(t, err)

	assert.Contains(t, f.ui.texts(MessageEffect), "Received a Poison Debuff")
	assert.Equal(t, []string{"Your Poison Debuff has worn off"}, f.ui.texts(MessageExpired))
	assert.Equal(t, int16(18), sum.Player.Health)
	assert.Empty(t, sum.Player.Effects)
}

func TestPlay_ContinueRunsAnotherTurn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bridge(), 2)
	f.seedPlayer(t, 20)
	f.ui.choices = []string{"Jump", "Jump", "Jump"}
	f.ui.decisions = []Decision{Continue, Continue, Rest}

	sum, err := f.game.Play(ctx, testUser, f.ui)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Turns)
	assert.Equal(t, uint16(3), sum.Player.Score)
	assert.Equal(t, int16(14), sum.Player.Health)
	assert.Len(t, f.ui.texts(MessageSheet), 3)
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.turns))
}

func TestPlay_UnknownOptionReprompts(t *testing.T) {
	f := newFixture(t, bridge(), 2)
	f.seedPlayer(t, 20)
	f.ui.choices = []string{"Fly", "Jump"}
	f.ui.decisions = []Decision{Rest}

	sum, err := f.game.Play(context.Background(), testUser, f.ui)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Turns)
	assert.Len(t, f.ui.texts(MessageWarning), 1)
}

func TestPlay_ChoiceTimeoutReleasesLock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bridge())
	before := f.seedPlayer(t, 20)

	sum, err := f.game.Play(ctx, testUser, f.ui)
	require.ErrorIs(t, err, ErrChoiceTimedOut)
	assert.Equal(t, AwaitingChoice, sum.Final)
	assert.Equal(t, 0, f.registry.Len())

	after, err := f.store.Get(ctx, save.PlayerKey(testUser))
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.sessionsEnded.WithLabelValues("timeout")))
}

func TestPlay_ContinueTimeoutReleasesLock(t *testing.T) {
	f := newFixture(t, bridge(), 2)
	f.seedPlayer(t, 20)
	f.ui.choices = []string{"Jump"}

	sum, err := f.game.Play(context.Background(), testUser, f.ui)
	require.ErrorIs(t, err, ErrContinueTimedOut)
	assert.Equal(t, AwaitingContinue, sum.Final)
	assert.Equal(t, 0, f.registry.Len())
}

func TestPlay_CharacterBuilderTimeout(t *testing.T) {
	f := newFixture(t, bridge())

	_, err := f.game.Play(context.Background(), testUser, f.ui)
	require.ErrorIs(t, err, ErrCharacterTimedOut)
	assert.Equal(t, 0, f.registry.Len())
	assert.Equal(t, 1, f.store.Len(), "only the encounter is stored")
}

func TestPlay_CorruptSaveStartsBuilder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bridge(), 2)
	require.NoError(t, f.store.Put(ctx, save.PlayerKey(testUser), []byte(`{"user":"1234"}`), db.ContentTypeJSON))
	f.ui.details = []model.PlayerDetails{{Name: "Cora"}}
	f.ui.stats = []model.Stats{{Wisdom: 5}}
	f.ui.choices = []string{"Jump"}
	f.ui.decisions = []Decision{Rest}

	sum, err := f.game.Play(ctx, testUser, f.ui)
	require.NoError(t, err)
	assert.Equal(t, "Cora", sum.Player.Name)
	assert.Contains(t, f.ui.texts(MessageWarning), "Your saved character could not be read. Let's make a new one.")
}

func TestPlay_EmptyPool(t *testing.T) {
	f := newFixture(t, nil)
	f.seedPlayer(t, 20)

	_, err := f.game.Play(context.Background(), testUser, f.ui)
	require.ErrorIs(t, err, save.ErrNoEncounters)
	assert.Equal(t, 0, f.registry.Len())
}

type failingSaves struct {
	*save.Players
}

func (failingSaves) Save(context.Context, *model.Player) error {
	return save.ErrStorageFailure
}

func TestPlay_SaveFailureIsReported(t *testing.T) {
	f := newFixture(t, bridge(), 2)
	f.seedPlayer(t, 20)
	f.ui.choices = []string{"Jump"}
	f.ui.decisions = []Decision{Rest}
	game := NewGame(f.registry, failingSaves{f.players}, f.encounters, f.game.cfg).
		WithDie(zumbortest.NewSequenceDie(2))

	sum, err := game.Play(context.Background(), testUser, f.ui)
	require.NoError(t, err)
	assert.False(t, sum.Saved)
	assert.Equal(t, Done, sum.Final)
	assert.Contains(t, f.ui.texts(MessageWarning), "Your progress could not be saved.")
	assert.Equal(t, 0, f.registry.Len())
}

func TestPlay_NotifyFailuresAreIgnored(t *testing.T) {
	f := newFixture(t, bridge(), 2)
	f.seedPlayer(t, 20)
	f.ui.notifyErr = errors.New("gateway down")
	f.ui.choices = []string{"Jump"}
	f.ui.decisions = []Decision{Rest}

	sum, err := f.game.Play(context.Background(), testUser, f.ui)
	require.NoError(t, err)
	assert.True(t, sum.Saved)
}

func TestPlay_ConcurrentSessionForSameUser(t *testing.T) {
	f := newFixture(t, bridge())
	f.seedPlayer(t, 20)
	f.game.cfg.ChoiceTimeout = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.game.Play(ctx, testUser, f.ui)
		done <- err
	}()

	select {
	case <-f.ui.prompted:
	case <-time.After(5 * time.Second):
		t.Fatal("first session never reached the choice prompt")
	}

	_, err := f.game.Play(context.Background(), testUser, newScriptedUI())
	assert.ErrorIs(t, err, ErrSessionAlreadyActive)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrChoiceTimedOut)
	case <-time.After(5 * time.Second):
		t.Fatal("first session did not stop after cancel")
	}
	assert.Equal(t, 0, f.registry.Len())
}

func TestDoubled(t *testing.T) {
	assert.Equal(t, int16(-10), doubled(-5))
	assert.Equal(t, int16(8), doubled(4))
	assert.Equal(t, int16(32767), doubled(20000))
	assert.Equal(t, int16(-32768), doubled(-20000))
}

func TestPlayerSheet(t *testing.T) {
	p := model.RestorePlayer(model.PlayerState{
		Tag: "1", Name: "Ada", Description: "Bard", Health: 7, Score: 3,
		Stats: model.Stats{Charisma: 2, Strength: 1, Wisdom: 0, Agility: -1},
	})

	msg := PlayerSheet(p)
	assert.Equal(t, MessageSheet, msg.Kind)
	assert.Equal(t, "Ada", msg.Title)
	assert.Equal(t, "Bard\nScore: 3  Health: 7\nCharisma: 2  Strength: 1  Wisdom: 0  Agility: -1", msg.Text)
}

// ledge is a colored encounter whose failure hurts for 4.
func ledge() *model.Encounter {
	color := model.Color(0x8b0000)
	bruise := model.HealthEffect(-4)
	return &model.Encounter{
		Title: "Ledge",
		Text:  "A narrow ledge over a drop.",
		Color: &color,
		Options: map[string]model.EncounterOption{
			"Edge along": {
				Threshold: 2,
				Stat:      model.Agility,
				Success: model.EncounterResult{
					Kind:  model.ResultKind{Outcome: model.OutcomeSuccess, Flavor: "Safe"},
					Title: "Safe",
					Text:  "You make it across.",
				},
				Fail: model.EncounterResult{
					Kind:       model.ResultKind{Outcome: model.OutcomeFail, Flavor: "Slip"},
					Title:      "Slip",
					Text:       "You scrape down the rock.",
					BaseEffect: &bruise,
				},
			},
		},
	}
}

func TestPlay_CriticalFailDoublesBaseEffect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, ledge(), 1)
	f.seedPlayer(t, 20)
	f.ui.choices = []string{"Edge along"}
	f.ui.decisions = []Decision{Rest}

	sum, err := f.game.Play(ctx, testUser, f.ui)
	require.NoError(t, err)

	assert.False(t, sum.Died)
	assert.True(t, sum.Saved)
	assert.Equal(t, int16(12), sum.Player.Health, "a natural 1 doubles the failure damage")
	assert.Equal(t, []string{"Health -8"}, f.ui.texts(MessageEffect))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.rolls.WithLabelValues("critical_fail")))
}

func TestPlay_TurnNoticesCarryEncounterColor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, ledge(), 10)
	f.seedPlayer(t, 20)
	f.ui.choices = []string{"Edge along"}
	f.ui.decisions = []Decision{Rest}

	_, err := f.game.Play(ctx, testUser, f.ui)
	require.NoError(t, err)

	f.ui.mu.Lock()
	defer f.ui.mu.Unlock()
	var results int
	for _, m := range f.ui.messages {
		switch m.Kind {
		case MessageResult:
			results++
			require.NotNil(t, m.Color)
			assert.Equal(t, model.Color(0x8b0000), *m.Color)
		case MessageSheet, MessageInfo:
			assert.Nil(t, m.Color, "%s messages are not tied to an encounter", m.Kind)
		}
	}
	assert.Equal(t, 1, results)
}

func TestPlay_InvalidTagStopsBeforeBuilder(t *testing.T) {
	f := newFixture(t, bridge())

	sum, err := f.game.Play(context.Background(), "v2/"+testUser, f.ui)
	require.ErrorIs(t, err, save.ErrInvalidTag)
	assert.Equal(t, LoadOrCreatePlayer, sum.Final)
	assert.Empty(t, f.ui.problems, "the character builder never ran")
	assert.Equal(t, 1, f.store.Len(), "only the encounter is stored")
	assert.Zero(t, f.registry.Len(), "the lease is released")
}
