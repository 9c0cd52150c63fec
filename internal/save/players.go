package save

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/udisondev/zumbor/internal/db"
	"github.com/udisondev/zumbor/internal/model"
)

// Players loads and stores player saves, migrating legacy records on read.
type Players struct {
	store Storage
}

// NewPlayers creates a player repository over store.
func NewPlayers(store Storage) *Players {
	return &Players{store: store}
}

// Load returns the saved player for tag.
//
// The canonical record is tried in the current schema first, then a
// previously migrated copy, and finally the legacy mapper. A successful
// legacy migration is written back to MigratedPlayerKey; the legacy record
// itself is left untouched.
func (r *Players) Load(ctx context.Context, tag string) (*model.Player, error) {
	if err := ValidateTag(tag); err != nil {
		return nil, err
	}
	key := PlayerKey(tag)
	data, err := r.store.Get(ctx, key)
	if isNotFound(err) {
		return nil, fmt.Errorf("%w: %s", ErrNoSave, tag)
	}
	if err != nil {
		return nil, storageErr("get", key, err)
	}

	state, err := DecodePlayer(data)
	if err == nil {
		return r.restore(tag, state), nil
	}
	v2Err := err

	if state, ok := r.loadMigrated(ctx, tag); ok {
		return r.restore(tag, state), nil
	}

	state, err = DecodeLegacyPlayer(data)
	if err != nil {
		return nil, fmt.Errorf("loading player %s: %w (current schema: %v)", tag, err, v2Err)
	}
	slog.Info("migrated legacy player save", "tag", tag)

	if err := r.put(ctx, MigratedPlayerKey(tag), state); err != nil {
		slog.Warn("writing back migrated player", "tag", tag, "error", err)
	}
	return r.restore(tag, state), nil
}

func (r *Players) loadMigrated(ctx context.Context, tag string) (model.PlayerState, bool) {
	key := MigratedPlayerKey(tag)
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if !isNotFound(err) {
			slog.Warn("reading migrated player", "key", key, "error", err)
		}
		return model.PlayerState{}, false
	}
	state, err := DecodePlayer(data)
	if err != nil {
		slog.Warn("decoding migrated player", "key", key, "error", err)
		return model.PlayerState{}, false
	}
	return state, true
}

func (r *Players) restore(tag string, state model.PlayerState) *model.Player {
	if state.Tag != tag {
		slog.Warn("save tag differs from key", "keyTag", tag, "recordTag", state.Tag)
		state.Tag = tag
	}
	return model.RestorePlayer(state)
}

// Save writes the player's full record to its canonical key.
func (r *Players) Save(ctx context.Context, p *model.Player) error {
	if err := ValidateTag(p.Tag()); err != nil {
		return err
	}
	return r.put(ctx, PlayerKey(p.Tag()), p.State())
}

func (r *Players) put(ctx context.Context, key string, state model.PlayerState) error {
	data, err := EncodePlayer(state)
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, key, data, db.ContentTypeJSON); err != nil {
		return storageErr("put", key, err)
	}
	return nil
}

// Delete removes the save for tag together with any migrated copy.
// Returns ErrNoSave if there was no canonical save. A stale migrated copy that
// cannot be removed is logged and left behind.
func (r *Players) Delete(ctx context.Context, tag string) error {
	if err := ValidateTag(tag); err != nil {
		return err
	}
	key := PlayerKey(tag)
	err := r.store.Delete(ctx, key)
	if isNotFound(err) {
		return fmt.Errorf("%w: %s", ErrNoSave, tag)
	}
	if err != nil {
		return storageErr("delete", key, err)
	}

	migrated := MigratedPlayerKey(tag)
	if err := r.store.Delete(ctx, migrated); err != nil && !isNotFound(err) {
		slog.Warn("deleting migrated player copy", "key", migrated, "error", err)
	}
	slog.Info("player save deleted", "tag", tag)
	return nil
}
