package save

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/udisondev/zumbor/internal/db"
	"github.com/udisondev/zumbor/internal/model"
)

// Encounters is the encounter pool backed by object storage.
type Encounters struct {
	store Storage
	pick  func(n int) int
}

// NewEncounters creates an encounter pool that draws uniformly at random.
func NewEncounters(store Storage) *Encounters {
	return &Encounters{store: store, pick: rand.IntN}
}

// WithPicker replaces the random index source. pick(n) must return a value in [0, n).
func (r *Encounters) WithPicker(pick func(n int) int) *Encounters {
	r.pick = pick
	return r
}

// Keys lists the drawable encounter keys in key order.
// A legacy record whose migrated copy already exists is listed only once, by its v2 key.
func (r *Encounters) Keys(ctx context.Context) ([]string, error) {
	all, err := r.store.List(ctx, EncounterPrefix)
	if err != nil {
		return nil, storageErr("list", EncounterPrefix, err)
	}

	migrated := make(map[string]struct{}, len(all))
	for _, key := range all {
		if IsMigratedEncounterKey(key) {
			migrated[key] = struct{}{}
		}
	}

	keys := make([]string, 0, len(all))
	for _, key := range all {
		if !IsMigratedEncounterKey(key) {
			if _, ok := migrated[MigratedEncounterKey(key)]; ok {
				continue
			}
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Random draws one encounter from the pool.
func (r *Encounters) Random(ctx context.Context) (*model.Encounter, error) {
	keys, err := r.Keys(ctx)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, ErrNoEncounters
	}
	return r.Load(ctx, keys[r.pick(len(keys))])
}

// Load reads one encounter by key. Legacy records are migrated and, unless
// they already live under the v2 directory, written back to MigratedEncounterKey.
func (r *Encounters) Load(ctx context.Context, key string) (*model.Encounter, error) {
	data, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, storageErr("get", key, err)
	}

	enc, err := DecodeEncounter(data)
	if err == nil {
		return enc, nil
	}
	v2Err := err

	enc, err = DecodeLegacyEncounter(data)
	if err != nil {
		return nil, fmt.Errorf("loading encounter %s: %w (current schema: %v)", key, err, v2Err)
	}

	if target := MigratedEncounterKey(key); target != key {
		slog.Info("migrated legacy encounter", "key", key, "target", target)
		if err := r.put(ctx, target, enc); err != nil {
			slog.Warn("writing back migrated encounter", "key", target, "error", err)
		}
	}
	return enc, nil
}

// Import parses data in either schema and stores it under EncounterKey(name).
// It returns the key written.
func (r *Encounters) Import(ctx context.Context, name string, data []byte) (string, error) {
	enc, err := DecodeEncounter(data)
	if err != nil {
		legacy, legacyErr := DecodeLegacyEncounter(data)
		if legacyErr != nil {
			return "", fmt.Errorf("importing %s: %w (current schema: %v)", name, legacyErr, err)
		}
		enc = legacy
	}
	key := EncounterKey(name)
	if err := r.put(ctx, key, enc); err != nil {
		return "", err
	}
	return key, nil
}

func (r *Encounters) put(ctx context.Context, key string, enc *model.Encounter) error {
	data, err := EncodeEncounter(enc)
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, key, data, db.ContentTypeJSON); err != nil {
		return storageErr("put", key, err)
	}
	return nil
}
