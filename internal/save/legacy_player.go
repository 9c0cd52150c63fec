package save

import (
	"fmt"
	"math"

	"github.com/udisondev/zumbor/internal/model"
)

// DecodeLegacyPlayer maps a pre-v2 player save into the current model.
//
// Legacy saves carry the tag under "user" and stats as a map keyed by
// capitalized attribute name, with values stored as numbers or as numeric
// strings depending on the writer's vintage.
func DecodeLegacyPlayer(data []byte) (model.PlayerState, error) {
	doc, err := parseLegacyObject("player", data)
	if err != nil {
		return model.PlayerState{}, err
	}
	if err := doc.allowOnly("name", "user", "description", "health", "score", "stats", "effects"); err != nil {
		return model.PlayerState{}, err
	}

	var state model.PlayerState
	if state.Name, err = doc.str("name"); err != nil {
		return model.PlayerState{}, err
	}
	if state.Tag, err = doc.str("user"); err != nil {
		return model.PlayerState{}, err
	}
	if state.Tag == "" || state.Name == "" {
		return model.PlayerState{}, doc.fail("empty user or name")
	}
	if state.Description, err = doc.str("description"); err != nil {
		return model.PlayerState{}, err
	}
	if state.Health, err = doc.int16("health"); err != nil {
		return model.PlayerState{}, err
	}
	score, err := doc.integer("score", 0, math.MaxUint16)
	if err != nil {
		return model.PlayerState{}, err
	}
	state.Score = uint16(score)

	stats, err := doc.object("stats")
	if err != nil {
		return model.PlayerState{}, err
	}
	if state.Stats, err = legacyStats(stats); err != nil {
		return model.PlayerState{}, err
	}

	state.Effects = []model.LingeringEffect{}
	if doc.has("effects") {
		raw, err := doc.raw("effects")
		if err != nil {
			return model.PlayerState{}, err
		}
		var recs []lingeringRecord
		if err := decodeStrict(raw, &recs); err != nil {
			return model.PlayerState{}, doc.fail("effects: %v", err)
		}
		for i, r := range recs {
			e, err := r.model()
			if err != nil {
				return model.PlayerState{}, doc.fail("effect %d: %v", i, err)
			}
			state.Effects = append(state.Effects, e)
		}
	}
	return state, nil
}

func legacyStats(obj legacyObject) (model.Stats, error) {
	b := model.NewStatsBuilder()
	for _, key := range obj.sortedKeys() {
		attr, err := model.ParseAttribute(key)
		if err != nil {
			return model.Stats{}, obj.fail("unrecognized stat %q", key)
		}
		v, err := obj.int16(key)
		if err != nil {
			return model.Stats{}, err
		}
		b.Set(attr, v)
	}
	stats, err := b.Build()
	if err != nil {
		return model.Stats{}, fmt.Errorf("%w: %s: %w", ErrMigrationFailure, obj.path, err)
	}
	return stats, nil
}
