package save

import (
	"encoding/json"
	"fmt"

	"github.com/udisondev/zumbor/internal/model"
)

// EncodePlayer serializes a player snapshot in the current schema.
func EncodePlayer(s model.PlayerState) ([]byte, error) {
	rec := playerRecord{
		Tag:         s.Tag,
		Description: ptr(s.Description),
		Name:        s.Name,
		Health:      ptr(s.Health),
		Score:       ptr(s.Score),
		Stats: &statsRecord{
			Charisma: ptr(s.Stats.Charisma),
			Strength: ptr(s.Stats.Strength),
			Wisdom:   ptr(s.Stats.Wisdom),
			Agility:  ptr(s.Stats.Agility),
		},
		Effects: make([]lingeringRecord, 0, len(s.Effects)),
	}
	for _, e := range s.Effects {
		rec.Effects = append(rec.Effects, newLingeringRecord(e))
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encoding player %q: %w", s.Tag, err)
	}
	return data, nil
}

// DecodePlayer parses a current-schema player record.
// Unknown fields and missing required fields are rejected.
func DecodePlayer(data []byte) (model.PlayerState, error) {
	var rec playerRecord
	if err := decodeStrict(data, &rec); err != nil {
		return model.PlayerState{}, fmt.Errorf("%w: player: %w", ErrInvalidRecord, err)
	}
	if rec.Tag == "" || rec.Name == "" {
		return model.PlayerState{}, fmt.Errorf("%w: player needs tag and name", ErrInvalidRecord)
	}
	if rec.Stats == nil {
		return model.PlayerState{}, fmt.Errorf("%w: player %q has no stats", ErrInvalidRecord, rec.Tag)
	}
	if rec.Effects == nil {
		return model.PlayerState{}, fmt.Errorf("%w: player %q has no effects list", ErrInvalidRecord, rec.Tag)
	}

	var f missingFields
	state := model.PlayerState{
		Tag:         rec.Tag,
		Name:        rec.Name,
		Description: need(&f, "description", rec.Description),
		Health:      need(&f, "health", rec.Health),
		Score:       need(&f, "score", rec.Score),
		Stats: model.Stats{
			Charisma: need(&f, "stats.charisma", rec.Stats.Charisma),
			Strength: need(&f, "stats.strength", rec.Stats.Strength),
			Wisdom:   need(&f, "stats.wisdom", rec.Stats.Wisdom),
			Agility:  need(&f, "stats.agility", rec.Stats.Agility),
		},
		Effects: make([]model.LingeringEffect, 0, len(rec.Effects)),
	}
	if err := f.err(fmt.Sprintf("player %q", rec.Tag)); err != nil {
		return model.PlayerState{}, err
	}
	for i, r := range rec.Effects {
		e, err := r.model()
		if err != nil {
			return model.PlayerState{}, fmt.Errorf("%w: player %q effect %d: %w", ErrInvalidRecord, rec.Tag, i, err)
		}
		state.Effects = append(state.Effects, e)
	}
	return state, nil
}

// EncodeEncounter serializes an encounter in the current schema.
func EncodeEncounter(e *model.Encounter) ([]byte, error) {
	title, text := e.Title, e.Text
	rec := encounterRecord{
		Title:   &title,
		Text:    &text,
		Options: make(map[string]optionRecord, len(e.Options)),
	}
	if e.Color != nil {
		c := uint32(*e.Color)
		rec.Color = &c
	}
	for label, opt := range e.Options {
		stat := opt.Stat
		rec.Options[label] = optionRecord{
			Threshold: ptr(opt.Threshold),
			Stat:      &stat,
			Success:   newResultRecord(opt.Success),
			Fail:      newResultRecord(opt.Fail),
		}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encoding encounter %q: %w", e.Title, err)
	}
	return data, nil
}

// DecodeEncounter parses a current-schema encounter record.
func DecodeEncounter(data []byte) (*model.Encounter, error) {
	var rec encounterRecord
	if err := decodeStrict(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: encounter: %w", ErrInvalidRecord, err)
	}
	if rec.Title == nil || rec.Text == nil || rec.Options == nil {
		return nil, fmt.Errorf("%w: encounter needs title, text and options", ErrInvalidRecord)
	}

	enc := &model.Encounter{
		Title:   *rec.Title,
		Text:    *rec.Text,
		Options: make(map[string]model.EncounterOption, len(rec.Options)),
	}
	if rec.Color != nil {
		if *rec.Color > 0xFFFFFF {
			return nil, fmt.Errorf("%w: color %#x out of range", ErrInvalidRecord, *rec.Color)
		}
		c := model.Color(*rec.Color)
		enc.Color = &c
	}
	for label, r := range rec.Options {
		var f missingFields
		threshold := need(&f, "threshold", r.Threshold)
		stat := need(&f, "stat", r.Stat)
		if err := f.err(fmt.Sprintf("option %q", label)); err != nil {
			return nil, err
		}
		success, err := r.Success.model()
		if err != nil {
			return nil, fmt.Errorf("%w: option %q success: %w", ErrInvalidRecord, label, err)
		}
		fail, err := r.Fail.model()
		if err != nil {
			return nil, fmt.Errorf("%w: option %q fail: %w", ErrInvalidRecord, label, err)
		}
		opt := model.EncounterOption{
			Threshold: threshold,
			Stat:      stat,
			Success:   success,
			Fail:      fail,
		}
		if err := opt.Validate(); err != nil {
			return nil, fmt.Errorf("%w: option %q: %w", ErrInvalidRecord, label, err)
		}
		enc.Options[label] = opt
	}
	return enc, nil
}
