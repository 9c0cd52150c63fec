package save

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/udisondev/zumbor/internal/model"
)

// Current (v2) on-disk schema. Tagged unions use external tagging:
//
//	base effect:     {"Health":{"potency":-5}} | {"Attribute":{"name":"Wisdom","potency":2}}
//	lingering name:  "Poison" | "Regenerate" | {"Stat":"Agility"}
//	result kind:     {"Success":"flavor"} | {"Fail":"flavor"}

type playerRecord struct {
	Tag         string            `json:"tag"`
	Description *string           `json:"description"`
	Name        string            `json:"name"`
	Health      *int16            `json:"health"`
	Score       *uint16           `json:"score"`
	Stats       *statsRecord      `json:"stats"`
	Effects     []lingeringRecord `json:"effects"`
}

type statsRecord struct {
	Charisma *int16 `json:"charisma"`
	Strength *int16 `json:"strength"`
	Wisdom   *int16 `json:"wisdom"`
	Agility  *int16 `json:"agility"`
}

type lingeringRecord struct {
	Kind     *lingeringKindRecord `json:"kind"`
	Name     *lingeringNameRecord `json:"name"`
	Potency  *int16               `json:"potency"`
	Duration *int16               `json:"duration"`
}

type lingeringKindRecord model.LingeringKind

type lingeringNameRecord model.LingeringName

type baseEffectRecord model.BaseEffect

type encounterRecord struct {
	Title   *string                 `json:"title"`
	Text    *string                 `json:"text"`
	Color   *uint32                 `json:"color"`
	Options map[string]optionRecord `json:"options"`
}

type optionRecord struct {
	Threshold *uint8           `json:"threshold"`
	Stat      *model.Attribute `json:"stat"`
	Success   *resultRecord    `json:"success"`
	Fail      *resultRecord    `json:"fail"`
}

type resultRecord struct {
	Kind            *resultKindRecord `json:"kind"`
	Title           *string           `json:"title"`
	Text            *string           `json:"text"`
	BaseEffect      *baseEffectRecord `json:"base_effect"`
	LingeringEffect *lingeringRecord  `json:"lingering_effect"`
}

type resultKindRecord model.ResultKind

// decodeStrict decodes a single JSON value, rejecting unknown fields and trailing data.
func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after JSON value", ErrInvalidRecord)
	}
	return nil
}

func ptr[T any](v T) *T { return &v }

// missingFields collects the required fields a decoded record left out (absent or null).
type missingFields struct {
	missing []string
}

func need[T any](f *missingFields, name string, p *T) T {
	if p == nil {
		f.missing = append(f.missing, name)
		var zero T
		return zero
	}
	return *p
}

func (f *missingFields) err(what string) error {
	if len(f.missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s is missing %s", ErrInvalidRecord, what, strings.Join(f.missing, ", "))
}

// singleKey decodes an externally tagged object {"Tag": payload}.
func singleKey(data []byte) (string, json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return "", nil, err
	}
	if len(m) != 1 {
		return "", nil, fmt.Errorf("%w: tagged value needs exactly one key, got %d", ErrInvalidRecord, len(m))
	}
	for k, v := range m {
		return k, v, nil
	}
	panic("unreachable")
}

func (k lingeringKindRecord) MarshalJSON() ([]byte, error) {
	switch model.LingeringKind(k) {
	case model.Buff, model.Debuff:
		return json.Marshal(model.LingeringKind(k).String())
	}
	return nil, fmt.Errorf("%w: lingering kind %d", ErrInvalidRecord, uint8(k))
}

func (k *lingeringKindRecord) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "Buff":
		*k = lingeringKindRecord(model.Buff)
	case "Debuff":
		*k = lingeringKindRecord(model.Debuff)
	default:
		return fmt.Errorf("%w: lingering kind %q", ErrInvalidRecord, s)
	}
	return nil
}

func (n lingeringNameRecord) MarshalJSON() ([]byte, error) {
	switch n.Target {
	case model.TargetStat:
		return json.Marshal(map[string]model.Attribute{"Stat": n.Attribute})
	case model.TargetPoison:
		return json.Marshal("Poison")
	case model.TargetRegenerate:
		return json.Marshal("Regenerate")
	}
	return nil, fmt.Errorf("%w: lingering target %d", ErrInvalidRecord, uint8(n.Target))
}

func (n *lingeringNameRecord) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch s {
		case "Poison":
			*n = lingeringNameRecord(model.PoisonName)
		case "Regenerate":
			*n = lingeringNameRecord(model.RegenerateName)
		default:
			return fmt.Errorf("%w: lingering name %q", ErrInvalidRecord, s)
		}
		return nil
	}

	tag, payload, err := singleKey(data)
	if err != nil {
		return err
	}
	if tag != "Stat" {
		return fmt.Errorf("%w: lingering name tag %q", ErrInvalidRecord, tag)
	}
	var attr model.Attribute
	if err := json.Unmarshal(payload, &attr); err != nil {
		return err
	}
	*n = lingeringNameRecord(model.StatName(attr))
	return nil
}

type attributeEffectPayload struct {
	Name    *model.Attribute `json:"name"`
	Potency *int16           `json:"potency"`
}

type healthEffectPayload struct {
	Potency *int16 `json:"potency"`
}

func (e baseEffectRecord) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case model.BaseAttribute:
		return json.Marshal(map[string]attributeEffectPayload{
			"Attribute": {Name: &e.Attribute, Potency: &e.Potency},
		})
	case model.BaseHealth:
		return json.Marshal(map[string]healthEffectPayload{
			"Health": {Potency: &e.Potency},
		})
	}
	return nil, fmt.Errorf("%w: base effect kind %d", ErrInvalidRecord, uint8(e.Kind))
}

func (e *baseEffectRecord) UnmarshalJSON(data []byte) error {
	tag, payload, err := singleKey(data)
	if err != nil {
		return err
	}
	switch tag {
	case "Attribute":
		var p attributeEffectPayload
		if err := decodeStrict(payload, &p); err != nil {
			return err
		}
		var f missingFields
		name := need(&f, "name", p.Name)
		potency := need(&f, "potency", p.Potency)
		if err := f.err("attribute effect"); err != nil {
			return err
		}
		*e = baseEffectRecord(model.AttributeEffect(name, potency))
	case "Health":
		var p healthEffectPayload
		if err := decodeStrict(payload, &p); err != nil {
			return err
		}
		var f missingFields
		potency := need(&f, "potency", p.Potency)
		if err := f.err("health effect"); err != nil {
			return err
		}
		*e = baseEffectRecord(model.HealthEffect(potency))
	default:
		return fmt.Errorf("%w: base effect tag %q", ErrInvalidRecord, tag)
	}
	return nil
}

func (k resultKindRecord) MarshalJSON() ([]byte, error) {
	switch k.Outcome {
	case model.OutcomeSuccess, model.OutcomeFail:
		return json.Marshal(map[string]string{k.Outcome.String(): k.Flavor})
	}
	return nil, fmt.Errorf("%w: outcome %d", ErrInvalidRecord, uint8(k.Outcome))
}

func (k *resultKindRecord) UnmarshalJSON(data []byte) error {
	tag, payload, err := singleKey(data)
	if err != nil {
		return err
	}
	var flavor string
	if err := json.Unmarshal(payload, &flavor); err != nil {
		return err
	}
	switch tag {
	case "Success":
		*k = resultKindRecord{Outcome: model.OutcomeSuccess, Flavor: flavor}
	case "Fail":
		*k = resultKindRecord{Outcome: model.OutcomeFail, Flavor: flavor}
	default:
		return fmt.Errorf("%w: result kind tag %q", ErrInvalidRecord, tag)
	}
	return nil
}

func newLingeringRecord(e model.LingeringEffect) lingeringRecord {
	kind := lingeringKindRecord(e.Kind)
	name := lingeringNameRecord(e.Name)
	return lingeringRecord{Kind: &kind, Name: &name, Potency: ptr(e.Potency), Duration: ptr(e.Duration)}
}

func (r lingeringRecord) model() (model.LingeringEffect, error) {
	var f missingFields
	e := model.LingeringEffect{
		Kind:     model.LingeringKind(need(&f, "kind", r.Kind)),
		Name:     model.LingeringName(need(&f, "name", r.Name)),
		Potency:  need(&f, "potency", r.Potency),
		Duration: need(&f, "duration", r.Duration),
	}
	if err := f.err("lingering effect"); err != nil {
		return model.LingeringEffect{}, err
	}
	if err := e.Validate(); err != nil {
		return model.LingeringEffect{}, err
	}
	return e, nil
}

func newResultRecord(r model.EncounterResult) *resultRecord {
	kind := resultKindRecord(r.Kind)
	out := &resultRecord{Kind: &kind, Title: ptr(r.Title), Text: ptr(r.Text)}
	if r.BaseEffect != nil {
		be := baseEffectRecord(*r.BaseEffect)
		out.BaseEffect = &be
	}
	if r.LingeringEffect != nil {
		le := newLingeringRecord(*r.LingeringEffect)
		out.LingeringEffect = &le
	}
	return out
}

func (r *resultRecord) model() (model.EncounterResult, error) {
	if r == nil {
		return model.EncounterResult{}, fmt.Errorf("%w: result is missing", ErrInvalidRecord)
	}
	var f missingFields
	out := model.EncounterResult{
		Kind:  model.ResultKind(need(&f, "kind", r.Kind)),
		Title: need(&f, "title", r.Title),
		Text:  need(&f, "text", r.Text),
	}
	if err := f.err("result"); err != nil {
		return model.EncounterResult{}, err
	}
	if r.BaseEffect != nil {
		be := model.BaseEffect(*r.BaseEffect)
		out.BaseEffect = &be
	}
	if r.LingeringEffect != nil {
		le, err := r.LingeringEffect.model()
		if err != nil {
			return model.EncounterResult{}, err
		}
		out.LingeringEffect = &le
	}
	return out, nil
}
