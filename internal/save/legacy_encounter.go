package save

import (
	"math"
	"strconv"
	"strings"

	"github.com/udisondev/zumbor/internal/model"
)

// DecodeLegacyEncounter maps a pre-v2 encounter into the current model.
//
// Legacy encounters store the color as "#rrggbb", nest results under
// "Success"/"Fail" and name effects by string: Heal and Damage become Health
// effects, Poison and Regenerate keep their fixed direction, attribute
// lingering effects carry an explicit buff/debuff "type".
func DecodeLegacyEncounter(data []byte) (*model.Encounter, error) {
	doc, err := parseLegacyObject("encounter", data)
	if err != nil {
		return nil, err
	}
	if err := doc.allowOnly("title", "text", "color", "options"); err != nil {
		return nil, err
	}

	enc := &model.Encounter{}
	if enc.Title, err = doc.str("title"); err != nil {
		return nil, err
	}
	if enc.Text, err = doc.str("text"); err != nil {
		return nil, err
	}
	if doc.has("color") {
		s, err := doc.str("color")
		if err != nil {
			return nil, err
		}
		c, err := parseHexColor(s)
		if err != nil {
			return nil, doc.fail("color %q: %v", s, err)
		}
		enc.Color = &c
	}

	options, err := doc.object("options")
	if err != nil {
		return nil, err
	}
	enc.Options = make(map[string]model.EncounterOption, len(options.fields))
	for _, label := range options.sortedKeys() {
		obj, err := options.object(label)
		if err != nil {
			return nil, err
		}
		opt, err := legacyOption(obj)
		if err != nil {
			return nil, err
		}
		enc.Options[label] = opt
	}
	return enc, nil
}

func legacyOption(obj legacyObject) (model.EncounterOption, error) {
	if err := obj.allowOnly("threshold", "stat", "Success", "Fail"); err != nil {
		return model.EncounterOption{}, err
	}
	threshold, err := obj.integer("threshold", 0, math.MaxUint8)
	if err != nil {
		return model.EncounterOption{}, err
	}
	statName, err := obj.str("stat")
	if err != nil {
		return model.EncounterOption{}, err
	}
	stat, err := model.ParseAttribute(statName)
	if err != nil {
		return model.EncounterOption{}, obj.fail("stat: %v", err)
	}

	success, err := legacyResult(obj, "Success", model.OutcomeSuccess)
	if err != nil {
		return model.EncounterOption{}, err
	}
	fail, err := legacyResult(obj, "Fail", model.OutcomeFail)
	if err != nil {
		return model.EncounterOption{}, err
	}
	return model.EncounterOption{
		Threshold: uint8(threshold),
		Stat:      stat,
		Success:   success,
		Fail:      fail,
	}, nil
}

func legacyResult(parent legacyObject, key string, outcome model.Outcome) (model.EncounterResult, error) {
	obj, err := parent.object(key)
	if err != nil {
		return model.EncounterResult{}, err
	}
	if err := obj.allowOnly("type", "title", "text", "baseEffect", "additionalEffect"); err != nil {
		return model.EncounterResult{}, err
	}

	res := model.EncounterResult{Kind: model.ResultKind{Outcome: outcome}}
	if res.Kind.Flavor, err = obj.str("type"); err != nil {
		return model.EncounterResult{}, err
	}
	if res.Title, err = obj.str("title"); err != nil {
		return model.EncounterResult{}, err
	}
	if res.Text, err = obj.str("text"); err != nil {
		return model.EncounterResult{}, err
	}

	if obj.has("baseEffect") {
		be, err := obj.object("baseEffect")
		if err != nil {
			return model.EncounterResult{}, err
		}
		effect, err := legacyBaseEffect(be)
		if err != nil {
			return model.EncounterResult{}, err
		}
		res.BaseEffect = &effect
	}
	if obj.has("additionalEffect") {
		le, err := obj.object("additionalEffect")
		if err != nil {
			return model.EncounterResult{}, err
		}
		effect, err := legacyLingeringEffect(le)
		if err != nil {
			return model.EncounterResult{}, err
		}
		res.LingeringEffect = &effect
	}
	return res, nil
}

// legacyBaseEffect maps {name, potency}. Heal and Damage carry a magnitude,
// so a negative potency on them is ambiguous and rejected.
func legacyBaseEffect(obj legacyObject) (model.BaseEffect, error) {
	if err := obj.allowOnly("name", "potency"); err != nil {
		return model.BaseEffect{}, err
	}
	name, err := obj.str("name")
	if err != nil {
		return model.BaseEffect{}, err
	}

	switch name {
	case "Heal", "Damage":
		p, err := obj.integer("potency", 0, math.MaxInt16)
		if err != nil {
			return model.BaseEffect{}, err
		}
		if name == "Damage" {
			p = -p
		}
		return model.HealthEffect(int16(p)), nil
	}

	attr, err := model.ParseAttribute(name)
	if err != nil {
		return model.BaseEffect{}, obj.fail("unrecognized base effect %q", name)
	}
	p, err := obj.int16("potency")
	if err != nil {
		return model.BaseEffect{}, err
	}
	return model.AttributeEffect(attr, p), nil
}

func legacyLingeringEffect(obj legacyObject) (model.LingeringEffect, error) {
	if err := obj.allowOnly("name", "potency", "duration", "type"); err != nil {
		return model.LingeringEffect{}, err
	}
	name, err := obj.str("name")
	if err != nil {
		return model.LingeringEffect{}, err
	}
	potency, err := obj.integer("potency", 0, math.MaxInt16)
	if err != nil {
		return model.LingeringEffect{}, err
	}
	duration, err := obj.integer("duration", 1, math.MaxInt16)
	if err != nil {
		return model.LingeringEffect{}, err
	}

	var declared model.LingeringKind
	if obj.has("type") {
		s, err := obj.str("type")
		if err != nil {
			return model.LingeringEffect{}, err
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "buff":
			declared = model.Buff
		case "debuff":
			declared = model.Debuff
		default:
			return model.LingeringEffect{}, obj.fail("unrecognized effect type %q", s)
		}
	}

	e := model.LingeringEffect{Potency: int16(potency), Duration: int16(duration)}
	switch name {
	case "Poison":
		e.Kind, e.Name = model.Debuff, model.PoisonName
	case "Regenerate":
		e.Kind, e.Name = model.Buff, model.RegenerateName
	default:
		attr, err := model.ParseAttribute(name)
		if err != nil {
			return model.LingeringEffect{}, obj.fail("unrecognized lingering effect %q", name)
		}
		if declared == 0 {
			return model.LingeringEffect{}, obj.fail("attribute effect %q needs a type", name)
		}
		e.Kind, e.Name = declared, model.StatName(attr)
	}
	if declared != 0 && declared != e.Kind {
		return model.LingeringEffect{}, obj.fail("%s cannot be a %s", name, declared)
	}
	return e, nil
}

// parseHexColor parses "#rrggbb".
func parseHexColor(s string) (model.Color, error) {
	hex, ok := strings.CutPrefix(strings.TrimSpace(s), "#")
	if !ok || len(hex) != 6 {
		return 0, strconv.ErrSyntax
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, err
	}
	return model.Color(v), nil
}
