package save

import (
	"fmt"
	"strings"
)

// Object key layout.
const (
	PlayerPrefix         = "zumbor/saves/"
	MigratedPlayerPrefix = "zumbor/saves/v2/"
	EncounterPrefix      = "zumbor/encounters/"
	MigratedEncounterDir = "zumbor/encounters/v2/"
)

// ValidateTag rejects tags that cannot name a save key on their own.
// A tag containing '/' could land on another user's key, e.g. "v2/1234" on
// the migrated copy of "1234".
func ValidateTag(tag string) error {
	if tag == "" {
		return fmt.Errorf("%w: empty", ErrInvalidTag)
	}
	if strings.ContainsAny(tag, "/\\") {
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidTag, tag)
	}
	return nil
}

// PlayerKey is the canonical save key for a tag.
func PlayerKey(tag string) string {
	return PlayerPrefix + tag + ".json"
}

// MigratedPlayerKey is where a migrated legacy save is written back.
func MigratedPlayerKey(tag string) string {
	return MigratedPlayerPrefix + tag + ".json"
}

// MigratedEncounterKey derives the v2 key for a legacy encounter key:
// lowercased, spaces and "%20" replaced by '-', stored under encounters/v2/.
func MigratedEncounterKey(key string) string {
	if IsMigratedEncounterKey(key) {
		return key
	}
	k := strings.ToLower(key)
	k = strings.ReplaceAll(k, "%20", "-")
	k = strings.ReplaceAll(k, " ", "-")
	return strings.Replace(k, "/encounters/", "/encounters/v2/", 1)
}

// IsMigratedEncounterKey reports whether key lives in the v2 encounter directory.
func IsMigratedEncounterKey(key string) bool {
	return strings.HasPrefix(key, MigratedEncounterDir)
}

// EncounterKey is the v2 key for an encounter imported under name.
func EncounterKey(name string) string {
	return MigratedEncounterKey(EncounterPrefix + strings.TrimSuffix(name, ".json") + ".json")
}
