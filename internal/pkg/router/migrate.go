package router

import (
	"fmt"
	"regexp"

	"midideck/internal/pkg/logger"
	"midideck/internal/pkg/prefs"
)

const (
	settingsDoc = "settings"
	migratedKey = "legacyGroupsMigrated"

	// legacyEditorApp is the application the old flat format implicitly
	// targeted; its groups carried the "fcpx" prefix.
	legacyEditorApp = "com.apple.FinalCutPro"
)

// Legacy group keys: "fcpx3", "global1" - prefix picks the application,
// the trailing number is the bank.
var legacyGroupRe = regexp.MustCompile(`^(fcpx|global)([1-9][0-9]*)$`)

// MigrateLegacyControls converts the pre-bank flat group format into the
// (applicationID, bankID) structure. Runs at most once, guarded by a
// persisted flag; malformed legacy data is skipped, never fatal.
func MigrateLegacyControls(store *prefs.Store) error {
	if done, _ := store.Get(settingsDoc, migratedKey); done == true {
		return nil
	}

	raw, _ := store.Get(controlsDoc, "")
	doc, ok := raw.(map[string]interface{})
	if !ok {
		return store.Set(settingsDoc, migratedKey, true)
	}

	// modern entries first, then legacy groups merge into them; a single
	// pass would let a modern entry overwrite already-migrated banks
	// depending on map iteration order
	out := make(map[string]interface{}, len(doc))
	for key, value := range doc {
		if !legacyGroupRe.MatchString(key) {
			out[key] = value
		}
	}

	var migrated int
	for key, value := range doc {
		m := legacyGroupRe.FindStringSubmatch(key)
		if m == nil {
			continue
		}

		buttons, ok := value.(map[string]interface{})
		if !ok {
			log.Info(fmt.Sprintf("skipping malformed legacy group %q", key), logger.Warning)
			continue
		}

		app := legacyEditorApp
		if m[1] == "global" {
			app = AllApplications
		}

		banks := ensureMap(ensureMap(out, app), "banks")
		bank := ensureMap(banks, m[2])
		for button, binding := range buttons {
			bank[button] = binding
		}
		migrated++
	}

	if migrated > 0 {
		if err := store.SetDocument(controlsDoc, out); err != nil {
			return fmt.Errorf("cannot write migrated controls: %w", err)
		}
		log.Info(fmt.Sprintf("migrated %d legacy control groups", migrated), logger.Info)
	}

	return store.Set(settingsDoc, migratedKey, true)
}

func ensureMap(parent map[string]interface{}, key string) map[string]interface{} {
	if m, ok := parent[key].(map[string]interface{}); ok {
		return m
	}
	m := make(map[string]interface{})
	parent[key] = m
	return m
}
