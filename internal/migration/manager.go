package migration

import (
	"encoding/json"
	"fmt"
	"os"
)

// CurrentVersion is the version written by the latest migration.
const CurrentVersion = "1.0.0"

type Migration struct {
	FromVersion string
	ToVersion   string
	Apply       func(data map[string]any) (map[string]any, error)
}

var migrations = []Migration{
	{
		FromVersion: "0.0.0",
		ToVersion:   "1.0.0",
		Apply:       migrate_0_0_0_to_1_0_0,
	},
}

// Logf receives progress messages. Callers can point it at their logger.
var Logf = func(format string, args ...any) {}

// RunMigrations is called every time the data file is opened.
func RunMigrations(dbPath string) error {
	content, err := os.ReadFile(dbPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var data map[string]any
	if err := json.Unmarshal(content, &data); err != nil {
		return err
	}

	// files written before versioning was introduced have no version key
	currentVer, ok := data["version"].(string)
	if !ok {
		currentVer = "0.0.0"
	}

	dirty := false

	for {
		var foundMigration *Migration
		for i := range migrations {
			if migrations[i].FromVersion == currentVer {
				foundMigration = &migrations[i]
				break
			}
		}

		if foundMigration == nil {
			break
		}

		Logf("migrating data file from %s to %s", currentVer, foundMigration.ToVersion)

		newData, err := foundMigration.Apply(data)
		if err != nil {
			return fmt.Errorf("migration %s -> %s failed: %w", currentVer, foundMigration.ToVersion, err)
		}

		data = newData
		currentVer = foundMigration.ToVersion

		data["version"] = currentVer
		dirty = true
	}

	if dirty {
		newContent, err := json.MarshalIndent(data, "", " ")
		if err != nil {
			return err
		}
		return os.WriteFile(dbPath, newContent, 0644)
	}

	return nil
}

// --- Migrations ---

var legacyKeys = map[string]string{
	"id_number": "idNumber",
	"idnumber":  "idNumber",
	"phone":     "telephone",
}

var textFields = []string{"name", "occupation", "idNumber", "telephone"}

// Unversioned files kept the records under "people" with snake_case keys.
func migrate_0_0_0_to_1_0_0(data map[string]any) (map[string]any, error) {
	raw, hasPeople := data["people"]
	if !hasPeople {
		raw = data["persons"]
	}
	delete(data, "people")

	if raw == nil {
		data["persons"] = []any{}
		return data, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("persons: expected array, got %T", raw)
	}

	for i, p := range list {
		rec, ok := p.(map[string]any)
		if !ok {
			continue
		}
		for old, renamed := range legacyKeys {
			v, found := rec[old]
			if !found {
				continue
			}
			if _, taken := rec[renamed]; !taken {
				rec[renamed] = v
			}
			delete(rec, old)
		}
		for _, f := range textFields {
			if _, set := rec[f]; !set {
				rec[f] = ""
			}
		}
		list[i] = rec
	}

	data["persons"] = list
	return data, nil
}
