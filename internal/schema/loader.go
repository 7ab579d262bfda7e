package schema

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog/log"
)

// LoadGroups reads group_*.json field-group definitions from the given
// directories. Malformed or unreadable files are skipped: a degraded schema
// is always preferable to aborting the whole resolve.
func LoadGroups(dirs []string) []RawGroup {
	var groups []RawGroup

	for _, dir := range dirs {
		files, err := filepath.Glob(filepath.Join(dir, "group_*.json"))
		if err != nil || len(files) == 0 {
			continue
		}

		for _, file := range files {
			group, ok := loadGroupFile(file)
			if !ok {
				continue
			}
			groups = append(groups, group)
		}
	}

	return groups
}

func loadGroupFile(path string) (RawGroup, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		log.Debug().Err(err).Str("file", path).Msg("schema: skipping unreadable group file")
		return RawGroup{}, false
	}

	var raw map[string]any
	if err := json.Unmarshal(content, &raw); err != nil {
		log.Debug().Err(err).Str("file", path).Msg("schema: skipping malformed group file")
		return RawGroup{}, false
	}

	group, err := decodeGroup(raw)
	if err != nil {
		log.Debug().Err(err).Str("file", path).Msg("schema: skipping undecodable group file")
		return RawGroup{}, false
	}
	if group.Key == "" || group.Title == "" {
		return RawGroup{}, false
	}
	return group, true
}

// decodeGroup maps a loosely typed group document onto RawGroup. Exports in
// the wild carry prefix_name as 0/1 integers, hence the weak typing.
func decodeGroup(raw map[string]any) (RawGroup, error) {
	var group RawGroup
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &group,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return RawGroup{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return RawGroup{}, err
	}
	return group, nil
}
