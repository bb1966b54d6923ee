package autocrawl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kdevcrawl/corpuscrawler/internal/logger"
	"github.com/kdevcrawl/corpuscrawler/internal/model"
)

// loadState reads _auto_state.json from path, returning a fresh AutoState
// when the file is absent or corrupt (spec §7 "State file corrupt: treat as
// empty, log a warning, continue").
func loadState(path string, log logger.Interface) *model.AutoState {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.NewAutoState()
	}
	var st model.AutoState
	if err := json.Unmarshal(data, &st); err != nil {
		log.Warn("auto state file corrupt, starting fresh", "path", path, "error", err)
		return model.NewAutoState()
	}
	if st.Counts == nil {
		st.Counts = map[string]map[string]int{}
	}
	if st.StoredBySource == nil {
		st.StoredBySource = map[string]int{}
	}
	if st.Cooldowns == nil {
		st.Cooldowns = map[string]map[string]int{}
	}
	if st.ForumCursors == nil {
		st.ForumCursors = map[string]int{}
	}
	return &st
}

// saveState persists state atomically: write to a temp file, then rename,
// the same pattern urlnorm.Index.Flush uses for _index.json.
func saveState(path string, st *model.AutoState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal auto state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir state dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("write temp state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp state: %w", err)
	}
	return nil
}
