// Package save implements JSON serialization of the completed ledger.
// The achieved id set is the only state that must survive a restart;
// everything else is rebuilt from content and replayed notifications.
package save

import (
	"encoding/json"
	"fmt"

	"github.com/nathoo/unlockcore/engine"
	"github.com/nathoo/unlockcore/types"
)

// FormatVersion is written into every save file.
const FormatVersion = 1

// SaveData is the JSON-serializable save format.
type SaveData struct {
	Format   int      `json:"format"`
	Content  string   `json:"content,omitempty"`
	Version  string   `json:"version,omitempty"`
	Achieved []string `json:"achieved"`
}

// Save serializes the engine's ledger snapshot to JSON bytes.
func Save(e *engine.Engine, meta types.ContentMeta) ([]byte, error) {
	data := SaveData{
		Format:   FormatVersion,
		Content:  meta.Title,
		Version:  meta.Version,
		Achieved: e.Snapshot(),
	}
	return json.MarshalIndent(data, "", "  ")
}

// Load deserializes JSON bytes into SaveData.
func Load(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, err
	}
	if sd.Format > FormatVersion {
		return nil, fmt.Errorf("save format %d is newer than supported %d", sd.Format, FormatVersion)
	}
	// Ensure the slice is never nil after load.
	if sd.Achieved == nil {
		sd.Achieved = []string{}
	}
	return &sd, nil
}

// Apply restores the save into a fresh engine and returns the replayed
// notifications.
func Apply(e *engine.Engine, sd *SaveData) ([]types.UnlockAchieved, error) {
	replayed, err := e.Restore(sd.Achieved)
	if err != nil {
		return nil, fmt.Errorf("applying save: %w", err)
	}
	return replayed, nil
}
