package scraper

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// Checkpoint represents saved batch-run state
type Checkpoint struct {
	RunID         uuid.UUID `json:"run_id"`
	Mode          string    `json:"mode"`
	Offset        int       `json:"offset"`
	LastVeiculoID uuid.UUID `json:"last_veiculo_id"`
	StartedAt     time.Time `json:"started_at"`
	SavedAt       time.Time `json:"saved_at"`
	Stats         struct {
		Priced   int `json:"priced"`
		Failed   int `json:"failed"`
		Skipped  int `json:"skipped"`
		NotFound int `json:"not_found"`
	} `json:"stats"`
}

// CheckpointManager handles saving and loading batch-run state
type CheckpointManager struct {
	filePath string
}

// NewCheckpointManager creates a new checkpoint manager
func NewCheckpointManager(filePath string) *CheckpointManager {
	return &CheckpointManager{
		filePath: filePath,
	}
}

// Save saves the current checkpoint
func (c *CheckpointManager) Save(runID uuid.UUID, mode string, offset int, lastID uuid.UUID, progress *ProgressTracker) error {
	snapshot := progress.GetSnapshot()

	checkpoint := Checkpoint{
		RunID:         runID,
		Mode:          mode,
		Offset:        offset,
		LastVeiculoID: lastID,
		StartedAt:     snapshot.StartedAt,
		SavedAt:       time.Now(),
	}
	checkpoint.Stats.Priced = snapshot.Priced
	checkpoint.Stats.Failed = snapshot.Failed
	checkpoint.Stats.Skipped = snapshot.Skipped
	checkpoint.Stats.NotFound = snapshot.NotFound

	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	if err := os.WriteFile(c.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint file: %w", err)
	}

	return nil
}

// Load loads the checkpoint if it exists
func (c *CheckpointManager) Load() (*Checkpoint, error) {
	data, err := os.ReadFile(c.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No checkpoint exists
		}
		return nil, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	var checkpoint Checkpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}

	return &checkpoint, nil
}

// Delete removes the checkpoint file
func (c *CheckpointManager) Delete() error {
	if err := os.Remove(c.filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint file: %w", err)
	}
	return nil
}

// Exists checks if checkpoint file exists
func (c *CheckpointManager) Exists() bool {
	_, err := os.Stat(c.filePath)
	return err == nil
}
