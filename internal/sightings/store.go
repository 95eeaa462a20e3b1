package sightings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tphakala/birdwatch-go/internal/errors"
)

// StateStore persists the tracker state and the month-keyed archives as
// JSON documents, each overwritten wholesale on save.
type StateStore struct {
	statePath  string
	archiveDir string
}

// NewStateStore returns a store writing the active state to statePath and
// archives under archiveDir.
func NewStateStore(statePath, archiveDir string) *StateStore {
	return &StateStore{statePath: statePath, archiveDir: archiveDir}
}

// Load reads the persisted state. A missing or corrupt file falls back to
// an empty initial state with a warning rather than erroring.
func (s *StateStore) Load() *State {
	empty := &State{SpeciesCounts: make(map[string]int)}

	data, err := os.ReadFile(s.statePath)
	if err != nil {
		if !os.IsNotExist(err) {
			trackerLogger.Warn("failed to read state file, starting empty",
				"path", s.statePath, "error", err)
		}
		return empty
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		trackerLogger.Warn("corrupt state file, starting empty",
			"path", s.statePath, "error", err)
		return empty
	}
	if state.SpeciesCounts == nil {
		state.SpeciesCounts = make(map[string]int)
	}
	return &state
}

// Save writes the full state document atomically via a temporary file and
// rename, leaving the previous snapshot untouched on failure.
func (s *StateStore) Save(state *State) error {
	state.LastUpdated = time.Now()
	return s.writeJSON(s.statePath, state)
}

// archiveDocument is the shape of one month-keyed archive file.
type archiveDocument struct {
	Sightings []BirdSighting `json:"sightings"`
}

// ArchiveName returns the archive file name for the given month.
func ArchiveName(t time.Time) string {
	return fmt.Sprintf("sightings-archive-%s.json", t.Format("2006-01"))
}

// AppendArchive merges a batch of evicted sightings into the archive file
// for the month of the first record, creating it if absent.
func (s *StateStore) AppendArchive(batch []BirdSighting) error {
	if len(batch) == 0 {
		return nil
	}
	path := filepath.Join(s.archiveDir, ArchiveName(batch[0].Timestamp))

	var doc archiveDocument
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &doc); err != nil {
			trackerLogger.Warn("corrupt archive file, existing content dropped from merge",
				"path", path, "error", err)
			doc = archiveDocument{}
		}
	}

	doc.Sightings = append(doc.Sightings, batch...)
	return s.writeJSON(path, &doc)
}

// LoadArchive reads one month's archive, returning no records when the
// file is absent.
func (s *StateStore) LoadArchive(month time.Time) ([]BirdSighting, error) {
	path := filepath.Join(s.archiveDir, ArchiveName(month))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.New(err).
			Component("sightings").
			Category(errors.CategoryArchive).
			Context("operation", "load_archive").
			Build()
	}
	var doc archiveDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.New(err).
			Component("sightings").
			Category(errors.CategoryArchive).
			Context("operation", "load_archive").
			Build()
	}
	return doc.Sightings, nil
}

// writeJSON writes a document via temp file + rename in the target
// directory so the swap is atomic on the same filesystem.
func (s *StateStore) writeJSON(path string, doc any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.New(err).
			Component("sightings").
			Category(errors.CategoryStateIO).
			Context("operation", "create_state_dir").
			Build()
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.New(err).
			Component("sightings").
			Category(errors.CategoryStateIO).
			Context("operation", "marshal_state").
			Build()
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.New(err).
			Component("sightings").
			Category(errors.CategoryStateIO).
			Context("operation", "create_temp_state").
			Build()
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.New(err).
			Component("sightings").
			Category(errors.CategoryStateIO).
			Context("operation", "write_temp_state").
			Build()
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.New(err).
			Component("sightings").
			Category(errors.CategoryStateIO).
			Context("operation", "close_temp_state").
			Build()
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.New(err).
			Component("sightings").
			Category(errors.CategoryStateIO).
			Context("operation", "rename_state").
			Build()
	}
	return nil
}
