package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/datasmith-cli/internal/utils"
)

const runsDirName = "runs"

// Store persists runs as JSON files under <dataDir>/runs.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dataDir. Nothing is created until Save.
func NewStore(dataDir string) *Store {
	return &Store{dir: filepath.Join(dataDir, runsDirName)}
}

// Dir returns the on-disk runs directory.
func (s *Store) Dir() string { return s.dir }

// Save assigns an id and timestamp when missing and writes the run atomically.
func (s *Store) Save(r *Run) error {
	if r == nil {
		return errors.New("run is nil")
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	data, err := utils.PrettyJSON(r)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(s.dir, r.ID+".json"), data)
}

// Load reads a run by id. A unique id prefix is accepted.
func (s *Store) Load(id string) (*Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("run id is empty")
	}
	path := filepath.Join(s.dir, id+".json")
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		full, perr := s.resolvePrefix(id)
		if perr != nil {
			return nil, perr
		}
		path = filepath.Join(s.dir, full+".json")
	}
	return readRun(path)
}

func (s *Store) resolvePrefix(prefix string) (string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read runs: %w", err)
	}
	var match string
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".json")
		if e.IsDir() || name == e.Name() || !strings.HasPrefix(name, prefix) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("run id %q is ambiguous", prefix)
		}
		match = name
	}
	if match == "" {
		return "", fmt.Errorf("run not found: %s: %w", prefix, fs.ErrNotExist)
	}
	return match, nil
}

// List returns all runs, newest first. A missing directory yields no runs.
func (s *Store) List() ([]*Run, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read runs: %w", err)
	}
	var out []*Run
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		r, err := readRun(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func readRun(path string) (*Run, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run: %w", err)
	}
	var r Run
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("parse run %s: %w", filepath.Base(path), err)
	}
	return &r, nil
}
