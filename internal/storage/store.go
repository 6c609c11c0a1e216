package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/tidalsim/internal/config"
)

const (
	metadataFile   = "metadata.json"
	configFile     = "config.yaml"
	trajectoryFile = "trajectory.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Preset     string             `json:"preset"`
	Timestamp  time.Time          `json:"timestamp"`
	Integrator string             `json:"integrator"`
	Dt         float64            `json:"dt"`
	Steps      int                `json:"steps"`
	Time       float64            `json:"time"`
	Bodies     []string           `json:"bodies"`
	Reason     string             `json:"reason"`
	Metrics    map[string]float64 `json:"metrics"`
}

// LogValue implements slog.LogValuer for structured logging.
func (m RunMetadata) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", m.ID),
		slog.String("preset", m.Preset),
		slog.String("integrator", m.Integrator),
		slog.Int("steps", m.Steps),
		slog.Float64("time", m.Time),
		slog.String("reason", m.Reason),
	)
}

// Save writes a run directory holding the metadata, the configuration that
// produced the run and the recorded trajectory. It returns the run ID.
func (s *Store) Save(meta RunMetadata, cfg *config.Config, samples []Sample) (string, error) {
	name := meta.Preset
	if name == "" {
		name = "run"
	}
	now := time.Now()
	meta.ID = fmt.Sprintf("%s_%d", name, now.UnixMilli())
	meta.Timestamp = now

	runDir := filepath.Join(s.baseDir, meta.ID)
	for n := 2; exists(runDir); n++ {
		meta.ID = fmt.Sprintf("%s_%d_%d", name, now.UnixMilli(), n)
		runDir = filepath.Join(s.baseDir, meta.ID)
	}
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", fmt.Errorf("creating run directory: %w", err)
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", fmt.Errorf("writing metadata: %w", err)
	}
	if cfg != nil {
		if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
			return "", fmt.Errorf("writing config: %w", err)
		}
	}

	if err := writeTrajectory(filepath.Join(runDir, trajectoryFile), samples); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// writeTrajectory writes the samples as CSV. An empty slice leaves an empty
// file, which LoadTrajectory reads back as no samples.
func writeTrajectory(path string, samples []Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", trajectoryFile, err)
	}
	if len(samples) > 0 {
		if err := gocsv.MarshalFile(&samples, f); err != nil {
			f.Close()
			return fmt.Errorf("writing trajectory: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", trajectoryFile, err)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// List returns the metadata of every stored run, oldest first. Directories
// without readable metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing metadata of %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadConfig returns the configuration a run was started with.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

func (s *Store) LoadTrajectory(runID string) ([]Sample, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, trajectoryFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	samples := make([]Sample, 0)
	if err := gocsv.UnmarshalFile(f, &samples); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return samples, nil
		}
		return nil, fmt.Errorf("reading trajectory of %s: %w", runID, err)
	}
	return samples, nil
}

// Latest returns the ID of the most recent run.
func (s *Store) Latest() (string, error) {
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("no runs in %s", s.baseDir)
	}
	return runs[len(runs)-1].ID, nil
}
