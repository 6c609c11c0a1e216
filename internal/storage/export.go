package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	RunMetadata
	Samples []Sample `json:"samples"`
}

// ExportJSON writes a run's metadata and full trajectory as one JSON
// document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	samples, err := s.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{RunMetadata: *meta, Samples: samples})
}
