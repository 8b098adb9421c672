package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/san-kum/pidlab/internal/loop"
	"github.com/san-kum/pidlab/internal/metrics"
)

const (
	metaFile  = "metadata.json"
	traceFile = "trace.csv"
)

// Store keeps finished runs on disk, one directory per run holding
// metadata.json and trace.csv.
type Store struct {
	root string
}

func New(root string) *Store {
	return &Store{root: root}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.root, 0755)
}

// Meta describes a stored run.
type Meta struct {
	ID        string             `json:"id"`
	Label     string             `json:"label"`
	Plant     string             `json:"plant"`
	Kp        float64            `json:"kp"`
	Ki        float64            `json:"ki"`
	Kd        float64            `json:"kd"`
	Mode      string             `json:"mode"`
	Duration  float64            `json:"duration"`
	Step      float64            `json:"step"`
	Amplitude float64            `json:"amplitude"`
	SavedAt   time.Time          `json:"saved_at"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes one run under a fresh id and returns it.
func (s *Store) Save(label string, spec loop.Spec, gains loop.Gains, cfg loop.Config, tr loop.Trace, met metrics.StepMetrics) (string, error) {
	id := fmt.Sprintf("%s-%d", label, time.Now().UnixNano())
	dir := filepath.Join(s.root, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	meta := Meta{
		ID:        id,
		Label:     label,
		Plant:     spec.Kind.String(),
		Kp:        gains.Kp,
		Ki:        gains.Ki,
		Kd:        gains.Kd,
		Mode:      tr.Mode.String(),
		Duration:  cfg.Duration,
		Step:      cfg.Step,
		Amplitude: cfg.Amplitude,
		SavedAt:   time.Now(),
		Metrics:   MetricsMap(met),
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, metaFile), data, 0644); err != nil {
		return "", err
	}
	if err := WriteTraceFile(filepath.Join(dir, traceFile), tr); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Load(id string) (Meta, error) {
	data, err := os.ReadFile(filepath.Join(s.root, id, metaFile))
	if err != nil {
		return Meta{}, err
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return Meta{}, err
	}
	return meta, nil
}

// LoadTrace reloads a stored trace with its mode restored from metadata.
func (s *Store) LoadTrace(id string) (loop.Trace, error) {
	meta, err := s.Load(id)
	if err != nil {
		return loop.Trace{}, err
	}
	tr, err := ReadTraceFile(filepath.Join(s.root, id, traceFile))
	if err != nil {
		return loop.Trace{}, err
	}
	mode, err := loop.ParseMode(meta.Mode)
	if err != nil {
		return loop.Trace{}, err
	}
	tr.Mode = mode
	return tr, nil
}

// ExportJSONStdout re-emits a stored run as the standard JSON bundle.
func (s *Store) ExportJSONStdout(id string) error {
	meta, err := s.Load(id)
	if err != nil {
		return err
	}
	tr, err := s.LoadTrace(id)
	if err != nil {
		return err
	}
	return encodeJSON(os.Stdout, ExportData{
		Plant:    meta.Plant,
		Kp:       meta.Kp,
		Ki:       meta.Ki,
		Kd:       meta.Kd,
		Mode:     meta.Mode,
		Step:     meta.Step,
		Duration: meta.Duration,
		Samples:  tr.Len(),
		Times:    tr.Time,
		Outputs:  tr.Output,
		Inputs:   tr.Input,
		Metrics:  meta.Metrics,
	})
}

// List returns the stored runs oldest first.
func (s *Store) List() ([]Meta, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	metas := make([]Meta, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := s.Load(e.Name())
		if err != nil {
			continue
		}
		metas = append(metas, meta)
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].SavedAt.Before(metas[j].SavedAt) })
	return metas, nil
}
