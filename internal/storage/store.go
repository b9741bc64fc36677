package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/aethersim/internal/automaton"
)

// Store keeps one directory per run under baseDir.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) BaseDir() string { return s.baseDir }

type RunMetadata struct {
	ID           string             `json:"id"`
	Rule         string             `json:"rule"`
	Dim          int                `json:"dim"`
	Initial      int64              `json:"initial"`
	Background   int64              `json:"background,omitempty"`
	EnclosedSide int                `json:"enclosed_side,omitempty"`
	SubFolder    string             `json:"sub_folder"`
	Timestamp    time.Time          `json:"timestamp"`
	Steps        uint64             `json:"steps"`
	Stable       bool               `json:"stable"`
	Elapsed      float64            `json:"elapsed_seconds"`
	ResumedFrom  string             `json:"resumed_from,omitempty"`
	Metrics      map[string]float64 `json:"metrics"`
}

// Describe fills the run-independent fields of a new metadata record.
func Describe(a *automaton.Automaton) RunMetadata {
	return RunMetadata{
		ID:           uuid.NewString(),
		Rule:         a.Name(),
		Dim:          a.Dim(),
		Initial:      a.Initial(),
		Background:   a.Background(),
		EnclosedSide: a.EnclosedSide(),
		SubFolder:    a.SubFolderPath(),
		Timestamp:    time.Now(),
		Metrics:      map[string]float64{},
	}
}

func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

// Begin creates the run directory and writes the initial metadata.
func (s *Store) Begin(meta RunMetadata) error {
	if meta.ID == "" {
		return fmt.Errorf("storage: run without id")
	}
	if err := os.MkdirAll(s.RunDir(meta.ID), 0755); err != nil {
		return err
	}
	return s.writeMeta(meta)
}

func (s *Store) writeMeta(meta RunMetadata) error {
	metaPath := filepath.Join(s.RunDir(meta.ID), "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

var stepsHeader = []string{"step", "max_x", "changed", "toppled", "excess", "min", "max", "non_background"}

// Save writes the final metadata and the per-step statistics of a run.
func (s *Store) Save(meta RunMetadata, history []automaton.Stats) error {
	if err := s.Begin(meta); err != nil {
		return err
	}

	csvPath := filepath.Join(s.RunDir(meta.ID), "steps.csv")
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(stepsHeader); err != nil {
		return err
	}
	for _, st := range history {
		row := []string{
			strconv.FormatUint(st.Step, 10),
			strconv.Itoa(st.MaxX),
			strconv.FormatBool(st.Changed),
			strconv.Itoa(st.Toppled),
			strconv.FormatInt(st.Excess, 10),
			strconv.FormatInt(st.MinValue, 10),
			strconv.FormatInt(st.MaxValue, 10),
			strconv.FormatInt(st.NonBackground, 10),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every run, newest first.
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
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.RunDir(runID), "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSteps reads back the statistics written by Save.
func (s *Store) LoadSteps(runID string) ([]automaton.Stats, error) {
	csvPath := filepath.Join(s.RunDir(runID), "steps.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(stepsHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []automaton.Stats{}, nil
	}

	history := make([]automaton.Stats, 0, len(records)-1)
	for i, rec := range records[1:] {
		st, err := parseStats(rec)
		if err != nil {
			return nil, fmt.Errorf("steps.csv line %d: %w", i+2, err)
		}
		history = append(history, st)
	}
	return history, nil
}

func parseStats(rec []string) (automaton.Stats, error) {
	var st automaton.Stats
	var err error
	if st.Step, err = strconv.ParseUint(rec[0], 10, 64); err != nil {
		return st, err
	}
	if st.MaxX, err = strconv.Atoi(rec[1]); err != nil {
		return st, err
	}
	if st.Changed, err = strconv.ParseBool(rec[2]); err != nil {
		return st, err
	}
	if st.Toppled, err = strconv.Atoi(rec[3]); err != nil {
		return st, err
	}
	ints := []*int64{&st.Excess, &st.MinValue, &st.MaxValue, &st.NonBackground}
	for i, p := range ints {
		if *p, err = strconv.ParseInt(rec[4+i], 10, 64); err != nil {
			return st, err
		}
	}
	return st, nil
}
