package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/san-kum/gaintune/internal/control"
	"github.com/san-kum/gaintune/internal/tuner"
)

const (
	metadataFile = "metadata.json"
	trialsFile   = "trials.csv"
	summaryFile  = "summary.txt"
)

var ErrRunNotFound = errors.New("storage: run not found")

var trialsHeader = []string{"trial", "slot", "kp", "ki", "kd", "duration", "effective", "outcome"}

// Store keeps one directory per tuning run under baseDir, named from the
// run's start time. It implements tuner.History.
type Store struct {
	baseDir string
	mu      sync.Mutex
}

var _ tuner.History = (*Store)(nil)

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

// RunID names the run started at start.
func RunID(start time.Time) string {
	return "run_" + start.UTC().Format("20060102T150405.000Z")
}

type RunMetadata struct {
	ID                 string        `json:"id"`
	Plant              string        `json:"plant"`
	Integrator         string        `json:"integrator"`
	Start              time.Time     `json:"start"`
	Seed               int64         `json:"seed"`
	Dt                 float64       `json:"dt"`
	MaxTrials          int           `json:"max_trials"`
	TrialsPerCandidate int           `json:"trials_per_candidate"`
	StartGains         control.Gains `json:"start_gains"`

	Best         *control.Gains `json:"best,omitempty"`
	BestDuration float64        `json:"best_duration,omitempty"`
	Trials       int            `json:"trials"`
}

func (s *Store) runDir(start time.Time) (string, error) {
	dir := filepath.Join(s.baseDir, RunID(start))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// Begin records the metadata of a run before any trial is written.
func (s *Store) Begin(meta RunMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta.ID = RunID(meta.Start)
	dir, err := s.runDir(meta.Start)
	if err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, metadataFile), meta)
}

// WriteTrials appends results to the run's trial log.
func (s *Store) WriteTrials(start time.Time, results []tuner.TrialResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, err := s.runDir(start)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, trialsFile)
	_, statErr := os.Stat(path)
	fresh := errors.Is(statErr, fs.ErrNotExist)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(trialsHeader); err != nil {
			return err
		}
	}
	for _, r := range results {
		if err := w.Write(trialRow(r)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Sync()
}

// WriteSummary writes the two-line best result and updates the metadata.
func (s *Store) WriteSummary(start time.Time, sum tuner.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, err := s.runDir(start)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("best: %s\nduration: %s\n", sum.Best.String(), formatFloat(sum.BestDuration))
	if err := os.WriteFile(filepath.Join(dir, summaryFile), []byte(text), 0644); err != nil {
		return err
	}

	meta, err := readMetadata(dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		meta = &RunMetadata{ID: RunID(start), Start: start}
	}
	best := sum.Best
	meta.Best = &best
	meta.BestDuration = sum.BestDuration
	meta.Trials = sum.Trials
	return writeJSON(filepath.Join(dir, metadataFile), meta)
}

// List returns every run with metadata, oldest first.
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
		meta, err := readMetadata(filepath.Join(s.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Start.Before(runs[j].Start) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	meta, err := readMetadata(filepath.Join(s.baseDir, runID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return meta, err
}

// Latest returns the ID of the most recent run.
func (s *Store) Latest() (string, error) {
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("%w: no runs in %s", ErrRunNotFound, s.baseDir)
	}
	return runs[len(runs)-1].ID, nil
}

func (s *Store) LoadTrials(runID string) ([]tuner.TrialResult, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, trialsFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(trialsHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	results := make([]tuner.TrialResult, 0, len(records))
	for i, rec := range records {
		if i == 0 && rec[0] == trialsHeader[0] {
			continue
		}
		res, err := parseTrialRow(rec)
		if err != nil {
			return nil, fmt.Errorf("storage: %s line %d: %w", trialsFile, i+1, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *Store) LoadSummary(runID string) (tuner.Summary, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, summaryFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return tuner.Summary{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return tuner.Summary{}, err
	}

	var sum tuner.Summary
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		val = strings.TrimSpace(val)
		switch key {
		case "best":
			g, err := tuner.ParseOverride(val)
			if err != nil {
				return tuner.Summary{}, fmt.Errorf("storage: summary best: %w", err)
			}
			sum.Best = g
		case "duration":
			d, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return tuner.Summary{}, fmt.Errorf("storage: summary duration: %w", err)
			}
			sum.BestDuration = d
		}
	}
	if meta, err := s.Load(runID); err == nil {
		sum.Trials = meta.Trials
	}
	return sum, nil
}

func trialRow(r tuner.TrialResult) []string {
	return []string{
		strconv.Itoa(r.Trial),
		strconv.Itoa(r.Slot),
		formatFloat(r.Gains.Kp),
		formatFloat(r.Gains.Ki),
		formatFloat(r.Gains.Kd),
		strconv.Itoa(r.Duration),
		formatFloat(r.Effective),
		r.Outcome.String(),
	}
}

func parseTrialRow(rec []string) (tuner.TrialResult, error) {
	var (
		r   tuner.TrialResult
		err error
	)
	ints := []*int{&r.Trial, &r.Slot}
	for i, p := range ints {
		if *p, err = strconv.Atoi(rec[i]); err != nil {
			return r, err
		}
	}
	floats := []*float64{&r.Gains.Kp, &r.Gains.Ki, &r.Gains.Kd}
	for i, p := range floats {
		if *p, err = strconv.ParseFloat(rec[2+i], 64); err != nil {
			return r, err
		}
	}
	if r.Duration, err = strconv.Atoi(rec[5]); err != nil {
		return r, err
	}
	if r.Effective, err = strconv.ParseFloat(rec[6], 64); err != nil {
		return r, err
	}
	outcome, ok := tuner.ParseOutcome(rec[7])
	if !ok {
		return r, fmt.Errorf("unknown outcome %q", rec[7])
	}
	r.Outcome = outcome
	return r, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func readMetadata(dir string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
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
