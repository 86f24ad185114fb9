package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/pmsmsolve/internal/config"
	"github.com/san-kum/pmsmsolve/internal/drive"
	"github.com/san-kum/pmsmsolve/internal/sim"
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
	ID          string              `json:"id"`
	Preset      string              `json:"preset"`
	Timestamp   time.Time           `json:"timestamp"`
	Dt          float64             `json:"dt"`
	Duration    float64             `json:"duration"`
	Integrator  string              `json:"integrator"`
	Motor       config.MotorConfig  `json:"motor"`
	Limits      config.LimitsConfig `json:"limits"`
	KcMTPA      float64             `json:"kc_mtpa"`
	SpeedTarget float64             `json:"speed_target"`
	LoadTorque  float64             `json:"load_torque"`
	Metrics     map[string]float64  `json:"metrics"`
}

func newMetadata(id string, cfg *config.Config, result *sim.Result) RunMetadata {
	return RunMetadata{
		ID:          id,
		Preset:      cfg.Name,
		Timestamp:   time.Now(),
		Dt:          cfg.Drive.Dt,
		Duration:    cfg.Drive.Duration,
		Integrator:  cfg.Drive.Integrator,
		Motor:       cfg.Motor,
		Limits:      cfg.Limits,
		KcMTPA:      cfg.Solver.KcMTPA,
		SpeedTarget: cfg.Drive.SpeedTarget,
		LoadTorque:  cfg.Drive.LoadTorque,
		Metrics:     result.Metrics,
	}
}

func (s *Store) Save(cfg *config.Config, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", cfg.Name, time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := newMetadata(runID, cfg, result)

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "states.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := writeStates(csvFile, result); err != nil {
		return "", fmt.Errorf("write states for %s: %w", runID, err)
	}
	return runID, nil
}

// writeStates writes one row per stored state: time, state, then the
// command held over the following step.
func writeStates(out io.Writer, result *sim.Result) error {
	if len(result.States) == 0 {
		return nil
	}

	w := csv.NewWriter(out)

	numControls := 0
	if len(result.Controls) > 0 {
		numControls = len(result.Controls[0])
	}

	if err := w.Write(header(len(result.States[0]), numControls)); err != nil {
		return err
	}

	for i := range result.States {
		row := []string{strconv.FormatFloat(result.Times[i], 'f', 6, 64)}

		for _, val := range result.States[i] {
			row = append(row, strconv.FormatFloat(val, 'g', 10, 64))
		}

		// the final state has no command applied to it
		if i < len(result.Controls) && len(result.Controls[i]) > 0 {
			for _, val := range result.Controls[i] {
				row = append(row, strconv.FormatFloat(val, 'g', 10, 64))
			}
		} else {
			for j := 0; j < numControls; j++ {
				row = append(row, "0")
			}
		}

		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// header uses the drive column names when the shapes match, positional
// names otherwise.
func header(numStates, numControls int) []string {
	h := []string{"time"}
	for i := 0; i < numStates; i++ {
		if numStates == drive.StateDim {
			h = append(h, drive.StateNames[i])
		} else {
			h = append(h, fmt.Sprintf("x%d", i))
		}
	}
	for i := 0; i < numControls; i++ {
		if numControls == drive.ControlDim {
			h = append(h, drive.ControlNames[i])
		} else {
			h = append(h, fmt.Sprintf("u%d", i))
		}
	}
	return h
}

// List returns stored runs, newest first.
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
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata for %s: %w", runID, err)
	}

	return &meta, nil
}

// LoadStates returns the stored rows without the time column, plus the
// times. Columns follow the states.csv header: states, then controls.
func (s *Store) LoadStates(runID string) ([][]float64, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) < 2 {
		return [][]float64{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	rows := make([][]float64, 0, len(records)-1)

	for i, record := range records[1:] {
		line := i + 2
		if len(record) == 0 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("run %s states.csv line %d column %s: %w", runID, line, columnName(records[0], 0), err)
		}
		times = append(times, t)

		row := make([]float64, 0, len(record)-1)
		for j, field := range record[1:] {
			val, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("run %s states.csv line %d column %s: %w", runID, line, columnName(records[0], j+1), err)
			}
			row = append(row, val)
		}
		rows = append(rows, row)
	}

	return rows, times, nil
}

func columnName(header []string, i int) string {
	if i < len(header) {
		return fmt.Sprintf("%d (%s)", i+1, header[i])
	}
	return strconv.Itoa(i + 1)
}

// LoadResult rebuilds a drive run from its stored files. The padded
// control row of the final state is dropped.
func (s *Store) LoadResult(runID string) (*RunMetadata, *sim.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	rows, times, err := s.LoadStates(runID)
	if err != nil {
		return nil, nil, err
	}

	result := &sim.Result{
		States:     make([]sim.State, 0, len(rows)),
		Controls:   make([]sim.Control, 0, len(rows)),
		Times:      times,
		Metrics:    meta.Metrics,
		StepsTaken: max(len(rows)-1, 0),
	}
	for i, row := range rows {
		if len(row) < drive.StateDim {
			return nil, nil, fmt.Errorf("run %s row %d has %d columns, want at least %d", runID, i, len(row), drive.StateDim)
		}
		result.States = append(result.States, sim.State(row[:drive.StateDim]))
		if i < len(rows)-1 && len(row) > drive.StateDim {
			result.Controls = append(result.Controls, sim.Control(row[drive.StateDim:]))
		}
	}
	return meta, result, nil
}

// Config rebuilds the parts of the run configuration kept in metadata.
func (m *RunMetadata) Config() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Name = m.Preset
	cfg.Motor = m.Motor
	cfg.Limits = m.Limits
	cfg.Solver.KcMTPA = m.KcMTPA
	cfg.Drive.Dt = m.Dt
	cfg.Drive.Duration = m.Duration
	cfg.Drive.Integrator = m.Integrator
	cfg.Drive.SpeedTarget = m.SpeedTarget
	cfg.Drive.LoadTorque = m.LoadTorque
	return cfg
}
