package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/pmsmsolve/internal/config"
	"github.com/san-kum/pmsmsolve/internal/sim"
)

type ExportData struct {
	Preset     string              `json:"preset"`
	Integrator string              `json:"integrator"`
	Motor      config.MotorConfig  `json:"motor"`
	Limits     config.LimitsConfig `json:"limits"`
	Dt         float64             `json:"dt"`
	Duration   float64             `json:"duration"`
	Steps      int                 `json:"steps"`
	Columns    []string            `json:"columns"`
	Times      []float64           `json:"times"`
	States     [][]float64         `json:"states"`
	Controls   [][]float64         `json:"controls"`
	Metrics    map[string]float64  `json:"metrics"`
}

func newExportData(cfg *config.Config, result *sim.Result) ExportData {
	numStates, numControls := 0, 0
	if len(result.States) > 0 {
		numStates = len(result.States[0])
	}
	if len(result.Controls) > 0 {
		numControls = len(result.Controls[0])
	}

	data := ExportData{
		Preset:     cfg.Name,
		Integrator: cfg.Drive.Integrator,
		Motor:      cfg.Motor,
		Limits:     cfg.Limits,
		Dt:         cfg.Drive.Dt,
		Duration:   cfg.Drive.Duration,
		Steps:      len(result.Times),
		Columns:    header(numStates, numControls)[1:],
		Times:      result.Times,
		States:     make([][]float64, len(result.States)),
		Controls:   make([][]float64, len(result.Controls)),
		Metrics:    result.Metrics,
	}

	for i, s := range result.States {
		data.States[i] = s
	}
	for i, c := range result.Controls {
		data.Controls[i] = c
	}
	return data
}

func ExportJSON(path string, cfg *config.Config, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, cfg, result)
}

func WriteJSON(w io.Writer, cfg *config.Config, result *sim.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newExportData(cfg, result))
}
