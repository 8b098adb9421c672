// Package export writes simulation results to files: CSV and JSON for the
// raw traces, PNG for rendered plots, and a run store that keeps results
// on disk for later listing and reload.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/san-kum/pidlab/internal/loop"
	"github.com/san-kum/pidlab/internal/metrics"
)

// ExportData is the JSON layout of one finished run.
type ExportData struct {
	Plant    string             `json:"plant"`
	Kp       float64            `json:"kp"`
	Ki       float64            `json:"ki"`
	Kd       float64            `json:"kd"`
	Mode     string             `json:"mode"`
	Step     float64            `json:"step"`
	Duration float64            `json:"duration"`
	Samples  int                `json:"samples"`
	Times    []float64          `json:"times"`
	Outputs  []float64          `json:"outputs"`
	Inputs   []float64          `json:"inputs"`
	Metrics  map[string]float64 `json:"metrics"`
}

func buildExportData(spec loop.Spec, gains loop.Gains, cfg loop.Config, tr loop.Trace, met metrics.StepMetrics) ExportData {
	return ExportData{
		Plant:    spec.Kind.String(),
		Kp:       gains.Kp,
		Ki:       gains.Ki,
		Kd:       gains.Kd,
		Mode:     tr.Mode.String(),
		Step:     cfg.Step,
		Duration: cfg.Duration,
		Samples:  tr.Len(),
		Times:    tr.Time,
		Outputs:  tr.Output,
		Inputs:   tr.Input,
		Metrics:  MetricsMap(met),
	}
}

// MetricsMap flattens the step metrics for serialization.
func MetricsMap(m metrics.StepMetrics) map[string]float64 {
	return map[string]float64{
		"overshoot":          m.Overshoot,
		"rise_time":          m.RiseTime,
		"settling_time":      m.SettlingTime,
		"peak_time":          m.PeakTime,
		"steady_state":       m.SteadyState,
		"steady_state_error": m.SteadyStateError,
		"iae":                m.IAE,
		"ise":                m.ISE,
		"itae":               m.ITAE,
	}
}

func encodeJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, spec loop.Spec, gains loop.Gains, cfg loop.Config, tr loop.Trace, met metrics.StepMetrics) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return encodeJSON(file, buildExportData(spec, gains, cfg, tr, met))
}

func ExportJSONStdout(spec loop.Spec, gains loop.Gains, cfg loop.Config, tr loop.Trace, met metrics.StepMetrics) error {
	return encodeJSON(os.Stdout, buildExportData(spec, gains, cfg, tr, met))
}

// WriteTraceCSV writes time,output,input rows. Floats use the shortest
// exact representation so a reload reproduces the trace bit for bit.
func WriteTraceCSV(w io.Writer, tr loop.Trace) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "output", "input"}); err != nil {
		return err
	}
	for k := 0; k < tr.Len(); k++ {
		row := []string{
			strconv.FormatFloat(tr.Time[k], 'g', -1, 64),
			strconv.FormatFloat(tr.Output[k], 'g', -1, 64),
			strconv.FormatFloat(tr.Input[k], 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadTraceCSV parses a trace written by WriteTraceCSV. The mode is not
// part of the CSV; callers restore it from run metadata.
func ReadTraceCSV(r io.Reader) (loop.Trace, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return loop.Trace{}, err
	}
	if len(rows) == 0 {
		return loop.Trace{}, fmt.Errorf("export: empty trace file")
	}

	tr := loop.Trace{
		Time:   make([]float64, 0, len(rows)-1),
		Output: make([]float64, 0, len(rows)-1),
		Input:  make([]float64, 0, len(rows)-1),
	}
	for _, row := range rows[1:] {
		if len(row) != 3 {
			return loop.Trace{}, fmt.Errorf("export: malformed trace row %v", row)
		}
		t, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			return loop.Trace{}, err
		}
		y, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return loop.Trace{}, err
		}
		u, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return loop.Trace{}, err
		}
		tr.Time = append(tr.Time, t)
		tr.Output = append(tr.Output, y)
		tr.Input = append(tr.Input, u)
	}
	return tr, nil
}

func WriteTraceFile(path string, tr loop.Trace) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteTraceCSV(file, tr)
}

func ReadTraceFile(path string) (loop.Trace, error) {
	file, err := os.Open(path)
	if err != nil {
		return loop.Trace{}, err
	}
	defer file.Close()
	return ReadTraceCSV(file)
}
