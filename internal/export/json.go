package export

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/san-kum/clothsim/internal/sim"
)

// Header names the run an export came from.
type Header struct {
	Name       string
	Integrator string
	Dt         float64
	Duration   float64
	FrameRate  int
}

// Number encodes NaN and the infinities as null.
type Number float64

func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

type ExportData struct {
	Name       string            `json:"name"`
	Integrator string            `json:"integrator"`
	Dt         float64           `json:"dt"`
	Duration   float64           `json:"duration"`
	FrameRate  int               `json:"frame_rate"`
	Steps      int               `json:"steps"`
	Frames     int               `json:"frames"`
	Probes     []string          `json:"probes"`
	Times      []float64         `json:"times"`
	Samples    [][]Number        `json:"samples"`
	Metrics    map[string]Number `json:"metrics"`
	Errors     []string          `json:"errors,omitempty"`
}

func newExportData(h Header, result *sim.Result) ExportData {
	data := ExportData{
		Name:       h.Name,
		Integrator: h.Integrator,
		Dt:         h.Dt,
		Duration:   h.Duration,
		FrameRate:  h.FrameRate,
		Steps:      result.StepsTaken,
		Frames:     result.Frames,
		Probes:     result.Probes,
		Times:      result.Times,
		Samples:    make([][]Number, len(result.Samples)),
		Metrics:    make(map[string]Number, len(result.Metrics)),
	}
	for i, row := range result.Samples {
		data.Samples[i] = make([]Number, len(row))
		for j, v := range row {
			data.Samples[i][j] = Number(v)
		}
	}
	for k, v := range result.Metrics {
		data.Metrics[k] = Number(v)
	}
	for _, err := range result.Errors {
		data.Errors = append(data.Errors, err.Error())
	}
	return data
}

func WriteJSON(w io.Writer, h Header, result *sim.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(newExportData(h, result)); err != nil {
		return fmt.Errorf("export: encode json: %w", err)
	}
	return nil
}

func ExportJSON(path string, h Header, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer file.Close()

	if err := WriteJSON(file, h, result); err != nil {
		return err
	}
	return file.Close()
}
