package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/clothsim/internal/analysis"
	"github.com/san-kum/clothsim/internal/config"
	"github.com/san-kum/clothsim/internal/export"
	"github.com/san-kum/clothsim/internal/metrics"
	"github.com/san-kum/clothsim/internal/optim"
	"github.com/san-kum/clothsim/internal/physics"
	"github.com/san-kum/clothsim/internal/sim"
	"github.com/san-kum/clothsim/internal/storage"
	"github.com/san-kum/clothsim/internal/stream"
	"github.com/san-kum/clothsim/internal/viz"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	world, err := cfg.Build()
	if err != nil {
		return err
	}

	s := sim.New[*physics.Simulation]()
	s.SetLogger(logger)
	if len(runProbes) == 0 {
		for _, p := range metrics.DefaultProbes() {
			s.AddProbe(p)
		}
	} else {
		for _, n := range runProbes {
			p, err := metrics.Probe(n)
			if err != nil {
				return err
			}
			s.AddProbe(p)
		}
	}
	for _, m := range metrics.DefaultMetrics() {
		s.AddMetric(m)
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("running", "preset", name, "integrator", cfg.Integrator, "dt", cfg.Dt,
		"duration", cfg.Duration, "particles", world.Particles.Len(), "springs", world.Springs.Len())
	start := time.Now()
	result, err := s.Run(ctx, world, cfg.SimConfig())
	if err != nil {
		return err
	}
	logger.Info("finished", "steps", result.StepsTaken, "frames", result.Frames, "elapsed", time.Since(start).Round(time.Millisecond))
	for _, e := range result.Errors {
		logger.Warn("simulation error", "err", e)
	}
	printMetrics(os.Stdout, result.Metrics)

	if divSteps > 0 {
		fresh, err := cfg.Build()
		if err != nil {
			return err
		}
		rate := analysis.DivergenceRate(fresh, float32(divOffset), float32(cfg.Dt), divSteps)
		fmt.Printf("divergence rate: %.4f /s\n", rate)
	}

	if noSave {
		return nil
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	if runName == "" {
		runName = name
	}
	id, err := st.Save(storage.RunMetadata{
		Name:       runName,
		Seed:       cfg.Seed,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		FrameRate:  cfg.FrameRate,
		Integrator: cfg.Integrator,
		Config:     string(data),
	}, result)
	if err != nil {
		return err
	}
	fmt.Printf("saved run %s\n", id)
	return nil
}

func printMetrics(w io.Writer, values map[string]float64) {
	names := make([]string, 0, len(values))
	for n := range values {
		names = append(names, n)
	}
	sort.Strings(names)

	t := newTable("METRIC", "VALUE")
	for _, n := range names {
		t.Row(n, strconv.FormatFloat(values[n], 'g', 6, 64))
	}
	fmt.Fprintln(w, t.Render())
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tDURATION\tDT\tINTEG\tSTEPS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%d\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Steps,
		)
	}
	return w.Flush()
}

func deleteRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted run %s\n", args[0])
	return nil
}

func loadRun(id string) (*storage.RunMetadata, *sim.Result, error) {
	st, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	defer st.Close()

	meta, err := st.Load(id)
	if err != nil {
		return nil, nil, err
	}
	result, err := st.LoadResult(id)
	if err != nil {
		return nil, nil, err
	}
	return meta, result, nil
}

// finite drops NaN and infinite samples, which asciigraph cannot scale.
func finite(data []float64) []float64 {
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if len(result.Times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("integrator: %s\n", meta.Integrator)
	fmt.Printf("frames: %d\n\n", len(result.Times))

	names := plotProbes
	if len(names) == 0 {
		names = result.Probes
	}
	for _, name := range names {
		series := result.Series(name)
		if series == nil {
			return fmt.Errorf("run %s has no probe %q", meta.ID, name)
		}
		data := finite(series)
		if len(data) == 0 {
			fmt.Printf("%s: no finite samples\n\n", name)
			continue
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name+" vs time"),
		))
		fmt.Println()
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}
	series := result.Series(probe)
	if series == nil {
		return fmt.Errorf("run %s has no probe %q", meta.ID, probe)
	}
	data := finite(series)
	if len(data) < 4 {
		return fmt.Errorf("not enough samples")
	}

	rate := float64(meta.FrameRate)
	if rate <= 0 {
		rate = 1 / meta.Dt
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("probe: %s\n\n", probe)

	ps := analysis.PowerSpectrum(data)
	if n := len(ps) / 4; n > 1 {
		fmt.Println(asciigraph.Plot(ps[:n],
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum ("+probe+")"),
		))
		fmt.Println()
	}

	freq := analysis.DominantFrequency(data, rate)
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}
	if delta := analysis.LogDecrement(data); !math.IsNaN(delta) {
		fmt.Printf("log decrement: %.4f\n", delta)
		fmt.Printf("damping ratio: %.4f\n", analysis.DampingRatio(delta))
	}

	if divSteps > 0 {
		if meta.Config == "" {
			return fmt.Errorf("run %s has no stored config", meta.ID)
		}
		cfg, err := config.Parse([]byte(meta.Config))
		if err != nil {
			return err
		}
		world, err := cfg.Build()
		if err != nil {
			return err
		}
		fmt.Printf("divergence rate: %.4f /s\n", analysis.DivergenceRate(world, float32(divOffset), float32(cfg.Dt), divSteps))
	}
	return nil
}

func exportHeader(meta *storage.RunMetadata) export.Header {
	return export.Header{
		Name:       meta.ID,
		Integrator: meta.Integrator,
		Dt:         meta.Dt,
		Duration:   meta.Duration,
		FrameRate:  meta.FrameRate,
	}
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if len(args) == 2 {
		if err := export.ExportJSON(args[1], exportHeader(meta), result); err != nil {
			return err
		}
		logger.Info("exported", "run", meta.ID, "path", args[1])
		return nil
	}
	return export.WriteJSON(os.Stdout, exportHeader(meta), result)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if len(args) == 2 {
		if err := export.ExportCSV(args[1], result); err != nil {
			return err
		}
		logger.Info("exported", "run", meta.ID, "path", args[1])
		return nil
	}
	return export.WriteCSV(os.Stdout, result)
}

func renderSVG(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if at > cfg.Duration {
		cfg.Duration = at
	}
	world, err := cfg.Build()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	var snapshot *physics.Simulation
	err = sim.New[*physics.Simulation]().RunWithCallback(ctx, world, cfg.SimConfig(), func(render *physics.Simulation, t float64) bool {
		snapshot = render
		return t < at
	})
	if err != nil {
		return err
	}
	if snapshot == nil {
		snapshot = world
	}

	if err := os.WriteFile(outFile, []byte(export.WorldToSVG(snapshot, width, height)), 0o644); err != nil {
		return err
	}
	logger.Info("wrote svg", "path", outFile, "at", at)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	return viz.Run(name, cfg, nil)
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	srv, err := stream.NewServer(cfg, cfg.FrameRate)
	if err != nil {
		return err
	}
	srv.SetLogger(logger)

	ctx, cancel := signalContext()
	defer cancel()
	logger.Info("streaming", "preset", name)
	return srv.ListenAndServe(ctx, addr)
}

// parseSweep reads name=lo:hi:n.
func parseSweep(s string) (string, []float64, error) {
	name, spec, ok := strings.Cut(s, "=")
	parts := strings.Split(spec, ":")
	if !ok || len(parts) != 3 {
		return "", nil, fmt.Errorf("bad --param %q, want name=lo:hi:n", s)
	}
	lo, err1 := strconv.ParseFloat(parts[0], 64)
	hi, err2 := strconv.ParseFloat(parts[1], 64)
	n, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil || n < 1 {
		return "", nil, fmt.Errorf("bad --param %q, want name=lo:hi:n", s)
	}
	return name, optim.Linspace(lo, hi, n), nil
}

func sweep(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if len(sweeps) == 0 {
		return fmt.Errorf("at least one --param is required (known: %s)", strings.Join(config.Parameters(), ", "))
	}
	names := make([]string, 0, len(sweeps))
	ranges := make([][]float64, 0, len(sweeps))
	for _, s := range sweeps {
		name, values, err := parseSweep(s)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	gs := optim.NewGridSearch(names, ranges)
	gs.SetWorkers(workers)
	gs.SetLogger(logger)

	ctx, cancel := signalContext()
	defer cancel()
	best, value, trials, err := gs.Search(ctx, cfg, metric)

	t := newTable(append(append([]string{}, names...), strings.ToUpper(metric))...)
	for _, tr := range trials {
		row := make([]string, 0, len(names)+1)
		for _, n := range names {
			row = append(row, strconv.FormatFloat(tr.Params[n], 'g', 4, 64))
		}
		if tr.Err != nil {
			row = append(row, "failed")
		} else {
			row = append(row, strconv.FormatFloat(tr.Value, 'g', 6, 64))
		}
		t.Row(row...)
	}
	if len(trials) > 0 {
		fmt.Println(t.Render())
	}
	if err != nil {
		return err
	}

	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, fmt.Sprintf("%s=%g", n, best[n]))
	}
	fmt.Printf("best: %s (%s %.6g)\n", strings.Join(parts, " "), metric, value)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	t := newTable("PRESET", "INTEGRATOR", "DT", "SCENE")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		scene := fmt.Sprintf("%dx%d cloth", p.Cloth.Columns, p.Cloth.Rows)
		if len(p.Particles) > 0 {
			scene = fmt.Sprintf("%d particles", len(p.Particles))
		}
		t.Row(name, p.Integrator, strconv.FormatFloat(p.Dt, 'g', -1, 64), scene)
	}
	fmt.Println(t.Render())
	return nil
}
