package optim

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/san-kum/clothsim/internal/config"
	"github.com/san-kum/clothsim/internal/metrics"
	"github.com/san-kum/clothsim/internal/physics"
	"github.com/san-kum/clothsim/internal/sim"
)

// GridSearch tries every combination of parameter values on a base config
// and keeps the one with the smallest metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	workers    int
	logger     *log.Logger
}

// Trial is one evaluated point of the grid. Err is set when the config did
// not build or the run diverged.
type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges, logger: log.New(io.Discard)}
}

// SetWorkers bounds how many runs execute at once. Zero means no bound.
func (g *GridSearch) SetWorkers(n int) { g.workers = n }

func (g *GridSearch) SetLogger(l *log.Logger) {
	if l != nil {
		g.logger = l
	}
}

// Search evaluates the grid and returns the best parameters, their metric
// value and every trial in grid order.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metricName string) (map[string]float64, float64, []Trial, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, nil, fmt.Errorf("optim: %d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}

	points := g.points(0, map[string]float64{})
	trials := make([]Trial, len(points))
	jobs := make([]sim.Job[*physics.Simulation], 0, len(points))
	index := make([]int, 0, len(points))

	for i, params := range points {
		trials[i] = Trial{Params: params, Value: math.NaN()}
		cfg := base.Clone()
		for name, v := range params {
			if err := cfg.Set(name, v); err != nil {
				return nil, 0, nil, err
			}
		}
		world, err := cfg.Build()
		if err != nil {
			trials[i].Err = err
			g.logger.Debug("skipping grid point", "params", params, "err", err)
			continue
		}
		jobs = append(jobs, sim.Job[*physics.Simulation]{
			Name:   fmt.Sprint(params),
			World:  world,
			Config: cfg.SimConfig(),
		})
		index = append(index, i)
	}

	found := false
	build := func() *sim.Simulator[*physics.Simulation] {
		s := sim.New[*physics.Simulation]()
		for _, m := range metrics.DefaultMetrics() {
			s.AddMetric(m)
		}
		return s
	}
	results, err := sim.NewEnsemble(build, g.workers).Run(ctx, jobs)
	if err != nil {
		return nil, 0, nil, err
	}
	for j, res := range results {
		tr := &trials[index[j]]
		if len(res.Errors) > 0 {
			tr.Err = res.Errors[0]
			continue
		}
		v, ok := res.Metrics[metricName]
		if !ok {
			return nil, 0, nil, fmt.Errorf("optim: unknown metric %q", metricName)
		}
		tr.Value = v
		found = true
	}

	if !found {
		return nil, 0, trials, fmt.Errorf("optim: no grid point produced a finite %s", metricName)
	}

	best := math.Inf(1)
	var bestParams map[string]float64
	for _, tr := range trials {
		if tr.Err == nil && tr.Value < best {
			best = tr.Value
			bestParams = tr.Params
		}
	}
	if bestParams == nil {
		return nil, 0, trials, fmt.Errorf("optim: no grid point produced a finite %s", metricName)
	}
	g.logger.Info("grid search done", "points", len(points), "best", best)
	return bestParams, best, trials, nil
}

// points expands the grid depth-first, last parameter varying fastest.
func (g *GridSearch) points(depth int, current map[string]float64) []map[string]float64 {
	if depth == len(g.paramNames) {
		return []map[string]float64{current}
	}

	var out []map[string]float64
	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val
		out = append(out, g.points(depth+1, newParams)...)
	}
	return out
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}
