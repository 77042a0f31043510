// Package engine evaluates impact scenarios: effect radii from the
// object's size and speed, then population exposure from the raster.
package engine

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/impactorviz/impactor-cli/internal/exposure"
	"github.com/impactorviz/impactor-cli/internal/model"
	"github.com/impactorviz/impactor-cli/internal/physics"
	"github.com/impactorviz/impactor-cli/internal/raster"
	"github.com/impactorviz/impactor-cli/internal/store"
)

// Engine evaluates scenarios against a population raster. The raster
// readers serialize access internally, so one Engine is safe for
// concurrent use.
type Engine struct {
	r *raster.Raster
}

// New creates an Engine over an opened raster.
func New(r *raster.Raster) *Engine {
	return &Engine{r: r}
}

// Evaluate computes the effect radii and exposed population for one
// scenario. Input errors and raster failures are reported in the
// result's Error field so batch runs record them per scenario.
func (e *Engine) Evaluate(ctx context.Context, sc model.Scenario) model.RunResult {
	if err := ctx.Err(); err != nil {
		return model.RunResult{Error: err.Error()}
	}

	crater, err := physics.CraterDiameterKM(sc.DiameterM, sc.VelocityKmS)
	if err != nil {
		return model.RunResult{Error: err.Error()}
	}

	result := model.RunResult{
		CraterKM:  crater,
		BlastKM:   physics.BlastRadiusKM(crater),
		ThermalKM: physics.ThermalRadiationRadiusKM(crater),
	}

	result.RadiusKM = sc.RadiusKM
	if result.RadiusKM == 0 {
		result.RadiusKM = result.BlastKM
	}

	pop, err := exposure.PopulationWithinRadius(e.r, sc.Lat, sc.Lon, result.RadiusKM)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Population = pop

	return result
}

// EvaluateBatch records and evaluates scenarios concurrently, up to
// maxConcurrent at a time. Every scenario gets a persisted run; a
// scenario that fails is marked failed without aborting the rest.
// The returned runs are in scenario order.
func (e *Engine) EvaluateBatch(ctx context.Context, st store.Store, scenarios []model.Scenario, maxConcurrent int) ([]model.Run, error) {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	runs := make([]model.Run, len(scenarios))
	for i, sc := range scenarios {
		run, err := st.CreateRun(ctx, sc)
		if err != nil {
			return nil, eris.Wrapf(err, "engine: create run for %s", sc.Name)
		}
		runs[i] = *run
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	var mu sync.Mutex
	for i := range runs {
		g.Go(func() error {
			run := &runs[i]
			if err := st.UpdateRunStatus(gCtx, run.ID, model.RunStatusRunning); err != nil {
				return err
			}

			result := e.Evaluate(gCtx, run.Scenario)
			if result.Error != "" {
				zap.L().Warn("engine: scenario failed",
					zap.String("run_id", run.ID),
					zap.String("scenario", run.Scenario.Name),
					zap.String("error", result.Error),
				)
			} else {
				zap.L().Info("engine: scenario evaluated",
					zap.String("run_id", run.ID),
					zap.String("scenario", run.Scenario.Name),
					zap.Float64("population", result.Population),
				)
			}

			if err := st.CompleteRun(gCtx, run.ID, &result); err != nil {
				return err
			}

			mu.Lock()
			run.Result = &result
			if result.Error != "" {
				run.Status = model.RunStatusFailed
			} else {
				run.Status = model.RunStatusComplete
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return runs, eris.Wrap(err, "engine: batch evaluate")
	}
	return runs, nil
}
