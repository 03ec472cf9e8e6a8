package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/timetable-ga-api/internal/models"
)

var (
	// ErrInvalidParams is returned when generation parameters are out of range.
	ErrInvalidParams = errors.New("invalid generation params")
	// ErrUnfulfilledRequirements is returned under the reject policy when a
	// requirement has no eligible faculty or classroom.
	ErrUnfulfilledRequirements = errors.New("unfulfilled requirements")
)

// StopReason explains why a run ended.
type StopReason string

const (
	StopPerfectSolution StopReason = "perfect_solution"
	StopMaxGenerations  StopReason = "max_generations"
	StopCancelled       StopReason = "cancelled"
	// StopEmptySchedule marks a conflict-free best individual that holds no
	// entries: nothing could be scheduled, so the score is vacuous.
	StopEmptySchedule StopReason = "empty_schedule"
)

// historyCapHint bounds the up-front history allocation; longer runs grow the
// slice on demand.
const historyCapHint = 1024

// GenerationStat summarises one ranked generation.
type GenerationStat struct {
	Generation    int     `json:"generation"`
	BestFitness   float64 `json:"bestFitness"`
	AvgFitness    float64 `json:"avgFitness"`
	BestConflicts int     `json:"bestConflicts"`
}

// Result is the outcome of one Evolve call.
type Result struct {
	Best             *Individual
	Generations      int
	StopReason       StopReason
	History          []GenerationStat
	Warnings         []models.Warning
	RequiredSessions int
	Duration         time.Duration
}

// DefaultParams returns the stock search parameters.
func DefaultParams() models.GenerationParams {
	return models.GenerationParams{
		PopulationSize:    50,
		Generations:       100,
		MutationRate:      0.1,
		CrossoverRate:     0.8,
		ElitismCount:      5,
		TournamentSize:    DefaultTournamentSize,
		SessionMinutes:    DefaultSessionMinutes,
		ExpandSessions:    false,
		UnfulfilledPolicy: models.UnfulfilledWarn,
	}
}

// NormalizeParams fills zero-valued optional fields with their defaults.
func NormalizeParams(params models.GenerationParams) models.GenerationParams {
	if params.TournamentSize == 0 {
		params.TournamentSize = DefaultTournamentSize
	}
	if params.SessionMinutes == 0 {
		params.SessionMinutes = DefaultSessionMinutes
	}
	if params.UnfulfilledPolicy == "" {
		params.UnfulfilledPolicy = models.UnfulfilledWarn
	}
	return params
}

// ValidateParams rejects parameters the loop cannot run with.
func ValidateParams(params models.GenerationParams) error {
	switch {
	case params.PopulationSize < 1:
		return fmt.Errorf("%w: populationSize must be at least 1", ErrInvalidParams)
	case params.Generations < 0:
		return fmt.Errorf("%w: generations must not be negative", ErrInvalidParams)
	case params.MutationRate < 0 || params.MutationRate > 1:
		return fmt.Errorf("%w: mutationRate must be within [0,1]", ErrInvalidParams)
	case params.CrossoverRate < 0 || params.CrossoverRate > 1:
		return fmt.Errorf("%w: crossoverRate must be within [0,1]", ErrInvalidParams)
	case params.ElitismCount < 0 || params.ElitismCount > params.PopulationSize:
		return fmt.Errorf("%w: elitismCount must be within [0,populationSize]", ErrInvalidParams)
	case params.TournamentSize < 1:
		return fmt.Errorf("%w: tournamentSize must be at least 1", ErrInvalidParams)
	case params.SessionMinutes <= 0:
		return fmt.Errorf("%w: sessionMinutes must be positive", ErrInvalidParams)
	case params.UnfulfilledPolicy != models.UnfulfilledWarn && params.UnfulfilledPolicy != models.UnfulfilledReject:
		return fmt.Errorf("%w: unknown unfulfilledPolicy %q", ErrInvalidParams, params.UnfulfilledPolicy)
	}
	return nil
}

// Engine runs the generational search for one problem. An Engine is not safe
// for concurrent Evolve calls because it owns the random source.
type Engine struct {
	catalog     *Catalog
	constraints models.TimetableConstraints
	params      models.GenerationParams
	reqs        []Requirement
	warnings    []models.Warning
	rng         Rand
	logger      *zap.Logger
	workers     int
}

// NewEngine validates params, indexes the problem and prepares requirements.
func NewEngine(problem Problem, params models.GenerationParams, rng Rand, logger *zap.Logger) (*Engine, error) {
	params = NormalizeParams(params)
	if err := ValidateParams(params); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = NewRand(time.Now().UnixNano())
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	catalog := NewCatalog(problem)
	reqs := catalog.Requirements(params.SessionMinutes)
	warnings := catalog.Warnings(reqs)

	if params.UnfulfilledPolicy == models.UnfulfilledReject {
		for _, w := range warnings {
			if w.Type == models.WarningUnfulfilledRequirement {
				return nil, fmt.Errorf("%w: %s", ErrUnfulfilledRequirements, w.Message)
			}
		}
	}

	return &Engine{
		catalog:     catalog,
		constraints: problem.Constraints,
		params:      params,
		reqs:        reqs,
		warnings:    warnings,
		rng:         rng,
		logger:      logger,
		workers:     runtime.GOMAXPROCS(0),
	}, nil
}

// Params returns the normalized parameters the engine runs with.
func (e *Engine) Params() models.GenerationParams {
	return e.params
}

// Warnings lists findings about the problem known before the search runs.
func (e *Engine) Warnings() []models.Warning {
	return append([]models.Warning(nil), e.warnings...)
}

// RequiredSessions is the weekly session demand of every resolvable requirement.
func (e *Engine) RequiredSessions() int {
	total := 0
	for _, req := range e.reqs {
		total += req.SessionsNeeded
	}
	return total
}

// Evolve runs the search until a perfect individual appears, the generation
// budget is spent or ctx is cancelled. Cancellation is observed between
// generations and still yields the best individual found so far.
func (e *Engine) Evolve(ctx context.Context) (*Result, error) {
	start := time.Now()
	e.logger.Info("timetable evolution started",
		zap.Int("population_size", e.params.PopulationSize),
		zap.Int("generations", e.params.Generations),
		zap.Int("requirements", len(e.reqs)),
	)

	population := e.initialPopulation()
	history := make([]GenerationStat, 0, min(e.params.Generations, historyCapHint)+1)
	generation := 0
	reason := StopMaxGenerations

	for {
		e.evaluate(population)
		rank(population)

		stat := summarise(generation, population)
		history = append(history, stat)
		e.logger.Debug("timetable generation ranked",
			zap.Int("generation", generation),
			zap.Float64("best_fitness", stat.BestFitness),
			zap.Float64("avg_fitness", stat.AvgFitness),
			zap.Int("best_conflicts", stat.BestConflicts),
		)

		if population[0].Perfect() {
			reason = StopPerfectSolution
			if len(population[0].Entries) == 0 {
				reason = StopEmptySchedule
			}
			break
		}
		if generation >= e.params.Generations {
			reason = StopMaxGenerations
			break
		}
		if ctx.Err() != nil {
			reason = StopCancelled
			break
		}

		population = e.breed(population, e.rng)
		generation++
	}

	best := population[0]
	warnings := e.Warnings()
	if len(best.Entries) == 0 {
		warnings = append(warnings, models.Warning{
			Type:    models.WarningEmptySchedule,
			Message: "no entries could be scheduled",
		})
	}

	result := &Result{
		Best:             best,
		Generations:      generation,
		StopReason:       reason,
		History:          history,
		Warnings:         warnings,
		RequiredSessions: e.RequiredSessions(),
		Duration:         time.Since(start),
	}
	e.logger.Info("timetable evolution finished",
		zap.String("stop_reason", string(reason)),
		zap.Int("generations", generation),
		zap.Float64("best_fitness", best.Fitness),
		zap.Int("conflicts", len(best.Conflicts)),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// initialPopulation builds individuals in parallel. Each one gets a source
// derived sequentially from the engine's rng, so the output does not depend on
// goroutine scheduling.
func (e *Engine) initialPopulation() []*Individual {
	size := e.params.PopulationSize
	sources := make([]Rand, size)
	for i := range sources {
		sources[i] = derive(e.rng)
	}

	population := make([]*Individual, size)
	var g errgroup.Group
	g.SetLimit(e.workers)
	for i := 0; i < size; i++ {
		i := i
		g.Go(func() error {
			population[i] = e.catalog.BuildIndividual(e.reqs, e.params.ExpandSessions, sources[i])
			return nil
		})
	}
	_ = g.Wait()
	return population
}

// evaluate scores every individual. Each goroutine writes only its own
// individual.
func (e *Engine) evaluate(population []*Individual) {
	var g errgroup.Group
	g.SetLimit(e.workers)
	for _, ind := range population {
		ind := ind
		g.Go(func() error {
			Evaluate(ind, e.constraints)
			return nil
		})
	}
	_ = g.Wait()
}

// breed produces the next generation from a ranked population. The top
// ElitismCount individuals are carried over as-is.
func (e *Engine) breed(ranked []*Individual, rng Rand) []*Individual {
	size := e.params.PopulationSize
	next := make([]*Individual, 0, size)
	next = append(next, ranked[:e.params.ElitismCount]...)

	for len(next) < size {
		p1 := TournamentSelect(ranked, e.params.TournamentSize, rng)
		p2 := TournamentSelect(ranked, e.params.TournamentSize, rng)

		var c1, c2 *Individual
		if rng.Float64() < e.params.CrossoverRate {
			c1, c2 = Crossover(p1, p2, rng)
		} else {
			c1, c2 = p1.Clone(rng), p2.Clone(rng)
		}
		if rng.Float64() < e.params.MutationRate {
			Mutate(c1, e.catalog, rng)
		}
		if rng.Float64() < e.params.MutationRate {
			Mutate(c2, e.catalog, rng)
		}

		next = append(next, c1)
		if len(next) < size {
			next = append(next, c2)
		}
	}
	return next
}

func rank(population []*Individual) {
	sort.SliceStable(population, func(i, j int) bool {
		return population[i].Fitness > population[j].Fitness
	})
}

func summarise(generation int, ranked []*Individual) GenerationStat {
	var total float64
	for _, ind := range ranked {
		total += ind.Fitness
	}
	return GenerationStat{
		Generation:    generation,
		BestFitness:   ranked[0].Fitness,
		AvgFitness:    total / float64(len(ranked)),
		BestConflicts: len(ranked[0].Conflicts),
	}
}
