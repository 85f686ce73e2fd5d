package optimizer

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/lotto/internal/domain"
	"github.com/aristath/lotto/internal/modules/constraints"
	"github.com/aristath/lotto/internal/modules/sampling"
	"github.com/aristath/lotto/internal/modules/scoring"
	"github.com/aristath/lotto/internal/modules/statistics"
)

// Optimizer runs the genetic search. Runs on one Optimizer are serialized
// because they share the injected random source.
type Optimizer struct {
	cfg     Config
	sampler *sampling.Sampler
	pool    *WorkerPool
	log     zerolog.Logger

	mu    sync.Mutex
	state atomic.Int32
}

// New creates an optimizer. cfg must pass Validate.
func New(cfg Config, rng sampling.RNG, log zerolog.Logger) *Optimizer {
	return &Optimizer{
		cfg:     cfg,
		sampler: sampling.New(rng),
		pool:    NewWorkerPool(cfg.Workers),
		log:     log.With().Str("component", "optimizer").Logger(),
	}
}

// State returns the lifecycle state of the current or last run
func (o *Optimizer) State() State {
	return State(o.state.Load())
}

func (o *Optimizer) setState(s State) {
	o.state.Store(int32(s))
}

// runContext is the per-call context: everything resolved from the request
type runContext struct {
	scorer   *scoring.Scorer
	engine   *constraints.Engine
	weights  []float64
	includes []int
}

// Run executes one full search.
//
// The request is resolved and validated first, so configuration errors are
// returned before any generation runs. Generations then run strictly in
// sequence; onProgress (may be nil) is called after each one. ctx is checked at
// every generation boundary. Any failure returns no partial population.
func (o *Optimizer) Run(ctx context.Context, req Request, onProgress ProgressFunc) (*Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.setState(StateInit)
	start := time.Now()

	result, err := o.execute(ctx, req, onProgress)
	if err != nil {
		o.setState(StateFailed)
		o.log.Error().Err(err).Msg("Optimizer run failed")
		return nil, err
	}

	o.setState(StateDone)
	o.log.Info().
		Int("generations", result.Generations).
		Int("returned", len(result.Combinations)).
		Int("rejected", result.Rejected).
		Dur("duration", time.Since(start)).
		Msg("Optimizer run completed")
	return result, nil
}

func (o *Optimizer) execute(ctx context.Context, req Request, onProgress ProgressFunc) (*Result, error) {
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	r, err := o.prepare(req)
	if err != nil {
		return nil, err
	}

	population, err := o.seed(r)
	if err != nil {
		return nil, err
	}

	o.setState(StateEvolving)
	best := make([]float64, 0, o.cfg.Generations)

	for gen := 0; gen < o.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation %d: %w", gen, err)
		}

		scored, err := o.scoreSorted(ctx, r, population)
		if err != nil {
			return nil, fmt.Errorf("generation %d: %w", gen, err)
		}
		best = append(best, scored[0].Candidate.Confidence)

		population, err = o.breed(r, scored)
		if err != nil {
			return nil, fmt.Errorf("generation %d: %w", gen, err)
		}

		if onProgress != nil {
			onProgress(Progress{
				Generation:     gen + 1,
				Total:          o.cfg.Generations,
				Percent:        float64(gen+1) / float64(o.cfg.Generations) * 100,
				BestConfidence: scored[0].Candidate.Confidence,
			})
		}
	}

	scored, err := o.scoreSorted(ctx, r, population)
	if err != nil {
		return nil, fmt.Errorf("final scoring: %w", err)
	}

	combinations, rejected := unique(scored, req.Count)
	return &Result{
		Combinations:     combinations,
		Generations:      o.cfg.Generations,
		BestByGeneration: best,
		Rejected:         rejected,
	}, nil
}

// prepare resolves strategy, weights and constraints of a request
func (o *Optimizer) prepare(req Request) (*runContext, error) {
	if req.Count < 1 {
		return nil, domain.ConfigError("count must be at least 1, got %d", req.Count)
	}

	strategy, err := scoring.ParseStrategy(req.Options.Strategy)
	if err != nil {
		return nil, err
	}

	weights := strategy.Weights()
	if req.Options.Weights != nil {
		if weights, err = req.Options.Weights.Normalize(); err != nil {
			return nil, err
		}
	}

	engine := constraints.None()
	if strategy.UsesConstraints() {
		if engine, err = constraints.New(req.Options.CustomRules); err != nil {
			return nil, err
		}
	} else if !req.Options.CustomRules.IsEmpty() {
		o.log.Warn().
			Str("strategy", string(strategy)).
			Msg("Custom rules ignored, they only apply to the custom strategy")
	}

	scorer, err := scoring.NewScorer(req.Snapshot, weights, req.Prediction, engine)
	if err != nil {
		return nil, err
	}

	return &runContext{
		scorer:   scorer,
		engine:   engine,
		weights:  numberWeights(req.Snapshot, req.Options, req.Prediction),
		includes: engine.Includes(),
	}, nil
}

// numberWeights builds the seeding weight of every number (index 0 unused)
func numberWeights(snap *statistics.Snapshot, opts Options, prediction domain.PredictionVector) []float64 {
	weights := make([]float64, domain.MaxNumber+1)
	for n := domain.MinNumber; n <= domain.MaxNumber; n++ {
		weights[n] = 1.0
		if opts.UsePrediction && prediction != nil {
			weights[n] = predictionFloor + predictionScale*prediction.Probability(n)
		}
	}
	if opts.FavorHot {
		for _, n := range snap.Hot {
			weights[n] += hotBonus
		}
	}
	if opts.FavorCold {
		for _, n := range snap.Cold {
			weights[n] += coldBonus
		}
	}
	if opts.IncludeOverdue {
		for _, n := range snap.Overdue {
			weights[n] += overdueBonus
		}
	}
	return weights
}

// seed builds the initial population from the weight vector
func (o *Optimizer) seed(r *runContext) ([]domain.Combination, error) {
	population := make([]domain.Combination, 0, o.cfg.PopulationSize)
	for i := 0; i < o.cfg.PopulationSize; i++ {
		picked, err := o.sampler.Weighted(r.weights, domain.PickSize-len(r.includes), r.engine.IncludeKey(), r.engine.Allowed)
		if err != nil {
			return nil, err
		}
		population = append(population, assemble(r.includes, picked))
	}
	return population, nil
}

// scoreSorted scores a population and sorts it by confidence, descending.
// Ties keep their population order.
func (o *Optimizer) scoreSorted(ctx context.Context, r *runContext, population []domain.Combination) ([]scoring.Result, error) {
	scored, err := o.pool.ScoreBatch(ctx, r.scorer, population)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Candidate.Confidence > scored[j].Candidate.Confidence
	})
	return scored, nil
}

// breed produces the next generation: elites first, then mutated children
func (o *Optimizer) breed(r *runContext, scored []scoring.Result) ([]domain.Combination, error) {
	next := make([]domain.Combination, 0, o.cfg.PopulationSize)
	for i := 0; i < o.cfg.EliteCount && i < len(scored); i++ {
		next = append(next, scored[i].Candidate.Numbers)
	}

	for len(next) < o.cfg.PopulationSize {
		p1 := o.tournament(scored)
		p2 := o.tournament(scored)
		child, err := o.crossover(r, p1, p2)
		if err != nil {
			return nil, err
		}
		next = append(next, o.mutate(r, child))
	}
	return next, nil
}

// tournament samples TournamentSize individuals uniformly and keeps the best.
// The first of equally scored contestants wins.
func (o *Optimizer) tournament(scored []scoring.Result) domain.Combination {
	rng := o.sampler.RNG()
	best := scored[rng.Intn(len(scored))]
	for i := 1; i < o.cfg.TournamentSize; i++ {
		contender := scored[rng.Intn(len(scored))]
		if contender.Candidate.Confidence > best.Candidate.Confidence {
			best = contender
		}
	}
	return best.Candidate.Numbers
}

// crossover starts from the includes, adds the parents' numbers in encounter
// order, then fills any shortfall uniformly from the legal numbers
func (o *Optimizer) crossover(r *runContext, p1, p2 domain.Combination) (domain.Combination, error) {
	genes := make([]int, 0, domain.PickSize)
	genes = append(genes, r.includes...)
	taken := r.engine.IncludeKey()

	for _, parent := range [2]domain.Combination{p1, p2} {
		for _, n := range parent {
			if len(genes) == domain.PickSize {
				break
			}
			if taken.Has(n) || !r.engine.Allowed(n) {
				continue
			}
			genes = append(genes, n)
			taken = taken.With(n)
		}
	}

	if missing := domain.PickSize - len(genes); missing > 0 {
		fill, err := o.sampler.Uniform(missing, taken, r.engine.Allowed)
		if err != nil {
			return domain.Combination{}, err
		}
		genes = append(genes, fill...)
	}

	var child domain.Combination
	copy(child[:], genes)
	return child.Sorted(), nil
}

// mutate replaces each non-included gene with probability MutationRate.
// A gene is left alone when no legal replacement exists.
func (o *Optimizer) mutate(r *runContext, c domain.Combination) domain.Combination {
	rng := o.sampler.RNG()
	for i, n := range c {
		if r.engine.Required(n) {
			continue
		}
		if rng.Float64() >= o.cfg.MutationRate {
			continue
		}
		if replacement, ok := o.sampler.Replacement(c.Key(), r.engine.Allowed); ok {
			c[i] = replacement
		}
	}
	return c.Sorted()
}

// assemble joins includes and sampled numbers into a sorted combination
func assemble(includes, picked []int) domain.Combination {
	var c domain.Combination
	n := copy(c[:], includes)
	copy(c[n:], picked)
	return c.Sorted()
}

// unique drops constraint-rejected results and duplicate number sets, keeping
// the highest ranked occurrence, and returns at most count candidates
func unique(scored []scoring.Result, count int) ([]domain.Candidate, int) {
	out := make([]domain.Candidate, 0, count)
	seen := make(map[domain.Key]struct{}, len(scored))
	rejected := 0

	for _, res := range scored {
		if res.Rejected {
			rejected++
			continue
		}
		key := res.Candidate.Numbers.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if len(out) < count {
			out = append(out, res.Candidate)
		}
	}
	return out, rejected
}
