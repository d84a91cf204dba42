// Package service wires the simulation engine together and implements
// the dependencies required by the HTTP API: scheduling races onto the
// queue, running the sampling pipeline in workers, and committing
// results and career progression.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	jobqueue "github.com/okian/momentum/internal/adapters/mq/queue"
	workerpool "github.com/okian/momentum/internal/adapters/mq/worker"
	"github.com/okian/momentum/internal/adapters/repository"
	"github.com/okian/momentum/internal/domain/aggregate"
	"github.com/okian/momentum/internal/domain/attribute"
	"github.com/okian/momentum/internal/domain/model"
	"github.com/okian/momentum/internal/domain/progression"
	"github.com/okian/momentum/internal/domain/sampling"
	"github.com/okian/momentum/internal/domain/strategy"
	"github.com/okian/momentum/pkg/logger"
	"github.com/okian/momentum/pkg/metrics"
)

// RaceRequest describes one race to schedule. A zero Seed falls back to
// the engine's configured default so replays stay reproducible; Trials
// likewise. DriverIDs nil means the full roster.
type RaceRequest struct {
	TrackID   int64            `json:"track_id"`
	Seed      int64            `json:"seed"`
	Trials    int              `json:"trials"`
	DriverIDs []int64          `json:"driver_ids"`
	Decisions []model.Decision `json:"decisions"`
}

// heldResult is a committed-in-memory result whose persistence has not
// succeeded yet. Held results are never dropped; they are retried until
// the store accepts them.
type heldResult struct {
	result model.RaceResult
	deltas progression.Deltas
}

// Service implements the API dependencies for the race engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	entities  repository.EntityStore
	results   repository.ResultStore
	standings repository.StandingsStore
	jobQueue  jobqueue.Queue
	pool      *workerpool.Pool

	attrs    *attribute.Model
	sampler  *sampling.Sampler
	resolver *strategy.Resolver
	agg      *aggregate.Aggregator
	updater  *progression.Updater

	// Configuration
	workerCount    int
	queueSize      int
	guardSize      int
	trials         int
	defaultSeed    int64
	maxRetries     uint64
	retryBackoff   time.Duration
	weightOverride map[string]map[string]float64

	// Race lifecycle tracking
	stages map[string]model.RaceStage

	// Results awaiting a store that accepts them
	held map[string]heldResult

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStores sets the entity and result stores.
func WithStores(entities repository.EntityStore, results repository.ResultStore) Option {
	return func(s *Service) {
		s.entities = entities
		s.results = results
	}
}

// WithStandings sets the championship standings store.
func WithStandings(st repository.StandingsStore) Option {
	return func(s *Service) {
		if st != nil {
			s.standings = st
		}
	}
}

// WithWorkerCount sets the number of simulation workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the race job queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithGuardSize sets the applied-results guard capacity.
func WithGuardSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.guardSize = size
		}
	}
}

// WithTrials sets the default Monte Carlo trial count per race.
func WithTrials(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.trials = n
		}
	}
}

// WithDefaultSeed sets the seed used when a request does not carry one.
func WithDefaultSeed(seed int64) Option {
	return func(s *Service) { s.defaultSeed = seed }
}

// WithPersistenceRetry sets the retry budget for persisting results.
func WithPersistenceRetry(maxRetries uint64, backoff time.Duration) Option {
	return func(s *Service) {
		s.maxRetries = maxRetries
		if backoff > 0 {
			s.retryBackoff = backoff
		}
	}
}

// WithDisciplineWeights overrides the per-discipline skill weightings.
func WithDisciplineWeights(w map[string]map[string]float64) Option {
	return func(s *Service) { s.weightOverride = w }
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU() * 2,
		queueSize:    1024,
		guardSize:    50_000,
		trials:       sampling.DefaultTrials,
		defaultSeed:  42,
		maxRetries:   3,
		retryBackoff: 100 * time.Millisecond,
		stages:       make(map[string]model.RaceStage),
		held:         make(map[string]heldResult),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the pipeline components and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.entities == nil || s.results == nil {
		return fmt.Errorf("service requires entity and result stores")
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("engine")
	}

	s.logger.Info(ctx, "starting race engine...")

	if s.standings == nil {
		s.standings = repository.NewTreapStandings()
	}
	s.attrs = attribute.New(attribute.WithWeightsFromConfig(s.weightOverride))
	s.sampler = sampling.New(sampling.WithTrials(s.trials))
	s.resolver = strategy.New()
	s.agg = aggregate.New()
	s.updater = progression.New(
		progression.WithGuard(progression.NewMemoryGuard(progression.WithGuardSize(s.guardSize))),
	)
	s.jobQueue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
		jobqueue.WithBufferSize(s.queueSize),
	)

	s.pool = workerpool.NewPool(s.workerCount, s.jobQueue, s, s)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "race engine started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("trials", s.trials),
	)

	return nil
}

// Stop gracefully shuts down the service. The worker pool is stopped
// outside the service lock; in-flight workers still need it to record
// stage transitions.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	q := s.jobQueue
	pool := s.pool
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping race engine...")

	if imq, ok := q.(*jobqueue.InMemoryQueue); ok {
		_ = imq.Close()
	}
	if pool != nil {
		pool.Stop()
	}

	s.mu.RLock()
	held := len(s.held)
	s.mu.RUnlock()
	if held > 0 {
		s.logger.Warn(ctx, "stopping with unpersisted results held in memory",
			logger.Int("held", held))
	}

	s.logger.Info(ctx, "race engine stopped")
}

// ScheduleRace snapshots the entities a race needs, assigns it a race
// id, and enqueues it for simulation.
func (s *Service) ScheduleRace(ctx context.Context, req RaceRequest) (string, error) {
	track, err := s.entities.GetTrack(ctx, req.TrackID)
	if err != nil {
		return "", fmt.Errorf("schedule race: %w", err)
	}

	drivers, teams, err := s.snapshotField(ctx, req.DriverIDs)
	if err != nil {
		return "", fmt.Errorf("schedule race: %w", err)
	}
	if len(drivers) == 0 {
		return "", fmt.Errorf("schedule race: no drivers to field")
	}

	seed := req.Seed
	if seed == 0 {
		seed = s.defaultSeed
	}
	trials := req.Trials
	if trials == 0 {
		trials = s.trials
	}

	decisions := make(map[int64]model.Decision, len(req.Decisions))
	for _, dec := range req.Decisions {
		decisions[dec.DriverID] = dec
	}

	job := model.RaceJob{
		RaceID:    uuid.NewString(),
		Seed:      seed,
		Trials:    trials,
		Track:     track,
		Weather:   raceWeather(seed, track.ID),
		Drivers:   drivers,
		Teams:     teams,
		Decisions: decisions,
	}

	s.setStage(job.RaceID, model.RaceScheduled)

	if !s.jobQueue.Enqueue(ctx, job) {
		s.clearStage(job.RaceID)
		return "", fmt.Errorf("schedule race: %w", ErrBackpressure)
	}

	s.logger.Debug(ctx, "race scheduled",
		logger.String("raceID", job.RaceID),
		logger.Int64("trackID", track.ID),
		logger.Int64("seed", seed),
		logger.Int("drivers", len(drivers)),
	)
	return job.RaceID, nil
}

// snapshotField loads driver and team snapshots for the requested field,
// or the whole roster when ids is nil.
func (s *Service) snapshotField(ctx context.Context, ids []int64) ([]model.Driver, map[int64]model.Team, error) {
	var drivers []model.Driver
	if ids == nil {
		all, err := s.entities.ListDrivers(ctx)
		if err != nil {
			return nil, nil, err
		}
		drivers = all
	} else {
		for _, id := range ids {
			d, err := s.entities.GetDriver(ctx, id)
			if err != nil {
				return nil, nil, err
			}
			drivers = append(drivers, d)
		}
	}

	teams := make(map[int64]model.Team)
	for _, d := range drivers {
		if _, ok := teams[d.TeamID]; ok {
			continue
		}
		t, err := s.entities.GetTeam(ctx, d.TeamID)
		if err != nil {
			return nil, nil, err
		}
		teams[d.TeamID] = t
	}
	return drivers, teams, nil
}

// Simulate runs the full pipeline for one race job. It implements
// worker.Simulator; every step is deterministic given the job.
func (s *Service) Simulate(ctx context.Context, job model.RaceJob) (model.RaceResult, progression.Deltas, error) {
	s.advanceStage(job.RaceID, model.RaceSampling)

	entrants := make([]sampling.Entrant, 0, len(job.Drivers))
	for _, d := range job.Drivers {
		team := job.Teams[d.TeamID]
		factor, err := s.attrs.Factor(d, team, job.Track)
		if err != nil {
			return model.RaceResult{}, progression.Deltas{}, fmt.Errorf("race %s: %w", job.RaceID, err)
		}
		entrants = append(entrants, sampling.Entrant{
			DriverID:    d.ID,
			Factor:      factor,
			Consistency: d.Skills.Consistency,
		})
	}

	expected := expectedPositions(entrants)

	// The trial count travels with the job: a per-request N overrides
	// the service default set at Start.
	sets, err := s.sampler.SampleN(entrants, job.Weather, job.Track, job.Seed, job.Trials)
	if err != nil {
		return model.RaceResult{}, progression.Deltas{}, fmt.Errorf("race %s: %w", job.RaceID, err)
	}

	for i := range sets {
		d := driverByID(job.Drivers, sets[i].DriverID)
		dec, ok := job.Decisions[sets[i].DriverID]
		if !ok {
			dec = model.BaselineDecision(sets[i].DriverID)
		}
		sets[i].Times = s.resolver.Apply(dec, job.Teams[d.TeamID], sets[i].Times)
	}

	result, err := s.agg.Aggregate(job.RaceID, job.Track, job.Seed, sets)
	if err != nil {
		return model.RaceResult{}, progression.Deltas{}, fmt.Errorf("race %s: %w", job.RaceID, err)
	}
	s.advanceStage(job.RaceID, model.RaceAggregated)

	driverIndex := make(map[int64]model.Driver, len(job.Drivers))
	for _, d := range job.Drivers {
		driverIndex[d.ID] = d
	}

	deltas, err := s.updater.Apply(ctx, result, driverIndex, job.Teams, job.Track, expected)
	if err != nil {
		metrics.RecordDuplicateApply()
		return model.RaceResult{}, progression.Deltas{}, fmt.Errorf("race %s: %w", job.RaceID, err)
	}

	return result, deltas, nil
}

// Commit persists a classified result, its progression deltas, and the
// standings rows. It implements worker.Committer. Persistence is retried
// with exponential backoff; a result that still cannot be stored is held
// in memory with its guard mark intact, so a later flush persists the
// already-computed deltas instead of recomputing and double-applying them.
func (s *Service) Commit(ctx context.Context, result model.RaceResult, deltas progression.Deltas) error {
	backoff := retry.WithMaxRetries(s.maxRetries, retry.NewExponential(s.retryBackoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := s.persist(ctx, result, deltas); err != nil {
			metrics.RecordPersistenceRetry()
			s.logger.Warn(ctx, "persist attempt failed",
				logger.String("raceID", result.RaceID),
				logger.Error(err),
			)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		// The guard mark stays in place: the deltas exist and will be
		// persisted by a flush, so recomputing them would double-apply.
		s.holdResult(result, deltas)
		return fmt.Errorf("persist race %s: %w", result.RaceID, err)
	}

	if err := s.score(ctx, result); err != nil {
		return err
	}

	s.advanceStage(result.RaceID, model.RaceApplied)
	s.logger.Info(ctx, "race applied",
		logger.String("raceID", result.RaceID),
		logger.Int64("winner", result.Winner()),
	)
	return nil
}

// score folds the classified finishes into the championship standings.
func (s *Service) score(ctx context.Context, result model.RaceResult) error {
	for _, st := range result.Standings {
		if err := s.standings.AddResult(ctx, st.DriverID, st.Points, st.Position == 1, st.Position <= 3); err != nil {
			return fmt.Errorf("standings for race %s: %w", result.RaceID, err)
		}
	}
	return nil
}

// persist writes the result row and applies the deltas. A retry after a
// partial failure must not re-insert the result: SaveResult rejects an
// existing race id, so the row is skipped when it already landed and
// only the delta application is resumed.
func (s *Service) persist(ctx context.Context, result model.RaceResult, deltas progression.Deltas) error {
	if _, err := s.results.GetResult(ctx, result.RaceID); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if err := s.results.SaveResult(ctx, result); err != nil {
			return err
		}
	}
	return s.results.ApplyDeltas(ctx, deltas)
}

// holdResult parks an unpersistable result in memory.
func (s *Service) holdResult(result model.RaceResult, deltas progression.Deltas) {
	s.mu.Lock()
	s.held[result.RaceID] = heldResult{result: result, deltas: deltas}
	n := len(s.held)
	s.mu.Unlock()
	metrics.UpdateResultsHeld(n)
}

// FlushHeld retries persistence for every held result. Results that
// persist are released; the rest stay held.
func (s *Service) FlushHeld(ctx context.Context) int {
	s.mu.Lock()
	pending := make([]heldResult, 0, len(s.held))
	for _, h := range s.held {
		pending = append(pending, h)
	}
	s.mu.Unlock()

	flushed := 0
	for _, h := range pending {
		if err := s.persist(ctx, h.result, h.deltas); err != nil {
			continue
		}
		if err := s.score(ctx, h.result); err != nil {
			s.logger.Error(ctx, "standings update failed on flush",
				logger.String("raceID", h.result.RaceID),
				logger.Error(err),
			)
		}
		s.mu.Lock()
		delete(s.held, h.result.RaceID)
		n := len(s.held)
		s.mu.Unlock()
		metrics.UpdateResultsHeld(n)
		s.advanceStage(h.result.RaceID, model.RaceApplied)
		flushed++
	}
	return flushed
}

// SimulateRound runs one race per track synchronously, in parallel, and
// returns the results in track order. Used for championship rounds where
// the caller wants the outcomes before continuing.
func (s *Service) SimulateRound(ctx context.Context, trackIDs []int64, seed int64) ([]model.RaceResult, error) {
	if seed == 0 {
		seed = s.defaultSeed
	}

	results := make([]model.RaceResult, len(trackIDs))
	g, gctx := errgroup.WithContext(ctx)

	for i, trackID := range trackIDs {
		i, trackID := i, trackID
		g.Go(func() error {
			track, err := s.entities.GetTrack(gctx, trackID)
			if err != nil {
				return err
			}
			drivers, teams, err := s.snapshotField(gctx, nil)
			if err != nil {
				return err
			}
			// Each round leg derives its own seed so legs stay
			// independent yet reproducible.
			legSeed := seed + int64(i)*1_000_003
			job := model.RaceJob{
				RaceID:  uuid.NewString(),
				Seed:    legSeed,
				Trials:  s.trials,
				Track:   track,
				Weather: raceWeather(legSeed, track.ID),
				Drivers: drivers,
				Teams:   teams,
			}
			s.setStage(job.RaceID, model.RaceScheduled)

			result, deltas, err := s.Simulate(gctx, job)
			if err != nil {
				return err
			}
			if err := s.Commit(gctx, result, deltas); err != nil {
				return err
			}
			metrics.RecordRaceSimulated()
			metrics.RecordTrialsRun(job.Trials * len(job.Drivers))
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("simulate round: %w", err)
	}
	return results, nil
}

// Result returns a stored race result, falling back to results still
// held in memory awaiting persistence.
func (s *Service) Result(ctx context.Context, raceID string) (model.RaceResult, error) {
	res, err := s.results.GetResult(ctx, raceID)
	if err == nil {
		return res, nil
	}

	s.mu.RLock()
	h, ok := s.held[raceID]
	s.mu.RUnlock()
	if ok {
		return h.result, nil
	}
	return model.RaceResult{}, err
}

// Stage reports the lifecycle stage of a race.
func (s *Service) Stage(raceID string) (model.RaceStage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stages[raceID]
	return st, ok
}

// Standings returns the top-n championship rows.
func (s *Service) Standings(ctx context.Context, n int) ([]repository.Entry, error) {
	return s.standings.TopN(ctx, n)
}

// DriverStanding returns one driver's championship row.
func (s *Service) DriverStanding(ctx context.Context, driverID int64) (repository.Entry, error) {
	return s.standings.Rank(ctx, driverID)
}

// Driver returns the current career record for a driver.
func (s *Service) Driver(ctx context.Context, driverID int64) (model.Driver, error) {
	return s.entities.GetDriver(ctx, driverID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"trials":      s.trials,
		"heldResults": len(s.held),
	}

	if s.started {
		queueLen := s.jobQueue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["totalDrivers"] = s.standings.Count(ctx)
		stats["appliedRaces"] = s.updater.AppliedCount()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}

// setStage records a race's initial stage.
func (s *Service) setStage(raceID string, st model.RaceStage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages[raceID] = st
}

func (s *Service) clearStage(raceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.stages, raceID)
}

// advanceStage moves a race one step forward; illegal moves are dropped
// with a log line rather than corrupting the lifecycle.
func (s *Service) advanceStage(raceID string, next model.RaceStage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.stages[raceID]
	if !ok {
		return
	}
	if !cur.CanAdvance(next) {
		s.logger.Warn(context.Background(), "illegal stage transition dropped",
			logger.String("raceID", raceID),
			logger.String("from", cur.String()),
			logger.String("to", next.String()),
		)
		return
	}
	s.stages[raceID] = next
}

// expectedPositions ranks entrants by factor, best first, ties by lower
// driver id. This is the pre-race form guide progression measures
// against.
func expectedPositions(entrants []sampling.Entrant) map[int64]int {
	ranked := append([]sampling.Entrant(nil), entrants...)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Factor != ranked[j].Factor {
			return ranked[i].Factor > ranked[j].Factor
		}
		return ranked[i].DriverID < ranked[j].DriverID
	})

	out := make(map[int64]int, len(ranked))
	for i, e := range ranked {
		out[e.DriverID] = i + 1
	}
	return out
}

// raceWeather derives the per-race weather from the race seed, so a
// replay with the same seed races in the same conditions.
func raceWeather(seed, trackID int64) model.Weather {
	rng := rand.New(rand.NewSource(seed ^ trackID<<17))
	return model.Weather{
		Grip:       0.7 + 0.3*rng.Float64(),
		Visibility: 0.7 + 0.3*rng.Float64(),
	}
}

func driverByID(drivers []model.Driver, id int64) model.Driver {
	for _, d := range drivers {
		if d.ID == id {
			return d
		}
	}
	return model.Driver{}
}
