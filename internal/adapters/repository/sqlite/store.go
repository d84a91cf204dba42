package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/okian/momentum/internal/adapters/repository"
	"github.com/okian/momentum/internal/domain/model"
	"github.com/okian/momentum/internal/domain/progression"
	"github.com/okian/momentum/pkg/metrics"
)

// Store implements repository.ResultStore and repository.EntityStore on
// a SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// SaveResult stores a classified result and its standings rows in one
// transaction. Saving the same race id twice fails; results are
// immutable once written.
func (s *Store) SaveResult(ctx context.Context, res model.RaceResult) error {
	start := time.Now()
	defer func() {
		metrics.RecordPersistenceLatency(float64(time.Since(start).Milliseconds()))
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin save for race %s: %v", repository.ErrPersistence, res.RaceID, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO race_results (race_id, track_id, seed, trials, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		res.RaceID, res.TrackID, res.Seed, res.Trials, res.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: insert race %s: %v", repository.ErrPersistence, res.RaceID, err)
	}

	for _, st := range res.Standings {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO race_standings
			 (race_id, position, driver_id, total_time, gap, variance, fastest_lap, incident, points)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			res.RaceID, st.Position, st.DriverID, st.Time, st.Gap, st.Variance,
			boolToInt(st.Fastest), boolToInt(st.Incident), st.Points,
		)
		if err != nil {
			return fmt.Errorf("%w: insert standing P%d for race %s: %v",
				repository.ErrPersistence, st.Position, res.RaceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit race %s: %v", repository.ErrPersistence, res.RaceID, err)
	}
	return nil
}

// GetResult loads a stored result by race id.
func (s *Store) GetResult(ctx context.Context, raceID string) (model.RaceResult, error) {
	var res model.RaceResult
	err := s.db.QueryRowContext(ctx,
		`SELECT race_id, track_id, seed, trials, created_at FROM race_results WHERE race_id = ?`,
		raceID,
	).Scan(&res.RaceID, &res.TrackID, &res.Seed, &res.Trials, &res.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RaceResult{}, fmt.Errorf("%w: race %s", repository.ErrNotFound, raceID)
	}
	if err != nil {
		return model.RaceResult{}, fmt.Errorf("%w: load race %s: %v", repository.ErrPersistence, raceID, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT position, driver_id, total_time, gap, variance, fastest_lap, incident, points
		 FROM race_standings WHERE race_id = ? ORDER BY position`,
		raceID,
	)
	if err != nil {
		return model.RaceResult{}, fmt.Errorf("%w: load standings for race %s: %v", repository.ErrPersistence, raceID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var st model.Standing
		var fastest, incident int
		if err := rows.Scan(&st.Position, &st.DriverID, &st.Time, &st.Gap, &st.Variance,
			&fastest, &incident, &st.Points); err != nil {
			return model.RaceResult{}, fmt.Errorf("%w: scan standing for race %s: %v", repository.ErrPersistence, raceID, err)
		}
		st.Fastest = fastest != 0
		st.Incident = incident != 0
		res.Standings = append(res.Standings, st)
	}
	if err := rows.Err(); err != nil {
		return model.RaceResult{}, fmt.Errorf("%w: iterate standings for race %s: %v", repository.ErrPersistence, raceID, err)
	}
	return res, nil
}

// ApplyDeltas folds progression deltas into the stored driver and team
// records in one transaction: either every entity advances or none do.
func (s *Store) ApplyDeltas(ctx context.Context, deltas progression.Deltas) error {
	start := time.Now()
	defer func() {
		metrics.RecordPersistenceLatency(float64(time.Since(start).Milliseconds()))
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin apply for race %s: %v", repository.ErrPersistence, deltas.RaceID, err)
	}
	defer tx.Rollback()

	for _, dd := range deltas.Drivers {
		d, err := scanDriver(tx.QueryRowContext(ctx, driverSelect+` WHERE id = ?`, dd.DriverID))
		if err != nil {
			return fmt.Errorf("apply deltas for race %s: %w", deltas.RaceID, err)
		}
		next := progression.ApplyToDriver(d, dd)
		_, err = tx.ExecContext(ctx,
			`UPDATE drivers SET pace = ?, consistency = ?, racecraft = ?, tire_management = ?,
			 fatigue = ?, career_wins = ?, career_podiums = ?, career_points = ? WHERE id = ?`,
			next.Skills.Pace, next.Skills.Consistency, next.Skills.Racecraft, next.Skills.TireManagement,
			next.Fatigue, next.CareerWins, next.CareerPodiums, next.CareerPoints, next.ID,
		)
		if err != nil {
			return fmt.Errorf("%w: update driver %d: %v", repository.ErrPersistence, dd.DriverID, err)
		}
	}

	for _, td := range deltas.Teams {
		var budget float64
		err := tx.QueryRowContext(ctx, `SELECT budget FROM teams WHERE id = ?`, td.TeamID).Scan(&budget)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: team %d", repository.ErrNotFound, td.TeamID)
		}
		if err != nil {
			return fmt.Errorf("%w: load team %d: %v", repository.ErrPersistence, td.TeamID, err)
		}
		next := progression.ApplyToTeam(model.Team{ID: td.TeamID, Budget: budget}, td)
		if _, err := tx.ExecContext(ctx, `UPDATE teams SET budget = ? WHERE id = ?`, next.Budget, td.TeamID); err != nil {
			return fmt.Errorf("%w: update team %d: %v", repository.ErrPersistence, td.TeamID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit deltas for race %s: %v", repository.ErrPersistence, deltas.RaceID, err)
	}
	return nil
}

const driverSelect = `SELECT id, name, team_id, pace, consistency, racecraft, tire_management,
	fatigue, stage, career_wins, career_podiums, career_points FROM drivers`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDriver(row rowScanner) (model.Driver, error) {
	var d model.Driver
	var stage string
	err := row.Scan(&d.ID, &d.Name, &d.TeamID,
		&d.Skills.Pace, &d.Skills.Consistency, &d.Skills.Racecraft, &d.Skills.TireManagement,
		&d.Fatigue, &stage, &d.CareerWins, &d.CareerPodiums, &d.CareerPoints)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Driver{}, repository.ErrNotFound
	}
	if err != nil {
		return model.Driver{}, fmt.Errorf("%w: scan driver: %v", repository.ErrPersistence, err)
	}
	d.Stage = model.CareerStage(stage)
	return d, nil
}

// GetDriver loads a driver snapshot.
func (s *Store) GetDriver(ctx context.Context, id int64) (model.Driver, error) {
	d, err := scanDriver(s.db.QueryRowContext(ctx, driverSelect+` WHERE id = ?`, id))
	if errors.Is(err, repository.ErrNotFound) {
		return model.Driver{}, fmt.Errorf("%w: driver %d", repository.ErrNotFound, id)
	}
	return d, err
}

// ListDrivers loads every driver, ordered by id.
func (s *Store) ListDrivers(ctx context.Context) ([]model.Driver, error) {
	rows, err := s.db.QueryContext(ctx, driverSelect+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: list drivers: %v", repository.ErrPersistence, err)
	}
	defer rows.Close()

	var out []model.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate drivers: %v", repository.ErrPersistence, err)
	}
	return out, nil
}

// GetTeam loads a team snapshot including its roster.
func (s *Store) GetTeam(ctx context.Context, id int64) (model.Team, error) {
	var t model.Team
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, budget, tier, car_rating, pit_crew FROM teams WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.Budget, &t.Tier, &t.CarRating, &t.PitCrew)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Team{}, fmt.Errorf("%w: team %d", repository.ErrNotFound, id)
	}
	if err != nil {
		return model.Team{}, fmt.Errorf("%w: load team %d: %v", repository.ErrPersistence, id, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM drivers WHERE team_id = ? ORDER BY id`, id)
	if err != nil {
		return model.Team{}, fmt.Errorf("%w: load roster for team %d: %v", repository.ErrPersistence, id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var did int64
		if err := rows.Scan(&did); err != nil {
			return model.Team{}, fmt.Errorf("%w: scan roster for team %d: %v", repository.ErrPersistence, id, err)
		}
		t.DriverIDs = append(t.DriverIDs, did)
	}
	if err := rows.Err(); err != nil {
		return model.Team{}, fmt.Errorf("%w: iterate roster for team %d: %v", repository.ErrPersistence, id, err)
	}
	return t, nil
}

// GetTrack loads a track snapshot.
func (s *Store) GetTrack(ctx context.Context, id int64) (model.Track, error) {
	var tr model.Track
	var surface, discipline string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, length_km, corners, surface, elevation_m, difficulty, discipline
		 FROM tracks WHERE id = ?`, id,
	).Scan(&tr.ID, &tr.Name, &tr.LengthKM, &tr.Corners, &surface, &tr.ElevationM, &tr.Difficulty, &discipline)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Track{}, fmt.Errorf("%w: track %d", repository.ErrNotFound, id)
	}
	if err != nil {
		return model.Track{}, fmt.Errorf("%w: load track %d: %v", repository.ErrPersistence, id, err)
	}
	tr.Surface = model.Surface(surface)
	tr.Discipline = model.Discipline(discipline)
	return tr, nil
}

// PutDriver inserts or replaces a driver record.
func (s *Store) PutDriver(ctx context.Context, d model.Driver) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO drivers
		 (id, name, team_id, pace, consistency, racecraft, tire_management, fatigue, stage,
		  career_wins, career_podiums, career_points)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.TeamID, d.Skills.Pace, d.Skills.Consistency, d.Skills.Racecraft,
		d.Skills.TireManagement, d.Fatigue, string(d.Stage),
		d.CareerWins, d.CareerPodiums, d.CareerPoints,
	)
	if err != nil {
		return fmt.Errorf("%w: put driver %d: %v", repository.ErrPersistence, d.ID, err)
	}
	return nil
}

// PutTeam inserts or replaces a team record. The roster lives on the
// driver rows.
func (s *Store) PutTeam(ctx context.Context, t model.Team) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO teams (id, name, budget, tier, car_rating, pit_crew)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Budget, int(t.Tier), t.CarRating, t.PitCrew,
	)
	if err != nil {
		return fmt.Errorf("%w: put team %d: %v", repository.ErrPersistence, t.ID, err)
	}
	return nil
}

// PutTrack inserts or replaces a track record.
func (s *Store) PutTrack(ctx context.Context, tr model.Track) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO tracks
		 (id, name, length_km, corners, surface, elevation_m, difficulty, discipline)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tr.ID, tr.Name, tr.LengthKM, tr.Corners, string(tr.Surface), tr.ElevationM,
		tr.Difficulty, string(tr.Discipline),
	)
	if err != nil {
		return fmt.Errorf("%w: put track %d: %v", repository.ErrPersistence, tr.ID, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
