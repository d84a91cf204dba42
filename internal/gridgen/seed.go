package gridgen

import (
	"context"
	"fmt"

	"github.com/okian/momentum/internal/adapters/repository"
	"github.com/okian/momentum/internal/domain/model"
	"github.com/okian/momentum/pkg/logger"
)

// SeedStore writes a generated grid into the entity store. Races are
// driven over HTTP afterwards, so the service must share this store.
func SeedStore(ctx context.Context, store repository.EntityStore, teams []model.Team, drivers []model.Driver, tracks []model.Track) error {
	for _, team := range teams {
		if err := store.PutTeam(ctx, team); err != nil {
			return fmt.Errorf("seed team %d: %w", team.ID, err)
		}
	}
	for _, d := range drivers {
		if err := store.PutDriver(ctx, d); err != nil {
			return fmt.Errorf("seed driver %d: %w", d.ID, err)
		}
	}
	for _, track := range tracks {
		if err := store.PutTrack(ctx, track); err != nil {
			return fmt.Errorf("seed track %d: %w", track.ID, err)
		}
	}

	logger.Get().Info(ctx, "grid seeded",
		logger.Int("teams", len(teams)),
		logger.Int("drivers", len(drivers)),
		logger.Int("tracks", len(tracks)))
	return nil
}
