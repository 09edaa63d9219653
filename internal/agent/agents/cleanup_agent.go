package agents

import (
	"context"
	"log"
	"time"

	aiRepo "knightgaming.gg/backend/internal/modules/ai/repository"
	gameRepo "knightgaming.gg/backend/internal/modules/game/repository"
)

const playerSampleRetention = 90 * 24 * time.Hour

// CleanupAgent prunes expired AI cache rows and player-count samples past the
// retention window.
type CleanupAgent struct {
	aiCache aiRepo.AICacheRepository
	games   gameRepo.GameRepository
}

func NewCleanupAgent(aiCache aiRepo.AICacheRepository, games gameRepo.GameRepository) *CleanupAgent {
	return &CleanupAgent{aiCache: aiCache, games: games}
}

func (a *CleanupAgent) GetName() string { return "cleanup-agent" }

func (a *CleanupAgent) GetSchedule() string { return "0 */12 * * *" }

func (a *CleanupAgent) Execute(ctx context.Context) error {
	expired, err := a.aiCache.DeleteExpired(ctx)
	if err != nil {
		return err
	}

	pruned, err := a.games.PrunePlayerSamples(ctx, time.Now().Add(-playerSampleRetention))
	if err != nil {
		return err
	}

	log.Printf("cleanup-agent: removed %d expired cache rows, %d old samples", expired, pruned)
	return nil
}
