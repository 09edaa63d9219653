package agents

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"knightgaming.gg/backend/internal/entity"
	gameRepo "knightgaming.gg/backend/internal/modules/game/repository"
	"knightgaming.gg/backend/internal/steam"
)

// PlayerCountAgent samples the live Steam player count for every tracked game,
// writing a time-series sample and rolling the denormalized counters forward.
type PlayerCountAgent struct {
	games gameRepo.GameRepository
	steam *steam.Client
}

func NewPlayerCountAgent(games gameRepo.GameRepository, steamClient *steam.Client) *PlayerCountAgent {
	return &PlayerCountAgent{games: games, steam: steamClient}
}

func (a *PlayerCountAgent) GetName() string { return "player-count-agent" }

func (a *PlayerCountAgent) GetSchedule() string { return "*/10 * * * *" }

const trendingCount = 10

func (a *PlayerCountAgent) Execute(ctx context.Context) error {
	games, err := a.games.ListWithSteamAppID(ctx)
	if err != nil {
		return err
	}

	for i := range games {
		game := &games[i]
		count, err := a.steam.GetCurrentPlayers(ctx, *game.SteamAppID)
		if err != nil {
			log.Printf("player-count-agent: %s (appid %d): %v", game.Slug, *game.SteamAppID, err)
			continue
		}

		sample := &entity.PlayerCountSample{
			GameID:      game.ID,
			SteamAppID:  *game.SteamAppID,
			PlayerCount: count,
			Timestamp:   time.Now(),
		}
		if err := a.games.RecordPlayerCount(ctx, sample); err != nil {
			log.Printf("player-count-agent: failed to record sample for %s: %v", game.Slug, err)
			continue
		}

		game.CurrentPlayers = count
		if count > game.PeakPlayers {
			game.PeakPlayers = count
		}
		// Exponential moving average keeps the column cheap to maintain.
		if game.AveragePlayers == 0 {
			game.AveragePlayers = count
		} else {
			game.AveragePlayers = (game.AveragePlayers*9 + count) / 10
		}
		now := time.Now()
		game.LastPlayerCountUpdate = &now

		if err := a.games.Update(ctx, game); err != nil {
			log.Printf("player-count-agent: failed to update %s: %v", game.Slug, err)
		}
	}

	if err := a.games.UpdateTrendingFlags(ctx, topByPlayers(games, trendingCount)); err != nil {
		log.Printf("player-count-agent: failed to update trending flags: %v", err)
	}

	return nil
}

func topByPlayers(games []entity.Game, n int) []uuid.UUID {
	sort.Slice(games, func(i, j int) bool {
		return games[i].CurrentPlayers > games[j].CurrentPlayers
	})
	if n > len(games) {
		n = len(games)
	}
	ids := make([]uuid.UUID, 0, n)
	for _, game := range games[:n] {
		if game.CurrentPlayers > 0 {
			ids = append(ids, game.ID)
		}
	}
	return ids
}
