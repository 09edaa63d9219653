package agents

import (
	"context"
	"log"
	"time"

	gameRepo "knightgaming.gg/backend/internal/modules/game/repository"
	searchService "knightgaming.gg/backend/internal/modules/search/service"
	"knightgaming.gg/backend/internal/steam"
)

// GameSyncAgent refreshes catalog metadata from the Steam store for games
// whose listing has gone stale.
type GameSyncAgent struct {
	games  gameRepo.GameRepository
	steam  *steam.Client
	search searchService.SearchService
}

func NewGameSyncAgent(games gameRepo.GameRepository, steamClient *steam.Client, search searchService.SearchService) *GameSyncAgent {
	return &GameSyncAgent{games: games, steam: steamClient, search: search}
}

func (a *GameSyncAgent) GetName() string { return "game-sync-agent" }

// Nightly, before the morning news run.
func (a *GameSyncAgent) GetSchedule() string { return "0 4 * * *" }

const metadataMaxAge = 7 * 24 * time.Hour

func (a *GameSyncAgent) Execute(ctx context.Context) error {
	games, err := a.games.ListWithSteamAppID(ctx)
	if err != nil {
		return err
	}

	for i := range games {
		game := &games[i]
		if game.LastMetadataUpdate != nil && time.Since(*game.LastMetadataUpdate) < metadataMaxAge {
			continue
		}

		details, err := a.steam.GetAppDetails(ctx, *game.SteamAppID)
		if err != nil {
			log.Printf("game-sync-agent: %s: %v", game.Slug, err)
			continue
		}

		if details.ShortDescription != "" {
			game.ShortDescription = details.ShortDescription
		}
		if details.HeaderImage != "" {
			game.HeaderImage = details.HeaderImage
		}
		if details.BackgroundImage != "" {
			game.BackgroundImage = details.BackgroundImage
		}
		if len(details.Developers) > 0 {
			game.Developers = details.Developers
		}
		if len(details.Publishers) > 0 {
			game.Publishers = details.Publishers
		}
		if len(details.Genres) > 0 {
			genres := make([]string, 0, len(details.Genres))
			for _, g := range details.Genres {
				genres = append(genres, g.Description)
			}
			game.Genres = genres
		}
		if details.Metacritic != nil {
			score := details.Metacritic.Score
			game.MetacriticScore = &score
		}

		now := time.Now()
		game.LastMetadataUpdate = &now

		if err := a.games.Update(ctx, game); err != nil {
			log.Printf("game-sync-agent: failed to update %s: %v", game.Slug, err)
			continue
		}
		if err := a.search.IndexGame(ctx, game); err != nil {
			log.Printf("game-sync-agent: failed to reindex %s: %v", game.Slug, err)
		}

		// Space out the store requests.
		time.Sleep(2 * time.Second)
	}

	return nil
}
