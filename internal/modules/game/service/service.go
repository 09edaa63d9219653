package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"knightgaming.gg/backend/internal/entity"
	"knightgaming.gg/backend/internal/modules/game/dto"
	"knightgaming.gg/backend/internal/modules/game/repository"
	searchService "knightgaming.gg/backend/internal/modules/search/service"
	"knightgaming.gg/backend/pkg/apperror"
	pkgdto "knightgaming.gg/backend/pkg/dto"
	"knightgaming.gg/backend/pkg/slug"
)

type GameService interface {
	ListGames(ctx context.Context, q dto.GameListQuery) (*dto.GameListResponse, error)
	GetGame(ctx context.Context, idOrSlug string) (*entity.Game, error)
	CreateGame(ctx context.Context, req dto.CreateGameRequest) (*entity.Game, error)
	UpdateGame(ctx context.Context, id uuid.UUID, req dto.UpdateGameRequest) (*entity.Game, error)
	DeleteGame(ctx context.Context, id uuid.UUID) error
	GetPlayerHistory(ctx context.Context, gameID uuid.UUID, days int) (*dto.PlayerHistoryResponse, error)
	GetGameStats(ctx context.Context, gameID uuid.UUID) (*dto.GameStatsResponse, error)
	GetFacets(ctx context.Context) (*dto.FacetsResponse, error)
}

type gameService struct {
	repo   repository.GameRepository
	search searchService.SearchService
}

func NewGameService(repo repository.GameRepository, search searchService.SearchService) GameService {
	return &gameService{repo: repo, search: search}
}

func (s *gameService) ListGames(ctx context.Context, q dto.GameListQuery) (*dto.GameListResponse, error) {
	page, limit := pkgdto.NormalizePage(q.Page, q.Limit, 20, 100)

	games, total, err := s.repo.List(ctx, repository.ListFilter{
		Genre:    q.Genre,
		Platform: q.Platform,
		Search:   q.Search,
		Sort:     q.Sort,
		Featured: q.Featured,
		Trending: q.Trending,
		Limit:    limit,
		Offset:   (page - 1) * limit,
	})
	if err != nil {
		return nil, err
	}

	return &dto.GameListResponse{
		Games: games,
		Meta:  pkgdto.NewPaginationMeta(page, limit, total),
	}, nil
}

// GetGame resolves a game by UUID or by slug, whichever the path segment
// parses as.
func (s *gameService) GetGame(ctx context.Context, idOrSlug string) (*entity.Game, error) {
	var game *entity.Game
	var err error

	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		game, err = s.repo.FindByID(ctx, id)
	} else {
		game, err = s.repo.FindBySlug(ctx, idOrSlug)
	}

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: game not found", apperror.ErrNotFound)
		}
		return nil, err
	}
	return game, nil
}

func (s *gameService) CreateGame(ctx context.Context, req dto.CreateGameRequest) (*entity.Game, error) {
	gameSlug := slug.Make(req.Name)
	if existing, _ := s.repo.FindBySlug(ctx, gameSlug); existing != nil {
		return nil, fmt.Errorf("%w: a game with this name already exists", apperror.ErrConflict)
	}
	if req.SteamAppID != nil {
		if existing, _ := s.repo.FindBySteamAppID(ctx, *req.SteamAppID); existing != nil {
			return nil, fmt.Errorf("%w: a game with this Steam app id already exists", apperror.ErrConflict)
		}
	}

	game := &entity.Game{
		Name:             req.Name,
		Slug:             gameSlug,
		SteamAppID:       req.SteamAppID,
		RawgID:           req.RawgID,
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		HeaderImage:      req.HeaderImage,
		BackgroundImage:  req.BackgroundImage,
		TrailerURL:       req.TrailerURL,
		ReleaseDate:      req.ReleaseDate,
		Genres:           req.Genres,
		Tags:             req.Tags,
		Platforms:        req.Platforms,
		Developers:       req.Developers,
		Publishers:       req.Publishers,
		MetacriticScore:  req.MetacriticScore,
		Featured:         req.Featured,
		IsActive:         true,
	}

	if err := s.repo.Create(ctx, game); err != nil {
		return nil, err
	}

	if err := s.search.IndexGame(ctx, game); err != nil {
		log.Printf("game: failed to index %s in search: %v", game.Slug, err)
	}

	return game, nil
}

func (s *gameService) UpdateGame(ctx context.Context, id uuid.UUID, req dto.UpdateGameRequest) (*entity.Game, error) {
	game, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: game not found", apperror.ErrNotFound)
		}
		return nil, err
	}

	if req.Name != nil && *req.Name != game.Name {
		game.Name = *req.Name
		game.Slug = slug.Make(*req.Name)
	}
	if req.Description != nil {
		game.Description = *req.Description
	}
	if req.ShortDescription != nil {
		game.ShortDescription = *req.ShortDescription
	}
	if req.HeaderImage != nil {
		game.HeaderImage = *req.HeaderImage
	}
	if req.BackgroundImage != nil {
		game.BackgroundImage = *req.BackgroundImage
	}
	if req.TrailerURL != nil {
		game.TrailerURL = *req.TrailerURL
	}
	if req.ReleaseDate != nil {
		game.ReleaseDate = req.ReleaseDate
	}
	if req.Genres != nil {
		game.Genres = req.Genres
	}
	if req.Tags != nil {
		game.Tags = req.Tags
	}
	if req.Platforms != nil {
		game.Platforms = req.Platforms
	}
	if req.Developers != nil {
		game.Developers = req.Developers
	}
	if req.Publishers != nil {
		game.Publishers = req.Publishers
	}
	if req.MetacriticScore != nil {
		game.MetacriticScore = req.MetacriticScore
	}
	if req.Featured != nil {
		game.Featured = *req.Featured
	}
	if req.IsActive != nil {
		game.IsActive = *req.IsActive
	}

	now := time.Now()
	game.LastMetadataUpdate = &now

	if err := s.repo.Update(ctx, game); err != nil {
		return nil, err
	}

	if err := s.search.IndexGame(ctx, game); err != nil {
		log.Printf("game: failed to reindex %s in search: %v", game.Slug, err)
	}

	return game, nil
}

func (s *gameService) DeleteGame(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: game not found", apperror.ErrNotFound)
		}
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.search.DeleteGame(ctx, id); err != nil {
		log.Printf("game: failed to remove %s from search: %v", id, err)
	}

	return nil
}

func (s *gameService) GetPlayerHistory(ctx context.Context, gameID uuid.UUID, days int) (*dto.PlayerHistoryResponse, error) {
	if _, err := s.repo.FindByID(ctx, gameID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: game not found", apperror.ErrNotFound)
		}
		return nil, err
	}

	if days <= 0 || days > 90 {
		days = 7
	}

	samples, err := s.repo.PlayerHistory(ctx, gameID, time.Now().AddDate(0, 0, -days))
	if err != nil {
		return nil, err
	}

	points := make([]dto.PlayerHistoryPoint, 0, len(samples))
	for _, sample := range samples {
		points = append(points, dto.PlayerHistoryPoint{
			PlayerCount: sample.PlayerCount,
			Timestamp:   sample.Timestamp,
		})
	}

	return &dto.PlayerHistoryResponse{
		GameID:  gameID.String(),
		Days:    days,
		Samples: points,
	}, nil
}

func (s *gameService) GetGameStats(ctx context.Context, gameID uuid.UUID) (*dto.GameStatsResponse, error) {
	game, err := s.repo.FindByID(ctx, gameID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: game not found", apperror.ErrNotFound)
		}
		return nil, err
	}

	peak, average, err := s.repo.PlayerStatsSince(ctx, gameID, time.Now().Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}

	return &dto.GameStatsResponse{
		GameID:             game.ID.String(),
		CurrentPlayers:     game.CurrentPlayers,
		Peak24h:            peak,
		Average24h:         average,
		PeakAllTime:        game.PeakPlayers,
		ReviewCount:        game.ReviewCount,
		AverageReviewScore: game.AverageReviewScore,
	}, nil
}

func (s *gameService) GetFacets(ctx context.Context) (*dto.FacetsResponse, error) {
	games, err := s.repo.Facets(ctx)
	if err != nil {
		return nil, err
	}

	genreSet := make(map[string]struct{})
	platformSet := make(map[string]struct{})
	for _, game := range games {
		for _, g := range game.Genres {
			genreSet[g] = struct{}{}
		}
		for _, p := range game.Platforms {
			platformSet[p] = struct{}{}
		}
	}

	return &dto.FacetsResponse{
		Genres:    sortedKeys(genreSet),
		Platforms: sortedKeys(platformSet),
	}, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

