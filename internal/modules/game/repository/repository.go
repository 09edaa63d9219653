package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"knightgaming.gg/backend/internal/entity"
)

type ListFilter struct {
	Genre    string
	Platform string
	Search   string
	Sort     string
	Featured *bool
	Trending *bool
	Limit    int
	Offset   int
}

type GameRepository interface {
	Create(ctx context.Context, game *entity.Game) error
	Update(ctx context.Context, game *entity.Game) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Game, error)
	FindBySlug(ctx context.Context, slug string) (*entity.Game, error)
	FindBySteamAppID(ctx context.Context, appID int64) (*entity.Game, error)
	List(ctx context.Context, filter ListFilter) ([]entity.Game, int64, error)
	ListWithSteamAppID(ctx context.Context) ([]entity.Game, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)

	RecordPlayerCount(ctx context.Context, sample *entity.PlayerCountSample) error
	PlayerHistory(ctx context.Context, gameID uuid.UUID, since time.Time) ([]entity.PlayerCountSample, error)
	PlayerStatsSince(ctx context.Context, gameID uuid.UUID, since time.Time) (peak int, average int, err error)
	PrunePlayerSamples(ctx context.Context, before time.Time) (int64, error)

	// Facets loads only the genre and platform columns of active games, for
	// building the filter lists.
	Facets(ctx context.Context) ([]entity.Game, error)

	RecomputeReviewStats(ctx context.Context, gameID uuid.UUID) error
	UpdateTrendingFlags(ctx context.Context, topIDs []uuid.UUID) error
}

type gameRepository struct {
	db *gorm.DB
}

func NewGameRepository(db *gorm.DB) GameRepository {
	return &gameRepository{db: db}
}

func (r *gameRepository) Create(ctx context.Context, game *entity.Game) error {
	return r.db.WithContext(ctx).Create(game).Error
}

func (r *gameRepository) Update(ctx context.Context, game *entity.Game) error {
	return r.db.WithContext(ctx).Save(game).Error
}

func (r *gameRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Game, error) {
	var game entity.Game
	if err := r.db.WithContext(ctx).First(&game, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *gameRepository) FindBySlug(ctx context.Context, slug string) (*entity.Game, error) {
	var game entity.Game
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&game).Error; err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *gameRepository) FindBySteamAppID(ctx context.Context, appID int64) (*entity.Game, error) {
	var game entity.Game
	if err := r.db.WithContext(ctx).Where("steam_app_id = ?", appID).First(&game).Error; err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *gameRepository) List(ctx context.Context, filter ListFilter) ([]entity.Game, int64, error) {
	var games []entity.Game
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Game{}).Where("is_active = ?", true)

	if filter.Genre != "" {
		query = query.Where("genres::text ILIKE ?", "%"+filter.Genre+"%")
	}
	if filter.Platform != "" {
		query = query.Where("platforms::text ILIKE ?", "%"+filter.Platform+"%")
	}
	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}
	if filter.Featured != nil {
		query = query.Where("featured = ?", *filter.Featured)
	}
	if filter.Trending != nil {
		query = query.Where("trending = ?", *filter.Trending)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch filter.Sort {
	case "rating":
		query = query.Order("rating DESC")
	case "name":
		query = query.Order("name ASC")
	case "newest":
		query = query.Order("release_date DESC NULLS LAST")
	case "reviews":
		query = query.Order("review_count DESC")
	default:
		query = query.Order("current_players DESC")
	}

	err := query.Limit(filter.Limit).Offset(filter.Offset).Find(&games).Error
	return games, total, err
}

func (r *gameRepository) ListWithSteamAppID(ctx context.Context) ([]entity.Game, error) {
	var games []entity.Game
	err := r.db.WithContext(ctx).
		Where("steam_app_id IS NOT NULL AND is_active = ?", true).
		Find(&games).Error
	return games, err
}

func (r *gameRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Game{}, "id = ?", id).Error
}

func (r *gameRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Game{}).Count(&count).Error
	return count, err
}

func (r *gameRepository) RecordPlayerCount(ctx context.Context, sample *entity.PlayerCountSample) error {
	return r.db.WithContext(ctx).Create(sample).Error
}

func (r *gameRepository) PlayerHistory(ctx context.Context, gameID uuid.UUID, since time.Time) ([]entity.PlayerCountSample, error) {
	var samples []entity.PlayerCountSample
	err := r.db.WithContext(ctx).
		Where("game_id = ? AND timestamp >= ?", gameID, since).
		Order("timestamp ASC").
		Find(&samples).Error
	return samples, err
}

func (r *gameRepository) PlayerStatsSince(ctx context.Context, gameID uuid.UUID, since time.Time) (int, int, error) {
	var row struct {
		Peak    int
		Average float64
	}
	err := r.db.WithContext(ctx).
		Model(&entity.PlayerCountSample{}).
		Select("COALESCE(MAX(player_count), 0) AS peak, COALESCE(AVG(player_count), 0) AS average").
		Where("game_id = ? AND timestamp >= ?", gameID, since).
		Scan(&row).Error
	return row.Peak, int(row.Average), err
}

func (r *gameRepository) Facets(ctx context.Context) ([]entity.Game, error) {
	var games []entity.Game
	err := r.db.WithContext(ctx).
		Select("genres", "platforms").
		Where("is_active = ?", true).
		Find(&games).Error
	return games, err
}

func (r *gameRepository) PrunePlayerSamples(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("timestamp < ?", before).
		Delete(&entity.PlayerCountSample{})
	return result.RowsAffected, result.Error
}

// RecomputeReviewStats rebuilds the denormalized review counters on the game
// row from the approved reviews table. Safe to call repeatedly.
func (r *gameRepository) RecomputeReviewStats(ctx context.Context, gameID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE games SET
			review_count = agg.cnt,
			average_review_score = agg.avg_score
		FROM (
			SELECT COUNT(*) AS cnt, COALESCE(AVG(rating), 0) AS avg_score
			FROM reviews
			WHERE game_id = ? AND status = ?
		) AS agg
		WHERE games.id = ?`,
		gameID, entity.ReviewStatusApproved, gameID).Error
}

func (r *gameRepository) UpdateTrendingFlags(ctx context.Context, topIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.Game{}).Where("trending = ?", true).Update("trending", false).Error; err != nil {
			return err
		}
		if len(topIDs) == 0 {
			return nil
		}
		return tx.Model(&entity.Game{}).Where("id IN ?", topIDs).Update("trending", true).Error
	})
}
