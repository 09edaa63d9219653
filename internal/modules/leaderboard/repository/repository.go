package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"knightgaming.gg/backend/internal/entity"
	"knightgaming.gg/backend/pkg/apperror"
)

// EntryKey identifies one leaderboard partition. Season is "" when the board
// is not season-scoped.
type EntryKey struct {
	GameID   uuid.UUID
	Category string
	Season   string
}

type LeaderboardRepository interface {
	Create(ctx context.Context, entry *entity.LeaderboardEntry) error
	// Update persists the entry guarded by an optimistic version check and
	// returns apperror.ErrVersionConflict when a concurrent writer won.
	Update(ctx context.Context, entry *entity.LeaderboardEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.LeaderboardEntry, error)
	// FindByKey returns the unique entry for (key, user), any status.
	FindByKey(ctx context.Context, key EntryKey, userID uuid.UUID) (*entity.LeaderboardEntry, error)
	// FindVerifiedByUser returns the user's verified, active entry for the key.
	FindVerifiedByUser(ctx context.Context, key EntryKey, userID uuid.UUID) (*entity.LeaderboardEntry, error)
	// CountHigher counts verified, active entries for the key with a strictly
	// greater score.
	CountHigher(ctx context.Context, key EntryKey, score int64) (int64, error)
	ListVerified(ctx context.Context, key EntryKey, limit, offset int) ([]entity.LeaderboardEntry, error)
	CountVerified(ctx context.Context, key EntryKey) (int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.LeaderboardEntry, int64, error)
	ListFlagged(ctx context.Context, limit, offset int) ([]entity.LeaderboardEntry, int64, error)
	DistinctCategories(ctx context.Context, gameID uuid.UUID) ([]string, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type leaderboardRepository struct {
	db *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

func (r *leaderboardRepository) Create(ctx context.Context, entry *entity.LeaderboardEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *leaderboardRepository) Update(ctx context.Context, entry *entity.LeaderboardEntry) error {
	oldVersion := entry.Version
	entry.Version = oldVersion + 1

	res := r.db.WithContext(ctx).Model(entry).
		Where("version = ?", oldVersion).
		Select("player_name", "score", "metadata", "proof", "status",
			"anti_cheat_flags", "verified_by", "verified_at", "rejection_reason",
			"submitted_at", "achieved_at", "is_active", "version").
		Updates(entry)
	if res.Error != nil {
		entry.Version = oldVersion
		return res.Error
	}
	if res.RowsAffected == 0 {
		entry.Version = oldVersion
		return apperror.ErrVersionConflict
	}
	return nil
}

func (r *leaderboardRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.LeaderboardEntry, error) {
	var entry entity.LeaderboardEntry
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *leaderboardRepository) FindByKey(ctx context.Context, key EntryKey, userID uuid.UUID) (*entity.LeaderboardEntry, error) {
	var entry entity.LeaderboardEntry
	err := r.db.WithContext(ctx).
		Where("game_id = ? AND user_id = ? AND category = ? AND season = ?",
			key.GameID, userID, key.Category, key.Season).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *leaderboardRepository) FindVerifiedByUser(ctx context.Context, key EntryKey, userID uuid.UUID) (*entity.LeaderboardEntry, error) {
	var entry entity.LeaderboardEntry
	err := r.verifiedScope(ctx, key).Where("user_id = ?", userID).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *leaderboardRepository) CountHigher(ctx context.Context, key EntryKey, score int64) (int64, error) {
	var count int64
	err := r.verifiedScope(ctx, key).Where("score > ?", score).Count(&count).Error
	return count, err
}

func (r *leaderboardRepository) ListVerified(ctx context.Context, key EntryKey, limit, offset int) ([]entity.LeaderboardEntry, error) {
	var entries []entity.LeaderboardEntry
	err := r.verifiedScope(ctx, key).
		Order("score DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	return entries, err
}

func (r *leaderboardRepository) CountVerified(ctx context.Context, key EntryKey) (int64, error) {
	var count int64
	err := r.verifiedScope(ctx, key).Count(&count).Error
	return count, err
}

func (r *leaderboardRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.LeaderboardEntry, int64, error) {
	var entries []entity.LeaderboardEntry
	var total int64

	base := r.db.WithContext(ctx).Model(&entity.LeaderboardEntry{}).Where("user_id = ?", userID)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := base.Order("submitted_at DESC").Limit(limit).Offset(offset).Find(&entries).Error
	return entries, total, err
}

func (r *leaderboardRepository) ListFlagged(ctx context.Context, limit, offset int) ([]entity.LeaderboardEntry, int64, error) {
	var entries []entity.LeaderboardEntry
	var total int64

	base := r.db.WithContext(ctx).Model(&entity.LeaderboardEntry{}).
		Where("status = ?", entity.EntryStatusFlagged)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := base.Order("submitted_at ASC").Limit(limit).Offset(offset).Find(&entries).Error
	return entries, total, err
}

func (r *leaderboardRepository) DistinctCategories(ctx context.Context, gameID uuid.UUID) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).Model(&entity.LeaderboardEntry{}).
		Where("game_id = ? AND status = ?", gameID, entity.EntryStatusVerified).
		Distinct().
		Pluck("category", &categories).Error
	return categories, err
}

func (r *leaderboardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.LeaderboardEntry{}, "id = ?", id).Error
}

func (r *leaderboardRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.LeaderboardEntry{}).Count(&count).Error
	return count, err
}

func (r *leaderboardRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.LeaderboardEntry{}).
		Where("status = ?", status).Count(&count).Error
	return count, err
}

func (r *leaderboardRepository) verifiedScope(ctx context.Context, key EntryKey) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&entity.LeaderboardEntry{}).
		Where("game_id = ? AND category = ? AND status = ? AND is_active = ?",
			key.GameID, key.Category, entity.EntryStatusVerified, true)
	if key.Season != "" {
		q = q.Where("season = ?", key.Season)
	}
	return q
}
