package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"knightgaming.gg/backend/internal/entity"
	gameRepo "knightgaming.gg/backend/internal/modules/game/repository"
	lbRepo "knightgaming.gg/backend/internal/modules/leaderboard/repository"
	newsRepo "knightgaming.gg/backend/internal/modules/news/repository"
	reviewRepo "knightgaming.gg/backend/internal/modules/review/repository"
	userRepo "knightgaming.gg/backend/internal/modules/user/repository"
	"knightgaming.gg/backend/pkg/apperror"
	pkgdto "knightgaming.gg/backend/pkg/dto"
)

type DashboardStats struct {
	Users           int64 `json:"users"`
	Games           int64 `json:"games"`
	Articles        int64 `json:"articles"`
	Reviews         int64 `json:"reviews"`
	FlaggedReviews  int64 `json:"flagged_reviews"`
	PendingReviews  int64 `json:"pending_reviews"`
	Entries         int64 `json:"entries"`
	FlaggedEntries  int64 `json:"flagged_entries"`
	VerifiedEntries int64 `json:"verified_entries"`
}

type UserListResult struct {
	Users []entity.User         `json:"users"`
	Meta  pkgdto.PaginationMeta `json:"meta"`
}

type AdminService interface {
	Dashboard(ctx context.Context) (*DashboardStats, error)
	ListUsers(ctx context.Context, search string, page, limit int) (*UserListResult, error)
	UpdateUserRole(ctx context.Context, actorID, userID uuid.UUID, role string) (*entity.User, error)
	DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error
}

type adminService struct {
	users   userRepo.UserRepository
	games   gameRepo.GameRepository
	news    newsRepo.NewsRepository
	reviews reviewRepo.ReviewRepository
	entries lbRepo.LeaderboardRepository
}

func NewAdminService(
	users userRepo.UserRepository,
	games gameRepo.GameRepository,
	news newsRepo.NewsRepository,
	reviews reviewRepo.ReviewRepository,
	entries lbRepo.LeaderboardRepository,
) AdminService {
	return &adminService{
		users:   users,
		games:   games,
		news:    news,
		reviews: reviews,
		entries: entries,
	}
}

func (s *adminService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	var err error

	if stats.Users, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Games, err = s.games.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Articles, err = s.news.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Reviews, err = s.reviews.Count(ctx); err != nil {
		return nil, err
	}
	if stats.FlaggedReviews, err = s.reviews.CountByStatus(ctx, entity.ReviewStatusFlagged); err != nil {
		return nil, err
	}
	if stats.PendingReviews, err = s.reviews.CountByStatus(ctx, entity.ReviewStatusPending); err != nil {
		return nil, err
	}
	if stats.Entries, err = s.entries.Count(ctx); err != nil {
		return nil, err
	}
	if stats.FlaggedEntries, err = s.entries.CountByStatus(ctx, entity.EntryStatusFlagged); err != nil {
		return nil, err
	}
	if stats.VerifiedEntries, err = s.entries.CountByStatus(ctx, entity.EntryStatusVerified); err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *adminService) ListUsers(ctx context.Context, search string, page, limit int) (*UserListResult, error) {
	page, limit = pkgdto.NormalizePage(page, limit, 20, 100)

	users, total, err := s.users.FindAll(ctx, search, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	return &UserListResult{
		Users: users,
		Meta:  pkgdto.NewPaginationMeta(page, limit, total),
	}, nil
}

func (s *adminService) UpdateUserRole(ctx context.Context, actorID, userID uuid.UUID, role string) (*entity.User, error) {
	if role != entity.RoleUser && role != entity.RoleModerator && role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: unknown role %q", apperror.ErrInvalidInput, role)
	}
	if actorID == userID {
		return nil, fmt.Errorf("%w: you cannot change your own role", apperror.ErrForbidden)
	}

	user, err := s.users.FindByID(ctx, userID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user not found", apperror.ErrNotFound)
		}
		return nil, err
	}

	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *adminService) DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error {
	if actorID == userID {
		return fmt.Errorf("%w: you cannot delete your own account here", apperror.ErrForbidden)
	}

	if _, err := s.users.FindByID(ctx, userID.String()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user not found", apperror.ErrNotFound)
		}
		return err
	}

	return s.users.Delete(ctx, userID)
}
