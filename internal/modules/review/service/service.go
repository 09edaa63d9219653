package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
	"knightgaming.gg/backend/internal/entity"
	gameRepo "knightgaming.gg/backend/internal/modules/game/repository"
	"knightgaming.gg/backend/internal/modules/review/dto"
	"knightgaming.gg/backend/internal/modules/review/repository"
	notifService "knightgaming.gg/backend/internal/modules/notification/service"
	userRepo "knightgaming.gg/backend/internal/modules/user/repository"
	"knightgaming.gg/backend/pkg/apperror"
	pkgdto "knightgaming.gg/backend/pkg/dto"
)

type ReviewService interface {
	CreateReview(ctx context.Context, userID uuid.UUID, req dto.CreateReviewRequest) (*entity.Review, error)
	UpdateReview(ctx context.Context, reviewID, userID uuid.UUID, req dto.UpdateReviewRequest) (*entity.Review, error)
	DeleteReview(ctx context.Context, reviewID, userID uuid.UUID, role string) error
	GetGameReviews(ctx context.Context, gameID uuid.UUID, q dto.ReviewListQuery) (*dto.ReviewListResponse, error)
	GetUserReviews(ctx context.Context, userID uuid.UUID, page, limit int) (*dto.ReviewListResponse, error)
	VoteHelpful(ctx context.Context, reviewID, userID uuid.UUID, isHelpful bool) (*entity.Review, error)
	ReportReview(ctx context.Context, reviewID, userID uuid.UUID, reason string) error
	ApproveReview(ctx context.Context, reviewID, moderatorID uuid.UUID, notes string) (*entity.Review, error)
	RejectReview(ctx context.Context, reviewID, moderatorID uuid.UUID, notes string) (*entity.Review, error)
	ListByStatus(ctx context.Context, status string, page, limit int) (*dto.ReviewListResponse, error)
}

type reviewService struct {
	repo      repository.ReviewRepository
	games     gameRepo.GameRepository
	users     userRepo.UserRepository
	notifier  notifService.NotificationService
	sanitizer *bluemonday.Policy
}

func NewReviewService(
	repo repository.ReviewRepository,
	games gameRepo.GameRepository,
	users userRepo.UserRepository,
	notifier notifService.NotificationService,
) ReviewService {
	return &reviewService{
		repo:      repo,
		games:     games,
		users:     users,
		notifier:  notifier,
		sanitizer: bluemonday.UGCPolicy(),
	}
}

func (s *reviewService) CreateReview(ctx context.Context, userID uuid.UUID, req dto.CreateReviewRequest) (*entity.Review, error) {
	gameID, err := uuid.Parse(req.GameID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid game id", apperror.ErrInvalidInput)
	}

	game, err := s.games.FindByID(ctx, gameID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: game not found", apperror.ErrNotFound)
		}
		return nil, err
	}
	if !game.IsActive {
		return nil, fmt.Errorf("%w: game not found", apperror.ErrNotFound)
	}

	if existing, _ := s.repo.FindByGameAndUser(ctx, gameID, userID); existing != nil {
		return nil, fmt.Errorf("%w: you have already reviewed this game", apperror.ErrConflict)
	}

	recommend := true
	if req.RecommendGame != nil {
		recommend = *req.RecommendGame
	}

	review := &entity.Review{
		GameID:        gameID,
		UserID:        userID,
		Rating:        req.Rating,
		Title:         s.sanitizer.Sanitize(req.Title),
		Content:       s.sanitizer.Sanitize(req.Content),
		Tags:          req.Tags,
		HoursPlayed:   req.HoursPlayed,
		RecommendGame: recommend,
		Status:        entity.ReviewStatusApproved,
	}

	if err := s.repo.Create(ctx, review); err != nil {
		return nil, err
	}

	if err := s.users.IncrementReviewsWritten(ctx, userID, 1); err != nil {
		log.Printf("review: failed to bump reviews_written for %s: %v", userID, err)
	}
	s.recomputeStats(ctx, gameID)

	return review, nil
}

func (s *reviewService) UpdateReview(ctx context.Context, reviewID, userID uuid.UUID, req dto.UpdateReviewRequest) (*entity.Review, error) {
	review, err := s.findReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.UserID != userID {
		return nil, fmt.Errorf("%w: you can only edit your own review", apperror.ErrForbidden)
	}

	if req.Rating != nil {
		review.Rating = *req.Rating
	}
	if req.Title != nil {
		review.Title = s.sanitizer.Sanitize(*req.Title)
	}
	if req.Content != nil {
		review.Content = s.sanitizer.Sanitize(*req.Content)
	}
	if req.Tags != nil {
		review.Tags = req.Tags
	}
	if req.HoursPlayed != nil {
		review.HoursPlayed = req.HoursPlayed
	}
	if req.RecommendGame != nil {
		review.RecommendGame = *req.RecommendGame
	}

	// Editing a flagged or rejected review sends it back through moderation
	// instead of restoring it directly.
	if review.Status == entity.ReviewStatusFlagged || review.Status == entity.ReviewStatusRejected {
		review.Status = entity.ReviewStatusPending
		review.ModeratedBy = nil
		review.ModeratedAt = nil
		review.ModerationNotes = ""
	}

	now := time.Now()
	review.Edited = true
	review.EditedAt = &now

	if err := s.repo.Update(ctx, review); err != nil {
		return nil, err
	}
	s.recomputeStats(ctx, review.GameID)

	return review, nil
}

func (s *reviewService) DeleteReview(ctx context.Context, reviewID, userID uuid.UUID, role string) error {
	review, err := s.findReview(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.UserID != userID && role != entity.RoleAdmin && role != entity.RoleModerator {
		return fmt.Errorf("%w: you can only delete your own review", apperror.ErrForbidden)
	}

	if err := s.repo.Delete(ctx, reviewID); err != nil {
		return err
	}

	if err := s.users.IncrementReviewsWritten(ctx, review.UserID, -1); err != nil {
		log.Printf("review: failed to decrement reviews_written for %s: %v", review.UserID, err)
	}
	s.recomputeStats(ctx, review.GameID)

	return nil
}

func (s *reviewService) GetGameReviews(ctx context.Context, gameID uuid.UUID, q dto.ReviewListQuery) (*dto.ReviewListResponse, error) {
	page, limit := pkgdto.NormalizePage(q.Page, q.Limit, 10, 50)

	reviews, total, err := s.repo.ListByGame(ctx, gameID, q.Sort, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	return &dto.ReviewListResponse{
		Reviews: reviews,
		Meta:    pkgdto.NewPaginationMeta(page, limit, total),
	}, nil
}

func (s *reviewService) GetUserReviews(ctx context.Context, userID uuid.UUID, page, limit int) (*dto.ReviewListResponse, error) {
	page, limit = pkgdto.NormalizePage(page, limit, 10, 50)

	reviews, total, err := s.repo.ListByUser(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	return &dto.ReviewListResponse{
		Reviews: reviews,
		Meta:    pkgdto.NewPaginationMeta(page, limit, total),
	}, nil
}

// VoteHelpful records or revises a user's helpfulness vote and recomputes the
// counters from the vote list.
func (s *reviewService) VoteHelpful(ctx context.Context, reviewID, userID uuid.UUID, isHelpful bool) (*entity.Review, error) {
	review, err := s.findReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.UserID == userID {
		return nil, fmt.Errorf("%w: you cannot vote on your own review", apperror.ErrForbidden)
	}

	found := false
	for i := range review.HelpfulVotes {
		if review.HelpfulVotes[i].UserID == userID {
			review.HelpfulVotes[i].IsHelpful = isHelpful
			review.HelpfulVotes[i].VotedAt = time.Now()
			found = true
			break
		}
	}
	if !found {
		review.HelpfulVotes = append(review.HelpfulVotes, entity.HelpfulVote{
			UserID:    userID,
			IsHelpful: isHelpful,
			VotedAt:   time.Now(),
		})
	}

	helpful, notHelpful := 0, 0
	for _, v := range review.HelpfulVotes {
		if v.IsHelpful {
			helpful++
		} else {
			notHelpful++
		}
	}
	review.HelpfulCount = helpful
	review.NotHelpfulCount = notHelpful

	if err := s.repo.Update(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// ReportReview appends a report. The same user reporting twice is a conflict.
// Crossing the report threshold pulls the review into the moderation queue.
func (s *reviewService) ReportReview(ctx context.Context, reviewID, userID uuid.UUID, reason string) error {
	review, err := s.findReview(ctx, reviewID)
	if err != nil {
		return err
	}

	for _, report := range review.Reports {
		if report.UserID == userID {
			return fmt.Errorf("%w: you have already reported this review", apperror.ErrConflict)
		}
	}

	review.Reports = append(review.Reports, entity.ReviewReport{
		UserID:    userID,
		Reason:    reason,
		FlaggedAt: time.Now(),
	})

	if len(review.Reports) >= entity.AutoFlagThreshold && review.Status == entity.ReviewStatusApproved {
		review.Status = entity.ReviewStatusFlagged
	}

	if err := s.repo.Update(ctx, review); err != nil {
		return err
	}

	if review.Status == entity.ReviewStatusFlagged {
		s.recomputeStats(ctx, review.GameID)
	}
	return nil
}

func (s *reviewService) ApproveReview(ctx context.Context, reviewID, moderatorID uuid.UUID, notes string) (*entity.Review, error) {
	return s.moderate(ctx, reviewID, moderatorID, entity.ReviewStatusApproved, notes)
}

func (s *reviewService) RejectReview(ctx context.Context, reviewID, moderatorID uuid.UUID, notes string) (*entity.Review, error) {
	return s.moderate(ctx, reviewID, moderatorID, entity.ReviewStatusRejected, notes)
}

func (s *reviewService) moderate(ctx context.Context, reviewID, moderatorID uuid.UUID, status, notes string) (*entity.Review, error) {
	review, err := s.findReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	review.Status = status
	review.ModeratedBy = &moderatorID
	review.ModeratedAt = &now
	review.ModerationNotes = notes
	if status == entity.ReviewStatusApproved {
		review.Reports = nil
	}

	if err := s.repo.Update(ctx, review); err != nil {
		return nil, err
	}
	s.recomputeStats(ctx, review.GameID)

	notifType := entity.NotificationReviewApproved
	message := "Your review has been approved."
	if status == entity.ReviewStatusRejected {
		notifType = entity.NotificationReviewRejected
		message = "Your review has been removed by a moderator."
	}

	notification := &entity.Notification{
		UserID:     review.UserID,
		ActorID:    &moderatorID,
		EntityID:   review.ID,
		EntityType: "review",
		Type:       notifType,
		Message:    message,
	}
	if err := s.notifier.CreateNotification(ctx, notification); err != nil {
		log.Printf("review: failed to notify %s: %v", review.UserID, err)
	}

	return review, nil
}

func (s *reviewService) ListByStatus(ctx context.Context, status string, page, limit int) (*dto.ReviewListResponse, error) {
	page, limit = pkgdto.NormalizePage(page, limit, 20, 100)

	reviews, total, err := s.repo.ListByStatus(ctx, status, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	return &dto.ReviewListResponse{
		Reviews: reviews,
		Meta:    pkgdto.NewPaginationMeta(page, limit, total),
	}, nil
}

func (s *reviewService) findReview(ctx context.Context, reviewID uuid.UUID) (*entity.Review, error) {
	review, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: review not found", apperror.ErrNotFound)
		}
		return nil, err
	}
	return review, nil
}

func (s *reviewService) recomputeStats(ctx context.Context, gameID uuid.UUID) {
	if err := s.games.RecomputeReviewStats(ctx, gameID); err != nil {
		log.Printf("review: failed to recompute stats for game %s: %v", gameID, err)
	}
}
