package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReviewService stores per-product reviews behind a moderation gate.
// The review map is re-read from storage on every call.
type ReviewService struct {
	*env
}

// ReviewInput is what a shopper submits
type ReviewInput struct {
	Rating int    `json:"rating"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// ReviewSummary is the storefront view of approved reviews
type ReviewSummary struct {
	Reviews       []models.Review `json:"reviews"`
	AverageRating float64         `json:"average_rating"`
	Count         int             `json:"count"`
}

func (s *ReviewService) load(ctx context.Context) (map[string][]models.Review, error) {
	all, err := store.Load(ctx, s.repo, store.KeyReviews, map[string][]models.Review{})
	if err != nil {
		return nil, err
	}
	if all == nil {
		all = map[string][]models.Review{}
	}
	return all, nil
}

// Submit stores a pending review by the signed-in user
func (s *ReviewService) Submit(ctx context.Context, productID string, in ReviewInput) (*models.Review, error) {
	ctx, span := util.StartSpan(ctx, "ReviewService.Submit")
	defer span.End()

	u := s.state.CurrentUser()
	if u == nil {
		return nil, fmt.Errorf("%w: sign in to leave a review", ErrAuth)
	}
	if _, ok := s.state.FindProduct(productID); !ok {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, productID)
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	if strings.TrimSpace(in.Body) == "" {
		return nil, fmt.Errorf("%w: review body required", ErrValidation)
	}

	review := models.Review{
		ID:        uuid.New().String(),
		ProductID: productID,
		UserID:    u.ID,
		UserEmail: u.Email,
		Rating:    in.Rating,
		Title:     strings.TrimSpace(in.Title),
		Body:      in.Body,
		Date:      time.Now().UTC(),
		Status:    models.ReviewStatusPending,
	}

	all, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	all[productID] = append(all[productID], review)
	if err := s.repo.Save(ctx, store.KeyReviews, all); err != nil {
		return nil, err
	}

	util.ReviewsSubmittedTotal.Inc()
	s.notify(TopicReviews)
	return &review, nil
}

// ListApproved returns the approved reviews for productID and their average rating
func (s *ReviewService) ListApproved(ctx context.Context, productID string) (*ReviewSummary, error) {
	all, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	summary := &ReviewSummary{Reviews: []models.Review{}}
	total := 0
	for _, r := range all[productID] {
		if r.Status != models.ReviewStatusApproved {
			continue
		}
		summary.Reviews = append(summary.Reviews, r)
		total += r.Rating
	}

	summary.Count = len(summary.Reviews)
	if summary.Count > 0 {
		summary.AverageRating = float64(total) / float64(summary.Count)
	}
	return summary, nil
}

// Approve marks a review approved. Moderation happens outside the storefront.
func (s *ReviewService) Approve(ctx context.Context, productID, reviewID string) error {
	ctx, span := util.StartSpan(ctx, "ReviewService.Approve")
	defer span.End()

	all, err := s.load(ctx)
	if err != nil {
		return err
	}

	reviews := all[productID]
	for i := range reviews {
		if reviews[i].ID != reviewID {
			continue
		}
		if reviews[i].Status == models.ReviewStatusApproved {
			return nil
		}
		reviews[i].Status = models.ReviewStatusApproved
		if err := s.repo.Save(ctx, store.KeyReviews, all); err != nil {
			return err
		}

		util.ReviewsApprovedTotal.Inc()
		s.logger.Info("Review approved",
			zap.String("product_id", productID),
			zap.String("review_id", reviewID))
		s.notify(TopicReviews)
		return nil
	}

	return fmt.Errorf("%w: review %s on product %s", ErrNotFound, reviewID, productID)
}
