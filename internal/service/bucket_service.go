package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bucketwise/internal/categorize"
	"bucketwise/internal/model"
	"bucketwise/internal/store"
)

// defaultEmojis line up with categorize.Buckets by index.
var defaultEmojis = []string{"🏠", "🛒", "☕", "📱", "💊", "🚗", "🎉", "💥"}

// BucketService manages the user's bucket definitions and targets.
type BucketService struct {
	store store.Store
	log   zerolog.Logger
}

func NewBucketService(s store.Store, log zerolog.Logger) *BucketService {
	return &BucketService{store: s, log: log}
}

func (s *BucketService) List(ctx context.Context, userID string) ([]model.Bucket, error) {
	buckets, err := s.store.ListBuckets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	return buckets, nil
}

// BucketUpdate carries optional field updates; nil means unchanged.
type BucketUpdate struct {
	MonthlyTarget *float64 `json:"monthlyTarget"`
	Name          *string  `json:"name"`
	Emoji         *string  `json:"emoji"`
}

func (s *BucketService) Update(ctx context.Context, userID, bucketID string, update BucketUpdate) (*model.Bucket, error) {
	if update.MonthlyTarget == nil && update.Name == nil && update.Emoji == nil {
		return nil, validationf("nothing to update: provide monthlyTarget, name, or emoji")
	}

	bucket, err := s.store.GetBucket(ctx, userID, bucketID)
	if err != nil {
		return nil, err
	}

	if update.MonthlyTarget != nil {
		bucket.MonthlyTarget = *update.MonthlyTarget
	}
	if update.Name != nil {
		bucket.Name = *update.Name
	}
	if update.Emoji != nil {
		bucket.Emoji = *update.Emoji
	}

	if err := s.store.PutBucket(ctx, userID, *bucket); err != nil {
		return nil, fmt.Errorf("update bucket: %w", err)
	}
	return bucket, nil
}

// SeedResult reports what Seed did.
type SeedResult struct {
	Added   []model.Bucket `json:"added"`
	Total   int            `json:"total"`
	Message string         `json:"message"`
}

// Seed creates the default buckets with zero targets. Idempotent: buckets
// whose names already exist are left alone, missing ones are added.
func (s *BucketService) Seed(ctx context.Context, userID string) (*SeedResult, error) {
	existing, err := s.store.ListBuckets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	existingNames := make(map[string]struct{}, len(existing))
	for _, b := range existing {
		existingNames[b.Name] = struct{}{}
	}

	var added []model.Bucket
	for i, name := range categorize.Buckets {
		if _, ok := existingNames[name]; ok {
			continue
		}
		bucket := model.Bucket{
			ID:            uuid.NewString(),
			Name:          name,
			Emoji:         defaultEmojis[i],
			MonthlyTarget: 0,
			DisplayOrder:  i,
		}
		if err := s.store.PutBucket(ctx, userID, bucket); err != nil {
			return nil, fmt.Errorf("seed bucket %q: %w", name, err)
		}
		added = append(added, bucket)
	}

	result := &SeedResult{Added: added, Total: len(existing) + len(added)}
	switch {
	case len(existing) == 0:
		result.Message = "Buckets seeded"
	case len(added) > 0:
		result.Message = fmt.Sprintf("Added %d new bucket(s)", len(added))
	default:
		result.Message = "Buckets already seeded"
	}
	return result, nil
}
