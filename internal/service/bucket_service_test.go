package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bucketwise/internal/categorize"
)

func TestSeedBuckets(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	svc := env.buckets()

	res, err := svc.Seed(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Buckets seeded", res.Message)
	assert.Equal(t, len(categorize.Buckets), res.Total)
	require.Len(t, res.Added, len(categorize.Buckets))

	buckets, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, buckets, len(categorize.Buckets))
	for i, b := range buckets {
		assert.Equal(t, categorize.Buckets[i], b.Name)
		assert.Equal(t, i, b.DisplayOrder)
		assert.NotEmpty(t, b.Emoji)
		assert.Zero(t, b.MonthlyTarget)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	svc := env.buckets()

	_, err := svc.Seed(ctx, "u1")
	require.NoError(t, err)

	res, err := svc.Seed(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Buckets already seeded", res.Message)
	assert.Empty(t, res.Added)
	assert.Equal(t, len(categorize.Buckets), res.Total)
}

func TestUpdateBucket(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	svc := env.buckets()

	seeded, err := svc.Seed(ctx, "u1")
	require.NoError(t, err)
	id := seeded.Added[1].ID // Groceries

	target := 600.0
	updated, err := svc.Update(ctx, "u1", id, BucketUpdate{MonthlyTarget: &target})
	require.NoError(t, err)
	assert.Equal(t, 600.0, updated.MonthlyTarget)
	assert.Equal(t, "Groceries", updated.Name)

	name, emoji := "Food", "🍎"
	updated, err = svc.Update(ctx, "u1", id, BucketUpdate{Name: &name, Emoji: &emoji})
	require.NoError(t, err)
	assert.Equal(t, "Food", updated.Name)
	assert.Equal(t, "🍎", updated.Emoji)
	assert.Equal(t, 600.0, updated.MonthlyTarget)

	_, err = svc.Update(ctx, "u1", id, BucketUpdate{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}
