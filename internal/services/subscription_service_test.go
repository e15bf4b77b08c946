package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribe(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	service := NewSubscriptionService(db)
	reader := createUser(t, db, "reader")
	chef := createUser(t, db, "chef")

	t.Run("self subscription is rejected", func(t *testing.T) {
		_, err := service.Subscribe(ctx, reader.ID, reader.ID)
		assert.ErrorIs(t, err, ErrSelfSubscription)
	})

	t.Run("unknown author", func(t *testing.T) {
		_, err := service.Subscribe(ctx, reader.ID, 999)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("subscribe once", func(t *testing.T) {
		author, err := service.Subscribe(ctx, reader.ID, chef.ID)
		require.NoError(t, err)
		assert.Equal(t, "chef", author.Username)

		_, err = service.Subscribe(ctx, reader.ID, chef.ID)
		assert.ErrorIs(t, err, ErrAlreadySubscribed)
	})

	t.Run("self subscription is rejected even when subscribed elsewhere", func(t *testing.T) {
		_, err := service.Subscribe(ctx, chef.ID, chef.ID)
		assert.ErrorIs(t, err, ErrSelfSubscription)
	})

	t.Run("subscription is directed", func(t *testing.T) {
		subscribed, err := service.SubscribedTo(ctx, reader.ID, []uint{chef.ID, reader.ID})
		require.NoError(t, err)
		assert.Equal(t, map[uint]bool{chef.ID: true}, subscribed)

		subscribed, err = service.SubscribedTo(ctx, chef.ID, []uint{reader.ID})
		require.NoError(t, err)
		assert.Empty(t, subscribed)
	})
}

func TestUnsubscribe(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	service := NewSubscriptionService(db)
	reader := createUser(t, db, "reader")
	chef := createUser(t, db, "chef")

	assert.ErrorIs(t, service.Unsubscribe(ctx, reader.ID, chef.ID), ErrNotSubscribed)
	assert.ErrorIs(t, service.Unsubscribe(ctx, reader.ID, 999), ErrUserNotFound)

	_, err := service.Subscribe(ctx, reader.ID, chef.ID)
	require.NoError(t, err)
	require.NoError(t, service.Unsubscribe(ctx, reader.ID, chef.ID))
	assert.ErrorIs(t, service.Unsubscribe(ctx, reader.ID, chef.ID), ErrNotSubscribed)
}

func TestListSubscriptions(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	service := NewSubscriptionService(db)
	reader := createUser(t, db, "reader")
	for _, name := range []string{"zoe", "adam", "mia"} {
		author := createUser(t, db, name)
		_, err := service.Subscribe(ctx, reader.ID, author.ID)
		require.NoError(t, err)
	}
	createUser(t, db, "stranger")

	authors, total, err := service.ListSubscriptions(ctx, reader.ID, PageRequest{Page: 1, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, authors, 2)
	assert.Equal(t, "adam", authors[0].Username)
	assert.Equal(t, "mia", authors[1].Username)

	authors, _, err = service.ListSubscriptions(ctx, reader.ID, PageRequest{Page: 2, Size: 2})
	require.NoError(t, err)
	require.Len(t, authors, 1)
	assert.Equal(t, "zoe", authors[0].Username)
}
