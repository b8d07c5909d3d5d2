package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/githubledger/ledgerflow/internal/common"
	"github.com/githubledger/ledgerflow/internal/profile"
	"github.com/githubledger/ledgerflow/internal/storage"
	"github.com/githubledger/ledgerflow/internal/testutil"
)

func makeProfile(t *testing.T, userID string) *profile.Profile {
	t.Helper()
	p, err := profile.New(userID, "日期", "金额")
	require.NoError(t, err)
	p.CategorySystem.Mapping = map[string]profile.CategoryMapping{
		"餐饮": {CategoryMain: "Food & Dining", Tags: []string{}},
	}
	return p
}

func TestSaveProfile_RoundTrip(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	original := makeProfile(t, "user_a")
	require.NoError(t, store.SaveProfile(ctx, original))

	restored, err := store.GetProfile(ctx, "user_a")
	require.NoError(t, err)

	assert.Equal(t, original.UserID, restored.UserID)
	assert.Equal(t, original.ProfileVersion, restored.ProfileVersion)
	assert.Equal(t, original.ColumnMapping, restored.ColumnMapping)
	assert.Equal(t, original.CategorySystem, restored.CategorySystem)
	assert.Equal(t, original.DataCleaningRules, restored.DataCleaningRules)
	assert.Equal(t, original.Metadata, restored.Metadata)
}

func TestSaveProfile_ReplacesWhole(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	first := makeProfile(t, "user_a")
	require.NoError(t, store.SaveProfile(ctx, first))

	second := makeProfile(t, "user_a")
	second.CategorySystem.Mapping["网购"] = profile.CategoryMapping{CategoryMain: "Shopping", Tags: []string{}}
	require.NoError(t, store.SaveProfile(ctx, second))

	restored, err := store.GetProfile(ctx, "user_a")
	require.NoError(t, err)
	assert.Len(t, restored.CategorySystem.Mapping, 2)
}

func TestSaveProfile_RejectsNil(t *testing.T) {
	store := testutil.SetupTestDB(t)

	err := store.SaveProfile(context.Background(), nil)
	require.ErrorIs(t, err, storage.ErrNilProfile)
}

func TestSaveProfile_RejectsInvalid(t *testing.T) {
	store := testutil.SetupTestDB(t)

	p := makeProfile(t, "user_a")
	p.Metadata.ConfidenceThreshold = 2.0

	err := store.SaveProfile(context.Background(), p)
	require.Error(t, err)
}

func TestGetProfile_NotFound(t *testing.T) {
	store := testutil.SetupTestDB(t)

	_, err := store.GetProfile(context.Background(), "nobody")
	require.ErrorIs(t, err, common.ErrProfileNotFound)
}

func TestConfirmProfile(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	p := makeProfile(t, "user_a")
	require.False(t, p.Metadata.UserConfirmed)
	require.NoError(t, store.SaveProfile(ctx, p))

	require.NoError(t, store.ConfirmProfile(ctx, "user_a"))

	restored, err := store.GetProfile(ctx, "user_a")
	require.NoError(t, err)
	assert.True(t, restored.Metadata.UserConfirmed)
}

func TestConfirmProfile_MissingUser(t *testing.T) {
	store := testutil.SetupTestDB(t)

	err := store.ConfirmProfile(context.Background(), "nobody")
	require.ErrorIs(t, err, common.ErrProfileNotFound)
}
