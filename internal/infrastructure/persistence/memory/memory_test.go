package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/dataguard/internal/domain/models"
	"github.com/turtacn/dataguard/internal/infrastructure/persistence/memory"
	"github.com/turtacn/dataguard/pkg/constants"
	"github.com/turtacn/dataguard/pkg/errors"
)

var base = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func TestVersionRepository_AppendChecksSequence(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewVersionRepository()

	_, err := repo.Latest(ctx, "doc")
	assert.True(t, errors.IsNotFoundError(err))

	v1 := models.NewVersion("doc", 1, "d1", 3, "u1", constants.OriginSystemWrite, base)
	require.NoError(t, repo.Append(ctx, v1))

	err = repo.Append(ctx, models.NewVersion("doc", 1, "d2", 3, "u1", constants.OriginSystemWrite, base))
	assert.True(t, errors.IsConcurrentModification(err))
	err = repo.Append(ctx, models.NewVersion("doc", 3, "d2", 3, "u1", constants.OriginSystemWrite, base))
	assert.True(t, errors.IsConcurrentModification(err))

	v2 := models.NewVersion("doc", 2, "d2", 3, "u1", constants.OriginSystemWrite, base.Add(time.Second))
	require.NoError(t, repo.Append(ctx, v2))

	latest, err := repo.Latest(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, v2.ID, latest.ID)

	found, err := repo.FindByID(ctx, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, "d1", found.Digest)

	chain, err := repo.ListByDocument(ctx, "doc")
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, int64(1), chain[0].Sequence)
}

func TestAccessEventRepository_Ordering(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewAccessEventRepository()

	for _, offset := range []int{3, 1, 2, 0} {
		e := models.NewAccessEvent("u1", "HR", constants.ActionRead, constants.OutcomeAllowed, base.Add(time.Duration(offset)*time.Minute))
		require.NoError(t, repo.Save(ctx, e))
	}
	require.NoError(t, repo.Save(ctx, models.NewAccessEvent("u2", "HR", constants.ActionRead, constants.OutcomeAllowed, base.Add(10*time.Minute))))

	recent, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, base.Add(3*time.Minute), recent[0].Timestamp)
	assert.Equal(t, "u2", recent[1].UserID)

	byUser, err := repo.ListByUser(ctx, "u1", base.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, byUser, 3)
	assert.True(t, byUser[0].Timestamp.Before(byUser[1].Timestamp))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestAlertRepository_ResolveAndList(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewAlertRepository()

	older := models.NewAlert(models.AlertDraft{Type: constants.AlertTypeTampering, DocumentID: "d", RiskScore: 0.9}, base)
	newer := models.NewAlert(models.AlertDraft{Type: constants.AlertTypeAnomalousBehavior, UserID: "u", RiskScore: 0.5}, base.Add(time.Minute))
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))

	list, err := repo.List(ctx, models.AlertFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)

	ok, err := repo.Resolve(ctx, older.ID, "admin", base.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Resolve(ctx, older.ID, "admin2", base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.FindOpenByDedupKey(ctx, older.DedupKey)
	assert.True(t, errors.IsNotFoundError(err))

	open, err := repo.List(ctx, models.AlertFilter{Status: constants.AlertStatusOpen, Limit: 5})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, newer.ID, open[0].ID)
}

func TestDeduplicator_Claim(t *testing.T) {
	ctx := context.Background()
	d := memory.NewDeduplicator(time.Minute)

	ok, err := d.Claim(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = d.Claim(ctx, "k", time.Minute)
	assert.False(t, ok)

	require.NoError(t, d.Release(ctx, "k"))
	ok, _ = d.Claim(ctx, "k", time.Minute)
	assert.True(t, ok)

	ok, _ = d.Claim(ctx, "k", 0)
	assert.True(t, ok, "a zero window disables deduplication")
}

func TestContentStore_Copies(t *testing.T) {
	ctx := context.Background()
	s := memory.NewContentStore()

	content := []byte("abc")
	require.NoError(t, s.Write(ctx, "doc", content))
	content[0] = 'x'

	got, err := s.Read(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	s.Delete("doc")
	_, err = s.Read(ctx, "doc")
	assert.True(t, errors.IsNotFoundError(err))
}
