package postgres_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/turtacn/dataguard/internal/domain/models"
	"github.com/turtacn/dataguard/internal/infrastructure/persistence/postgres"
	"github.com/turtacn/dataguard/pkg/constants"
	"github.com/turtacn/dataguard/pkg/errors"
	"github.com/turtacn/dataguard/pkg/logger"
)

var base = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	conn := postgres.NewFromGorm(db, logger.NewNoopLogger())
	require.NoError(t, conn.Migrate(context.Background()))
	t.Cleanup(conn.Close)
	return db
}

func TestVersionRepository(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewVersionRepository(openTestDB(t), logger.NewNoopLogger())

	_, err := repo.Latest(ctx, "doc")
	assert.True(t, errors.IsNotFoundError(err))

	v1 := models.NewVersion("doc", 1, "d1", 3, "alice", constants.OriginSystemWrite, base)
	require.NoError(t, repo.Append(ctx, v1))

	err = repo.Append(ctx, models.NewVersion("doc", 1, "dx", 3, "bob", constants.OriginSystemWrite, base))
	assert.True(t, errors.IsConcurrentModification(err))
	err = repo.Append(ctx, models.NewVersion("doc", 5, "dx", 3, "bob", constants.OriginSystemWrite, base))
	assert.True(t, errors.IsConcurrentModification(err))

	v2 := models.NewVersion("doc", 2, "d2", 0, constants.ExternalAuthorID, constants.OriginExternalDetected, base.Add(time.Minute))
	v2.RiskScore = 0.9
	require.NoError(t, repo.Append(ctx, v2))

	latest, err := repo.Latest(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, v2.ID, latest.ID)
	assert.True(t, latest.IsExternal())
	assert.Equal(t, 0.9, latest.RiskScore)
	assert.True(t, base.Add(time.Minute).Equal(latest.CreatedAt))

	got, err := repo.FindByID(ctx, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, "d1", got.Digest)
	assert.Equal(t, "d1", got.ContentRef)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.True(t, errors.IsNotFoundError(err))

	chain, err := repo.ListByDocument(ctx, "doc")
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, int64(1), chain[0].Sequence)
	assert.Equal(t, int64(2), chain[1].Sequence)
}

func TestDocumentRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewDocumentRepository(openTestDB(t), logger.NewNoopLogger())

	doc := models.NewDocument("b.txt", "Finance", base)
	doc.Advance(models.NewVersion("b.txt", 1, "d1", 1, "alice", constants.OriginSystemWrite, base))
	require.NoError(t, repo.Save(ctx, doc))
	require.NoError(t, repo.Save(ctx, models.NewDocument("a.txt", "HR", base)))

	doc.Advance(models.NewVersion("b.txt", 2, "d2", 1, "alice", constants.OriginSystemWrite, base.Add(time.Hour)))
	require.NoError(t, repo.Save(ctx, doc))

	got, err := repo.Get(ctx, "b.txt")
	require.NoError(t, err)
	assert.Equal(t, "d2", got.CurrentDigest)
	assert.Equal(t, int64(2), got.LatestSequence)
	assert.Equal(t, "Finance", got.Department)

	_, err = repo.Get(ctx, "missing")
	assert.True(t, errors.IsNotFoundError(err))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a.txt", all[0].ID)
}

func TestAccessEventRepository(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewAccessEventRepository(openTestDB(t), logger.NewNoopLogger())

	for i := 0; i < 5; i++ {
		user := "u1"
		if i%2 == 1 {
			user = "u2"
		}
		e := models.NewAccessEvent(user, "HR", constants.ActionRead, constants.OutcomeAllowed, base.Add(time.Duration(i)*time.Minute))
		if i == 4 {
			e.WithDocument("ledger", "Finance")
			e.ApplyAssessment(models.RiskAssessment{FinalScore: 0.8, Severity: constants.SeverityHigh})
		}
		require.NoError(t, repo.Save(ctx, e))
	}

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	u1, err := repo.ListByUser(ctx, "u1", base.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, u1, 2)
	assert.True(t, u1[0].Timestamp.Before(u1[1].Timestamp))
	assert.True(t, u1[1].AnomalyFlag)
	assert.True(t, u1[1].DepartmentMismatch())

	since, err := repo.ListSince(ctx, base.Add(3*time.Minute))
	require.NoError(t, err)
	assert.Len(t, since, 2)

	recent, err := repo.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.True(t, base.Add(2*time.Minute).Equal(recent[0].Timestamp))
	assert.True(t, base.Add(4*time.Minute).Equal(recent[2].Timestamp))
}

func TestAlertRepository(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewAlertRepository(openTestDB(t), logger.NewNoopLogger())

	leak := models.NewAlert(models.AlertDraft{
		Type: constants.AlertTypeDataLeakAttempt, UserID: "eve", DocumentID: "ledger", RiskScore: 0.85,
	}, base)
	tamper := models.NewAlert(models.AlertDraft{
		Type: constants.AlertTypeTampering, DocumentID: "ledger", RiskScore: 0.9,
	}, base.Add(time.Minute))
	require.NoError(t, repo.Create(ctx, leak))
	require.NoError(t, repo.Create(ctx, tamper))

	open, err := repo.FindOpenByDedupKey(ctx, leak.DedupKey)
	require.NoError(t, err)
	assert.Equal(t, leak.ID, open.ID)

	ok, err := repo.Resolve(ctx, leak.ID, "admin", base.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Resolve(ctx, leak.ID, "other", base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = repo.Resolve(ctx, uuid.New(), "admin", base)
	assert.True(t, errors.IsNotFoundError(err))

	got, err := repo.FindByID(ctx, leak.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.AlertStatusResolved, got.Status)
	assert.Equal(t, "admin", got.ResolvedBy)
	require.NotNil(t, got.ResolvedAt)
	assert.True(t, base.Add(time.Hour).Equal(*got.ResolvedAt))

	_, err = repo.FindOpenByDedupKey(ctx, leak.DedupKey)
	assert.True(t, errors.IsNotFoundError(err))

	all, err := repo.List(ctx, models.AlertFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, tamper.ID, all[0].ID)

	openOnly, err := repo.List(ctx, models.AlertFilter{Status: constants.AlertStatusOpen, DocumentID: "ledger"})
	require.NoError(t, err)
	require.Len(t, openOnly, 1)
	assert.Equal(t, constants.AlertTypeTampering, openOnly[0].Type)

	byUser, err := repo.List(ctx, models.AlertFilter{UserID: "eve", Since: base})
	require.NoError(t, err)
	assert.Len(t, byUser, 1)
}
