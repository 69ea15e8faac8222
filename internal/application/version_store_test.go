package application_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/dataguard/internal/application"
	"github.com/turtacn/dataguard/pkg/constants"
	"github.com/turtacn/dataguard/pkg/errors"
)

func commit(t *testing.T, f *fixture, doc, content string) *application.CommitResult {
	t.Helper()
	res, err := f.engine.CommitDocument(context.Background(), application.CommitRequest{
		DocumentID: doc,
		Department: "Finance",
		Content:    []byte(content),
		AuthorID:   "alice",
	})
	require.NoError(t, err)
	return res
}

func TestCommitDocument_FirstVersionAndNoOp(t *testing.T) {
	f := newFixture(t)

	first := commit(t, f, "report.txt", "a\nb")
	require.NotNil(t, first.Version)
	assert.Equal(t, int64(1), first.Version.Sequence)
	assert.Equal(t, constants.OriginSystemWrite, first.Version.Origin)
	assert.False(t, first.NoOp)
	assert.Nil(t, first.DiffStats)

	again := commit(t, f, "report.txt", "a\nb")
	assert.True(t, again.NoOp)
	assert.Equal(t, first.Version.ID, again.Version.ID)

	versions, err := f.engine.ListVersions(context.Background(), "report.txt")
	require.NoError(t, err)
	assert.Len(t, versions, 1)

	doc, err := f.documents.Get(context.Background(), "report.txt")
	require.NoError(t, err)
	assert.Equal(t, "Finance", doc.Department)
	assert.Equal(t, first.Version.Digest, doc.CurrentDigest)
}

func TestCommitDocument_DiffStats(t *testing.T) {
	f := newFixture(t)
	commit(t, f, "doc", "a\nb")

	res := commit(t, f, "doc", "a\nc")
	require.NotNil(t, res.DiffStats)
	assert.Equal(t, int64(2), res.Version.Sequence)
	assert.Equal(t, 1, res.DiffStats.Added)
	assert.Equal(t, 1, res.DiffStats.Removed)
	assert.Equal(t, 1, res.DiffStats.Unchanged)
	assert.InDelta(t, 66.7, res.DiffStats.ChangePercentage, 1e-9)
	assert.True(t, res.HighImpact)
	assert.False(t, res.TamperDetected)
	assert.Nil(t, res.Alert)
}

func TestCommitDocument_EmptyContent(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.CommitDocument(context.Background(), application.CommitRequest{DocumentID: "doc", AuthorID: "alice"})
	assert.True(t, errors.IsIntegrityError(err))

	_, err = f.engine.CommitDocument(context.Background(), application.CommitRequest{Content: []byte("x")})
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestCommitDocument_RejectsPathElementIDs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, id := range []string{".", "..", "bad\x00id"} {
		_, err := f.engine.CommitDocument(ctx, application.CommitRequest{DocumentID: id, Content: []byte("x"), AuthorID: "alice"})
		assert.ErrorIs(t, err, errors.ErrInvalidArgument, id)

		_, err = f.engine.VerifyDocument(ctx, id)
		assert.ErrorIs(t, err, errors.ErrInvalidArgument, id)
	}

	docs, err := f.documents.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)

	// dots inside an id are ordinary characters
	res := commit(t, f, "../notes..v2.txt", "x")
	assert.Equal(t, int64(1), res.Version.Sequence)
}

func TestCommitDocument_DetectsTampering(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	commit(t, f, "doc", "a\nb")

	// someone edits the file behind the engine's back
	require.NoError(t, f.contents.Write(ctx, "doc", []byte("a\nhacked")))

	res := commit(t, f, "doc", "a\nb\nc")
	require.True(t, res.TamperDetected)
	require.NotNil(t, res.TamperVersion)
	assert.Equal(t, int64(2), res.TamperVersion.Sequence)
	assert.True(t, res.TamperVersion.IsExternal())
	assert.Equal(t, constants.ExternalAuthorID, res.TamperVersion.AuthorID)
	assert.GreaterOrEqual(t, res.TamperVersion.RiskScore, constants.TamperScoreFloor)
	require.NotNil(t, res.TamperStats)
	assert.Equal(t, 1, res.TamperStats.Removed)
	assert.Equal(t, 1, res.TamperStats.Added)

	assert.Equal(t, int64(3), res.Version.Sequence)
	assert.GreaterOrEqual(t, res.Assessment.FinalScore, constants.TamperScoreFloor)
	assert.Equal(t, constants.SeverityHigh, res.Assessment.Severity)
	require.NotNil(t, res.Alert)
	assert.Equal(t, constants.AlertTypeTampering, res.Alert.Type)
	assert.Equal(t, "doc", res.Alert.DocumentID)

	stored, err := f.contents.Read(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc", string(stored))

	// the tampered bytes are kept so the change can be inspected later
	diff, err := f.engine.GetDiff(ctx, res.TamperVersion.ID, res.Version.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, diff.Stats.Unchanged)
}

func TestVerifyDocument(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.engine.VerifyDocument(ctx, "missing")
	assert.True(t, errors.IsNotFoundError(err))

	commit(t, f, "doc", "content")
	clean, err := f.engine.VerifyDocument(ctx, "doc")
	require.NoError(t, err)
	assert.False(t, clean.TamperDetected)

	f.contents.Delete("doc")
	res, err := f.engine.VerifyDocument(ctx, "doc")
	require.NoError(t, err)
	require.True(t, res.TamperDetected)
	assert.Equal(t, "", res.TamperVersion.Digest)
	require.NotNil(t, res.Alert)

	// the removal is now part of the chain, verifying again finds nothing new
	again, err := f.engine.VerifyDocument(ctx, "doc")
	require.NoError(t, err)
	assert.False(t, again.TamperDetected)

	next := commit(t, f, "doc", "restored")
	assert.False(t, next.TamperDetected)
	assert.Equal(t, int64(3), next.Version.Sequence)
	assert.Equal(t, 1, next.DiffStats.Added)
}

func TestCommitDocument_ConcurrentWritersKeepSequenceGapless(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	const writers = 20

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.engine.CommitDocument(ctx, application.CommitRequest{
				DocumentID: "shared",
				Department: "HR",
				Content:    []byte(fmt.Sprintf("revision %d", i)),
				AuthorID:   "writer",
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	versions, err := f.engine.ListVersions(ctx, "shared")
	require.NoError(t, err)
	require.Len(t, versions, writers)
	for i, v := range versions {
		assert.Equal(t, int64(i+1), v.Sequence)
		assert.False(t, v.IsExternal())
	}
}

func TestGetDiff(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	v1 := commit(t, f, "doc", "a\nb").Version
	v2 := commit(t, f, "doc", "a\nc").Version
	other := commit(t, f, "other", "z").Version

	diff, err := f.engine.GetDiff(ctx, v1.ID, v2.ID)
	require.NoError(t, err)
	assert.InDelta(t, 66.7, diff.Stats.ChangePercentage, 1e-9)
	assert.Len(t, diff.Lines, 3)

	same, err := f.engine.GetDiff(ctx, v2.ID, v2.ID)
	require.NoError(t, err)
	assert.Zero(t, same.Stats.ChangePercentage)

	_, err = f.engine.GetDiff(ctx, v1.ID, other.ID)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	_, err = f.engine.GetDiff(ctx, v1.ID, uuid.New())
	assert.True(t, errors.IsNotFoundError(err))
}

func TestListVersions_UnknownDocument(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.ListVersions(context.Background(), "nope")
	assert.True(t, errors.IsNotFoundError(err))
}
