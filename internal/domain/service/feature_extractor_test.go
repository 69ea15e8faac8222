package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/dataguard/internal/domain/models"
	"github.com/turtacn/dataguard/internal/domain/service"
	"github.com/turtacn/dataguard/pkg/constants"
)

func newExtractor() *service.FeatureExtractor {
	return service.NewFeatureExtractor(service.FeatureExtractorConfig{
		Location:     time.UTC,
		Departments:  []string{"HR", "Finance", "Legal", "IT"},
		RateWindow:   30 * time.Minute,
		MaxRateRatio: 10,
	})
}

func TestFeatureExtractor_FirstEvent(t *testing.T) {
	// Wednesday 18:30 UTC
	at := time.Date(2024, 3, 6, 18, 30, 0, 0, time.UTC)
	e := models.NewAccessEvent("u1", "Finance", constants.ActionDownload, constants.OutcomeAllowed, at)

	v := newExtractor().Extract(e, nil)

	require.Len(t, v, service.FeatureDimensions)
	assert.InDelta(t, 18.5/24, v[service.FeatureTimeOfDay], 1e-9)
	assert.InDelta(t, 2.0/6, v[service.FeatureDayOfWeek], 1e-9)
	assert.Equal(t, 1.0, v[service.FeatureActionDownload])
	assert.Zero(t, v[service.FeatureActionRead])
	assert.Equal(t, 0.25, v[service.FeatureDepartment])
	assert.Zero(t, v[service.FeatureDepartmentMismatch])
	assert.Zero(t, v[service.FeatureDenied])
	assert.Zero(t, v[service.FeatureRate], "no history means a neutral rate")
}

func TestFeatureExtractor_FlagsAndUnknownDepartment(t *testing.T) {
	at := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC) // Monday
	e := models.NewAccessEvent("u1", "Marketing", constants.ActionCrossDepartmentAttempt, constants.OutcomeDenied, at).
		WithDocument("doc-1", "HR")

	v := newExtractor().Extract(e, nil)

	assert.Zero(t, v[service.FeatureDayOfWeek])
	assert.Equal(t, 1.0, v[service.FeatureActionCrossDepartment])
	assert.Equal(t, 1.0, v[service.FeatureDepartment])
	assert.Equal(t, 1.0, v[service.FeatureDepartmentMismatch])
	assert.Equal(t, 1.0, v[service.FeatureDenied])
}

func TestFeatureExtractor_Timezone(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	f := service.NewFeatureExtractor(service.FeatureExtractorConfig{Location: loc})
	at := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	v := f.Extract(models.NewAccessEvent("u1", "HR", constants.ActionRead, constants.OutcomeAllowed, at), nil)
	assert.InDelta(t, 5.5/24, v[service.FeatureTimeOfDay], 1e-9)
}

func TestFeatureExtractor_Rate(t *testing.T) {
	now := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	var history []*models.AccessEvent
	// one event per hour over the previous ten hours
	for i := 10; i >= 1; i-- {
		history = append(history, models.NewAccessEvent("u1", "HR", constants.ActionRead, constants.OutcomeAllowed, now.Add(-time.Duration(i)*time.Hour)))
	}
	// another user's burst is ignored
	for i := 0; i < 20; i++ {
		history = append(history, models.NewAccessEvent("u2", "HR", constants.ActionRead, constants.OutcomeAllowed, now.Add(-time.Minute)))
	}

	e := models.NewAccessEvent("u1", "HR", constants.ActionRead, constants.OutcomeAllowed, now)
	quiet := newExtractor().Extract(e, history)
	assert.Zero(t, quiet[service.FeatureRate], "nothing in the trailing window")

	// a burst of five in the trailing window against an average of 0.5 per window
	for i := 1; i <= 5; i++ {
		history = append(history, models.NewAccessEvent("u1", "HR", constants.ActionRead, constants.OutcomeAllowed, now.Add(-time.Duration(i)*time.Minute)))
	}
	busy := newExtractor().Extract(e, history)
	assert.Greater(t, busy[service.FeatureRate], 1.0)
	assert.LessOrEqual(t, busy[service.FeatureRate], 10.0)
}

func TestFeatureExtractor_RateCapped(t *testing.T) {
	now := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	history := []*models.AccessEvent{
		models.NewAccessEvent("u1", "HR", constants.ActionRead, constants.OutcomeAllowed, now.Add(-100*24*time.Hour)),
	}
	for i := 1; i <= 50; i++ {
		history = append(history, models.NewAccessEvent("u1", "HR", constants.ActionRead, constants.OutcomeAllowed, now.Add(-time.Duration(i)*time.Second)))
	}
	e := models.NewAccessEvent("u1", "HR", constants.ActionRead, constants.OutcomeAllowed, now)

	v := newExtractor().Extract(e, history)
	assert.Equal(t, 10.0, v[service.FeatureRate])
}

func TestFeatureExtractor_OwnHistoryMatchesMixedHistory(t *testing.T) {
	start := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	var mixed []*models.AccessEvent
	for i := 0; i < 30; i++ {
		user := []string{"u1", "u2", "u3"}[i%3]
		mixed = append(mixed, models.NewAccessEvent(user, "HR", constants.ActionRead, constants.OutcomeAllowed,
			start.Add(time.Duration(i)*7*time.Minute)))
	}

	x := newExtractor()
	own := make(map[string][]*models.AccessEvent)
	for i, e := range mixed {
		assert.Equal(t, x.Extract(e, mixed[:i]), x.Extract(e, own[e.UserID]), "event %d", i)
		own[e.UserID] = append(own[e.UserID], e)
	}
}
