package service

import (
	"time"

	"github.com/turtacn/dataguard/internal/domain/models"
	"github.com/turtacn/dataguard/pkg/constants"
)

// FeatureDimensions is the fixed width of every feature vector.
const FeatureDimensions = 11

// Feature positions.
const (
	FeatureTimeOfDay = iota
	FeatureDayOfWeek
	FeatureActionRead
	FeatureActionUpload
	FeatureActionDownload
	FeatureActionDelete
	FeatureActionCrossDepartment
	FeatureDepartment
	FeatureDepartmentMismatch
	FeatureDenied
	FeatureRate
)

// FeatureVector is the numeric encoding of one access event.
type FeatureVector []float64

// FeatureExtractorConfig parameterizes the encoding.
type FeatureExtractorConfig struct {
	Location     *time.Location
	Departments  []string
	RateWindow   time.Duration
	MaxRateRatio float64
}

// FeatureExtractor encodes access events against the acting user's history.
type FeatureExtractor struct {
	loc          *time.Location
	departments  map[string]int
	deptCount    int
	rateWindow   time.Duration
	maxRateRatio float64
}

// NewFeatureExtractor creates a FeatureExtractor. Zero config values fall back to defaults.
func NewFeatureExtractor(cfg FeatureExtractorConfig) *FeatureExtractor {
	f := &FeatureExtractor{
		loc:          cfg.Location,
		departments:  make(map[string]int, len(cfg.Departments)),
		deptCount:    len(cfg.Departments),
		rateWindow:   cfg.RateWindow,
		maxRateRatio: cfg.MaxRateRatio,
	}
	if f.loc == nil {
		f.loc = time.UTC
	}
	if f.rateWindow <= 0 {
		f.rateWindow = constants.DefaultRateWindow
	}
	if f.maxRateRatio <= 0 {
		f.maxRateRatio = constants.DefaultMaxRateRatio
	}
	for i, d := range cfg.Departments {
		f.departments[d] = i
	}
	return f
}

// Extract encodes event. history holds the user's earlier events; entries of other users,
// entries after the event and the event itself are ignored, so the caller may pass a superset.
func (f *FeatureExtractor) Extract(event *models.AccessEvent, history []*models.AccessEvent) FeatureVector {
	v := make(FeatureVector, FeatureDimensions)

	local := event.Timestamp.In(f.loc)
	v[FeatureTimeOfDay] = (float64(local.Hour()) + float64(local.Minute())/60) / 24
	// Monday is day 0.
	v[FeatureDayOfWeek] = float64((int(local.Weekday())+6)%7) / 6

	for i, a := range constants.AccessActions {
		if event.Action == a {
			v[FeatureActionRead+i] = 1
		}
	}

	v[FeatureDepartment] = f.departmentCode(event.Department)
	if event.DepartmentMismatch() {
		v[FeatureDepartmentMismatch] = 1
	}
	if event.IsDenied() {
		v[FeatureDenied] = 1
	}
	v[FeatureRate] = f.rate(event, history)
	return v
}

func (f *FeatureExtractor) departmentCode(department string) float64 {
	idx, ok := f.departments[department]
	if !ok || f.deptCount == 0 {
		return 1
	}
	return float64(idx) / float64(f.deptCount)
}

// rate compares the user's activity in the trailing window with their average per window.
func (f *FeatureExtractor) rate(event *models.AccessEvent, history []*models.AccessEvent) float64 {
	var (
		total  int
		recent int
		first  time.Time
	)
	windowStart := event.Timestamp.Add(-f.rateWindow)
	for _, h := range history {
		if h.UserID != event.UserID || h.ID == event.ID || h.Timestamp.After(event.Timestamp) {
			continue
		}
		total++
		if first.IsZero() || h.Timestamp.Before(first) {
			first = h.Timestamp
		}
		if h.Timestamp.After(windowStart) {
			recent++
		}
	}
	if total == 0 {
		return 0
	}

	windows := float64(event.Timestamp.Sub(first)) / float64(f.rateWindow)
	if windows < 1 {
		windows = 1
	}
	avg := float64(total) / windows
	ratio := float64(recent) / avg
	if ratio > f.maxRateRatio {
		ratio = f.maxRateRatio
	}
	return ratio
}

//Personal.AI order the ending
