package application

import (
	"context"
	"fmt"

	"github.com/turtacn/dataguard/internal/domain/models"
	"github.com/turtacn/dataguard/internal/domain/repository"
	"github.com/turtacn/dataguard/internal/domain/service"
	"github.com/turtacn/dataguard/pkg/constants"
	"github.com/turtacn/dataguard/pkg/errors"
	"github.com/turtacn/dataguard/pkg/logger"
)

// CommitResult describes what a commit did to the version chain.
type CommitResult struct {
	Version        *models.Version       `json:"version"`
	NoOp           bool                  `json:"no_op"`
	TamperDetected bool                  `json:"tamper_detected"`
	TamperVersion  *models.Version       `json:"tamper_version,omitempty"`
	TamperStats    *models.DiffStats     `json:"tamper_stats,omitempty"`
	DiffStats      *models.DiffStats     `json:"diff_stats,omitempty"`
	HighImpact     bool                  `json:"high_impact"`
	Assessment     models.RiskAssessment `json:"assessment"`
	Alert          *models.Alert         `json:"alert,omitempty"`
}

// VerifyResult describes an integrity check of stored content.
type VerifyResult struct {
	DocumentID     string                `json:"document_id"`
	Latest         *models.Version       `json:"latest"`
	TamperDetected bool                  `json:"tamper_detected"`
	TamperVersion  *models.Version       `json:"tamper_version,omitempty"`
	TamperStats    *models.DiffStats     `json:"tamper_stats,omitempty"`
	Assessment     models.RiskAssessment `json:"assessment"`
	Alert          *models.Alert         `json:"alert,omitempty"`
}

// VersionStore owns the version chains. Every operation on a document runs under that
// document's lock, so sequence numbers stay gapless and the tamper check cannot race a write.
type VersionStore struct {
	versions   repository.VersionRepository
	documents  repository.DocumentRepository
	contents   repository.ContentStore
	blobs      repository.BlobStore
	diff       *service.DiffEngine
	aggregator *service.RiskAggregator
	clock      service.Clock
	metrics    service.Metrics
	locks      *keyedMutex
	highImpact float64
	log        logger.Logger
}

// NewVersionStore creates a VersionStore.
func NewVersionStore(
	versions repository.VersionRepository,
	documents repository.DocumentRepository,
	contents repository.ContentStore,
	blobs repository.BlobStore,
	aggregator *service.RiskAggregator,
	clock service.Clock,
	metrics service.Metrics,
	highImpactChangePct float64,
	log logger.Logger,
) *VersionStore {
	if highImpactChangePct <= 0 {
		highImpactChangePct = constants.DefaultHighImpactChangePct
	}
	return &VersionStore{
		versions:   versions,
		documents:  documents,
		contents:   contents,
		blobs:      blobs,
		diff:       service.NewDiffEngine(),
		aggregator: aggregator,
		clock:      clock,
		metrics:    metrics,
		locks:      newKeyedMutex(),
		highImpact: highImpactChangePct,
		log:        log.WithComponent("VersionStore"),
	}
}

// Commit records content as the next version of documentID.
func (s *VersionStore) Commit(ctx context.Context, documentID, department string, content []byte, authorID string) (*CommitResult, error) {
	if err := models.ValidateDocumentID(documentID); err != nil {
		return nil, err
	}
	digest, err := service.Fingerprint(content)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(documentID)
	defer unlock()

	latest, err := s.latest(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		v := models.NewVersion(documentID, 1, digest, int64(len(content)), authorID, constants.OriginSystemWrite, s.clock.Now())
		if err := s.persist(ctx, v, content, department); err != nil {
			return nil, err
		}
		s.log.Info(ctx, "document created", logger.String("document_id", documentID), logger.String("digest", digest))
		return &CommitResult{Version: v, Assessment: s.aggregator.Assess(models.RiskInput{})}, nil
	}

	result := &CommitResult{}
	check, err := s.checkStored(ctx, latest)
	if err != nil {
		return nil, err
	}
	previous := check.stored
	if check.tampered {
		tv, stats, assessment, err := s.recordTamper(ctx, latest, check, department)
		if err != nil {
			return nil, err
		}
		result.TamperDetected = true
		result.TamperVersion = tv
		result.TamperStats = stats
		result.Assessment = assessment
		s.metrics.RecordTamper("commit")
		latest = tv
	} else if digest == latest.Digest {
		return &CommitResult{Version: latest, NoOp: true, Assessment: s.aggregator.Assess(models.RiskInput{})}, nil
	}

	v := models.NewVersion(documentID, latest.Sequence+1, digest, int64(len(content)), authorID, constants.OriginSystemWrite, s.clock.Now())
	_, stats := s.diff.Diff(previous, content)
	if err := s.persist(ctx, v, content, department); err != nil {
		return nil, err
	}

	result.Version = v
	result.DiffStats = &stats
	result.HighImpact = stats.ChangePercentage >= s.highImpact
	if !result.TamperDetected {
		result.Assessment = s.aggregator.Assess(models.RiskInput{})
	}
	s.log.Info(ctx, "document version committed",
		logger.String("document_id", documentID),
		logger.Int64("sequence", v.Sequence),
		logger.Float64("change_pct", stats.ChangePercentage),
		logger.Bool("tampered", result.TamperDetected),
	)
	return result, nil
}

// Verify re-fingerprints the stored content of documentID against its chain without writing.
// A mismatch is recorded as an external-detected version.
func (s *VersionStore) Verify(ctx context.Context, documentID string) (*VerifyResult, error) {
	if err := models.ValidateDocumentID(documentID); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(documentID)
	defer unlock()

	latest, err := s.latest(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, errors.NotFound("document", documentID)
	}

	result := &VerifyResult{DocumentID: documentID, Latest: latest}
	check, err := s.checkStored(ctx, latest)
	if err != nil {
		return nil, err
	}
	if !check.tampered {
		result.Assessment = s.aggregator.Assess(models.RiskInput{})
		return result, nil
	}

	tv, stats, assessment, err := s.recordTamper(ctx, latest, check, "")
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTamper("scan")
	result.Latest = tv
	result.TamperDetected = true
	result.TamperVersion = tv
	result.TamperStats = stats
	result.Assessment = assessment
	return result, nil
}

// Content returns the snapshot bytes of a version; an external removal has no content.
func (s *VersionStore) Content(ctx context.Context, v *models.Version) ([]byte, error) {
	if v.ContentRef == "" {
		return nil, nil
	}
	b, err := s.blobs.Get(ctx, v.ContentRef)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return nil, err
		}
		return nil, errors.Storage("read version snapshot", err)
	}
	return b, nil
}

func (s *VersionStore) latest(ctx context.Context, documentID string) (*models.Version, error) {
	v, err := s.versions.Latest(ctx, documentID)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, errors.Storage("load latest version", err)
	}
	return v, nil
}

type storedCheck struct {
	stored   []byte
	digest   string // empty when the content is missing or empty
	tampered bool
}

// checkStored compares the content currently in the store with what the chain says it should be.
func (s *VersionStore) checkStored(ctx context.Context, latest *models.Version) (storedCheck, error) {
	stored, err := s.contents.Read(ctx, latest.DocumentID)
	if err != nil && !errors.IsNotFoundError(err) {
		return storedCheck{}, errors.Storage("read stored content", err)
	}
	var check storedCheck
	if len(stored) > 0 {
		check.stored = stored
		// non-empty content always fingerprints
		check.digest, _ = service.Fingerprint(stored)
	}
	check.tampered = check.digest != latest.Digest
	return check, nil
}

// recordTamper appends an external-detected version capturing the altered content.
func (s *VersionStore) recordTamper(ctx context.Context, latest *models.Version, check storedCheck, department string) (*models.Version, *models.DiffStats, models.RiskAssessment, error) {
	previous, err := s.Content(ctx, latest)
	if err != nil && !errors.IsNotFoundError(err) {
		return nil, nil, models.RiskAssessment{}, err
	}
	_, stats := s.diff.Diff(previous, check.stored)

	assessment := s.aggregator.Assess(models.RiskInput{TamperDetected: true})
	tv := models.NewVersion(latest.DocumentID, latest.Sequence+1, check.digest, int64(len(check.stored)),
		constants.ExternalAuthorID, constants.OriginExternalDetected, s.clock.Now())
	tv.ContentRef = check.digest
	tv.RiskScore = assessment.FinalScore
	assessment.Reason = fmt.Sprintf("stored content of %s does not match version %d", latest.DocumentID, latest.Sequence)

	if err := s.persist(ctx, tv, check.stored, department); err != nil {
		return nil, nil, models.RiskAssessment{}, err
	}
	s.log.Warn(ctx, "tampering detected",
		logger.String("document_id", latest.DocumentID),
		logger.String("expected_digest", latest.Digest),
		logger.String("stored_digest", check.digest),
		logger.Float64("change_pct", stats.ChangePercentage),
	)
	return tv, &stats, assessment, nil
}

// persist stores the snapshot, appends the version and advances the document head. System
// writes also write the content through to the document store.
func (s *VersionStore) persist(ctx context.Context, v *models.Version, content []byte, department string) error {
	if len(content) > 0 {
		if err := s.blobs.Put(ctx, v.ContentRef, content); err != nil {
			return errors.Storage("store version snapshot", err)
		}
	}
	if err := s.versions.Append(ctx, v); err != nil {
		if errors.IsConcurrentModification(err) {
			return err
		}
		return errors.Storage("append version", err)
	}
	if v.Origin == constants.OriginSystemWrite {
		if err := s.contents.Write(ctx, v.DocumentID, content); err != nil {
			return errors.Storage("write document content", err)
		}
	}

	doc, err := s.documents.Get(ctx, v.DocumentID)
	if err != nil {
		if !errors.IsNotFoundError(err) {
			return errors.Storage("load document", err)
		}
		doc = models.NewDocument(v.DocumentID, department, v.CreatedAt)
	}
	doc.Advance(v)
	if err := s.documents.Save(ctx, doc); err != nil {
		return errors.Storage("save document", err)
	}
	return nil
}

//Personal.AI order the ending
