package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"insightboard/internal/catalog"
	"insightboard/internal/normalize"
	"insightboard/internal/repository"
	"insightboard/pkg/models"
)

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// LifecycleService is the state machine over the five lifecycle collections.
// Moves between collections are two sequential writes (destination first,
// then source removal) with no transaction; every transition upserts by id,
// so retrying the same transition after a partial failure converges.
type LifecycleService struct {
	store       repository.CollectionStore
	catalog     *catalog.Catalog
	validator   ValidatorClient
	logger      Logger
	transitions metric.Int64Counter
}

// NewLifecycleService creates a new LifecycleService.
func NewLifecycleService(store repository.CollectionStore, cat *catalog.Catalog, validator ValidatorClient, logger Logger) *LifecycleService {
	s := &LifecycleService{
		store:     store,
		catalog:   cat,
		validator: validator,
		logger:    logger,
	}

	meter := otel.Meter("insightboard/lifecycle")
	counter, err := meter.Int64Counter("lifecycle.transitions",
		metric.WithDescription("Completed lifecycle transitions by name."))
	if err != nil {
		logger.Error("failed to create transition counter: %v", err)
	} else {
		s.transitions = counter
	}
	return s
}

func (s *LifecycleService) count(ctx context.Context, transition string) {
	if s.transitions == nil {
		return
	}
	s.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("transition", transition)))
}

// loadNormalized reads a collection and upgrades legacy shapes in memory.
// Nothing is written back until a mutation persists the collection.
func (s *LifecycleService) loadNormalized(ctx context.Context, name string) ([]models.Record, error) {
	raw, err := s.store.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return normalize.Records(raw, s.catalog), nil
}

// ListGenerated returns the normalized generated pool.
func (s *LifecycleService) ListGenerated(ctx context.Context) ([]models.Record, error) {
	return s.loadNormalized(ctx, repository.CollectionGenerated)
}

// ListExperimental returns the normalized experimental pool.
func (s *LifecycleService) ListExperimental(ctx context.Context) ([]models.Record, error) {
	return s.loadNormalized(ctx, repository.CollectionExperimental)
}

// ListApproved returns the normalized approved collection.
func (s *LifecycleService) ListApproved(ctx context.Context) ([]models.Record, error) {
	return s.loadNormalized(ctx, repository.CollectionApproved)
}

// resolveSource finds the record in the named collection, falling back to a
// minimal catalog-backed record when the collection does not hold the id.
func (s *LifecycleService) resolveSource(ctx context.Context, name, id string) (models.Record, error) {
	records, err := s.loadNormalized(ctx, name)
	if err != nil {
		return models.Record{}, err
	}
	if rec, found := normalize.Find(records, id); found {
		return rec, nil
	}
	rec, ok := normalize.Fold(models.Record{ID: id}, s.catalog)
	if !ok {
		return models.Record{}, ErrUnknownItem
	}
	return rec, nil
}

// PromoteToExperimental appends the item to the experimental pool. Invoking
// it with an id already present is a no-op, so the pool never holds
// duplicates. The id must resolve via the catalog or an existing generated
// record.
func (s *LifecycleService) PromoteToExperimental(ctx context.Context, id, question string) ([]models.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrMissingID
	}

	experimental, err := s.loadNormalized(ctx, repository.CollectionExperimental)
	if err != nil {
		return nil, err
	}
	if _, present := normalize.Find(experimental, id); present {
		return experimental, nil
	}

	rec, err := s.resolveSource(ctx, repository.CollectionGenerated, id)
	if err != nil {
		return nil, err
	}
	if q := strings.TrimSpace(question); q != "" {
		rec.Question = q
	}
	rec.Status = ""

	experimental = append(experimental, rec)
	if err := s.store.Save(ctx, repository.CollectionExperimental, experimental); err != nil {
		return nil, err
	}

	s.count(ctx, "promote-to-experimental")
	return experimental, nil
}

// Approve upserts the item into the approved collection and removes it from
// the experimental pool. The question argument wins; an empty one falls back
// to the question already stored on the source record.
func (s *LifecycleService) Approve(ctx context.Context, id, question string) ([]models.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrMissingID
	}

	experimental, err := s.loadNormalized(ctx, repository.CollectionExperimental)
	if err != nil {
		return nil, err
	}
	src, inExperimental := normalize.Find(experimental, id)
	if !inExperimental {
		var ok bool
		src, ok = normalize.Fold(models.Record{ID: id}, s.catalog)
		if !ok {
			return nil, ErrUnknownItem
		}
	}

	q := strings.TrimSpace(question)
	if q == "" {
		q = strings.TrimSpace(src.Question)
	}
	if q == "" {
		return nil, ErrMissingQuestion
	}

	rec := src
	rec.Question = q
	rec.Status = ""

	approved, err := s.loadNormalized(ctx, repository.CollectionApproved)
	if err != nil {
		return nil, err
	}
	approved = normalize.Upsert(approved, rec)
	if err := s.store.Save(ctx, repository.CollectionApproved, approved); err != nil {
		return nil, err
	}

	// Second write is best-effort: on failure the id transiently exists in
	// both collections and re-issuing the approve converges.
	if inExperimental {
		experimental, _ = normalize.Remove(experimental, id)
		if err := s.store.Save(ctx, repository.CollectionExperimental, experimental); err != nil {
			s.logger.Error("approve %s: persisted approved but failed to persist experimental: %v", id, err)
		}
	}

	s.count(ctx, "approve")
	return approved, nil
}

// Unapprove removes the item from the approved collection. The record is
// withdrawn, not reinstated into experimental; re-surfacing it is up to the
// upstream discovery process.
func (s *LifecycleService) Unapprove(ctx context.Context, id string) ([]models.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrMissingID
	}

	approved, err := s.loadNormalized(ctx, repository.CollectionApproved)
	if err != nil {
		return nil, err
	}
	approved, found := normalize.Remove(approved, id)
	if !found {
		return approved, nil
	}
	if err := s.store.Save(ctx, repository.CollectionApproved, approved); err != nil {
		return nil, err
	}

	s.count(ctx, "unapprove")
	return approved, nil
}

// Ignore removes the item from the experimental pool, or failing that from
// the generated pool, without creating any destination record. It returns
// the name of the collection it touched along with its fresh contents.
func (s *LifecycleService) Ignore(ctx context.Context, id string) (string, []models.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", nil, ErrMissingID
	}

	for _, name := range []string{repository.CollectionExperimental, repository.CollectionGenerated} {
		records, err := s.loadNormalized(ctx, name)
		if err != nil {
			return "", nil, err
		}
		records, found := normalize.Remove(records, id)
		if !found {
			continue
		}
		if err := s.store.Save(ctx, name, records); err != nil {
			return "", nil, err
		}
		s.count(ctx, "ignore")
		return name, records, nil
	}
	return "", nil, ErrUnknownItem
}

// Validate runs the candidate question past the validation service and files
// the outcome: VALID and NEEDS_REFINEMENT verdicts land in the valid log,
// INVALID verdicts in the invalid log, and in either case the record leaves
// the generated pool. A collaborator failure persists nothing; the record
// stays generated and the transition can be retried.
func (s *LifecycleService) Validate(ctx context.Context, id, question string) (*models.ValidationResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrMissingID
	}

	generated, err := s.loadNormalized(ctx, repository.CollectionGenerated)
	if err != nil {
		return nil, err
	}
	src, found := normalize.Find(generated, id)
	if !found {
		return nil, ErrUnknownItem
	}

	q := strings.TrimSpace(question)
	if q == "" {
		q = strings.TrimSpace(src.Question)
	}
	if q == "" {
		return nil, ErrMissingQuestion
	}

	// Transient state, never persisted between requests.
	src.Status = models.StatusValidating

	verdict, err := s.validator.Validate(ctx, q, s.catalog.CapabilityDescription())
	if err != nil {
		return nil, fmt.Errorf("validation of %s failed: %w", id, err)
	}

	rec := src
	rec.ValidationID = uuid.New().String()

	var target string
	switch verdict.Status {
	case models.VerdictValid, models.VerdictNeedsRefinement:
		rec.Question = q
		if verdict.ValidatedQuestion != "" {
			rec.Question = verdict.ValidatedQuestion
		}
		if verdict.Status == models.VerdictValid {
			rec.Status = models.StatusValid
		} else {
			rec.Status = models.StatusNeedsRefinement
		}
		rec.Notes = verdict.Notes
		if len(verdict.RequiredCapabilities) > 0 {
			rec.RequiredCapabilities = verdict.RequiredCapabilities
		}
		rec.DataRequirements = verdict.DataRequirements
		target = repository.CollectionValid
	case models.VerdictInvalid:
		rec.Question = q
		rec.Status = models.StatusInvalid
		rec.RejectionReason = verdict.RejectionReason
		rec.MissingData = verdict.MissingData
		rec.SuggestedAlternatives = verdict.SuggestedAlternatives
		target = repository.CollectionInvalid
	default:
		return nil, fmt.Errorf("validation of %s failed: unexpected verdict status %q", id, verdict.Status)
	}

	outcomes, err := s.loadNormalized(ctx, target)
	if err != nil {
		return nil, err
	}
	outcomes = normalize.Upsert(outcomes, rec)
	if err := s.store.Save(ctx, target, outcomes); err != nil {
		return nil, err
	}

	generated, _ = normalize.Remove(generated, id)
	if err := s.store.Save(ctx, repository.CollectionGenerated, generated); err != nil {
		s.logger.Error("validate %s: persisted %s log but failed to persist generated: %v", id, target, err)
	}

	s.count(ctx, "validate")
	return &models.ValidationResult{Status: verdict.Status, Record: rec}, nil
}
