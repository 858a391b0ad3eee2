package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insightboard/internal/catalog"
	"insightboard/internal/logging"
	"insightboard/internal/repository"
	"insightboard/pkg/models"
)

// stubValidator returns a canned verdict or error without any network call.
type stubValidator struct {
	verdict *models.Verdict
	err     error

	lastQuestion   string
	lastCapability string
}

func (v *stubValidator) Validate(ctx context.Context, question, capabilityDescription string) (*models.Verdict, error) {
	v.lastQuestion = question
	v.lastCapability = capabilityDescription
	if v.err != nil {
		return nil, v.err
	}
	return v.verdict, nil
}

func testCatalog() *catalog.Catalog {
	return catalog.New([]models.ItemDefinition{
		{ID: "abc", Name: "Cash Balance", SourceHandle: "charts/CashBalanceCard"},
		{ID: "xyz", Name: "Sector Exposure", SourceHandle: "charts/SectorExposureBar"},
	})
}

func newTestEngine(validator ValidatorClient) (*LifecycleService, *repository.MemoryCollectionStore) {
	store := repository.NewMemoryCollectionStore()
	engine := NewLifecycleService(store, testCatalog(), validator, logging.NewLogger())
	return engine, store
}

func loadRecords(t *testing.T, store repository.CollectionStore, name string) []models.Record {
	t.Helper()
	raw, err := store.Load(context.Background(), name)
	require.NoError(t, err)
	records := make([]models.Record, 0, len(raw))
	for _, elem := range raw {
		var rec models.Record
		require.NoError(t, json.Unmarshal(elem, &rec))
		records = append(records, rec)
	}
	return records
}

func seedGenerated(t *testing.T, store repository.CollectionStore, records ...models.Record) {
	t.Helper()
	require.NoError(t, store.Save(context.Background(), repository.CollectionGenerated, records))
}

func TestPromoteToExperimental(t *testing.T) {
	ctx := context.Background()

	t.Run("idempotent", func(t *testing.T) {
		engine, _ := newTestEngine(nil)

		first, err := engine.PromoteToExperimental(ctx, "abc", "")
		require.NoError(t, err)
		require.Len(t, first, 1)

		second, err := engine.PromoteToExperimental(ctx, "abc", "changed question")
		require.NoError(t, err)
		require.Len(t, second, 1)
		assert.Equal(t, "", second[0].Question, "re-promoting an existing id must be a no-op")
	})

	t.Run("carries question and catalog fields", func(t *testing.T) {
		engine, _ := newTestEngine(nil)

		records, err := engine.PromoteToExperimental(ctx, "abc", "what is my cash balance")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "what is my cash balance", records[0].Question)
		assert.Equal(t, "Cash Balance", records[0].Name)
		assert.Equal(t, "charts/CashBalanceCard", records[0].SourceHandle)
	})

	t.Run("prefers the generated record over the catalog", func(t *testing.T) {
		engine, store := newTestEngine(nil)
		seedGenerated(t, store, models.Record{
			ID: "abc", Name: "Cash Balance", SourceHandle: "charts/CashBalanceCard",
			Question: "stored question", Status: models.StatusGenerated,
		})

		records, err := engine.PromoteToExperimental(ctx, "abc", "")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "stored question", records[0].Question)
		assert.Empty(t, records[0].Status, "status is only meaningful in the generated pool")
	})

	t.Run("rejects unresolvable ids", func(t *testing.T) {
		engine, _ := newTestEngine(nil)

		_, err := engine.PromoteToExperimental(ctx, "nope", "")
		assert.ErrorIs(t, err, ErrUnknownItem)

		_, err = engine.PromoteToExperimental(ctx, "  ", "")
		assert.ErrorIs(t, err, ErrMissingID)
	})
}

func TestApprove(t *testing.T) {
	ctx := context.Background()

	t.Run("moves the record out of experimental", func(t *testing.T) {
		engine, store := newTestEngine(nil)
		_, err := engine.PromoteToExperimental(ctx, "abc", "what is my cash balance")
		require.NoError(t, err)

		approved, err := engine.Approve(ctx, "abc", "what is my cash balance")
		require.NoError(t, err)
		require.Len(t, approved, 1)
		assert.Equal(t, "abc", approved[0].ID)

		experimental := loadRecords(t, store, repository.CollectionExperimental)
		assert.Empty(t, experimental, "an approved id must not remain in experimental")
	})

	t.Run("replaces an already approved record in place", func(t *testing.T) {
		engine, _ := newTestEngine(nil)

		_, err := engine.Approve(ctx, "abc", "first question")
		require.NoError(t, err)
		_, err = engine.Approve(ctx, "xyz", "other question")
		require.NoError(t, err)

		approved, err := engine.Approve(ctx, "abc", "second question")
		require.NoError(t, err)
		require.Len(t, approved, 2)
		assert.Equal(t, "abc", approved[0].ID)
		assert.Equal(t, "second question", approved[0].Question)
	})

	t.Run("falls back to the stored question", func(t *testing.T) {
		engine, _ := newTestEngine(nil)
		_, err := engine.PromoteToExperimental(ctx, "abc", "stored question")
		require.NoError(t, err)

		approved, err := engine.Approve(ctx, "abc", "   ")
		require.NoError(t, err)
		require.Len(t, approved, 1)
		assert.Equal(t, "stored question", approved[0].Question)
	})

	t.Run("rejects a blank question with no stored fallback", func(t *testing.T) {
		engine, store := newTestEngine(nil)

		_, err := engine.Approve(ctx, "xyz", "  ")
		assert.ErrorIs(t, err, ErrMissingQuestion)

		for _, name := range []string{
			repository.CollectionGenerated,
			repository.CollectionValid,
			repository.CollectionInvalid,
			repository.CollectionExperimental,
			repository.CollectionApproved,
		} {
			assert.Empty(t, loadRecords(t, store, name), "collection %s must be unchanged", name)
		}
	})

	t.Run("rejects unknown items and missing ids", func(t *testing.T) {
		engine, _ := newTestEngine(nil)

		_, err := engine.Approve(ctx, "nope", "a question")
		assert.ErrorIs(t, err, ErrUnknownItem)

		_, err = engine.Approve(ctx, "", "a question")
		assert.ErrorIs(t, err, ErrMissingID)
	})
}

func TestUnapprove(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(nil)

	_, err := engine.Approve(ctx, "abc", "a question")
	require.NoError(t, err)

	approved, err := engine.Unapprove(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, approved)

	// Withdrawn, not reinstated.
	assert.Empty(t, loadRecords(t, store, repository.CollectionExperimental))

	// Unapproving an absent id is a no-op.
	approved, err = engine.Unapprove(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, approved)
}

func TestIgnore(t *testing.T) {
	ctx := context.Background()

	t.Run("removes from experimental without creating anything", func(t *testing.T) {
		engine, store := newTestEngine(nil)
		_, err := engine.PromoteToExperimental(ctx, "abc", "")
		require.NoError(t, err)

		collection, records, err := engine.Ignore(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, repository.CollectionExperimental, collection)
		assert.Empty(t, records)

		for _, name := range []string{
			repository.CollectionGenerated,
			repository.CollectionValid,
			repository.CollectionInvalid,
			repository.CollectionApproved,
		} {
			assert.Empty(t, loadRecords(t, store, name), "ignore must not touch %s", name)
		}
	})

	t.Run("falls back to the generated pool", func(t *testing.T) {
		engine, store := newTestEngine(nil)
		seedGenerated(t, store, models.Record{ID: "abc", Name: "Cash Balance", SourceHandle: "charts/CashBalanceCard"})

		collection, records, err := engine.Ignore(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, repository.CollectionGenerated, collection)
		assert.Empty(t, records)
	})

	t.Run("unknown id", func(t *testing.T) {
		engine, _ := newTestEngine(nil)
		_, _, err := engine.Ignore(ctx, "abc")
		assert.ErrorIs(t, err, ErrUnknownItem)
	})
}

func TestValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid verdict partitions into the valid log", func(t *testing.T) {
		validator := &stubValidator{verdict: &models.Verdict{
			Status:               models.VerdictValid,
			Notes:                "ok",
			RequiredCapabilities: []string{"trading:/v2/account"},
		}}
		engine, store := newTestEngine(validator)
		seedGenerated(t, store, models.Record{
			ID: "abc", Name: "Cash Balance", SourceHandle: "charts/CashBalanceCard",
			Question: "what is my cash balance",
		})

		result, err := engine.Validate(ctx, "abc", "what is my cash balance")
		require.NoError(t, err)
		assert.Equal(t, models.VerdictValid, result.Status)

		valid := loadRecords(t, store, repository.CollectionValid)
		require.Len(t, valid, 1)
		assert.Equal(t, "what is my cash balance", valid[0].Question)
		assert.Equal(t, models.StatusValid, valid[0].Status)
		assert.Equal(t, "ok", valid[0].Notes)
		assert.Equal(t, []string{"trading:/v2/account"}, valid[0].RequiredCapabilities)
		assert.NotEmpty(t, valid[0].ValidationID)

		assert.Empty(t, loadRecords(t, store, repository.CollectionGenerated))
		assert.Empty(t, loadRecords(t, store, repository.CollectionInvalid))

		assert.Equal(t, "what is my cash balance", validator.lastQuestion)
		assert.Contains(t, validator.lastCapability, "upstream APIs")
	})

	t.Run("needs-refinement lands in the valid log with the refined question", func(t *testing.T) {
		validator := &stubValidator{verdict: &models.Verdict{
			Status:            models.VerdictNeedsRefinement,
			ValidatedQuestion: "what is my settled cash balance",
			Notes:             "ambiguous settlement window",
		}}
		engine, store := newTestEngine(validator)
		seedGenerated(t, store, models.Record{
			ID: "abc", Name: "Cash Balance", SourceHandle: "charts/CashBalanceCard",
			Question: "what is my cash balance",
		})

		result, err := engine.Validate(ctx, "abc", "what is my cash balance")
		require.NoError(t, err)
		assert.Equal(t, models.VerdictNeedsRefinement, result.Status)

		valid := loadRecords(t, store, repository.CollectionValid)
		require.Len(t, valid, 1)
		assert.Equal(t, "what is my settled cash balance", valid[0].Question)
		assert.Equal(t, models.StatusNeedsRefinement, valid[0].Status)
		assert.Empty(t, loadRecords(t, store, repository.CollectionInvalid))
	})

	t.Run("invalid verdict partitions into the invalid log", func(t *testing.T) {
		validator := &stubValidator{verdict: &models.Verdict{
			Status:                models.VerdictInvalid,
			RejectionReason:       "no intraday options data upstream",
			MissingData:           []string{"options chains"},
			SuggestedAlternatives: []string{"what is my cash balance"},
		}}
		engine, store := newTestEngine(validator)
		seedGenerated(t, store, models.Record{
			ID: "abc", Name: "Cash Balance", SourceHandle: "charts/CashBalanceCard",
			Question: "what are my option greeks",
		})

		result, err := engine.Validate(ctx, "abc", "what are my option greeks")
		require.NoError(t, err)
		assert.Equal(t, models.VerdictInvalid, result.Status)

		invalid := loadRecords(t, store, repository.CollectionInvalid)
		require.Len(t, invalid, 1)
		assert.Equal(t, "no intraday options data upstream", invalid[0].RejectionReason)
		assert.Equal(t, models.StatusInvalid, invalid[0].Status)

		assert.Empty(t, loadRecords(t, store, repository.CollectionGenerated))
		assert.Empty(t, loadRecords(t, store, repository.CollectionValid))
	})

	t.Run("collaborator failure persists nothing", func(t *testing.T) {
		validator := &stubValidator{err: errors.New("connection refused")}
		engine, store := newTestEngine(validator)
		seedGenerated(t, store, models.Record{
			ID: "abc", Name: "Cash Balance", SourceHandle: "charts/CashBalanceCard",
			Question: "what is my cash balance",
		})

		_, err := engine.Validate(ctx, "abc", "what is my cash balance")
		require.Error(t, err)

		generated := loadRecords(t, store, repository.CollectionGenerated)
		require.Len(t, generated, 1, "the record stays generated and retry-eligible")
		assert.Empty(t, generated[0].Status)
		assert.Empty(t, loadRecords(t, store, repository.CollectionValid))
		assert.Empty(t, loadRecords(t, store, repository.CollectionInvalid))
	})

	t.Run("input errors", func(t *testing.T) {
		engine, store := newTestEngine(&stubValidator{})
		seedGenerated(t, store, models.Record{
			ID: "abc", Name: "Cash Balance", SourceHandle: "charts/CashBalanceCard",
		})

		_, err := engine.Validate(ctx, "", "q")
		assert.ErrorIs(t, err, ErrMissingID)

		_, err = engine.Validate(ctx, "missing", "q")
		assert.ErrorIs(t, err, ErrUnknownItem)

		_, err = engine.Validate(ctx, "abc", "   ")
		assert.ErrorIs(t, err, ErrMissingQuestion)
	})
}

func TestListNormalizesLegacyShapes(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(nil)

	store.SetRaw(repository.CollectionGenerated, []json.RawMessage{
		json.RawMessage(`"abc"`),
		json.RawMessage(`{"id": "xyz", "question": "how concentrated am I"}`),
		json.RawMessage(`"dropped-unknown-id"`),
	})

	records, err := engine.ListGenerated(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Cash Balance", records[0].Name)
	assert.Equal(t, "", records[0].Question)
	assert.Equal(t, "Sector Exposure", records[1].Name)
	assert.Equal(t, "how concentrated am I", records[1].Question)

	// Normalization on read never writes back.
	raw, err := store.Load(ctx, repository.CollectionGenerated)
	require.NoError(t, err)
	assert.Len(t, raw, 3)
}
