package resolution

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/sorrel/pkg/matching"
	"github.com/Ramsey-B/sorrel/pkg/models"
	"github.com/Ramsey-B/sorrel/pkg/normalizers"
	"github.com/Ramsey-B/sorrel/pkg/settings"
)

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func testSettings() settings.Match {
	return settings.Match{
		AutoThreshold:      0.90,
		ReviewThreshold:    0.70,
		WeakThreshold:      0.80,
		WeightOfficial:     1.0,
		WeightAltConfirmed: 0.95,
		WeightAltLearning:  0.75,
		WeightFuzzy:        0.80,
		ConflictDelta:      0.10,
		CandidatesLimit:    20,
		BankFuzzyThreshold: 0.95,
	}
}

func testEntity(id string, family models.Family, name string) models.CanonicalEntity {
	return models.CanonicalEntity{
		ID:             id,
		Family:         family,
		OfficialName:   name,
		NormalizedName: normalizers.OrgName(name),
		CompactName:    normalizers.CompactKey(name),
		Confirmed:      true,
	}
}

type fakeCatalog struct {
	entities  map[models.Family][]models.CanonicalEntity
	aliases   map[models.Family][]models.AlternativeName
	overrides map[models.Family][]models.NameOverride
}

func (f *fakeCatalog) ListEntities(_ context.Context, family models.Family) ([]models.CanonicalEntity, error) {
	return f.entities[family], nil
}

func (f *fakeCatalog) ListAliases(_ context.Context, family models.Family) ([]models.AlternativeName, error) {
	return f.aliases[family], nil
}

func (f *fakeCatalog) ListOverrides(_ context.Context, family models.Family) ([]models.NameOverride, error) {
	return f.overrides[family], nil
}

type fakeSuggestionCache struct {
	suggestions map[models.Family][]models.CachedSuggestion
}

func (f *fakeSuggestionCache) Get(_ context.Context, family models.Family, _ string) ([]models.CachedSuggestion, error) {
	return f.suggestions[family], nil
}

func (f *fakeSuggestionCache) Upsert(_ context.Context, _ models.Family, _, _, _ string, delta float64) (float64, error) {
	return delta, nil
}

type fakeBlockStore struct{}

func (f *fakeBlockStore) BlockedEntityIDs(_ context.Context, _ models.Family, _ string) (map[string]struct{}, error) {
	return nil, nil
}

func (f *fakeBlockStore) Increment(_ context.Context, _ models.Family, _, _ string) error {
	return nil
}

type fakeRecordStore struct {
	pending   []models.ImportRecord
	updated   []models.ImportRecord
	updateErr error
}

func (f *fakeRecordStore) ListPending(_ context.Context, _ string) ([]models.ImportRecord, error) {
	return f.pending, nil
}

func (f *fakeRecordStore) Update(_ context.Context, record models.ImportRecord) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, record)
	return nil
}

type fakeEntityWriter struct {
	created []models.CanonicalEntity
}

func (f *fakeEntityWriter) Create(_ context.Context, entity *models.CanonicalEntity) error {
	f.created = append(f.created, *entity)
	return nil
}

type auditEvent struct {
	entityID string
	change   string
	actor    string
}

type fakeAudit struct {
	events []auditEvent
}

func (f *fakeAudit) Record(_ context.Context, entityID, change, actor, _ string) error {
	f.events = append(f.events, auditEvent{entityID: entityID, change: change, actor: actor})
	return nil
}

type fixture struct {
	orch     *Orchestrator
	records  *fakeRecordStore
	entities *fakeEntityWriter
	audit    *fakeAudit
}

func newFixture(cfg settings.Match, catalog *fakeCatalog, cache *fakeSuggestionCache) *fixture {
	if cache == nil {
		cache = &fakeSuggestionCache{}
	}
	logger := noopLogger()
	store := settings.NewStore(cfg)
	blocks := &fakeBlockStore{}

	f := &fixture{
		records:  &fakeRecordStore{},
		entities: &fakeEntityWriter{},
		audit:    &fakeAudit{},
	}
	f.orch = NewOrchestrator(
		logger,
		store,
		catalog,
		matching.NewFastMatcher(logger, store, cache, blocks),
		matching.NewGenerator(logger, store, cache, blocks),
		matching.NewDetector(store),
		f.records,
		f.entities,
		f.audit,
	)
	return f
}

// standardCatalog has one exact-matchable supplier and one bank reachable
// through an administrator override.
func standardCatalog() *fakeCatalog {
	return &fakeCatalog{
		entities: map[models.Family][]models.CanonicalEntity{
			models.FamilySupplier: {testEntity("sup-1", models.FamilySupplier, "Acme Corp")},
			models.FamilyBank:     {testEntity("bank-7", models.FamilyBank, "Saudi National Bank")},
		},
		overrides: map[models.Family][]models.NameOverride{
			models.FamilyBank: {
				{ID: "o1", Family: models.FamilyBank, RawName: "SNB", NormalizedName: "snb", EntityID: "bank-7"},
			},
		},
	}
}

func record(id, supplierRaw, bankRaw string) models.ImportRecord {
	return models.ImportRecord{
		ID:              id,
		BatchID:         "batch-1",
		SupplierNameRaw: supplierRaw,
		BankNameRaw:     bankRaw,
		Status:          models.ImportRecordStatusPending,
	}
}

func TestOrchestrator_CommitsConfidentRecord(t *testing.T) {
	f := newFixture(testSettings(), standardCatalog(), nil)
	f.records.pending = []models.ImportRecord{record("r1", "Acme Corp", "SNB")}

	result, err := f.orch.Run(context.Background(), "batch-1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Decided)
	assert.Zero(t, result.NeedsReview)
	assert.Zero(t, result.Failed)

	require.Len(t, f.records.updated, 1)
	updated := f.records.updated[0]
	assert.Equal(t, models.ImportRecordStatusDecided, updated.Status)
	require.NotNil(t, updated.SupplierID)
	assert.Equal(t, "sup-1", *updated.SupplierID)
	require.NotNil(t, updated.BankID)
	assert.Equal(t, "bank-7", *updated.BankID)
	require.NotNil(t, updated.DecidedBy)
	assert.Equal(t, "auto-resolver", *updated.DecidedBy)

	require.Len(t, f.audit.events, 2)
	assert.Equal(t, "sup-1", f.audit.events[0].entityID)
	assert.Equal(t, "bank-7", f.audit.events[1].entityID)
	assert.Equal(t, "auto-resolver", f.audit.events[0].actor)
}

func TestOrchestrator_FuzzyBankNeedsReview(t *testing.T) {
	// a similarity-only bank hit, even above every threshold, never
	// authorizes automation; the bank side must resolve deterministically
	catalog := standardCatalog()
	catalog.entities[models.FamilyBank] = []models.CanonicalEntity{
		testEntity("bank-7", models.FamilyBank, "abcdefghijklmnopqrst"),
	}
	catalog.overrides = nil
	f := newFixture(testSettings(), catalog, nil)
	// edit distance 1 over 20 runes: 0.95
	f.records.pending = []models.ImportRecord{record("r1", "Acme Corp", "abcdefghijklmnopqrsx")}

	result, err := f.orch.Run(context.Background(), "batch-1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.NeedsReview)
	assert.Zero(t, result.Decided)

	require.Len(t, f.records.updated, 1)
	assert.Equal(t, models.ImportRecordStatusNeedsReview, f.records.updated[0].Status)
	assert.Nil(t, f.records.updated[0].SupplierID)
}

func TestOrchestrator_LearnedSupplierNeedsReview(t *testing.T) {
	// a cached learned suggestion can clear the auto threshold but must
	// never commit a record on its own
	catalog := standardCatalog()
	catalog.entities[models.FamilySupplier] = nil
	cache := &fakeSuggestionCache{suggestions: map[models.Family][]models.CachedSuggestion{
		models.FamilySupplier: {{EntityID: "sup-9", Name: "Acme Corp", Score: 10}},
	}}
	f := newFixture(testSettings(), catalog, cache)
	f.records.pending = []models.ImportRecord{record("r1", "Acme Corp", "SNB")}

	result, err := f.orch.Run(context.Background(), "batch-1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.NeedsReview)
	assert.Zero(t, result.Decided)
}

func TestOrchestrator_AmbiguityBlocksCommit(t *testing.T) {
	// the supplier input hits one entity exactly and a second through an
	// override at the same weighted score: too close to call
	catalog := standardCatalog()
	catalog.entities[models.FamilySupplier] = []models.CanonicalEntity{
		testEntity("sup-1", models.FamilySupplier, "Alpha"),
		testEntity("sup-2", models.FamilySupplier, "Alpha Holdings International"),
	}
	catalog.overrides[models.FamilySupplier] = []models.NameOverride{
		{ID: "o2", Family: models.FamilySupplier, RawName: "Alpha", NormalizedName: "alpha", EntityID: "sup-2"},
	}
	f := newFixture(testSettings(), catalog, nil)
	f.records.pending = []models.ImportRecord{record("r1", "Alpha", "SNB")}

	result, err := f.orch.Run(context.Background(), "batch-1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.NeedsReview)
	assert.Zero(t, result.Decided)
	assert.Empty(t, f.audit.events)
}

func TestOrchestrator_AutoCreatesSupplier(t *testing.T) {
	cfg := testSettings()
	cfg.AutoCreateSuppliers = true
	f := newFixture(cfg, standardCatalog(), nil)
	f.records.pending = []models.ImportRecord{record("r1", "Zyxw Novel Trading", "SNB")}

	result, err := f.orch.Run(context.Background(), "batch-1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Decided)
	assert.Equal(t, 1, result.Created)

	require.Len(t, f.entities.created, 1)
	created := f.entities.created[0]
	assert.Equal(t, models.FamilySupplier, created.Family)
	assert.Equal(t, "Zyxw Novel Trading", created.OfficialName)
	assert.Equal(t, "zyxw novel trading", created.NormalizedName)
	assert.False(t, created.Confirmed)

	require.Len(t, f.records.updated, 1)
	updated := f.records.updated[0]
	assert.Equal(t, models.ImportRecordStatusDecided, updated.Status)
	require.NotNil(t, updated.SupplierID)
	assert.Equal(t, created.ID, *updated.SupplierID)

	// one event for the bank match, one for the creation
	require.Len(t, f.audit.events, 2)
}

func TestOrchestrator_AutoCreateDisabledByDefault(t *testing.T) {
	f := newFixture(testSettings(), standardCatalog(), nil)
	f.records.pending = []models.ImportRecord{record("r1", "Zyxw Novel Trading", "SNB")}

	result, err := f.orch.Run(context.Background(), "batch-1")
	require.NoError(t, err)
	assert.Zero(t, result.Created)
	assert.Equal(t, 1, result.NeedsReview)
	assert.Empty(t, f.entities.created)
}

func TestOrchestrator_UpdateFailureCountsAsFailed(t *testing.T) {
	f := newFixture(testSettings(), standardCatalog(), nil)
	f.records.pending = []models.ImportRecord{record("r1", "Acme Corp", "SNB")}
	f.records.updateErr = errors.New("db down")

	result, err := f.orch.Run(context.Background(), "batch-1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Zero(t, result.Decided)
}

func TestOrchestrator_MixedBatch(t *testing.T) {
	f := newFixture(testSettings(), standardCatalog(), nil)
	f.records.pending = []models.ImportRecord{
		record("r1", "Acme Corp", "SNB"),
		record("r2", "Unknown Vendor", "SNB"),
	}

	result, err := f.orch.Run(context.Background(), "batch-1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Decided)
	assert.Equal(t, 1, result.NeedsReview)
}
