package catalog_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mohammadpnp/catalog-sync/internal/domain/cardname"
	domain "github.com/mohammadpnp/catalog-sync/internal/domain/catalog"
	"github.com/samber/mo"
)

const (
	testStoreID  = "5b0c1f0e-8a51-4c4e-9d0e-3f1f4c2a7d10"
	testJobID    = "0d6f2c9a-3b7e-4a41-8f0c-2b3c4d5e6f70"
	testShop     = "duel-den.myshopify.com"
	otherStoreID = "8e2a4b6c-1d3f-4a5b-9c7d-0e1f2a3b4c5d"
)

var errBoom = errors.New("boom")

func testStore() domain.Store {
	return domain.Store{ID: testStoreID, ShopDomain: testShop, AccessToken: "shpat_test"}
}

type memJobs struct {
	mu      sync.Mutex
	jobs    map[string]domain.SyncJob
	nextID  string
	getErr  error
	saveErr error
	failed  []string
	stalled []domain.SyncJob
}

func newMemJobs(jobs ...domain.SyncJob) *memJobs {
	m := &memJobs{jobs: map[string]domain.SyncJob{}, nextID: testJobID}
	for _, job := range jobs {
		m.jobs[job.ID] = job
	}
	return m
}

func (m *memJobs) Create(ctx context.Context, job domain.SyncJob) (domain.SyncJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job.ID = m.nextID
	m.jobs[job.ID] = job
	return job, nil
}

func (m *memJobs) GetByID(ctx context.Context, jobID string) (domain.SyncJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return domain.SyncJob{}, m.getErr
	}
	job, ok := m.jobs[jobID]
	if !ok {
		return domain.SyncJob{}, domain.ErrSyncJobNotFound
	}
	return job, nil
}

func (m *memJobs) MarkProcessing(ctx context.Context, jobID string, startedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job := m.jobs[jobID]
	if job.Status == domain.SyncStatusPending {
		job.Status = domain.SyncStatusProcessing
		job.StartedAt = &startedAt
		m.jobs[jobID] = job
	}
	return nil
}

func (m *memJobs) SaveProgress(ctx context.Context, jobID string, progress domain.SyncProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	job := m.jobs[jobID]
	if job.Status.IsTerminal() || !sameCursor(job.Cursor, progress.PreviousCursor) {
		return domain.ErrStaleProgress
	}
	job.ProcessedItems = max(job.ProcessedItems, progress.ProcessedItems)
	job.FailedItems = progress.FailedItems
	job.Cursor = progress.Cursor
	job.Status = progress.Status
	job.CompletedAt = progress.CompletedAt
	m.jobs[jobID] = job
	return nil
}

func (m *memJobs) Fail(ctx context.Context, jobID string, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job := m.jobs[jobID]
	if job.Status.IsTerminal() {
		return nil
	}
	job.Status = domain.SyncStatusFailed
	job.ErrorMessage = &reason
	m.jobs[jobID] = job
	m.failed = append(m.failed, jobID)
	return nil
}

func (m *memJobs) ListStalled(ctx context.Context, updatedBefore time.Time, limit int) ([]domain.SyncJob, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.stalled, nil
}

func (m *memJobs) job(id string) domain.SyncJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[id]
}

func sameCursor(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

type memStores struct {
	stores map[string]domain.Store
}

func newMemStores(stores ...domain.Store) *memStores {
	m := &memStores{stores: map[string]domain.Store{}}
	for _, s := range stores {
		m.stores[s.ID] = s
	}
	return m
}

func (m *memStores) GetByID(ctx context.Context, storeID string) (domain.Store, error) {
	s, ok := m.stores[storeID]
	if !ok {
		return domain.Store{}, domain.ErrStoreNotFound
	}
	return s, nil
}

func (m *memStores) GetByDomain(ctx context.Context, shopDomain string) (domain.Store, error) {
	for _, s := range m.stores {
		if s.ShopDomain == shopDomain {
			return s, nil
		}
	}
	return domain.Store{}, domain.ErrStoreNotFound
}

// memItems mirrors the upsert semantics of the catalog_items table.
type memItems struct {
	mu        sync.Mutex
	rows      map[string]domain.CatalogItem
	nextID    int64
	upsertErr error
	upserts   int
}

func newMemItems(items ...domain.CatalogItem) *memItems {
	m := &memItems{rows: map[string]domain.CatalogItem{}}
	if len(items) > 0 {
		_ = m.Upsert(context.Background(), items)
		m.upserts = 0
	}
	return m
}

func itemKey(storeID, variantID string) string {
	return storeID + "|" + variantID
}

func (m *memItems) Upsert(ctx context.Context, items []domain.CatalogItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserts++
	for _, item := range items {
		key := itemKey(item.StoreID, item.ExternalVariantID)
		if prev, ok := m.rows[key]; ok {
			item.ID = prev.ID
			if item.MatchedCardID == nil {
				item.MatchedCardID = prev.MatchedCardID
				item.MatchedCardName = prev.MatchedCardName
				item.MatchConfidence = prev.MatchConfidence
				if prev.MatchedCardID != nil {
					item.NormalizedCardName = prev.NormalizedCardName
				}
			}
		} else {
			m.nextID++
			item.ID = m.nextID
		}
		m.rows[key] = item
	}
	return nil
}

func (m *memItems) UpsertPage(ctx context.Context, items []domain.CatalogItem) (domain.UpsertResult, error) {
	m.mu.Lock()
	inserted := int64(0)
	for _, item := range items {
		if _, ok := m.rows[itemKey(item.StoreID, item.ExternalVariantID)]; !ok {
			inserted++
		}
	}
	m.mu.Unlock()
	if err := m.Upsert(ctx, items); err != nil {
		return domain.UpsertResult{}, err
	}
	return domain.UpsertResult{InsertedCount: inserted, UpdatedCount: int64(len(items)) - inserted}, nil
}

func (m *memItems) FindByVariant(ctx context.Context, storeID, variantID string) (mo.Option[domain.CatalogItem], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.rows[itemKey(storeID, variantID)]
	if !ok {
		return mo.None[domain.CatalogItem](), nil
	}
	return mo.Some(item), nil
}

func (m *memItems) FindByVariants(ctx context.Context, storeID string, variantIDs []string) (map[string]domain.CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]domain.CatalogItem{}
	for _, id := range variantIDs {
		if item, ok := m.rows[itemKey(storeID, id)]; ok {
			out[id] = item
		}
	}
	return out, nil
}

func (m *memItems) DeleteByProduct(ctx context.Context, storeID, productID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for key, item := range m.rows {
		if item.StoreID == storeID && item.ExternalProductID == productID {
			delete(m.rows, key)
			deleted++
		}
	}
	return deleted, nil
}

func (m *memItems) UpdateInventory(ctx context.Context, storeID, inventoryRef string, qty int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var updated int64
	for key, item := range m.rows {
		if item.StoreID != storeID {
			continue
		}
		if item.ExternalVariantID == inventoryRef || item.InventoryItemID == inventoryRef {
			item.InventoryQty = qty
			m.rows[key] = item
			updated++
		}
	}
	return updated, nil
}

func (m *memItems) ListUnmatched(ctx context.Context, storeID string, afterID int64, limit int) ([]domain.CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CatalogItem
	for _, item := range m.rows {
		if item.StoreID == storeID && item.ID > afterID && !item.IsMatched() {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memItems) SaveMatch(ctx context.Context, itemID int64, match domain.Match, normalizedName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, item := range m.rows {
		if item.ID == itemID {
			item.ApplyMatch(match)
			item.NormalizedCardName = normalizedName
			m.rows[key] = item
			return nil
		}
	}
	return errors.New("item not found")
}

func (m *memItems) SearchByName(ctx context.Context, storeID, normalizedName string, limit int) ([]domain.CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CatalogItem
	for _, item := range m.rows {
		if item.StoreID == storeID && strings.Contains(item.NormalizedCardName, normalizedName) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memItems) all() []domain.CatalogItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.CatalogItem, 0, len(m.rows))
	for _, item := range m.rows {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memItems) get(storeID, variantID string) (domain.CatalogItem, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.rows[itemKey(storeID, variantID)]
	return item, ok
}

type memCards struct {
	mu        sync.Mutex
	cards     map[int64]domain.CanonicalCard
	findErr   error
	upsertErr error
	upserts   int
}

func newMemCards(cards ...domain.CanonicalCard) *memCards {
	m := &memCards{cards: map[int64]domain.CanonicalCard{}}
	for _, card := range cards {
		m.cards[card.ID] = card
	}
	return m
}

func (m *memCards) FindCandidates(ctx context.Context, normalizedName string, limit int) ([]domain.CanonicalCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	var out []domain.CanonicalCard
	for _, card := range m.cards {
		if strings.Contains(card.NormalizedName, normalizedName) {
			out = append(out, card)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memCards) Upsert(ctx context.Context, cards []domain.CanonicalCard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	if m.upsertErr != nil {
		return m.upsertErr
	}
	for _, card := range cards {
		m.cards[card.ID] = card
	}
	return nil
}

func (m *memCards) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cards)
}

type fakeLookup struct {
	mu         sync.Mutex
	exact      map[string][]domain.CanonicalCard
	fuzzy      map[string][]domain.CanonicalCard
	err        error
	exactCalls int
	fuzzyCalls int
	fragments  []string
}

func (f *fakeLookup) ExactName(ctx context.Context, name string) ([]domain.CanonicalCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exactCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.exact[name], nil
}

func (f *fakeLookup) FuzzyName(ctx context.Context, fragment string, limit int) ([]domain.CanonicalCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fuzzyCalls++
	f.fragments = append(f.fragments, fragment)
	if f.err != nil {
		return nil, f.err
	}
	return f.fuzzy[fragment], nil
}

func (f *fakeLookup) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exactCalls + f.fuzzyCalls
}

type fakeCatalogSource struct {
	mu       sync.Mutex
	count    int64
	countErr error
	pages    map[string]domain.ProductPage
	listErr  error
	cursors  []string
}

func (f *fakeCatalogSource) CountProducts(ctx context.Context, store domain.Store) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.count, nil
}

func (f *fakeCatalogSource) ListProducts(ctx context.Context, store domain.Store, cursor string, limit int) (domain.ProductPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cursors = append(f.cursors, cursor)
	if f.listErr != nil {
		return domain.ProductPage{}, f.listErr
	}
	return f.pages[cursor], nil
}

type recordingScheduler struct {
	mu      sync.Mutex
	batches []string
	sweeps  []int64
	err     error
}

func (s *recordingScheduler) ScheduleBatch(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, jobID)
	return nil
}

func (s *recordingScheduler) ScheduleSweep(ctx context.Context, storeID string, afterID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sweeps = append(s.sweeps, afterID)
	return nil
}

func card(id int64, name string) domain.CanonicalCard {
	return domain.CanonicalCard{
		ID:             id,
		Name:           name,
		NormalizedName: cardname.Normalize(name),
		ImageURL:       "https://images.example/" + name + ".jpg",
	}
}
