package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// MockWalletRepository is a mock implementation of WalletRepository.
type MockWalletRepository struct {
	mu      sync.RWMutex
	wallets map[string]*domain.Wallet

	CreateFunc            func(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) error
	GetByIDFunc           func(ctx context.Context, id string) (*domain.Wallet, error)
	GetByIDForUpdateFunc  func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Wallet, error)
	GetByIDsForUpdateFunc func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Wallet, error)
	ListFunc              func(ctx context.Context, tenantID string, limit, offset int) ([]*domain.Wallet, error)
}

func NewMockWalletRepository() *MockWalletRepository {
	return &MockWalletRepository{
		wallets: make(map[string]*domain.Wallet),
	}
}

// Add seeds a wallet directly into the store.
func (m *MockWalletRepository) Add(wallet *domain.Wallet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[wallet.ID] = wallet
}

func (m *MockWalletRepository) Create(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, wallet)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[wallet.ID] = wallet
	return nil
}

func (m *MockWalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if w, ok := m.wallets[id]; ok {
		return w, nil
	}
	return nil, domain.ErrWalletNotFound
}

func (m *MockWalletRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Wallet, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockWalletRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Wallet, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var wallets []*domain.Wallet
	for _, id := range ids {
		if w, ok := m.wallets[id]; ok {
			wallets = append(wallets, w)
		}
	}
	return wallets, nil
}

func (m *MockWalletRepository) List(ctx context.Context, tenantID string, limit, offset int) ([]*domain.Wallet, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, tenantID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var wallets []*domain.Wallet
	for _, w := range m.wallets {
		if tenantID == "" || w.TenantID == tenantID {
			wallets = append(wallets, w)
		}
	}
	sort.Slice(wallets, func(i, j int) bool { return wallets[i].ID < wallets[j].ID })
	return wallets, nil
}

// MockTitleRepository is an in-memory implementation of TitleRepository with
// real (date, id) ordering, so orchestration tests exercise genuine chain
// semantics instead of canned answers.
type MockTitleRepository struct {
	mu     sync.RWMutex
	titles map[string]*domain.Title

	CreateFunc                func(ctx context.Context, tx usecase.Transaction, title *domain.Title) error
	GetByIDFunc               func(ctx context.Context, id string) (*domain.Title, error)
	UpdateFunc                func(ctx context.Context, tx usecase.Transaction, title *domain.Title) error
	DeleteFunc                func(ctx context.Context, tx usecase.Transaction, id string) error
	GetSuffixFunc             func(ctx context.Context, tx usecase.Transaction, walletID string, fromDate time.Time, excludingID string) ([]*domain.Title, error)
	SumEffectiveFunc          func(ctx context.Context, walletID string, until time.Time) (decimal.Decimal, error)
	UpdatePreviousBalanceFunc func(ctx context.Context, tx usecase.Transaction, id string, previousBalance decimal.Decimal) error
}

func NewMockTitleRepository() *MockTitleRepository {
	return &MockTitleRepository{
		titles: make(map[string]*domain.Title),
	}
}

// Add seeds a title directly into the store.
func (m *MockTitleRepository) Add(title *domain.Title) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *title
	m.titles[title.ID] = &copied
}

// All returns a snapshot of every stored title.
func (m *MockTitleRepository) All() []*domain.Title {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Title, 0, len(m.titles))
	for _, t := range m.titles {
		copied := *t
		out = append(out, &copied)
	}
	return out
}

func (m *MockTitleRepository) Create(ctx context.Context, tx usecase.Transaction, title *domain.Title) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, title)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.titles[title.ID]; exists {
		return fmt.Errorf("duplicate title id %s", title.ID)
	}
	copied := *title
	m.titles[title.ID] = &copied
	return nil
}

func (m *MockTitleRepository) GetByID(ctx context.Context, id string) (*domain.Title, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.titles[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, domain.ErrTitleNotFound
}

func (m *MockTitleRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Title, error) {
	return m.GetByID(ctx, id)
}

func (m *MockTitleRepository) Update(ctx context.Context, tx usecase.Transaction, title *domain.Title) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, title)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.titles[title.ID]; !ok {
		return domain.ErrTitleNotFound
	}
	copied := *title
	m.titles[title.ID] = &copied
	return nil
}

func (m *MockTitleRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.titles[id]; !ok {
		return domain.ErrTitleNotFound
	}
	delete(m.titles, id)
	return nil
}

func (m *MockTitleRepository) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.Title, error) {
	chain, _ := m.GetChain(ctx, nil, walletID)
	// newest first for listings
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	if offset >= len(chain) {
		return nil, nil
	}
	chain = chain[offset:]
	if limit > 0 && limit < len(chain) {
		chain = chain[:limit]
	}
	return chain, nil
}

func (m *MockTitleRepository) GetChain(ctx context.Context, tx usecase.Transaction, walletID string) ([]*domain.Title, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var chain []*domain.Title
	for _, t := range m.titles {
		if t.WalletID == walletID {
			copied := *t
			chain = append(chain, &copied)
		}
	}
	sortChain(chain)
	return chain, nil
}

func (m *MockTitleRepository) GetSuffix(ctx context.Context, tx usecase.Transaction, walletID string, fromDate time.Time, excludingID string) ([]*domain.Title, error) {
	if m.GetSuffixFunc != nil {
		return m.GetSuffixFunc(ctx, tx, walletID, fromDate, excludingID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var suffix []*domain.Title
	for _, t := range m.titles {
		if t.WalletID == walletID && t.Date.After(fromDate) && t.ID != excludingID {
			copied := *t
			suffix = append(suffix, &copied)
		}
	}
	sortChain(suffix)
	return suffix, nil
}

func (m *MockTitleRepository) UpdatePreviousBalance(ctx context.Context, tx usecase.Transaction, id string, previousBalance decimal.Decimal) error {
	if m.UpdatePreviousBalanceFunc != nil {
		return m.UpdatePreviousBalanceFunc(ctx, tx, id, previousBalance)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.titles[id]
	if !ok {
		return domain.ErrTitleNotFound
	}
	t.PreviousBalance = previousBalance
	return nil
}

func (m *MockTitleRepository) SumEffective(ctx context.Context, walletID string, until time.Time) (decimal.Decimal, error) {
	if m.SumEffectiveFunc != nil {
		return m.SumEffectiveFunc(ctx, walletID, until)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, t := range m.titles {
		if t.WalletID == walletID && !t.Date.After(until) {
			sum = sum.Add(t.EffectiveValue())
		}
	}
	return sum, nil
}

func (m *MockTitleRepository) SumEffectiveTx(ctx context.Context, tx usecase.Transaction, walletID string, until time.Time) (decimal.Decimal, error) {
	return m.SumEffective(ctx, walletID, until)
}

func (m *MockTitleRepository) ExistsAtMinute(ctx context.Context, tx usecase.Transaction, walletID string, minute time.Time, excludingID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.titles {
		if t.WalletID == walletID && t.ID != excludingID && domain.SameMinute(t.Date, minute) {
			return true, nil
		}
	}
	return false, nil
}

func sortChain(titles []*domain.Title) {
	sort.Slice(titles, func(i, j int) bool {
		return domain.CompareChainOrder(titles[i], titles[j]) < 0
	})
}

// MockOutboxRepository records outbox events in memory.
type MockOutboxRepository struct {
	mu     sync.Mutex
	Events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.OutboxEvent
	for _, e := range m.Events {
		if !e.Published {
			out = append(out, e)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	return nil
}

// MockAuditRepository records audit logs in memory.
type MockAuditRepository struct {
	mu   sync.Mutex
	Logs []*domain.AuditLog
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, log)
	return nil
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	return m.Create(ctx, log)
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.AuditLog(nil), m.Logs...), nil
}

// MockTransaction is a no-op transaction that records its outcome.
type MockTransaction struct {
	Committed  bool
	RolledBack bool

	CommitFunc func(ctx context.Context) error
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	if t.CommitFunc != nil {
		return t.CommitFunc(ctx)
	}
	t.Committed = true
	return nil
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	if !t.Committed {
		t.RolledBack = true
	}
	return nil
}

// MockTransactionManager hands out MockTransactions.
type MockTransactionManager struct {
	mu           sync.Mutex
	Transactions []*MockTransaction

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &MockTransaction{}
	m.Transactions = append(m.Transactions, tx)
	return tx, nil
}

// MockIDGenerator returns sequential IDs.
type MockIDGenerator struct {
	mu   sync.Mutex
	next int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	return fmt.Sprintf("id-%04d", m.next)
}

// MockClock returns a fixed, advanceable time.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewMockClock(now time.Time) *MockClock {
	return &MockClock{now: now}
}

func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// MockCache is an in-memory Cache.
type MockCache struct {
	mu    sync.Mutex
	items map[string]string

	Gets    int
	Hits    int
	Deletes int
}

func NewMockCache() *MockCache {
	return &MockCache{items: make(map[string]string)}
}

func (c *MockCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Gets++
	v, ok := c.items[key]
	if !ok {
		return "", fmt.Errorf("cache miss: %s", key)
	}
	c.Hits++
	return v, nil
}

func (c *MockCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *MockCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Deletes++
	delete(c.items, key)
	return nil
}

// MockReprocessor records walk invocations; tests asserting that no reprocess
// happens (metadata-only edits) use it in place of the real engine.
type MockReprocessor struct {
	mu    sync.Mutex
	Calls int

	ReprocessTitlesFunc func(ctx context.Context, tx usecase.Transaction, titles []*domain.Title, startingBalance decimal.Decimal) error
}

func NewMockReprocessor() *MockReprocessor {
	return &MockReprocessor{}
}

func (m *MockReprocessor) ReprocessTitles(ctx context.Context, tx usecase.Transaction, titles []*domain.Title, startingBalance decimal.Decimal) error {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.ReprocessTitlesFunc != nil {
		return m.ReprocessTitlesFunc(ctx, tx, titles, startingBalance)
	}
	return nil
}
