package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/metrics"
)

// SuffixReprocessor is the slice of the reprocessing engine the orchestrator
// drives: a single forward walk over an ordered run of titles inside the
// caller's transaction.
type SuffixReprocessor interface {
	ReprocessTitles(ctx context.Context, tx Transaction, titles []*domain.Title, startingBalance decimal.Decimal) error
}

// BalanceInvalidator drops cached current balances after a committed mutation.
type BalanceInvalidator interface {
	InvalidateBalance(ctx context.Context, walletID string) error
}

// TitleUseCase orchestrates title mutations. On every create, update and
// delete it decides whether the balance chain needs repair, computes the
// anchor balance for the mutated position and hands the affected suffix(es)
// to the reprocessing engine, all inside one transaction with the affected
// wallet rows locked.
type TitleUseCase struct {
	txManager   TransactionManager
	walletRepo  WalletRepository
	titleRepo   TitleRepository
	reprocessor SuffixReprocessor
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
	clock       Clock
	invalidator BalanceInvalidator
	metrics     *metrics.Metrics
}

// NewTitleUseCase creates a new TitleUseCase. outboxRepo, auditRepo,
// invalidator and metrics may be nil.
func NewTitleUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	titleRepo TitleRepository,
	reprocessor SuffixReprocessor,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	clock Clock,
	invalidator BalanceInvalidator,
	metrics *metrics.Metrics,
) *TitleUseCase {
	return &TitleUseCase{
		txManager:   txManager,
		walletRepo:  walletRepo,
		titleRepo:   titleRepo,
		reprocessor: reprocessor,
		outboxRepo:  outboxRepo,
		auditRepo:   auditRepo,
		idGen:       idGen,
		clock:       clock,
		invalidator: invalidator,
		metrics:     metrics,
	}
}

// TitleInput carries the caller-supplied fields of a title.
type TitleInput struct {
	WalletID    string
	Description string
	Value       decimal.Decimal
	Direction   domain.Direction
	Date        time.Time
	CategoryIDs []string
	PeopleIDs   []string
}

// UpdateContext snapshots everything needed to repair a title's old position
// before its fields are overwritten.
type UpdateContext struct {
	MustReprocess      bool
	PreviousWalletID   string
	PreviousDate       time.Time
	PreviousBalance    decimal.Decimal // stored balance before the title at its old position
	NewPreviousBalance decimal.Decimal // computed anchor for the title's new position
	CategoriesToRemove []string
	PeopleToRemove     []string
}

// MustReprocess reports whether an update changes any field the balance chain
// depends on. Description and allocation metadata alone never trigger a
// reprocess; this is both an optimization and a correctness boundary.
func (uc *TitleUseCase) MustReprocess(existing *domain.Title, input TitleInput) bool {
	return !existing.Date.Equal(input.Date) ||
		existing.Direction != input.Direction ||
		!existing.Value.Equal(input.Value) ||
		existing.WalletID != input.WalletID
}

// CalculatePreviousBalance computes the balance immediately before the title's
// new position. When the wallet is unchanged and the new date does not precede
// the old one, the title's own old contribution is still inside the summed
// range and is subtracted to avoid double counting. A moved or back-dated
// title has left that range, so the raw balance-at-instant is the anchor.
func (uc *TitleUseCase) CalculatePreviousBalance(ctx context.Context, tx Transaction, existing *domain.Title, input TitleInput) (decimal.Decimal, error) {
	wallet, err := uc.walletRepo.GetByIDForUpdate(ctx, tx, input.WalletID)
	if err != nil {
		return decimal.Zero, err
	}

	balance, err := uc.balanceAt(ctx, tx, wallet, input.Date)
	if err != nil {
		return decimal.Zero, err
	}

	if input.WalletID == existing.WalletID && !input.Date.Before(existing.Date) {
		balance = balance.Sub(existing.EffectiveValue())
	}

	return balance, nil
}

// PrepareUpdateContext snapshots the title's old position and, when the chain
// is affected, computes the anchor balance for the new one. The balance query
// is skipped entirely on metadata-only edits.
func (uc *TitleUseCase) PrepareUpdateContext(ctx context.Context, tx Transaction, existing *domain.Title, input TitleInput, mustReprocess bool) (*UpdateContext, error) {
	uctx := &UpdateContext{
		MustReprocess:      mustReprocess,
		PreviousWalletID:   existing.WalletID,
		PreviousDate:       existing.Date,
		PreviousBalance:    existing.PreviousBalance,
		NewPreviousBalance: existing.PreviousBalance,
		CategoriesToRemove: missingIDs(existing.CategoryIDs, input.CategoryIDs),
		PeopleToRemove:     missingIDs(existing.PeopleIDs, input.PeopleIDs),
	}

	if mustReprocess {
		newPrevious, err := uc.CalculatePreviousBalance(ctx, tx, existing, input)
		if err != nil {
			return nil, err
		}

		uctx.NewPreviousBalance = newPrevious
	}

	return uctx, nil
}

// GetTitlesForReprocessing fetches the ordered suffix of a wallet that must be
// repaired: every title with date > fromDate, excluding the title being
// edited or deleted.
func (uc *TitleUseCase) GetTitlesForReprocessing(ctx context.Context, tx Transaction, walletID string, fromDate time.Time, excludingID string) ([]*domain.Title, error) {
	return uc.titleRepo.GetSuffix(ctx, tx, walletID, fromDate, excludingID)
}

// CreateTitle inserts a title at its chronological position and repairs the
// suffix that follows it.
func (uc *TitleUseCase) CreateTitle(ctx context.Context, input TitleInput) (*domain.Title, error) {
	if err := validateTitleInput(input); err != nil {
		return nil, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	wallet, err := uc.walletRepo.GetByIDForUpdate(ctx, tx, input.WalletID)
	if err != nil {
		return nil, err
	}

	if wallet.Inactive {
		return nil, domain.ErrWalletInactive
	}

	duplicate, err := uc.titleRepo.ExistsAtMinute(ctx, tx, wallet.ID, input.Date, "")
	if err != nil {
		return nil, err
	}

	if duplicate {
		return nil, domain.ErrDuplicateDate
	}

	previousBalance, err := uc.balanceAt(ctx, tx, wallet, input.Date)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	title := &domain.Title{
		ID:              uc.idGen.Generate(),
		TenantID:        wallet.TenantID,
		WalletID:        wallet.ID,
		Description:     input.Description,
		Value:           input.Value,
		Direction:       input.Direction,
		Date:            input.Date,
		PreviousBalance: previousBalance,
		CategoryIDs:     input.CategoryIDs,
		PeopleIDs:       input.PeopleIDs,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := domain.ValidateBalance(title.ResultingBalance()); err != nil {
		return nil, err
	}

	if err := uc.titleRepo.Create(ctx, tx, title); err != nil {
		return nil, err
	}

	suffix, err := uc.GetTitlesForReprocessing(ctx, tx, wallet.ID, title.Date, title.ID)
	if err != nil {
		return nil, err
	}

	if err := uc.reprocessor.ReprocessTitles(ctx, tx, suffix, title.ResultingBalance()); err != nil {
		return nil, err
	}

	if err := uc.emitTitleEvent(ctx, tx, domain.EventTypeTitleCreated, title, ""); err != nil {
		return nil, err
	}

	uc.audit(ctx, tx, title.TenantID, domain.AuditActionTitleCreate, title.ID, nil, title)

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TitlesCreated.WithLabelValues(string(title.Direction)).Inc()
	}

	uc.invalidate(ctx, title.WalletID)

	return title, nil
}

// GetTitle retrieves a title by ID.
func (uc *TitleUseCase) GetTitle(ctx context.Context, id string) (*domain.Title, error) {
	return uc.titleRepo.GetByID(ctx, id)
}

// ListTitlesByWalletInput represents input for listing titles.
type ListTitlesByWalletInput struct {
	WalletID string
	Limit    int
	Offset   int
}

// ListTitlesByWallet lists titles for a wallet, newest first.
func (uc *TitleUseCase) ListTitlesByWallet(ctx context.Context, input ListTitlesByWalletInput) ([]*domain.Title, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.titleRepo.ListByWallet(ctx, input.WalletID, limit, offset)
}

// UpdateTitle applies an edit to a title and repairs every chain the edit
// touched. A title moved between wallets invalidates two independent chains;
// both wallets are locked in sorted-ID order before either is mutated.
func (uc *TitleUseCase) UpdateTitle(ctx context.Context, id string, input TitleInput) (*domain.Title, error) {
	if err := validateTitleInput(input); err != nil {
		return nil, err
	}

	// Pre-read to learn which wallets to lock; the title is re-read under
	// the locks before anything is decided.
	peek, err := uc.titleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	walletIDs := uniqueSorted([]string{peek.WalletID, input.WalletID})

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	wallets, err := uc.walletRepo.GetByIDsForUpdate(ctx, tx, walletIDs)
	if err != nil {
		return nil, err
	}

	if len(wallets) != len(walletIDs) {
		return nil, domain.ErrWalletNotFound
	}

	existing, err := uc.titleRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if existing.WalletID != peek.WalletID {
		return nil, fmt.Errorf("title %s changed wallets concurrently", id)
	}

	if existing.WalletID != input.WalletID {
		destination := walletByID(wallets, input.WalletID)
		if destination.Inactive {
			return nil, domain.ErrWalletInactive
		}
	}

	mustReprocess := uc.MustReprocess(existing, input)

	if mustReprocess {
		duplicate, err := uc.titleRepo.ExistsAtMinute(ctx, tx, input.WalletID, input.Date, existing.ID)
		if err != nil {
			return nil, err
		}

		if duplicate {
			return nil, domain.ErrDuplicateDate
		}
	}

	uctx, err := uc.PrepareUpdateContext(ctx, tx, existing, input, mustReprocess)
	if err != nil {
		return nil, err
	}

	before := *existing

	existing.WalletID = input.WalletID
	existing.Description = input.Description
	existing.Value = input.Value
	existing.Direction = input.Direction
	existing.Date = input.Date
	existing.CategoryIDs = input.CategoryIDs
	existing.PeopleIDs = input.PeopleIDs
	existing.UpdatedAt = uc.clock.Now()

	if mustReprocess {
		existing.PreviousBalance = uctx.NewPreviousBalance
		if err := domain.ValidateBalance(existing.ResultingBalance()); err != nil {
			return nil, err
		}
	}

	if err := uc.titleRepo.Update(ctx, tx, existing); err != nil {
		return nil, err
	}

	if err := uc.ReprocessAffectedWallets(ctx, tx, existing, uctx); err != nil {
		return nil, err
	}

	previousWallet := ""
	if uctx.PreviousWalletID != existing.WalletID {
		previousWallet = uctx.PreviousWalletID
	}

	if err := uc.emitTitleEvent(ctx, tx, domain.EventTypeTitleUpdated, existing, previousWallet); err != nil {
		return nil, err
	}

	uc.audit(ctx, tx, existing.TenantID, domain.AuditActionTitleUpdate, existing.ID, &before, existing)

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TitlesUpdated.Inc()
	}

	uc.invalidate(ctx, existing.WalletID)
	if uctx.PreviousWalletID != existing.WalletID {
		uc.invalidate(ctx, uctx.PreviousWalletID)
	}

	return existing, nil
}

// ReprocessAffectedWallets repairs the chain(s) invalidated by an already
// persisted update. A move repairs the origin suffix (the old chain lost a
// member) and the destination suffix (the new chain gained one); an in-place
// edit repairs a single suffix anchored at the earlier of the old and new
// positions.
func (uc *TitleUseCase) ReprocessAffectedWallets(ctx context.Context, tx Transaction, title *domain.Title, uctx *UpdateContext) error {
	if !uctx.MustReprocess {
		return nil
	}

	if uctx.PreviousWalletID != title.WalletID {
		origin, err := uc.GetTitlesForReprocessing(ctx, tx, uctx.PreviousWalletID, uctx.PreviousDate, title.ID)
		if err != nil {
			return err
		}

		if err := uc.reprocessor.ReprocessTitles(ctx, tx, origin, uctx.PreviousBalance); err != nil {
			return err
		}

		destination, err := uc.GetTitlesForReprocessing(ctx, tx, title.WalletID, title.Date, title.ID)
		if err != nil {
			return err
		}

		return uc.reprocessor.ReprocessTitles(ctx, tx, destination, title.ResultingBalance())
	}

	if title.Date.After(uctx.PreviousDate) {
		// Moved later in the same wallet: walk from the old position. The
		// suffix query keeps the title itself (its date is now past the
		// anchor), so the walk re-derives its previous balance too.
		suffix, err := uc.GetTitlesForReprocessing(ctx, tx, title.WalletID, uctx.PreviousDate, "")
		if err != nil {
			return err
		}

		return uc.reprocessor.ReprocessTitles(ctx, tx, suffix, uctx.PreviousBalance)
	}

	suffix, err := uc.GetTitlesForReprocessing(ctx, tx, title.WalletID, title.Date, title.ID)
	if err != nil {
		return err
	}

	return uc.reprocessor.ReprocessTitles(ctx, tx, suffix, title.ResultingBalance())
}

// DeleteTitle removes a title and repairs the suffix that used to follow it,
// anchored at the deleted title's former previous balance.
func (uc *TitleUseCase) DeleteTitle(ctx context.Context, id string) error {
	peek, err := uc.titleRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := uc.walletRepo.GetByIDForUpdate(ctx, tx, peek.WalletID); err != nil {
		return err
	}

	title, err := uc.titleRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return err
	}

	if title.WalletID != peek.WalletID {
		return fmt.Errorf("title %s changed wallets concurrently", id)
	}

	if err := uc.titleRepo.Delete(ctx, tx, title.ID); err != nil {
		return err
	}

	suffix, err := uc.GetTitlesForReprocessing(ctx, tx, title.WalletID, title.Date, title.ID)
	if err != nil {
		return err
	}

	if err := uc.reprocessor.ReprocessTitles(ctx, tx, suffix, title.PreviousBalance); err != nil {
		return err
	}

	if err := uc.emitTitleEvent(ctx, tx, domain.EventTypeTitleDeleted, title, ""); err != nil {
		return err
	}

	uc.audit(ctx, tx, title.TenantID, domain.AuditActionTitleDelete, title.ID, title, nil)

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.TitlesDeleted.Inc()
	}

	uc.invalidate(ctx, title.WalletID)

	return nil
}

// balanceAt computes the wallet balance as of an instant inside the
// transaction: initial balance plus the signed sum of titles with date <= at.
// It never reads stored previous balances, so it stays correct even while the
// chain is mid-repair in the same transaction.
func (uc *TitleUseCase) balanceAt(ctx context.Context, tx Transaction, wallet *domain.Wallet, at time.Time) (decimal.Decimal, error) {
	sum, err := uc.titleRepo.SumEffectiveTx(ctx, tx, wallet.ID, at)
	if err != nil {
		return decimal.Zero, err
	}

	return wallet.InitialBalance.Add(sum), nil
}

func (uc *TitleUseCase) emitTitleEvent(ctx context.Context, tx Transaction, eventType string, title *domain.Title, previousWalletID string) error {
	if uc.outboxRepo == nil {
		return nil
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   title.ID,
		AggregateType: domain.AggregateTypeTitle,
		EventType:     eventType,
		Payload: domain.MarshalState(domain.TitleChangedEvent{
			TitleID:          title.ID,
			WalletID:         title.WalletID,
			PreviousWalletID: previousWalletID,
			Direction:        string(title.Direction),
			Value:            title.Value.String(),
			Date:             title.Date.UTC().Format(time.RFC3339),
		}),
		CreatedAt: uc.clock.Now(),
	}

	return uc.outboxRepo.Create(ctx, tx, event)
}

func (uc *TitleUseCase) audit(ctx context.Context, tx Transaction, tenantID string, action domain.AuditAction, resourceID string, before, after any) {
	if uc.auditRepo == nil {
		return
	}

	log := &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		TenantID:     tenantID,
		Action:       string(action),
		ResourceType: domain.AggregateTypeTitle,
		ResourceID:   resourceID,
		BeforeState:  domain.MarshalState(before),
		AfterState:   domain.MarshalState(after),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    uc.clock.Now(),
	}

	if err := uc.auditRepo.CreateTx(ctx, tx, log); err == nil && uc.metrics != nil {
		uc.metrics.AuditLogsCreated.WithLabelValues(log.Action, log.Status).Inc()
	}
}

func (uc *TitleUseCase) invalidate(ctx context.Context, walletID string) {
	if uc.invalidator != nil {
		_ = uc.invalidator.InvalidateBalance(ctx, walletID)
	}
}

func validateTitleInput(input TitleInput) error {
	if input.WalletID == "" {
		return domain.ErrWalletNotFound
	}

	if input.Date.IsZero() {
		return domain.ErrInvalidDate
	}

	if !input.Direction.Valid() {
		return domain.ErrInvalidDirection
	}

	return domain.ValidateTitleValue(input.Value)
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]bool)

	var out []string
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	sort.Strings(out)

	return out
}

func walletByID(wallets []*domain.Wallet, id string) *domain.Wallet {
	for _, w := range wallets {
		if w.ID == id {
			return w
		}
	}

	return nil
}

// missingIDs returns the elements of old that are absent from new.
func missingIDs(old, new []string) []string {
	keep := make(map[string]bool, len(new))
	for _, id := range new {
		keep[id] = true
	}

	var removed []string
	for _, id := range old {
		if !keep[id] {
			removed = append(removed, id)
		}
	}

	return removed
}
