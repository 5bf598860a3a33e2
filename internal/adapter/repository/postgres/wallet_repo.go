package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

const walletColumns = `id, tenant_id, name, initial_balance, inactive, created_at`

// WalletRepository implements usecase.WalletRepository.
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

// Create inserts a wallet, inside tx when one is given so the insert commits
// together with its outbox event.
func (r *WalletRepository) Create(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) error {
	_, err := queryTarget(r.pool, tx).Exec(ctx, `
		INSERT INTO wallets (`+walletColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		wallet.ID,
		wallet.TenantID,
		wallet.Name,
		decimalToNumeric(wallet.InitialBalance),
		wallet.Inactive,
		timeToPgTimestamptz(wallet.CreatedAt),
	)

	return err
}

// GetByID retrieves a wallet by ID.
func (r *WalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE id = $1`, id)

	return scanWallet(row)
}

// GetByIDForUpdate retrieves a wallet by ID with a FOR UPDATE lock. The lock
// is the per-wallet mutual exclusion every chain mutation runs under.
func (r *WalletRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Wallet, error) {
	row := queryTarget(r.pool, tx).QueryRow(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE id = $1
		FOR UPDATE`, id)

	return scanWallet(row)
}

// GetByIDsForUpdate retrieves multiple wallets with FOR UPDATE locks. Callers
// pass IDs in sorted order so concurrent moves acquire locks consistently.
func (r *WalletRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Wallet, error) {
	rows, err := queryTarget(r.pool, tx).Query(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wallets []*domain.Wallet
	for rows.Next() {
		wallet, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, wallet)
	}

	return wallets, rows.Err()
}

// List lists wallets of a tenant with pagination.
func (r *WalletRepository) List(ctx context.Context, tenantID string, limit, offset int) ([]*domain.Wallet, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE tenant_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`,
		tenantID, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	wallets := make([]*domain.Wallet, 0, limit)
	for rows.Next() {
		wallet, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, wallet)
	}

	return wallets, rows.Err()
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var (
		wallet    domain.Wallet
		initial   pgtype.Numeric
		createdAt pgtype.Timestamptz
	)

	err := row.Scan(
		&wallet.ID,
		&wallet.TenantID,
		&wallet.Name,
		&initial,
		&wallet.Inactive,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}

		return nil, err
	}

	wallet.InitialBalance = numericToDecimal(initial)
	wallet.CreatedAt = createdAt.Time

	return &wallet, nil
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
