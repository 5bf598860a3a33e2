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

const titleColumns = `id, tenant_id, wallet_id, description, value, direction, date,
	previous_balance, category_ids, people_ids, created_at, updated_at`

// TitleRepository implements usecase.TitleRepository.
type TitleRepository struct {
	pool *pgxpool.Pool
}

// NewTitleRepository creates a new TitleRepository.
func NewTitleRepository(pool *pgxpool.Pool) *TitleRepository {
	return &TitleRepository{pool: pool}
}

// Create inserts a title within a transaction.
func (r *TitleRepository) Create(ctx context.Context, tx usecase.Transaction, title *domain.Title) error {
	_, err := queryTarget(r.pool, tx).Exec(ctx, `
		INSERT INTO titles (`+titleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		title.ID,
		title.TenantID,
		title.WalletID,
		title.Description,
		decimalToNumeric(title.Value),
		string(title.Direction),
		timeToPgTimestamptz(title.Date),
		decimalToNumeric(title.PreviousBalance),
		title.CategoryIDs,
		title.PeopleIDs,
		timeToPgTimestamptz(title.CreatedAt),
		timeToPgTimestamptz(title.UpdatedAt),
	)

	return err
}

// GetByID retrieves a title by ID.
func (r *TitleRepository) GetByID(ctx context.Context, id string) (*domain.Title, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+titleColumns+`
		FROM titles
		WHERE id = $1`, id)

	return scanTitle(row)
}

// GetByIDForUpdate retrieves a title by ID with a FOR UPDATE lock.
func (r *TitleRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Title, error) {
	row := queryTarget(r.pool, tx).QueryRow(ctx, `
		SELECT `+titleColumns+`
		FROM titles
		WHERE id = $1
		FOR UPDATE`, id)

	return scanTitle(row)
}

// Update rewrites every stored field of a title.
func (r *TitleRepository) Update(ctx context.Context, tx usecase.Transaction, title *domain.Title) error {
	tag, err := queryTarget(r.pool, tx).Exec(ctx, `
		UPDATE titles
		SET wallet_id = $2,
		    description = $3,
		    value = $4,
		    direction = $5,
		    date = $6,
		    previous_balance = $7,
		    category_ids = $8,
		    people_ids = $9,
		    updated_at = $10
		WHERE id = $1`,
		title.ID,
		title.WalletID,
		title.Description,
		decimalToNumeric(title.Value),
		string(title.Direction),
		timeToPgTimestamptz(title.Date),
		decimalToNumeric(title.PreviousBalance),
		title.CategoryIDs,
		title.PeopleIDs,
		timeToPgTimestamptz(title.UpdatedAt),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTitleNotFound
	}

	return nil
}

// Delete removes a title.
func (r *TitleRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	tag, err := queryTarget(r.pool, tx).Exec(ctx, `
		DELETE FROM titles
		WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTitleNotFound
	}

	return nil
}

// ListByWallet lists titles of a wallet, newest first.
func (r *TitleRepository) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.Title, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+titleColumns+`
		FROM titles
		WHERE wallet_id = $1
		ORDER BY date DESC, id DESC
		LIMIT $2 OFFSET $3`,
		walletID, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}

	return collectTitles(rows)
}

// GetChain loads every title of a wallet in (date, id) order.
func (r *TitleRepository) GetChain(ctx context.Context, tx usecase.Transaction, walletID string) ([]*domain.Title, error) {
	rows, err := queryTarget(r.pool, tx).Query(ctx, `
		SELECT `+titleColumns+`
		FROM titles
		WHERE wallet_id = $1
		ORDER BY date, id`, walletID)
	if err != nil {
		return nil, err
	}

	return collectTitles(rows)
}

// GetSuffix loads the titles of a wallet strictly after fromDate in (date, id)
// order, skipping excludingID. The wallet row lock held by the caller is what
// keeps the suffix stable; no row locks are taken here.
func (r *TitleRepository) GetSuffix(ctx context.Context, tx usecase.Transaction, walletID string, fromDate time.Time, excludingID string) ([]*domain.Title, error) {
	rows, err := queryTarget(r.pool, tx).Query(ctx, `
		SELECT `+titleColumns+`
		FROM titles
		WHERE wallet_id = $1
		  AND date > $2
		  AND ($3 = '' OR id <> $3)
		ORDER BY date, id`,
		walletID, timeToPgTimestamptz(fromDate), excludingID)
	if err != nil {
		return nil, err
	}

	return collectTitles(rows)
}

// UpdatePreviousBalance rewrites the stored previous balance of one title.
func (r *TitleRepository) UpdatePreviousBalance(ctx context.Context, tx usecase.Transaction, id string, previousBalance decimal.Decimal) error {
	tag, err := queryTarget(r.pool, tx).Exec(ctx, `
		UPDATE titles
		SET previous_balance = $2
		WHERE id = $1`,
		id, decimalToNumeric(previousBalance))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTitleNotFound
	}

	return nil
}

// SumEffective returns the signed sum of titles with date <= until.
func (r *TitleRepository) SumEffective(ctx context.Context, walletID string, until time.Time) (decimal.Decimal, error) {
	return r.sumEffective(ctx, r.pool, walletID, until)
}

// SumEffectiveTx is SumEffective inside the caller's transaction, so mutations
// see their own uncommitted titles.
func (r *TitleRepository) SumEffectiveTx(ctx context.Context, tx usecase.Transaction, walletID string, until time.Time) (decimal.Decimal, error) {
	return r.sumEffective(ctx, queryTarget(r.pool, tx), walletID, until)
}

func (r *TitleRepository) sumEffective(ctx context.Context, q querier, walletID string, until time.Time) (decimal.Decimal, error) {
	row := q.QueryRow(ctx, `
		SELECT COALESCE(SUM(
			CASE WHEN direction = 'EXPENSE' THEN -value ELSE value END
		), 0)
		FROM titles
		WHERE wallet_id = $1
		  AND date <= $2`,
		walletID, timeToPgTimestamptz(until))

	var sum pgtype.Numeric
	if err := row.Scan(&sum); err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

// ExistsAtMinute reports whether the wallet already has a title within the
// same calendar minute, excluding excludingID.
func (r *TitleRepository) ExistsAtMinute(ctx context.Context, tx usecase.Transaction, walletID string, minute time.Time, excludingID string) (bool, error) {
	start := minute.UTC().Truncate(time.Minute)
	end := start.Add(time.Minute)

	row := queryTarget(r.pool, tx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM titles
			WHERE wallet_id = $1
			  AND date >= $2
			  AND date < $3
			  AND ($4 = '' OR id <> $4)
		)`,
		walletID, timeToPgTimestamptz(start), timeToPgTimestamptz(end), excludingID)

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

func scanTitle(row pgx.Row) (*domain.Title, error) {
	var (
		title           domain.Title
		value           pgtype.Numeric
		direction       string
		date            pgtype.Timestamptz
		previousBalance pgtype.Numeric
		createdAt       pgtype.Timestamptz
		updatedAt       pgtype.Timestamptz
	)

	err := row.Scan(
		&title.ID,
		&title.TenantID,
		&title.WalletID,
		&title.Description,
		&value,
		&direction,
		&date,
		&previousBalance,
		&title.CategoryIDs,
		&title.PeopleIDs,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTitleNotFound
		}

		return nil, err
	}

	title.Value = numericToDecimal(value)
	title.Direction = domain.Direction(direction)
	title.Date = date.Time
	title.PreviousBalance = numericToDecimal(previousBalance)
	title.CreatedAt = createdAt.Time
	title.UpdatedAt = updatedAt.Time

	return &title, nil
}

func collectTitles(rows pgx.Rows) ([]*domain.Title, error) {
	defer rows.Close()

	var titles []*domain.Title
	for rows.Next() {
		title, err := scanTitle(rows)
		if err != nil {
			return nil, err
		}
		titles = append(titles, title)
	}

	return titles, rows.Err()
}
