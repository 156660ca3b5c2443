package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/coachhub/coachhub/internal/domain/credit"
	"github.com/coachhub/coachhub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CreditRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewCreditRepo(pool *pgxpool.Pool, prom *observability.Prom) *CreditRepo {
	return &CreditRepo{pool: pool, prom: prom}
}

func (r *CreditRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *CreditRepo) ListPackages(ctx context.Context) (items []credit.Package, err error) {
	var rows pgx.Rows

	err = r.observe("credit.packages.list", func() error {
		var e error
		rows, e = r.pool.Query(ctx, `
			SELECT id, name, credit_amount, price, created_at
			FROM credit_packages ORDER BY created_at ASC
		`)
		return e
	})

	if err != nil {
		return
	}

	defer rows.Close()

	items = make([]credit.Package, 0)

	for rows.Next() {
		var p credit.Package

		if e := rows.Scan(&p.ID, &p.Name, &p.CreditAmount, &p.Price, &p.CreatedAt); e != nil {
			err = e
			return
		}
		items = append(items, p)
	}

	err = rows.Err()
	return
}

func (r *CreditRepo) CreatePackage(ctx context.Context, name string, creditAmount int, price float64) (p credit.Package, err error) {
	p = credit.Package{
		ID:           uuid.NewString(),
		Name:         name,
		CreditAmount: creditAmount,
		Price:        price,
		CreatedAt:    time.Now().UTC(),
	}

	err = r.observe("credit.packages.create", func() error {
		_, e := r.pool.Exec(ctx, `
			INSERT INTO credit_packages (id, name, credit_amount, price, created_at)
			VALUES ($1,$2,$3,$4,$5)
		`, p.ID, p.Name, p.CreditAmount, p.Price, p.CreatedAt)
		return e
	})

	if err != nil {
		if IsUniqueViolation(err) {
			err = credit.ErrDuplicateName
		}
		return credit.Package{}, err
	}

	return p, nil
}

// DeletePackage removes the catalogue row only. Purchases keep their snapshot
// of credits and price, so owned credits survive the delete.
func (r *CreditRepo) DeletePackage(ctx context.Context, id string) (err error) {
	var tag pgconn.CommandTag

	err = r.observe("credit.packages.delete", func() error {
		var e error
		tag, e = r.pool.Exec(ctx, `DELETE FROM credit_packages WHERE id = $1`, id)
		return e
	})

	if err != nil {
		return
	}

	if tag.RowsAffected() == 0 {
		err = credit.ErrPackageNotFound
		return
	}

	return
}

// Purchase reads the package inside a transaction and snapshots its credit
// amount and price onto the purchase row.
func (r *CreditRepo) Purchase(ctx context.Context, userID, packageID string) (p credit.Purchase, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return
	}

	defer func() { _ = tx.Rollback(ctx) }()

	var pkg credit.Package

	err = r.observe("credit.purchase.read_package", func() error {
		return tx.QueryRow(ctx, `
			SELECT id, name, credit_amount, price, created_at
			FROM credit_packages WHERE id = $1
		`, packageID).Scan(&pkg.ID, &pkg.Name, &pkg.CreditAmount, &pkg.Price, &pkg.CreatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = credit.ErrPackageNotFound
		}
		return
	}

	now := time.Now().UTC()

	p = credit.Purchase{
		ID:               uuid.NewString(),
		UserID:           userID,
		CreditPackageID:  pkg.ID,
		PackageName:      pkg.Name,
		PurchasedCredits: pkg.CreditAmount,
		PricePaid:        pkg.Price,
		PurchaseAt:       now,
	}

	err = r.observe("credit.purchase.insert", func() error {
		_, e := tx.Exec(ctx, `
			INSERT INTO credit_purchases (id, user_id, credit_package_id, purchased_credits, price_paid, purchase_at, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, p.ID, p.UserID, p.CreditPackageID, p.PurchasedCredits, p.PricePaid, p.PurchaseAt, now)
		return e
	})

	if err != nil {
		return
	}

	err = tx.Commit(ctx)
	return
}

// ListPurchases returns a user's purchase history, newest first. The package
// name comes from the catalogue when the package still exists, otherwise it
// is empty and the snapshot columns carry the facts.
func (r *CreditRepo) ListPurchases(ctx context.Context, userID string) (items []credit.Purchase, err error) {
	var rows pgx.Rows

	err = r.observe("credit.purchases.list", func() error {
		var e error
		rows, e = r.pool.Query(ctx, `
			SELECT cp.id, cp.user_id, cp.credit_package_id, COALESCE(pk.name, ''),
			       cp.purchased_credits, cp.price_paid, cp.purchase_at
			FROM credit_purchases cp
			LEFT JOIN credit_packages pk ON pk.id = cp.credit_package_id
			WHERE cp.user_id = $1
			ORDER BY cp.purchase_at DESC
		`, userID)
		return e
	})

	if err != nil {
		return
	}

	defer rows.Close()

	items = make([]credit.Purchase, 0)

	for rows.Next() {
		var p credit.Purchase

		if e := rows.Scan(&p.ID, &p.UserID, &p.CreditPackageID, &p.PackageName,
			&p.PurchasedCredits, &p.PricePaid, &p.PurchaseAt); e != nil {
			err = e
			return
		}
		items = append(items, p)
	}

	err = rows.Err()
	return
}
