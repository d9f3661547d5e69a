package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/mattn/go-sqlite3"

	"github.com/willjrcristo/floating-notes-license/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const licenseColumns = `id, user_id, license_key, email, device_id, tier, status,
	stripe_session_id, stripe_customer_id, created_at, activated_at, expires_at`

// sqliteRepository é a implementação do Repository para SQLite.
type sqliteRepository struct {
	db *sql.DB
}

// OpenSQLite abre o banco, aplica as migrations e devolve o repositório.
func OpenSQLite(path string) (Repository, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return NewSQLiteRepository(db), nil
}

// NewSQLiteRepository cria o repositório sobre uma conexão já migrada.
func NewSQLiteRepository(db *sql.DB) Repository {
	return &sqliteRepository{
		db: db,
	}
}

func runMigrations(db *sql.DB) error {
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("driver de migration: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("fonte de migration: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("iniciar migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("aplicar migrations: %w", err)
	}
	return nil
}

// --- USUÁRIOS ---

func (r *sqliteRepository) CreateUser(ctx context.Context, user domain.User) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users(id, email, password, created_at) VALUES(?, ?, ?, ?)",
		user.ID, user.Email, user.PasswordHash, user.CreatedAt.UTC())
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return ErrDuplicateEmail
	}
	return err
}

func (r *sqliteRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, email, password, created_at FROM users WHERE email = ? COLLATE NOCASE", email)

	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// --- LICENÇAS ---

func (r *sqliteRepository) CreateLicense(ctx context.Context, l domain.License) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO licenses("+licenseColumns+") VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		l.ID, nullString(l.UserID), l.Key, nullString(l.Email), nullString(l.DeviceID),
		string(l.Tier), string(l.Status), nullString(l.StripeSessionID), nullString(l.StripeCustomerID),
		l.CreatedAt.UTC(), nullTime(l.ActivatedAt), nullTime(l.ExpiresAt))
	return err
}

func (r *sqliteRepository) UpdateLicense(ctx context.Context, l domain.License) error {
	res, err := r.db.ExecContext(ctx, `UPDATE licenses SET
		user_id = ?, email = ?, device_id = ?, tier = ?, status = ?,
		stripe_session_id = ?, stripe_customer_id = ?, activated_at = ?, expires_at = ?
		WHERE id = ?`,
		nullString(l.UserID), nullString(l.Email), nullString(l.DeviceID), string(l.Tier), string(l.Status),
		nullString(l.StripeSessionID), nullString(l.StripeCustomerID), nullTime(l.ActivatedAt), nullTime(l.ExpiresAt),
		l.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqliteRepository) GetLicenseByKey(ctx context.Context, key string) (*domain.License, error) {
	return r.queryOne(ctx, "license_key = ?", key)
}

func (r *sqliteRepository) GetLicenseBySession(ctx context.Context, sessionID string) (*domain.License, error) {
	return r.queryOne(ctx, "stripe_session_id = ?", sessionID)
}

func (r *sqliteRepository) ListLicensesByDevice(ctx context.Context, deviceID string) ([]domain.License, error) {
	return r.queryMany(ctx, "device_id = ?", deviceID)
}

func (r *sqliteRepository) ListLicensesByEmail(ctx context.Context, email string) ([]domain.License, error) {
	return r.queryMany(ctx, "email = ? COLLATE NOCASE", email)
}

func (r *sqliteRepository) ListLicensesByStatus(ctx context.Context, status domain.LicenseStatus) ([]domain.License, error) {
	return r.queryMany(ctx, "status = ?", string(status))
}

func (r *sqliteRepository) ListLicensesByCustomer(ctx context.Context, customerID string) ([]domain.License, error) {
	return r.queryMany(ctx, "stripe_customer_id = ?", customerID)
}

func (r *sqliteRepository) queryOne(ctx context.Context, where string, arg any) (*domain.License, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+licenseColumns+" FROM licenses WHERE "+where+" ORDER BY created_at DESC LIMIT 1", arg)
	l, err := scanLicense(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return l, nil
}

func (r *sqliteRepository) queryMany(ctx context.Context, where string, arg any) ([]domain.License, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+licenseColumns+" FROM licenses WHERE "+where+" ORDER BY created_at DESC", arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var licenses []domain.License
	for rows.Next() {
		l, err := scanLicense(rows)
		if err != nil {
			return nil, err
		}
		licenses = append(licenses, *l)
	}
	return licenses, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLicense(s scanner) (*domain.License, error) {
	var (
		l                       domain.License
		userID, email, deviceID sql.NullString
		sessionID, customerID   sql.NullString
		tier, status            string
		activatedAt, expiresAt  sql.NullTime
	)
	err := s.Scan(&l.ID, &userID, &l.Key, &email, &deviceID, &tier, &status,
		&sessionID, &customerID, &l.CreatedAt, &activatedAt, &expiresAt)
	if err != nil {
		return nil, err
	}
	l.UserID = userID.String
	l.Email = email.String
	l.DeviceID = deviceID.String
	l.StripeSessionID = sessionID.String
	l.StripeCustomerID = customerID.String
	l.Tier = domain.Tier(tier)
	l.Status = domain.LicenseStatus(status)
	if activatedAt.Valid {
		t := activatedAt.Time
		l.ActivatedAt = &t
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		l.ExpiresAt = &t
	}
	return &l, nil
}

// --- PAGAMENTOS ---

func (r *sqliteRepository) CreatePayment(ctx context.Context, p domain.Payment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payments(id, license_id, stripe_charge_id, email, amount, currency, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.LicenseID, p.StripeChargeID, nullString(p.Email), p.Amount, p.Currency, p.CreatedAt.UTC())
	return err
}

func (r *sqliteRepository) GetPaymentByCharge(ctx context.Context, chargeID string) (*domain.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, license_id, stripe_charge_id, email, amount, currency, created_at
		FROM payments WHERE stripe_charge_id = ? LIMIT 1`, chargeID)

	var (
		p     domain.Payment
		email sql.NullString
	)
	if err := row.Scan(&p.ID, &p.LicenseID, &p.StripeChargeID, &email, &p.Amount, &p.Currency, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.Email = email.String
	return &p, nil
}

func (r *sqliteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *sqliteRepository) Close() error {
	return r.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
