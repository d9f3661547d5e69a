package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willjrcristo/floating-notes-license/internal/domain"
)

// Os mesmos cenários rodam contra as duas implementações.
func repositories(t *testing.T) map[string]Repository {
	t.Helper()
	dir := t.TempDir()

	jsonRepo, err := NewJSONFileRepository(filepath.Join(dir, "data", "licenses.json"))
	require.NoError(t, err)

	sqliteRepo, err := OpenSQLite(filepath.Join(dir, "licenses.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		jsonRepo.Close()
		sqliteRepo.Close()
	})
	return map[string]Repository{"json": jsonRepo, "sqlite": sqliteRepo}
}

func TestRepository_Users(t *testing.T) {
	ctx := context.Background()
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			user := domain.User{ID: "u1", Email: "ana@email.com", PasswordHash: "hash", CreatedAt: time.Now().UTC()}
			require.NoError(t, repo.CreateUser(ctx, user))

			err := repo.CreateUser(ctx, domain.User{ID: "u2", Email: "ANA@email.com", PasswordHash: "x", CreatedAt: time.Now()})
			assert.ErrorIs(t, err, ErrDuplicateEmail)

			got, err := repo.GetUserByEmail(ctx, "Ana@Email.com")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "u1", got.ID)
			assert.Equal(t, "hash", got.PasswordHash)

			missing, err := repo.GetUserByEmail(ctx, "ninguem@email.com")
			require.NoError(t, err)
			assert.Nil(t, missing)
		})
	}
}

func TestRepository_Licenses(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			older := domain.License{ID: "l1", Key: "FN-OLD", Email: "bia@email.com", Tier: domain.TierFree,
				Status: domain.StatusPending, StripeSessionID: "cs_1", CreatedAt: base}
			newer := domain.License{ID: "l2", Key: "FN-NEW", Email: "bia@email.com", DeviceID: "dev-1",
				Tier: domain.TierFree, Status: domain.StatusPending, CreatedAt: base.Add(time.Minute)}
			require.NoError(t, repo.CreateLicense(ctx, older))
			require.NoError(t, repo.CreateLicense(ctx, newer))

			byKey, err := repo.GetLicenseByKey(ctx, "FN-OLD")
			require.NoError(t, err)
			require.NotNil(t, byKey)
			assert.Equal(t, "l1", byKey.ID)
			assert.Nil(t, byKey.ExpiresAt)

			byEmail, err := repo.ListLicensesByEmail(ctx, "BIA@email.com")
			require.NoError(t, err)
			require.Len(t, byEmail, 2)
			assert.Equal(t, "l2", byEmail[0].ID, "mais recente primeiro")

			byDevice, err := repo.ListLicensesByDevice(ctx, "dev-1")
			require.NoError(t, err)
			require.Len(t, byDevice, 1)
			assert.Equal(t, "l2", byDevice[0].ID)

			bySession, err := repo.GetLicenseBySession(ctx, "cs_1")
			require.NoError(t, err)
			require.NotNil(t, bySession)
			assert.Equal(t, "l1", bySession.ID)

			pending, err := repo.ListLicensesByStatus(ctx, domain.StatusPending)
			require.NoError(t, err)
			require.Len(t, pending, 2)
			assert.Equal(t, "l2", pending[0].ID)
			assert.Equal(t, "l1", pending[1].ID)

			byKey.Activate(base.Add(time.Hour), 365*24*time.Hour)
			byKey.StripeCustomerID = "cus_1"
			require.NoError(t, repo.UpdateLicense(ctx, *byKey))

			updated, err := repo.GetLicenseByKey(ctx, "FN-OLD")
			require.NoError(t, err)
			assert.Equal(t, domain.StatusActive, updated.Status)
			assert.Equal(t, domain.TierPro, updated.Tier)
			require.NotNil(t, updated.ExpiresAt)
			assert.True(t, updated.ExpiresAt.Equal(base.Add(time.Hour).Add(365*24*time.Hour)))

			byCustomer, err := repo.ListLicensesByCustomer(ctx, "cus_1")
			require.NoError(t, err)
			require.Len(t, byCustomer, 1)

			err = repo.UpdateLicense(ctx, domain.License{ID: "nao-existe", Key: "x", Tier: domain.TierFree, Status: domain.StatusActive})
			assert.ErrorIs(t, err, ErrNotFound)

			missing, err := repo.GetLicenseByKey(ctx, "FN-NADA")
			require.NoError(t, err)
			assert.Nil(t, missing)

			require.NoError(t, repo.CreatePayment(ctx, domain.Payment{
				ID: "p1", LicenseID: "l1", StripeChargeID: "ch_1", Amount: 499, Currency: "usd", CreatedAt: base,
			}))
			paid, err := repo.GetPaymentByCharge(ctx, "ch_1")
			require.NoError(t, err)
			require.NotNil(t, paid)
			assert.Equal(t, "l1", paid.LicenseID)
			assert.Equal(t, int64(499), paid.Amount)

			unpaid, err := repo.GetPaymentByCharge(ctx, "ch_outro")
			require.NoError(t, err)
			assert.Nil(t, unpaid)
			assert.NoError(t, repo.Ping(ctx))
		})
	}
}

func TestJSONFileRepository_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "licenses.json")

	first, err := NewJSONFileRepository(path)
	require.NoError(t, err)
	require.NoError(t, first.CreateUser(ctx, domain.User{ID: "u1", Email: "c@email.com", PasswordHash: "h", CreatedAt: time.Now()}))

	second, err := NewJSONFileRepository(path)
	require.NoError(t, err)
	got, err := second.GetUserByEmail(ctx, "c@email.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "h", got.PasswordHash)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"password": "h"`)
	assert.Contains(t, string(raw), `"licenses": []`)
}

func TestJSONFileRepository_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "licenses.json")
	require.NoError(t, os.WriteFile(path, []byte("{nao é json"), 0o600))

	repo, err := NewJSONFileRepository(path)
	require.NoError(t, err)
	assert.Error(t, repo.Ping(context.Background()))
}
