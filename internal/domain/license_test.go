package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLicense_IsPro(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name    string
		license License
		want    bool
	}{
		{"ativa pro sem expiração", License{Status: StatusActive, Tier: TierPro}, true},
		{"ativa pro com expiração futura", License{Status: StatusActive, Tier: TierPro, ExpiresAt: &future}, true},
		{"ativa pro expirada", License{Status: StatusActive, Tier: TierPro, ExpiresAt: &past}, false},
		{"expira exatamente agora", License{Status: StatusActive, Tier: TierPro, ExpiresAt: &now}, false},
		{"ativa free", License{Status: StatusActive, Tier: TierFree}, false},
		{"pendente pro", License{Status: StatusPending, Tier: TierPro}, false},
		{"inativa pro", License{Status: StatusInactive, Tier: TierPro, ExpiresAt: &future}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.license.IsPro(now)
			assert.Equal(t, tc.want, got)
			if got {
				// isPro implica status active e tier pro
				assert.Equal(t, StatusActive, tc.license.Status)
				assert.Equal(t, TierPro, tc.license.Tier)
			}
		})
	}
}

func TestLicense_Activate(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	l := License{Status: StatusPending, Tier: TierFree}

	l.Activate(now, 365*24*time.Hour)

	assert.Equal(t, StatusActive, l.Status)
	assert.Equal(t, TierPro, l.Tier)
	assert.Equal(t, now, *l.ActivatedAt)
	assert.Equal(t, now.AddDate(1, 0, 0), *l.ExpiresAt)
	assert.True(t, l.IsPro(now))
	assert.False(t, l.IsPro(now.AddDate(1, 0, 0)))

	renewal := now.AddDate(1, 0, 0)
	l.Activate(renewal, 365*24*time.Hour)
	assert.Equal(t, now, *l.ActivatedAt, "renovação mantém a primeira ativação")
	assert.Equal(t, renewal.Add(365*24*time.Hour), *l.ExpiresAt)
}

func TestFeature_RequiresPro(t *testing.T) {
	assert.False(t, FeatureNotes.RequiresPro())
	assert.False(t, FeatureShortcuts.RequiresPro())
	assert.True(t, FeatureBackup.RequiresPro())
	assert.True(t, Feature("desconhecida").RequiresPro())
}
