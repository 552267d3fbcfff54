package persistence

import (
	"context"
	"testing"

	"github.com/dropship/backend/internal/domain/forwarder"
	"github.com/dropship/backend/internal/domain/landedcost"
	"github.com/dropship/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormCredentialRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCredentialRepository(db)
	ctx := context.Background()

	cred := &forwarder.Credential{
		ProviderName: "Eloji (UPS)",
		APIKey:       "key-1",
		APIEndpoint:  "https://api.eloji.example",
		WarehouseAddresses: []forwarder.ShippingAddress{
			{Name: "Eloji US", AddressLine1: "100 Dock St", City: "Portland", State: "OR", PostalCode: "97201", Country: "US"},
			{Name: "Eloji JP", AddressLine1: "2-1 Ariake", City: "Koto", PostalCode: "135-0063", Country: "JP"},
		},
	}
	require.NoError(t, repo.SaveCredential(ctx, cred))

	t.Run("lookup ignores case", func(t *testing.T) {
		stored, err := repo.GetCredential(ctx, "eloji (ups)")
		require.NoError(t, err)
		assert.Equal(t, "key-1", stored.APIKey)
		require.Len(t, stored.WarehouseAddresses, 2)

		addr, ok := stored.WarehouseFor("jp")
		require.True(t, ok)
		assert.Equal(t, "Koto", addr.City)
	})

	t.Run("save replaces the existing record", func(t *testing.T) {
		cred.APIKey = "key-2"
		cred.WarehouseAddresses = nil
		require.NoError(t, repo.SaveCredential(ctx, cred))

		stored, err := repo.GetCredential(ctx, "Eloji (UPS)")
		require.NoError(t, err)
		assert.Equal(t, "key-2", stored.APIKey)
		assert.Empty(t, stored.WarehouseAddresses)
	})

	t.Run("inactive and unknown providers are not found", func(t *testing.T) {
		require.NoError(t, db.Model(&models.ForwarderCredentialModel{}).
			Where("provider_name = ?", "Eloji (UPS)").
			Update("is_active", false).Error)

		_, err := repo.GetCredential(ctx, "Eloji (UPS)")
		assert.ErrorIs(t, err, forwarder.ErrCredentialNotFound)

		_, err = repo.GetCredential(ctx, "Nobody")
		assert.ErrorIs(t, err, forwarder.ErrCredentialNotFound)
	})
}

func TestClassificationFallbacks(t *testing.T) {
	tests := []struct {
		code string
		want []string
	}{
		{"6109.10.0010", []string{"6109100010", "610910", "6109"}},
		{"610910", []string{"610910", "6109"}},
		{"6109", []string{"6109"}},
		{"61", []string{"61"}},
		{"n/a", nil},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassificationFallbacks(tt.code))
		})
	}
}

func TestGormRateTable_Lookup(t *testing.T) {
	table := NewGormRateTable(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, table.UpsertRate(ctx, "6109", "US", "JP", landedcost.DutyRates{
		DutyRate: decimal.RequireFromString("0.109"),
		TaxRate:  decimal.RequireFromString("0.10"),
	}))
	require.NoError(t, table.UpsertRate(ctx, "6109.10", "US", "JP", landedcost.DutyRates{
		DutyRate: decimal.RequireFromString("0.05"),
		TaxRate:  decimal.RequireFromString("0.10"),
	}))

	t.Run("falls back to the subheading", func(t *testing.T) {
		rates, err := table.Lookup(ctx, "6109.10.0010", "us", "jp")
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("0.05").Equal(rates.DutyRate), rates.DutyRate.String())
	})

	t.Run("falls back to the heading", func(t *testing.T) {
		rates, err := table.Lookup(ctx, "6109.90", "US", "JP")
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("0.109").Equal(rates.DutyRate), rates.DutyRate.String())
		assert.True(t, decimal.RequireFromString("0.1").Equal(rates.TaxRate), rates.TaxRate.String())
	})

	t.Run("upsert replaces rates", func(t *testing.T) {
		require.NoError(t, table.UpsertRate(ctx, "6109", "US", "JP", landedcost.DutyRates{
			DutyRate: decimal.RequireFromString("0.2"),
			TaxRate:  decimal.RequireFromString("0.1"),
		}))
		rates, err := table.Lookup(ctx, "6109", "US", "JP")
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("0.2").Equal(rates.DutyRate))
	})

	t.Run("other lane is a miss", func(t *testing.T) {
		_, err := table.Lookup(ctx, "6109", "CN", "JP")
		assert.ErrorIs(t, err, landedcost.ErrRateNotFound)
	})

	t.Run("code without digits is a miss", func(t *testing.T) {
		_, err := table.Lookup(ctx, "n/a", "US", "JP")
		assert.ErrorIs(t, err, landedcost.ErrRateNotFound)
	})
}
