package kpi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountPlaceholders(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want int
	}{
		{"none", "SELECT COUNT(*) FROM WarehouseStockGroups", 0},
		{"two", "SELECT 1 WHERE a BETWEEN ? AND ?", 2},
		{"inside literal", "SELECT '?' AS q WHERE x = ?", 1},
		{"escaped quote", "SELECT 'it''s ?' WHERE x = ? AND y = ?", 2},
		{"strftime literal", "SELECT strftime('%Y-%m-01', d) WHERE d BETWEEN ? AND ?", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, countPlaceholders(tt.sql))
		})
	}
}

func TestNewRegistryRejectsMalformedMappings(t *testing.T) {
	t.Run("slot count mismatch", func(t *testing.T) {
		assert.Panics(t, func() {
			newRegistry([]Definition{{
				ID:       SalesVsPurchases,
				Name:     "sales_vs_purchases",
				Template: "SELECT 1 WHERE a BETWEEN ? AND ? AND b BETWEEN ? AND ?",
				Slots:    []Slot{SlotRangeStart, SlotRangeEnd},
			}})
		})
	})

	t.Run("unknown slot", func(t *testing.T) {
		assert.Panics(t, func() {
			newRegistry([]Definition{{
				ID:       MostDiscountedClients,
				Name:     "most_discounted_clients",
				Template: "SELECT 1 LIMIT ?",
				Slots:    []Slot{Slot(42)},
			}})
		})
	})

	t.Run("duplicate name", func(t *testing.T) {
		assert.Panics(t, func() {
			newRegistry([]Definition{
				{ID: GrossProfit, Name: "gross_profit", Template: "SELECT 1"},
				{ID: COGSvsPurchases, Name: "gross_profit", Template: "SELECT 2"},
			})
		})
	})

	t.Run("valid", func(t *testing.T) {
		assert.NotPanics(t, func() {
			r := newRegistry([]Definition{{ID: GrossProfit, Name: "gross_profit", Template: " SELECT 1 "}})
			assert.Equal(t, "SELECT 1", r.byName["gross_profit"].Template)
		})
	})
}

func TestParamsLimitDefault(t *testing.T) {
	assert.Equal(t, DefaultLimit, Params{}.limit())
	assert.Equal(t, DefaultLimit, Params{Limit: -3}.limit())
	assert.Equal(t, 4, Params{Limit: 4}.limit())
}
