package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "0,00", formatMoney(decimal.Zero))
	assert.Equal(t, "25 000,00", formatMoney(decimal.NewFromInt(25000)))
	assert.Equal(t, "-1 234,50", formatMoney(decimal.RequireFromString("-1234.5")))
	assert.Equal(t, "999,99", formatMoney(decimal.RequireFromString("999.99")))
}

func TestGenerateCycleReport(t *testing.T) {
	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	cycle := entity.NewInventoryCycle("c1", "s1", 2026, 7, "Inventaire annuel", "u1", now)
	counted := entity.NewInventoryLine("l1", "c1", "p1", "", 10, decimal.NewFromInt(3), now)
	require.NoError(t, counted.RecordCount(8, now))
	pending := entity.NewInventoryLine("l2", "c1", "p2", "LOT-A", 4, decimal.NewFromInt(5), now)
	lines := []*entity.InventoryLine{counted, pending}

	data := &inventory.ReportData{
		Cycle:     cycle,
		StoreName: "Boutique Centre",
		Rows: []inventory.ReportRow{
			{Line: counted, SKU: "SKU-1", ProductName: "Café"},
			{Line: pending, SKU: "SKU-2", ProductName: "Yaourt"},
		},
		Stats: entity.ComputeCycleStats(lines),
	}

	out, err := NewMarotoCycleReport().GenerateCycleReport(context.Background(), data)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGenerateCycleReport_NilData(t *testing.T) {
	_, err := NewMarotoCycleReport().GenerateCycleReport(context.Background(), nil)
	assert.Error(t, err)
}
