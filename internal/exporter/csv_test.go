package exporter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bakesales/internal/sales"
)

func TestWriteAggregates(t *testing.T) {
	aggs := []sales.Aggregate{
		{Key: "Croissant", Revenue: decimal.RequireFromString("120.50"), Quantity: decimal.NewFromInt(40)},
		{Key: "Sourdough", Revenue: decimal.NewFromInt(90), Quantity: decimal.NewFromInt(10)},
	}

	var buf bytes.Buffer
	w := NewCSVWriter()
	require.NoError(t, w.WriteAggregates(&buf, "Product", aggs))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\xEF\xBB\xBF"), "output must start with a UTF-8 BOM")

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(out, "\xEF\xBB\xBF")), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Product,Revenue,Quantity,AvgPrice", lines[0])
	assert.Equal(t, "Croissant,120.50,40,3.01", lines[1])
	assert.Equal(t, "Sourdough,90.00,10,9.00", lines[2])
}

func TestWriteAggregatesNoBOM(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{BOM: false}
	require.NoError(t, w.WriteAggregates(&buf, "Product", nil))
	assert.Equal(t, "Product,Revenue,Quantity,AvgPrice\n", buf.String())
}

func TestWriteComparison(t *testing.T) {
	rows := []sales.DiffRow{
		{
			Key:       "Pastries",
			Period1:   decimal.NewFromInt(100),
			Period2:   decimal.NewFromInt(150),
			ChangeAbs: decimal.NewFromInt(50),
			ChangePct: 50,
		},
		{
			Key:       "FMT",
			Period1:   decimal.NewFromInt(50),
			Period2:   decimal.Zero,
			ChangeAbs: decimal.NewFromInt(-50),
			ChangePct: -100,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewCSVWriter().WriteComparison(&buf, "Category", "May", "June", rows))

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(buf.String(), "\xEF\xBB\xBF")), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Category,May,June,Change $,Change %", lines[0])
	assert.Equal(t, "Pastries,100.00,150.00,50.00,+50.0%", lines[1])
	assert.Equal(t, "FMT,50.00,0.00,-50.00,-100.0%", lines[2])
}

func TestWriteAggregatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "products.csv")
	aggs := []sales.Aggregate{
		{Key: "Croissant", Revenue: decimal.NewFromInt(10), Quantity: decimal.NewFromInt(2)},
	}

	require.NoError(t, NewCSVWriter().WriteAggregatesFile(path, "Product", aggs))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Croissant,10.00,2,5.00")
}
