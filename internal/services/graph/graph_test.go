package graph

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/balancecheck/internal/domain"
)

func TestRender_EmptySeries(t *testing.T) {
	path, err := NewRenderer(t.TempDir(), 3, nil).Render(nil, "CAD")
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestRender_WritesPNG(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var points []domain.BalancePoint
	for i := 0; i < 10; i++ {
		points = append(points, domain.NewBalancePoint(start.Add(time.Duration(i)*time.Hour), decimal.NewFromInt(int64(1000+i*10))))
	}

	dir := t.TempDir()
	path, err := NewRenderer(dir, 3, nil).Render(points, "CAD")
	require.NoError(t, err)
	require.NotEmpty(t, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data[:4])
}

func TestRender_SinglePointWithoutTrend(t *testing.T) {
	points := []domain.BalancePoint{domain.NewBalancePoint(time.Unix(1700000000, 0), decimal.NewFromInt(5))}

	path, err := NewRenderer(t.TempDir(), 24, nil).Render(points, "USD")
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestTitle(t *testing.T) {
	start := time.Date(2024, 1, 1, 8, 30, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, "Crypto Balance: 2024-01-01 08:30 - 2024-02-01 09:00", Title(start, end))
}
