package report

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSummaryWriter_Write(t *testing.T) {
	summary := NewRunSummary()
	summary.EmailsFound = 5
	summary.EmailsProcessed = 4
	summary.EmailsSkipped = 1
	summary.InvoicesExtracted = 3

	amount := 45.99
	summary.CountRecord("hosting", "USD", &amount)
	summary.CountRecord("utilities", "COP", nil)

	w := NewSummaryWriter(t.TempDir(), zap.NewNop())
	path, err := w.Write(summary)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got RunSummary
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, 5, got.EmailsFound)
	assert.Equal(t, 4, got.EmailsProcessed)
	assert.Equal(t, 1, got.ByCategory["hosting"])
	assert.Equal(t, 1, got.ByCategory["utilities"])
	assert.Equal(t, 45.99, got.TotalByCurrency["USD"])
	assert.NotContains(t, got.TotalByCurrency, "COP")
	assert.False(t, got.FinishedAt.IsZero())
}
