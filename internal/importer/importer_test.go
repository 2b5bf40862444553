package importer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseFile(t *testing.T) {
	path := writeCSV(t, `order_id,product_id,warehouse_id,quantity,unit_price,created_at
o1,p1,w1,3,19.99,2026-03-01T10:00:00Z
o1,p2,w1,1,5.00,2026-03-01T10:00:00Z
o2,p1,w1,2,19.99,2026-03-02
`)

	rows, err := parseFile(path)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "o1", rows[0].OrderID)
	assert.Equal(t, "p1", rows[0].ProductID)
	assert.Equal(t, "w1", rows[0].WarehouseID)
	assert.Equal(t, 3.0, rows[0].Quantity)
	assert.Equal(t, 19.99, rows[0].UnitPrice)
	assert.Equal(t, time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC), rows[0].CreatedAt)
	assert.Equal(t, time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC), rows[2].CreatedAt)
}

func TestParseFileColumnOrderIndependent(t *testing.T) {
	path := writeCSV(t, `created_at,quantity,order_id,unit_price,warehouse_id,product_id
2026-03-01,4,o9,2.50,w2,p7
`)

	rows, err := parseFile(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "o9", rows[0].OrderID)
	assert.Equal(t, "w2", rows[0].WarehouseID)
	assert.Equal(t, 4.0, rows[0].Quantity)
}

func TestParseFileMissingColumn(t *testing.T) {
	path := writeCSV(t, `order_id,product_id,quantity,unit_price,created_at
o1,p1,3,19.99,2026-03-01
`)

	_, err := parseFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "warehouse_id")
}

func TestParseFileBadQuantity(t *testing.T) {
	path := writeCSV(t, `order_id,product_id,warehouse_id,quantity,unit_price,created_at
o1,p1,w1,lots,19.99,2026-03-01
`)

	_, err := parseFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quantity")
}

func TestParseFileBadTimestamp(t *testing.T) {
	path := writeCSV(t, `order_id,product_id,warehouse_id,quantity,unit_price,created_at
o1,p1,w1,3,19.99,yesterday
`)

	_, err := parseFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "created_at")
}

func TestParseFileMissingFile(t *testing.T) {
	_, err := parseFile(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestParseTimestampLayouts(t *testing.T) {
	ts, err := parseTimestamp("2026-03-01 15:04:05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 1, 15, 4, 5, 0, time.UTC), ts)

	_, err = parseTimestamp("03/01/2026")
	assert.Error(t, err)
}
