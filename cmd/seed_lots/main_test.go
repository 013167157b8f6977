package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const sampleCSV = `item_id;lot_code;expiry_date;quantity;location
ARZ;L-01;2025-01-31;5;A1
ARZ;L-02;;10,5;A2
CAF;Café'1;2025-06-01;;B1

`

func TestParseLots(t *testing.T) {
	lots, err := parseLots(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, lots, 3)

	assert.Equal(t, "2025-01-31", lots[0].expiry)
	assert.Equal(t, "5", lots[0].quantity.Decimal.String())
	assert.Equal(t, "", lots[1].expiry)
	assert.Equal(t, "10.5", lots[1].quantity.Decimal.String())
	assert.False(t, lots[2].quantity.Valid)

	again, err := parseLots(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, lots[0].id, again[0].id, "ids estables entre corridas")
	assert.NotEqual(t, lots[0].id, lots[1].id)
}

func TestParseLots_ISO88591(t *testing.T) {
	var latin bytes.Buffer
	w := transform.NewWriter(&latin, charmap.ISO8859_1.NewEncoder())
	_, err := w.Write([]byte(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	lots, err := parseLots(transform.NewReader(&latin, charmap.ISO8859_1.NewDecoder()))
	require.NoError(t, err)
	assert.Equal(t, "Café'1", lots[2].lotCode)
}

func TestParseLots_Errores(t *testing.T) {
	_, err := parseLots(strings.NewReader("h;h;h;h;h\nARZ;L;31/01/2025;1;A\n"))
	assert.ErrorContains(t, err, "línea 2")

	_, err = parseLots(strings.NewReader("h;h;h;h;h\nARZ;L;;-1;A\n"))
	assert.ErrorContains(t, err, "cantidad inválida")

	lots, err := parseLots(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, lots)
}

func TestWriteSQL(t *testing.T) {
	lots, err := parseLots(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, writeSQL(&out, lots))
	sql := out.String()

	assert.Equal(t, 2, strings.Count(sql, "INSERT INTO items"))
	assert.Equal(t, 3, strings.Count(sql, "INSERT INTO stock_lots"))
	assert.Equal(t, 2, strings.Count(sql, "INSERT INTO stock_moves"), "el lote sin cantidad no genera IN")
	assert.Contains(t, sql, "'Café''1'")
	assert.Contains(t, sql, "NULL, 10.5)")
	assert.Contains(t, sql, "UPDATE items i SET stock_current")
}
