// seed_lots genera un script SQL con los lotes iniciales de bodega a partir de un CSV
// exportado del sistema anterior (separador ';', codificación ISO-8859-1 por defecto).
//
// Columnas: item_id;lot_code;expiry_date;quantity;location
// expiry_date vacío = sin vencimiento; quantity vacío = lote sin cantidad registrada.
//
// Uso: go run ./cmd/seed_lots [-utf8] [ruta/lotes.csv]
// Escribe: internal/infrastructure/postgres/migrations/002_seed_lots.sql
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/bodega-lotes/internal/domain/inventory"
)

// lotNamespace hace que el id de un lote dependa solo de (ítem, código, ubicación): re-ejecutar no duplica.
var lotNamespace = uuid.MustParse("6f1c1c0e-3b52-4c57-9a7e-5d8f0a3f2b10")

type seedLot struct {
	id       string
	itemID   string
	lotCode  string
	expiry   string // YYYY-MM-DD o vacío
	quantity decimal.NullDecimal
	location string
}

func main() {
	utf8 := flag.Bool("utf8", false, "el CSV ya viene en UTF-8")
	flag.Parse()

	csvPath := "lotes.csv"
	if flag.NArg() > 0 {
		csvPath = flag.Arg(0)
	}
	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	var r io.Reader = f
	if !*utf8 {
		r = transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
	}
	lots, err := parseLots(r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	outPath := filepath.Join(findModuleRoot(), "internal", "infrastructure", "postgres", "migrations", "002_seed_lots.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := writeSQL(out, lots); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d lotes\n", outPath, len(lots))
}

// parseLots lee el CSV; la primera fila es encabezado. Las filas vacías se ignoran.
func parseLots(r io.Reader) ([]seedLot, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = 5
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("encabezado: %w", err)
	}

	var lots []seedLot
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		itemID := strings.TrimSpace(rec[0])
		if itemID == "" {
			continue
		}
		l := seedLot{
			itemID:   itemID,
			lotCode:  strings.TrimSpace(rec[1]),
			location: strings.TrimSpace(rec[4]),
		}
		expiry, err := inventory.ParseExpiryDate(rec[2])
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		if expiry != nil {
			l.expiry = expiry.Format("2006-01-02")
		}
		if q := strings.TrimSpace(strings.ReplaceAll(rec[3], ",", ".")); q != "" {
			d, err := decimal.NewFromString(q)
			if err != nil || d.IsNegative() {
				return nil, fmt.Errorf("línea %d: cantidad inválida %q", line, rec[3])
			}
			l.quantity = decimal.NewNullDecimal(d)
		}
		l.id = uuid.NewSHA1(lotNamespace, []byte(l.itemID+"|"+l.lotCode+"|"+l.location)).String()
		lots = append(lots, l)
	}
	return lots, nil
}

// writeSQL ítems faltantes, lotes, un IN por lote con cantidad y el stock derivado de cada ítem.
func writeSQL(w io.Writer, lots []seedLot) error {
	var b strings.Builder
	b.WriteString("-- Lotes iniciales de bodega\n")
	b.WriteString("-- Generado por cmd/seed_lots\n\n")

	seen := make(map[string]bool)
	var items []string
	for _, l := range lots {
		if !seen[l.itemID] {
			seen[l.itemID] = true
			items = append(items, l.itemID)
		}
	}

	b.WriteString("-- 1. Ítems (sku = id hasta que se carguen los maestros)\n")
	for _, id := range items {
		fmt.Fprintf(&b, "INSERT INTO items (id, sku, name) VALUES ('%s', '%s', '%s') ON CONFLICT (id) DO NOTHING;\n",
			escapeSQL(id), escapeSQL(id), escapeSQL(id))
	}

	b.WriteString("\n-- 2. Lotes\n")
	for _, l := range lots {
		fmt.Fprintf(&b, "INSERT INTO stock_lots (id, item_id, lot_code, location, expiry_date, remaining_qty)\n")
		fmt.Fprintf(&b, "VALUES ('%s', '%s', '%s', '%s', %s, %s)\n",
			l.id, escapeSQL(l.itemID), escapeSQL(l.lotCode), escapeSQL(l.location), sqlDate(l.expiry), sqlQty(l.quantity))
		b.WriteString("ON CONFLICT (id) DO NOTHING;\n")
	}

	b.WriteString("\n-- 3. Movimientos de entrada\n")
	for _, l := range lots {
		if !l.quantity.Valid || l.quantity.Decimal.IsZero() {
			continue
		}
		moveID := uuid.NewSHA1(lotNamespace, []byte("in|"+l.id)).String()
		fmt.Fprintf(&b, "INSERT INTO stock_moves (id, item_id, lot_id, type, quantity, reason) VALUES ('%s', '%s', '%s', 'IN', %s, 'carga inicial') ON CONFLICT (id) DO NOTHING;\n",
			moveID, escapeSQL(l.itemID), l.id, l.quantity.Decimal.String())
	}

	b.WriteString("\n-- 4. Stock actual derivado de los lotes\n")
	b.WriteString("UPDATE items i SET stock_current = COALESCE((SELECT SUM(COALESCE(l.remaining_qty, 0)) FROM stock_lots l WHERE l.item_id = i.id), 0), updated_at = now();\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func sqlDate(s string) string {
	if s == "" {
		return "NULL"
	}
	return "'" + s + "'"
}

func sqlQty(q decimal.NullDecimal) string {
	if !q.Valid {
		return "NULL"
	}
	return q.Decimal.String()
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
