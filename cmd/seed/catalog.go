package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// productRow fila válida del catálogo.
type productRow struct {
	ReferenceCode string
	Brand         string
	Model         string
	Description   string
	UnitPrice     decimal.Decimal
}

// rowError problema en una fila (Row es 1-based como en la hoja de cálculo).
type rowError struct {
	Row     int
	Message string
}

func (e rowError) String() string { return fmt.Sprintf("fila %d: %s", e.Row, e.Message) }

// columnas esperadas en la cabecera (en cualquier orden; mayúsculas indiferentes).
var columns = []string{"referencia", "marca", "modelo", "descripcion", "precio"}

// readRows lee la primera hoja de un .xlsx o un .csv separado por ';'. Los CSV exportados
// desde el POS anterior vienen en ISO-8859-1: si el contenido no es UTF-8 se decodifica.
func readRows(path string) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("abrir xlsx: %w", err)
		}
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("el archivo no tiene hojas")
		}
		return f.GetRows(sheets[0])
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("leer csv: %w", err)
	}
	var r io.Reader = bytes.NewReader(raw)
	if !utf8.Valid(raw) {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	return cr.ReadAll()
}

// parseRows valida las filas (la primera es la cabecera). Las filas vacías se omiten; una
// referencia repetida conserva la primera aparición.
func parseRows(rows [][]string) ([]productRow, []rowError) {
	if len(rows) == 0 {
		return nil, []rowError{{Row: 1, Message: "archivo vacío"}}
	}
	idx := make(map[string]int)
	for i, h := range rows[0] {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range []string{"referencia", "precio"} {
		if _, ok := idx[c]; !ok {
			return nil, []rowError{{Row: 1, Message: "falta la columna " + c}}
		}
	}
	cell := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []productRow
	var errs []rowError
	seen := make(map[string]int)
	for n, row := range rows[1:] {
		line := n + 2
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		ref := strings.ToUpper(strings.Join(strings.Fields(cell(row, "referencia")), ""))
		if ref == "" {
			errs = append(errs, rowError{Row: line, Message: "referencia vacía"})
			continue
		}
		if first, dup := seen[ref]; dup {
			errs = append(errs, rowError{Row: line, Message: fmt.Sprintf("referencia %s repetida (fila %d)", ref, first)})
			continue
		}
		// Los precios del POS usan coma decimal.
		price, err := decimal.NewFromString(strings.ReplaceAll(cell(row, "precio"), ",", "."))
		if err != nil || price.IsNegative() {
			errs = append(errs, rowError{Row: line, Message: "precio inválido: " + cell(row, "precio")})
			continue
		}
		seen[ref] = line
		out = append(out, productRow{
			ReferenceCode: ref,
			Brand:         cell(row, "marca"),
			Model:         cell(row, "modelo"),
			Description:   cell(row, "descripcion"),
			UnitPrice:     price,
		})
	}
	return out, errs
}
