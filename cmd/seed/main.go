// seed genera un script SQL que carga el catálogo de productos de una empresa a partir de la
// hoja exportada del sistema anterior (.xlsx o .csv con ';').
//
// Uso: go run ./cmd/seed -company <uuid> [-out migrations/900_seed_catalog.sql] catalogo.xlsx
// Sin -out escribe en la salida estándar. Las referencias existentes se actualizan.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
)

func main() {
	company := flag.String("company", "", "UUID de la empresa dueña del catálogo")
	outPath := flag.String("out", "", "archivo SQL de salida (por defecto stdout)")
	flag.Parse()

	if _, err := uuid.Parse(*company); err != nil || flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "uso: seed -company <uuid> [-out archivo.sql] catalogo.xlsx|catalogo.csv")
		os.Exit(2)
	}

	rows, err := readRows(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer catálogo: %v\n", err)
		os.Exit(1)
	}
	products, problems := parseRows(rows)
	for _, p := range problems {
		fmt.Fprintln(os.Stderr, p)
	}
	if len(products) == 0 {
		fmt.Fprintln(os.Stderr, "No hay productos válidos")
		os.Exit(1)
	}

	var out io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	if err := writeSQL(out, *company, products); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Generado: %d productos, %d filas con problemas\n", len(products), len(problems))
}

func writeSQL(w io.Writer, companyID string, products []productRow) error {
	var b strings.Builder
	b.WriteString("-- Catálogo de productos generado por cmd/seed\n\n")
	b.WriteString("INSERT INTO products (id, company_id, reference_code, brand, model, description, unit_price) VALUES\n")
	for i, p := range products {
		fmt.Fprintf(&b, "  ('%s', '%s', '%s', '%s', '%s', '%s', %s)",
			uuid.New(), companyID, escapeSQL(p.ReferenceCode), escapeSQL(p.Brand), escapeSQL(p.Model),
			escapeSQL(p.Description), p.UnitPrice.StringFixed(2))
		if i < len(products)-1 {
			b.WriteString(",\n")
		} else {
			b.WriteString("\n")
		}
	}
	b.WriteString("ON CONFLICT (company_id, reference_code) DO UPDATE SET\n")
	b.WriteString("  brand = EXCLUDED.brand, model = EXCLUDED.model, description = EXCLUDED.description,\n")
	b.WriteString("  unit_price = EXCLUDED.unit_price, updated_at = now();\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
