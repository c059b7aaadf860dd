package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/Inventario-pares/internal/domain"
)

// SQLSTATE relevantes.
const (
	codeUniqueViolation  = "23505"
	codeCheckViolation   = "23514"
	codeLockNotAvailable = "55P03"
	codeDeadlockDetected = "40P01"
)

// wrapErr envuelve err con la operación y lo traduce a errores de dominio cuando aplica.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeLockNotAvailable, codeDeadlockDetected:
			return fmt.Errorf("%s: %w", op, domain.ErrLockTimeout)
		case codeUniqueViolation:
			return fmt.Errorf("%s: %w", op, domain.ErrConflict)
		case codeCheckViolation:
			return fmt.Errorf("%s: %s: %w", op, pgErr.ConstraintName, domain.ErrInvalidInput)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// filter arma cláusulas WHERE con placeholders numerados.
type filter struct {
	conds []string
	args  []any
}

// add agrega una condición; cond usa %d donde va el número de placeholder.
func (f *filter) add(cond string, v any) {
	f.args = append(f.args, v)
	f.conds = append(f.conds, fmt.Sprintf(cond, len(f.args)))
}

// raw agrega una condición sin argumentos.
func (f *filter) raw(cond string) {
	f.conds = append(f.conds, cond)
}

// next número del siguiente placeholder.
func (f *filter) next(v any) int {
	f.args = append(f.args, v)
	return len(f.args)
}

func (f *filter) where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conds, " AND ")
}

// nullable convierte "" en NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
