package store

import (
	"fmt"
	"strings"

	"github.com/safar/go-sql-shop/internal/models"
)

// MaxSearchResults caps every filtered order search.
const MaxSearchResults = 1000

// OrderSearch filters orders by status and by a case-insensitive substring
// of the member name. Zero fields do not filter; set fields are ANDed.
type OrderSearch struct {
	Status     models.OrderStatus
	MemberName string
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// where renders the filter as a WHERE clause over orders o joined to
// member m, numbering placeholders from $1. It returns "" without filters.
func (s OrderSearch) where() (string, []any) {
	var conds []string
	var args []any

	if s.Status != "" {
		args = append(args, string(s.Status))
		conds = append(conds, fmt.Sprintf("o.status = $%d", len(args)))
	}

	if strings.TrimSpace(s.MemberName) != "" {
		args = append(args, "%"+likeEscaper.Replace(s.MemberName)+"%")
		conds = append(conds, fmt.Sprintf(`m.name ILIKE $%d ESCAPE '\'`, len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
