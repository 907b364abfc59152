package query

import (
	"fmt"
	"strings"
)

// Builder accumulates joins, WHERE conjuncts and ORDER BY clauses with
// numbered placeholder args for pgx. Filter handlers write into a shared
// Builder; every top-level condition composes with AND.
type Builder struct {
	joins   []string
	conds   []string
	orConds []string
	orders  []string
	args    []any
	argn    int
	limit   int
	offset  int
}

func NewBuilder() *Builder {
	return &Builder{argn: 1}
}

// Where appends a condition. Each "?" in expr is rewritten to the next
// numbered placeholder.
func (b *Builder) Where(expr string, args ...any) {
	b.conds = append(b.conds, b.bind(expr, args))
}

// OrWhere appends a condition to a shared OR group. The group renders as one
// parenthesized disjunction ANDed with the plain conditions, which is how the
// multi-field substring searches combine.
func (b *Builder) OrWhere(expr string, args ...any) {
	b.orConds = append(b.orConds, b.bind(expr, args))
}

// Join appends a join clause once; duplicates are ignored so several handlers
// can require the same relation.
func (b *Builder) Join(clause string) {
	for _, j := range b.joins {
		if j == clause {
			return
		}
	}
	b.joins = append(b.joins, clause)
}

// OrderBy appends an ordering expression with direction "asc" or "desc".
func (b *Builder) OrderBy(expr, dir string) {
	if dir != "desc" {
		dir = "asc"
	}
	b.orders = append(b.orders, expr+" "+dir)
}

// OrderByExpr appends a raw ordering expression, binding any args.
func (b *Builder) OrderByExpr(expr string, args ...any) {
	b.orders = append(b.orders, b.bind(expr, args))
}

// Paginate sets LIMIT/OFFSET for a 1-based page.
func (b *Builder) Paginate(pageSize, page int) {
	if pageSize <= 0 {
		pageSize = 10
	}
	if page <= 0 {
		page = 1
	}
	b.limit = pageSize
	b.offset = (page - 1) * pageSize
}

func (b *Builder) bind(expr string, args []any) string {
	for _, a := range args {
		expr = strings.Replace(expr, "?", fmt.Sprintf("$%d", b.argn), 1)
		b.args = append(b.args, a)
		b.argn++
	}
	return expr
}

// SQL assembles the final statement from a base SELECT.
func (b *Builder) SQL(base string) (string, []any) {
	var sb strings.Builder
	sb.WriteString(base)

	for _, j := range b.joins {
		sb.WriteString(" ")
		sb.WriteString(j)
	}

	conds := b.conds
	if len(b.orConds) > 0 {
		conds = append(conds, "("+strings.Join(b.orConds, " OR ")+")")
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}

	if len(b.orders) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orders, ", "))
	}

	if b.limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d OFFSET %d", b.limit, b.offset)
	}

	return sb.String(), b.args
}

// Args returns the bound args so far.
func (b *Builder) Args() []any {
	return b.args
}
