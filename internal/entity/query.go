package entity

import (
	"fmt"
	"strings"

	"estate_crm_backend/internal/access"
	"estate_crm_backend/platform/apperr"
)

// Op is a filter comparison.
type Op string

const (
	OpEq  Op = "="
	OpNe  Op = "<>"
	OpGt  Op = ">"
	OpGte Op = ">="
	OpLt  Op = "<"
	OpLte Op = "<="
	// OpIn expects a slice value and renders "= ANY($n)".
	OpIn Op = "in"
	// OpNull ignores Value and renders "IS NULL".
	OpNull Op = "null"
)

// Filter restricts a listing to rows where Column Op Value.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

// Eq is shorthand for an equality filter.
func Eq(column string, value any) Filter { return Filter{Column: column, Op: OpEq, Value: value} }

// ListParams controls FindAll.
type ListParams struct {
	Filters   []Filter
	SortBy    string
	SortOrder string
	Page      int
	// PageSize of zero returns every matching row.
	PageSize int
}

// ListResult is one page of records plus the total match count.
type ListResult[T any] struct {
	Items      []*T `json:"items"`
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	PageSize   int  `json:"pageSize"`
	TotalPages int  `json:"totalPages"`
}

const maxPageSize = 500

type listQuery struct {
	count  string
	sel    string
	args   []any
	page   int
	size   int
	offset int
}

// buildList renders the count and select statements for a scoped listing.
func (t *Table[T]) buildList(scope access.Scope, params ListParams) (listQuery, error) {
	clause, args := scope.Where(1)
	where := []string{clause}
	argIndex := len(args) + 1

	for _, f := range params.Filters {
		if !t.filterable(f.Column) {
			return listQuery{}, apperr.Validation(fmt.Sprintf("cannot filter %s by %s", t.EntityType, f.Column))
		}
		switch f.Op {
		case OpNull:
			where = append(where, f.Column+" IS NULL")
		case OpIn:
			where = append(where, fmt.Sprintf("%s = ANY($%d)", f.Column, argIndex))
			args = append(args, f.Value)
			argIndex++
		case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte:
			where = append(where, fmt.Sprintf("%s %s $%d", f.Column, f.Op, argIndex))
			args = append(args, f.Value)
			argIndex++
		case "":
			where = append(where, fmt.Sprintf("%s = $%d", f.Column, argIndex))
			args = append(args, f.Value)
			argIndex++
		default:
			return listQuery{}, apperr.Validation("unsupported filter operator " + string(f.Op))
		}
	}

	orderBy := "created_at"
	if params.SortBy != "" {
		col, ok := t.Sortable[params.SortBy]
		if !ok {
			return listQuery{}, apperr.BadRequest("invalid sort field")
		}
		orderBy = col
	}
	sortDir := "DESC"
	switch strings.ToLower(params.SortOrder) {
	case "":
	case "asc":
		sortDir = "ASC"
	case "desc":
		sortDir = "DESC"
	default:
		return listQuery{}, apperr.BadRequest("invalid sort order")
	}

	base := fmt.Sprintf("FROM %s WHERE %s", t.Name, strings.Join(where, " AND "))
	q := listQuery{
		count: "SELECT COUNT(*) " + base,
		args:  args,
		page:  max(params.Page, 1),
		size:  min(max(params.PageSize, 0), maxPageSize),
	}

	sel := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, id", t.selectList(), base, orderBy, sortDir)
	if q.size > 0 {
		q.offset = (q.page - 1) * q.size
		sel += fmt.Sprintf(" LIMIT %d OFFSET %d", q.size, q.offset)
	}
	q.sel = sel
	return q, nil
}

func (t *Table[T]) buildFindByID(scope access.Scope) (string, []any) {
	clause, args := scope.Where(2)
	return fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 AND %s", t.selectList(), t.Name, clause), args
}

func (t *Table[T]) buildInsert() string {
	cols := t.allColumns()
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.Name, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
}

// buildUpdate sets owner, updated_at and every data column, bumps version and
// guards on the expected version. Args: $1 id, $2 expected version, $3 owner,
// $4 updated_at, then Columns.
func (t *Table[T]) buildUpdate() string {
	sets := []string{
		fmt.Sprintf("%s = $3", t.Scoping.OwnerColumn),
		"updated_at = $4",
		"version = version + 1",
	}
	for i, c := range t.Columns {
		sets = append(sets, fmt.Sprintf("%s = $%d", c, i+5))
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = $1 AND version = $2", t.Name, strings.Join(sets, ", "))
}

func (t *Table[T]) buildDelete() string {
	return fmt.Sprintf("DELETE FROM %s WHERE id = $1 AND version = $2", t.Name)
}
