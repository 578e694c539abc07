package option

import (
	"fmt"
	"strings"

	"farmavida-master/pkg/db/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QueryOption is a gorm scope applied by repositories before executing a query.
type QueryOption func(*gorm.DB) *gorm.DB

type Operator string

const (
	EQ   Operator = "="
	NEQ  Operator = "<>"
	GT   Operator = ">"
	GTE  Operator = ">="
	LT   Operator = "<"
	LTE  Operator = "<="
	IN   Operator = "IN"
	LIKE Operator = "LIKE"
)

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

func ApplyOperator(conds ...Condition) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		for _, c := range conds {
			switch c.Operator {
			case IN:
				db = db.Where(fmt.Sprintf("%s IN ?", c.Field), c.Value)
			case LIKE:
				db = db.Where(fmt.Sprintf("LOWER(%s) LIKE ?", c.Field), c.Value)
			default:
				db = db.Where(fmt.Sprintf("%s %s ?", c.Field, c.Operator), c.Value)
			}
		}
		return db
	}
}

// WithSearch matches term, case-insensitively, against any of fields.
func WithSearch(term string, fields ...string) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		term = strings.TrimSpace(strings.ToLower(term))
		if term == "" || len(fields) == 0 {
			return db
		}
		like := "%" + term + "%"
		clauses := make([]string, 0, len(fields))
		args := make([]any, 0, len(fields))
		for _, f := range fields {
			clauses = append(clauses, fmt.Sprintf("LOWER(%s) LIKE ?", f))
			args = append(args, like)
		}
		return db.Where(strings.Join(clauses, " OR "), args...)
	}
}

func ApplyPagination(p pagination.Pagination) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		n := p.Normalize()
		return db.Offset(n.Offset()).Limit(n.Limit)
	}
}

type QuerySortBy struct {
	SortBy  string
	OrderBy string
	Allow   map[string]bool
}

// WithSortBy orders by SortBy when it is allowed, falling back to created_at.
func WithSortBy(s QuerySortBy) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		column := "created_at"
		if s.SortBy != "" && (s.Allow == nil || s.Allow[s.SortBy]) {
			column = s.SortBy
		}
		desc := strings.EqualFold(s.OrderBy, "desc")
		return db.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc})
	}
}

func LockingUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func WithLockingUpdate() QueryOption {
	return LockingUpdate
}
