package storefrontx

import "github.com/shopspring/decimal"

// Product field names used in filter expressions.
const (
	FieldNameCategory = "category"
	FieldNameBrand    = "brand"
	FieldNameSeller   = "seller"
	FieldNamePrice    = "price"
)

// Expression represents a composable filter expression produced from
// Criteria and translated by each catalog backend.
type Expression interface {
	// expr is a marker method restricting implementations to this package.
	expr()
}

type baseExpr struct{}

func (baseExpr) expr() {}

// AndExpr matches when every inner expression matches.
type AndExpr struct {
	baseExpr
	Exprs []Expression
}

// And creates an AND expression combining multiple expressions.
func And(exprs ...Expression) Expression {
	return AndExpr{Exprs: exprs}
}

// OrExpr matches when at least one inner expression matches.
type OrExpr struct {
	baseExpr
	Exprs []Expression
}

// Or creates an OR expression combining multiple expressions.
func Or(exprs ...Expression) Expression {
	return OrExpr{Exprs: exprs}
}

// EqExpr matches a field equal to a string value, case-insensitively.
type EqExpr struct {
	baseExpr
	Field string
	Value string
}

// Eq creates an equality expression.
func Eq(field, value string) Expression {
	return EqExpr{Field: field, Value: value}
}

// RangeExpr matches a numeric field within inclusive bounds.
type RangeExpr struct {
	baseExpr
	Field string
	// Min is the inclusive lower bound. Nil means no lower bound.
	Min *decimal.Decimal
	// Max is the inclusive upper bound. Nil means no upper bound.
	Max *decimal.Decimal
}

// Range creates a range expression. Either bound may be nil.
func Range(field string, min, max *decimal.Decimal) Expression {
	return RangeExpr{Field: field, Min: min, Max: max}
}
