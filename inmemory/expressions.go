package inmemory

import (
	"strings"

	"github.com/letmevibethatforyou/storefrontx"
	"github.com/shopspring/decimal"
)

// matchesFilters checks if a product matches all the filter expressions.
func matchesFilters(p storefrontx.Product, filters []storefrontx.Expression) bool {
	for _, filter := range filters {
		if !evaluateExpression(p, filter) {
			return false
		}
	}
	return true
}

// evaluateExpression evaluates a single expression against a product.
func evaluateExpression(p storefrontx.Product, expr storefrontx.Expression) bool {
	switch e := expr.(type) {
	case storefrontx.AndExpr:
		for _, inner := range e.Exprs {
			if !evaluateExpression(p, inner) {
				return false
			}
		}
		return true
	case storefrontx.OrExpr:
		for _, inner := range e.Exprs {
			if evaluateExpression(p, inner) {
				return true
			}
		}
		return false
	case storefrontx.EqExpr:
		v, ok := stringField(p, e.Field)
		return ok && strings.EqualFold(v, e.Value)
	case storefrontx.RangeExpr:
		v, ok := numericField(p, e.Field)
		return ok && inRange(v, e.Min, e.Max)
	default:
		// Unknown expression type, return true to not filter out
		return true
	}
}

func stringField(p storefrontx.Product, field string) (string, bool) {
	switch field {
	case storefrontx.FieldNameCategory:
		return p.Category, true
	case storefrontx.FieldNameBrand:
		return p.Brand, true
	case storefrontx.FieldNameSeller:
		return p.Seller, true
	default:
		return "", false
	}
}

func numericField(p storefrontx.Product, field string) (decimal.Decimal, bool) {
	switch field {
	case storefrontx.FieldNamePrice:
		return p.Price, true
	default:
		return decimal.Zero, false
	}
}

func inRange(v decimal.Decimal, lo, hi *decimal.Decimal) bool {
	if lo != nil && v.LessThan(*lo) {
		return false
	}
	if hi != nil && v.GreaterThan(*hi) {
		return false
	}
	return true
}
