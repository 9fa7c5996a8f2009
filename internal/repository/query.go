package repository

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"kintone-catalog/internal/model"

	"github.com/shopspring/decimal"
)

// queryEscaper escapes a value for use inside a double quoted kintone query
// string literal.
var queryEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// sortDirections maps accepted sort directions to their query form.
var sortDirections = map[string]string{
	"":     "",
	"asc":  " asc",
	"desc": " desc",
}

// sortClause validates an order expression of comma separated
// "<field> [asc|desc]" terms. Only sortable fields of the mapping are
// accepted, so the expression cannot add clauses to the query. A blank
// order yields "".
func sortClause(fields model.FieldMapping, order string) (string, error) {
	if strings.TrimSpace(order) == "" {
		return "", nil
	}

	allowed := make(map[string]bool)
	for _, f := range fields.SortableFields() {
		allowed[f] = true
	}

	terms := strings.Split(order, ",")
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		parts := strings.Fields(term)
		if len(parts) == 0 || len(parts) > 2 || !allowed[parts[0]] {
			return "", model.ErrInvalidOrder
		}
		direction := ""
		if len(parts) == 2 {
			direction = strings.ToLower(parts[1])
		}
		suffix, ok := sortDirections[direction]
		if !ok {
			return "", model.ErrInvalidOrder
		}
		out = append(out, parts[0]+suffix)
	}
	return strings.Join(out, ", "), nil
}

// buildSearchQuery assembles the kintone query for a keyword search.
//
// A non-empty keyword matches the code and name fields by substring; when it
// is also a finite number the price field is matched by equality. An empty
// keyword produces no filter at all. req.Order must already have passed
// sortClause.
func buildSearchQuery(fields model.FieldMapping, req model.SearchRequest) string {
	parts := make([]string, 0, 4)

	if filter := keywordFilter(fields, req.Keyword); filter != "" {
		parts = append(parts, filter)
	}
	if order := strings.TrimSpace(req.Order); order != "" {
		parts = append(parts, "order by "+order)
	}
	parts = append(parts,
		fmt.Sprintf("limit %d", req.Limit),
		fmt.Sprintf("offset %d", req.Offset),
	)

	return strings.Join(parts, " ")
}

// keywordFilter returns the disjunctive filter for keyword, or "" when the
// keyword is empty.
func keywordFilter(fields model.FieldMapping, keyword string) string {
	if keyword == "" {
		return ""
	}

	literal := quoteLiteral(keyword)
	clauses := []string{
		fields.Code + " like " + literal,
		fields.Name + " like " + literal,
	}
	if n, ok := numericLiteral(keyword); ok {
		clauses = append(clauses, fields.Price+" = "+n)
	}

	return strings.Join(clauses, " or ")
}

// buildRecordQuery assembles the kintone query that looks up one record.
func buildRecordQuery(id int64) string {
	return fmt.Sprintf("%s = %d limit 1", model.FieldRecordID, id)
}

func quoteLiteral(s string) string {
	return `"` + queryEscaper.Replace(s) + `"`
}

// maxLiteralGrowth bounds how much longer the canonical form of a numeric
// keyword may be than the keyword itself. Plain decimals never grow; only
// exponent notation does.
const maxLiteralGrowth = 32

// numericLiteral reports whether s is a finite decimal number and returns
// its canonical form. Numbers that overflow float64, and exponents whose
// expansion would outgrow the keyword, are not treated as numbers.
func numericLiteral(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return "", false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", false
	}
	if canonicalLength(d) > len(s)+maxLiteralGrowth {
		return "", false
	}
	return d.String(), true
}

// canonicalLength estimates the length of d.String() without building it.
func canonicalLength(d decimal.Decimal) int {
	digits := d.NumDigits()
	exp := int(d.Exponent())
	if exp >= 0 {
		return digits + exp + 1
	}
	if -exp >= digits {
		return -exp + 3
	}
	return digits + 2
}
