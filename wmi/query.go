// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package wmi

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

type filterKind uint8

const (
	filterBool filterKind = iota
	filterNumber
	filterString
	filterLike
	filterIsA
)

// FilterValue is the value side of one WHERE condition
type FilterValue struct {
	kind filterKind
	b    bool
	n    int64
	s    string
}

// FilterBool renders `field = true` or `field = false`
func FilterBool(b bool) FilterValue { return FilterValue{kind: filterBool, b: b} }

// FilterNumber renders `field = 42`
func FilterNumber(n int64) FilterValue { return FilterValue{kind: filterNumber, n: n} }

// FilterString renders `field = "value"` with the value escaped
func FilterString(s string) FilterValue { return FilterValue{kind: filterString, s: s} }

// FilterLike renders `field LIKE "pattern"`
func FilterLike(pattern string) FilterValue { return FilterValue{kind: filterLike, s: pattern} }

// FilterIsA renders `field ISA "Class"`
func FilterIsA(class string) FilterValue { return FilterValue{kind: filterIsA, s: class} }

// IsA builds an ISA filter naming the class of T
func IsA[T any]() (FilterValue, error) {
	desc, err := Describe[T]()
	if err != nil {
		return FilterValue{}, err
	}
	return FilterIsA(desc.Name), nil
}

func (f FilterValue) condition(field string) string {
	switch f.kind {
	case filterBool:
		return fmt.Sprintf("%s = %t", field, f.b)
	case filterNumber:
		return fmt.Sprintf("%s = %d", field, f.n)
	case filterLike:
		return fmt.Sprintf("%s LIKE %s", field, QuoteAndEscape(f.s))
	case filterIsA:
		return fmt.Sprintf("%s ISA %s", field, QuoteAndEscape(f.s))
	}
	return fmt.Sprintf("%s = %s", field, QuoteAndEscape(f.s))
}

// QuoteAndEscape wraps s in double quotes, escaping backslash and double quote.  Nothing else is
// escaped; WQL string constants accept any other character as is.
func QuoteAndEscape(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// whereClause renders the sorted conditions, or the empty string when there are none
func whereClause(filters map[string]FilterValue) (string, error) {
	if len(filters) == 0 {
		return "", nil
	}
	conditions := make([]string, 0, len(filters))
	for field, value := range filters {
		if !validIdentifier(field) {
			return "", &InvalidIdentifierError{Name: field}
		}
		conditions = append(conditions, value.condition(field))
	}
	sort.Strings(conditions)
	return "WHERE " + strings.Join(conditions, " AND "), nil
}

func selectList(desc *ClassDescriptor) string {
	if desc.Union || len(desc.Fields) == 0 {
		return "*"
	}
	return strings.Join(desc.FieldNames(), ",")
}

// BuildQuery returns `SELECT <fields of T> FROM <class of T> [WHERE ...]`.  Conditions are
// sorted so the text does not depend on map order.
func BuildQuery[T any](filters map[string]FilterValue) (string, error) {
	desc, err := Describe[T]()
	if err != nil {
		return "", err
	}
	return BuildQueryFor(desc, filters)
}

// BuildQueryFor is BuildQuery for an already described type
func BuildQueryFor(desc *ClassDescriptor, filters map[string]FilterValue) (string, error) {
	where, err := whereClause(filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SELECT %s FROM %s %s", selectList(desc), desc.Name, where), nil
}

// BuildNotificationQuery returns `SELECT * FROM <class of T> [WITHIN <seconds>] [WHERE ...]`.
// A zero within omits the WITHIN clause.
func BuildNotificationQuery[T any](filters map[string]FilterValue, within time.Duration) (string, error) {
	desc, err := Describe[T]()
	if err != nil {
		return "", err
	}
	where, err := whereClause(filters)
	if err != nil {
		return "", err
	}
	withinClause := ""
	if within > 0 {
		withinClause = " WITHIN " + strconv.FormatFloat(within.Seconds(), 'f', -1, 64)
	}
	return fmt.Sprintf("SELECT * FROM %s%s %s", desc.Name, withinClause, where), nil
}

// BuildAssociatorsQuery returns the query listing the R instances associated with the object at
// objectPath through the association class A
func BuildAssociatorsQuery[A, R any](objectPath string) (string, error) {
	assoc, err := Describe[A]()
	if err != nil {
		return "", err
	}
	result, err := Describe[R]()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ASSOCIATORS OF {%s} WHERE AssocClass = %s ResultClass = %s", objectPath, assoc.Name, result.Name), nil
}
