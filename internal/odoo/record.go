package odoo

import (
	"strings"
	"time"

	"github.com/BartekS5/odoo-etl/pkg/utils"
)

// Record is one row returned by search_read. Odoo reports unset fields as
// boolean false; the accessors below treat that the same as a missing key.
type Record map[string]interface{}

// Reference is a resolved many2one value: a foreign key and its display name.
type Reference struct {
	ID   int64
	Name string
}

// ParseReference resolves an embedded (id, display_name) pair. It accepts the
// XML-RPC array form and its Python-style string rendering ("[10, 'John']").
// Any other shape reports false.
func ParseReference(v interface{}) (Reference, bool) {
	switch val := v.(type) {
	case []interface{}:
		if len(val) != 2 {
			return Reference{}, false
		}
		id, err := utils.ConvertToInt64(val[0])
		if err != nil {
			return Reference{}, false
		}
		name, ok := val[1].(string)
		if !ok {
			return Reference{}, false
		}
		return Reference{ID: id, Name: name}, true
	case string:
		return parseReferenceString(val)
	default:
		return Reference{}, false
	}
}

func parseReferenceString(s string) (Reference, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Reference{}, false
	}
	first, last := s[0], s[len(s)-1]
	if !(first == '[' && last == ']') && !(first == '(' && last == ')') {
		return Reference{}, false
	}
	idPart, namePart, found := strings.Cut(s[1:len(s)-1], ",")
	if !found {
		return Reference{}, false
	}
	id, err := utils.ConvertToInt64(strings.TrimSpace(idPart))
	if err != nil {
		return Reference{}, false
	}
	name := strings.TrimSpace(namePart)
	if len(name) < 2 || (name[0] != '\'' && name[0] != '"') || name[len(name)-1] != name[0] {
		return Reference{}, false
	}
	return Reference{ID: id, Name: name[1 : len(name)-1]}, true
}

func (r Record) value(field string) (interface{}, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return nil, false
	}
	if b, isBool := v.(bool); isBool && !b {
		return nil, false
	}
	return v, true
}

// Int returns field as an integer.
func (r Record) Int(field string) (int64, bool) {
	v, ok := r.value(field)
	if !ok {
		return 0, false
	}
	n, err := utils.ConvertToInt64(v)
	return n, err == nil
}

// Float returns field as a float.
func (r Record) Float(field string) (float64, bool) {
	v, ok := r.value(field)
	if !ok {
		return 0, false
	}
	f, err := utils.ConvertToFloat(v)
	return f, err == nil
}

// String returns field as text. Datetimes are rendered in Odoo's layout.
func (r Record) String(field string) (string, bool) {
	v, ok := r.value(field)
	if !ok {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	case time.Time:
		return s.UTC().Format("2006-01-02 15:04:05"), true
	default:
		return "", false
	}
}

// Ref returns field as a resolved many2one reference.
func (r Record) Ref(field string) (Reference, bool) {
	v, ok := r.value(field)
	if !ok {
		return Reference{}, false
	}
	return ParseReference(v)
}
