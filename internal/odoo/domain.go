package odoo

import "github.com/BartekS5/odoo-etl/pkg/models"

// Domain is an Odoo search domain. Conditions are implicitly AND-ed.
type Domain []models.Condition

// And conjoins domains into one, preserving condition order.
func And(domains ...Domain) Domain {
	out := Domain{}
	for _, d := range domains {
		out = append(out, d...)
	}
	return out
}

// Since is the incremental filter: records written at or after ts.
func Since(ts string) Domain {
	return Domain{{Field: "write_date", Operator: ">=", Value: ts}}
}

// encode renders the domain in its XML-RPC wire shape: a list of triples.
func (d Domain) encode() []interface{} {
	out := make([]interface{}, 0, len(d))
	for _, c := range d {
		out = append(out, []interface{}{c.Field, c.Operator, c.Value})
	}
	return out
}
