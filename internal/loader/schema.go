package loader

import (
	"fmt"

	"github.com/BartekS5/odoo-etl/pkg/models"
)

// ColumnType is the portable type of a destination column.
type ColumnType int

const (
	Integer ColumnType = iota
	Text
	Money   // fixed-point, two decimals
	Numeric // unconstrained numeric
	Timestamp
)

type Column struct {
	Name string
	Type ColumnType
}

// Table is a destination table. Tables with a Key are append-only per key:
// a row whose key already exists is skipped.
type Table struct {
	Name    string
	Key     string
	Columns []Column
}

// ColumnNames lists the declared columns in order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

func (t Table) keyIndex() int {
	for i, c := range t.Columns {
		if c.Name == t.Key {
			return i
		}
	}
	return -1
}

var schema = map[models.Kind]Table{
	models.Customers: {
		Name: "customers",
		Key:  "id",
		Columns: []Column{
			{"id", Integer}, {"name", Text}, {"email", Text}, {"phone", Text},
			{"city", Text}, {"country_name", Text},
		},
	},
	models.Products: {
		Name: "products",
		Key:  "id",
		Columns: []Column{
			{"id", Integer}, {"name", Text}, {"default_code", Text}, {"list_price", Money},
		},
	},
	models.SalesOrders: {
		Name: "sales_orders",
		Key:  "id",
		Columns: []Column{
			{"id", Integer}, {"name", Text}, {"customer_id", Integer}, {"customer_name", Text},
			{"amount_total", Money}, {"state", Text}, {"date_order", Timestamp},
			{"order_month", Text}, {"revenue_bucket", Text},
		},
	},
	// Lines carry no key: reloading a file appends its rows again.
	models.OrderLines: {
		Name: "order_lines",
		Columns: []Column{
			{"order_id", Integer}, {"product_id", Integer}, {"product_uom_qty", Numeric},
			{"price_unit", Money}, {"price_subtotal", Money},
		},
	},
}

// TableFor returns the destination table of k.
func TableFor(k models.Kind) (Table, error) {
	t, ok := schema[k]
	if !ok {
		return Table{}, fmt.Errorf("no destination table for entity %q", k)
	}
	return t, nil
}

// Tables returns every destination table in load order.
func Tables() []Table {
	out := make([]Table, 0, len(models.LoadOrder))
	for _, k := range models.LoadOrder {
		out = append(out, schema[k])
	}
	return out
}
