// Package models describes the Odoo entities the pipeline moves: which model
// they are read from, which fields are requested, and where they are staged.
package models

import "fmt"

// Kind identifies one of the four extracted entities. Its value doubles as
// the destination table name.
type Kind string

const (
	SalesOrders Kind = "sales_orders"
	Products    Kind = "products"
	Customers   Kind = "customers"
	OrderLines  Kind = "order_lines"
)

// Condition is one (field, operator, value) triple of an Odoo domain.
type Condition struct {
	Field    string
	Operator string
	Value    interface{}
}

// Entity is the extraction definition of one Kind.
type Entity struct {
	Kind        Kind
	Model       string
	Fields      []string
	BaseDomain  []Condition
	StagingFile string
}

// ExtractOrder is the order entities are extracted in.
var ExtractOrder = []Kind{SalesOrders, Products, Customers, OrderLines}

// LoadOrder is the order staged entities are loaded in.
var LoadOrder = []Kind{Customers, Products, SalesOrders, OrderLines}

var catalog = map[Kind]Entity{
	SalesOrders: {
		Kind:        SalesOrders,
		Model:       "sale.order",
		Fields:      []string{"id", "name", "partner_id", "amount_total", "state", "date_order", "write_date"},
		StagingFile: "sales_orders.csv",
	},
	Products: {
		Kind:        Products,
		Model:       "product.product",
		Fields:      []string{"id", "name", "default_code", "list_price", "write_date"},
		StagingFile: "products.csv",
	},
	Customers: {
		Kind:        Customers,
		Model:       "res.partner",
		Fields:      []string{"id", "name", "email", "phone", "city", "country_id", "write_date"},
		BaseDomain:  []Condition{{Field: "customer_rank", Operator: ">", Value: 0}},
		StagingFile: "customers.csv",
	},
	OrderLines: {
		Kind:        OrderLines,
		Model:       "sale.order.line",
		Fields:      []string{"order_id", "product_id", "product_uom_qty", "price_unit", "price_subtotal", "write_date"},
		StagingFile: "order_lines.csv",
	},
}

// Lookup returns the definition of k.
func Lookup(k Kind) (Entity, error) {
	e, ok := catalog[k]
	if !ok {
		return Entity{}, fmt.Errorf("unknown entity %q", k)
	}
	return e, nil
}

// Catalog returns the entity definitions in extraction order.
func Catalog() []Entity {
	out := make([]Entity, 0, len(ExtractOrder))
	for _, k := range ExtractOrder {
		out = append(out, catalog[k])
	}
	return out
}

// ParseKind accepts a table name such as "sales_orders".
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := catalog[k]; !ok {
		return "", fmt.Errorf("unknown entity %q", s)
	}
	return k, nil
}
