package etl

import (
	"fmt"
	"time"

	"github.com/BartekS5/odoo-etl/internal/odoo"
	"github.com/BartekS5/odoo-etl/internal/staging"
	"github.com/BartekS5/odoo-etl/pkg/models"
	"github.com/BartekS5/odoo-etl/pkg/utils"
)

// Revenue bucket thresholds on amount_total.
const (
	MediumRevenueFrom = 500.0
	HighRevenueFrom   = 1500.0
)

// TransformFunc maps raw records of one entity to staged rows. It never
// fails: unusable values become nulls and the row is kept.
type TransformFunc func([]odoo.Record) []staging.Row

// Transformation pairs a transform with the columns it stages.
type Transformation struct {
	Columns   []string
	Transform TransformFunc
}

var transformations = map[models.Kind]Transformation{
	models.SalesOrders: {
		Columns:   []string{"id", "name", "customer_id", "customer_name", "amount_total", "state", "date_order", "order_month", "revenue_bucket", "write_date"},
		Transform: TransformSalesOrders,
	},
	models.Products: {
		Columns:   []string{"id", "name", "default_code", "list_price", "write_date"},
		Transform: TransformProducts,
	},
	models.Customers: {
		Columns:   []string{"id", "name", "email", "phone", "city", "country_id", "country_name", "write_date"},
		Transform: TransformCustomers,
	},
	models.OrderLines: {
		Columns:   []string{"order_id", "product_id", "product_uom_qty", "price_unit", "price_subtotal", "write_date"},
		Transform: TransformOrderLines,
	},
}

// TransformationFor returns the transform registered for k.
func TransformationFor(k models.Kind) (Transformation, error) {
	t, ok := transformations[k]
	if !ok {
		return Transformation{}, fmt.Errorf("no transformation for entity %q", k)
	}
	return t, nil
}

// RevenueBucket classifies an order total: below 500 is low, below 1500 is
// medium, anything else is high.
func RevenueBucket(amount float64) string {
	switch {
	case amount < MediumRevenueFrom:
		return "low"
	case amount < HighRevenueFrom:
		return "medium"
	default:
		return "high"
	}
}

// OrderMonth returns the YYYY-MM of t.
func OrderMonth(t time.Time) string {
	return t.UTC().Format("2006-01")
}

func TransformSalesOrders(records []odoo.Record) []staging.Row {
	rows := make([]staging.Row, 0, len(records))
	for _, r := range records {
		row := staging.Row{
			"id":         intOrNil(r, "id"),
			"name":       stringOrNil(r, "name"),
			"state":      stringOrNil(r, "state"),
			"write_date": timeOrNil(r, "write_date"),
		}
		putReference(row, r, "partner_id", "customer_id", "customer_name")

		if amount, ok := r.Float("amount_total"); ok {
			row["amount_total"] = amount
			row["revenue_bucket"] = RevenueBucket(amount)
		}

		if v, ok := r["date_order"]; ok {
			if t, err := utils.ConvertDateTime(v); err == nil {
				row["date_order"] = t
				row["order_month"] = OrderMonth(t)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// TransformProducts passes product fields through.
func TransformProducts(records []odoo.Record) []staging.Row {
	rows := make([]staging.Row, 0, len(records))
	for _, r := range records {
		row := staging.Row{
			"id":           intOrNil(r, "id"),
			"name":         stringOrNil(r, "name"),
			"default_code": stringOrNil(r, "default_code"),
			"write_date":   timeOrNil(r, "write_date"),
		}
		if price, ok := r.Float("list_price"); ok {
			row["list_price"] = price
		}
		rows = append(rows, row)
	}
	return rows
}

func TransformCustomers(records []odoo.Record) []staging.Row {
	rows := make([]staging.Row, 0, len(records))
	for _, r := range records {
		row := staging.Row{
			"id":         intOrNil(r, "id"),
			"name":       stringOrNil(r, "name"),
			"email":      stringOrNil(r, "email"),
			"phone":      stringOrNil(r, "phone"),
			"city":       stringOrNil(r, "city"),
			"write_date": timeOrNil(r, "write_date"),
		}
		putReference(row, r, "country_id", "country_id", "country_name")
		rows = append(rows, row)
	}
	return rows
}

// TransformOrderLines keeps only the ids of the order and product references.
func TransformOrderLines(records []odoo.Record) []staging.Row {
	rows := make([]staging.Row, 0, len(records))
	for _, r := range records {
		row := staging.Row{
			"order_id":   nil,
			"product_id": nil,
			"write_date": timeOrNil(r, "write_date"),
		}
		if ref, ok := r.Ref("order_id"); ok {
			row["order_id"] = ref.ID
		}
		if ref, ok := r.Ref("product_id"); ok {
			row["product_id"] = ref.ID
		}
		for _, f := range []string{"product_uom_qty", "price_unit", "price_subtotal"} {
			if v, ok := r.Float(f); ok {
				row[f] = v
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// putReference flattens a many2one field into idCol and nameCol. Both are
// null when the value cannot be resolved.
func putReference(row staging.Row, r odoo.Record, field, idCol, nameCol string) {
	ref, ok := r.Ref(field)
	if !ok {
		row[idCol] = nil
		row[nameCol] = nil
		return
	}
	row[idCol] = ref.ID
	row[nameCol] = ref.Name
}

func intOrNil(r odoo.Record, field string) interface{} {
	if v, ok := r.Int(field); ok {
		return v
	}
	return nil
}

func stringOrNil(r odoo.Record, field string) interface{} {
	if v, ok := r.String(field); ok {
		return v
	}
	return nil
}

func timeOrNil(r odoo.Record, field string) interface{} {
	v, ok := r[field]
	if !ok {
		return nil
	}
	if t, err := utils.ConvertDateTime(v); err == nil {
		return t
	}
	return nil
}
