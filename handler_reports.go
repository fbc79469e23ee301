package main

import (
	"fmt"
	"net/http"
	"time"

	"packinv/internal/audit"
)

// reportRange parses from/to query params, defaulting to the last 30 days.
func reportRange(r *http.Request) (from, to string, err error) {
	from = r.URL.Query().Get("from")
	to = r.URL.Query().Get("to")
	if from == "" {
		from = time.Now().AddDate(0, 0, -30).Format("2006-01-02")
	}
	if to == "" {
		to = time.Now().Format("2006-01-02")
	}
	if _, err = time.Parse("2006-01-02", from); err != nil {
		return "", "", fmt.Errorf("invalid from date")
	}
	if _, err = time.Parse("2006-01-02", to); err != nil {
		return "", "", fmt.Errorf("invalid to date")
	}
	if from > to {
		return "", "", fmt.Errorf("from date is after to date")
	}
	return from, to, nil
}

// handleSalesReport returns date-ranged sales with per-product totals.
func handleSalesReport(w http.ResponseWriter, r *http.Request) {
	from, to, err := reportRange(r)
	if err != nil {
		jsonErr(w, err.Error(), 400)
		return
	}

	rows, err := db.Query(`SELECT sa.id, sa.date, sa.customer_id, sa.product_id, sa.quantity,
			sa.dispatch_type, sa.vehicle_number, sa.remarks, c.name, p.name, p.volume, sa.created_at
		FROM sales sa
		JOIN customers c ON sa.customer_id = c.id
		JOIN products p ON sa.product_id = p.id
		WHERE sa.date >= ? AND sa.date <= ?
		ORDER BY sa.date, sa.id`, from, to)
	if err != nil {
		jsonErr(w, "Failed to load sales report", 500)
		return
	}
	defer rows.Close()

	records := []SalesRecord{}
	totalQty := 0
	for rows.Next() {
		var rec SalesRecord
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.CustomerID, &rec.ProductID, &rec.Quantity,
			&rec.DispatchType, &rec.VehicleNumber, &rec.Remarks, &rec.CustomerName,
			&rec.ProductName, &rec.Volume, &rec.CreatedAt); err != nil {
			jsonErr(w, "Failed to scan sale", 500)
			return
		}
		records = append(records, rec)
		totalQty += rec.Quantity
	}

	byProduct := queryTop(`SELECT p.name, SUM(sa.quantity)
		FROM sales sa JOIN products p ON sa.product_id = p.id
		WHERE sa.date >= ? AND sa.date <= ?
		GROUP BY p.id ORDER BY 2 DESC`, from, to)

	if format := r.URL.Query().Get("format"); format == "csv" || format == "xlsx" {
		headers := []string{"Date", "Customer", "Product", "Volume", "Quantity", "Dispatch", "Vehicle", "Remarks"}
		var data [][]string
		for _, rec := range records {
			data = append(data, []string{rec.Date, rec.CustomerName, rec.ProductName, rec.Volume,
				fmt.Sprintf("%d", rec.Quantity), rec.DispatchType, rec.VehicleNumber, rec.Remarks})
		}
		logAudit(r, audit.ActionExport, "reports", "", fmt.Sprintf("Exported sales report %s to %s", from, to))
		if format == "csv" {
			exportCSV(w, "sales_report.csv", headers, data)
		} else {
			exportExcel(w, "SalesReport", headers, data)
		}
		return
	}

	jsonResp(w, map[string]interface{}{
		"from":       from,
		"to":         to,
		"records":    records,
		"total_qty":  totalQty,
		"by_product": byProduct,
	})
}

// handlePurchaseReport returns date-ranged purchases with value totals.
func handlePurchaseReport(w http.ResponseWriter, r *http.Request) {
	from, to, err := reportRange(r)
	if err != nil {
		jsonErr(w, err.Error(), 400)
		return
	}

	rows, err := db.Query(`SELECT pu.id, pu.date, pu.supplier_id, pu.raw_material_id, pu.quantity,
			pu.rate, pu.bill_number, pu.remarks, s.name, rm.name, rm.unit, pu.created_at
		FROM purchase pu
		JOIN suppliers s ON pu.supplier_id = s.id
		JOIN raw_materials rm ON pu.raw_material_id = rm.id
		WHERE pu.date >= ? AND pu.date <= ?
		ORDER BY pu.date, pu.id`, from, to)
	if err != nil {
		jsonErr(w, "Failed to load purchase report", 500)
		return
	}
	defer rows.Close()

	records := []PurchaseRecord{}
	var totalValue float64
	for rows.Next() {
		var rec PurchaseRecord
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.SupplierID, &rec.RawMaterialID, &rec.Quantity,
			&rec.Rate, &rec.BillNumber, &rec.Remarks, &rec.SupplierName, &rec.MaterialName,
			&rec.Unit, &rec.CreatedAt); err != nil {
			jsonErr(w, "Failed to scan purchase", 500)
			return
		}
		records = append(records, rec)
		totalValue += rec.Quantity * rec.Rate
	}

	bySupplier := queryTop(`SELECT s.name, SUM(pu.quantity * pu.rate)
		FROM purchase pu JOIN suppliers s ON pu.supplier_id = s.id
		WHERE pu.date >= ? AND pu.date <= ?
		GROUP BY s.id ORDER BY 2 DESC`, from, to)

	if format := r.URL.Query().Get("format"); format == "csv" || format == "xlsx" {
		headers := []string{"Date", "Supplier", "Material", "Unit", "Quantity", "Rate", "Value", "Bill", "Remarks"}
		var data [][]string
		for _, rec := range records {
			data = append(data, []string{rec.Date, rec.SupplierName, rec.MaterialName, rec.Unit,
				fmt.Sprintf("%.2f", rec.Quantity), fmt.Sprintf("%.2f", rec.Rate),
				fmt.Sprintf("%.2f", rec.Quantity*rec.Rate), rec.BillNumber, rec.Remarks})
		}
		logAudit(r, audit.ActionExport, "reports", "", fmt.Sprintf("Exported purchase report %s to %s", from, to))
		if format == "csv" {
			exportCSV(w, "purchase_report.csv", headers, data)
		} else {
			exportExcel(w, "PurchaseReport", headers, data)
		}
		return
	}

	jsonResp(w, map[string]interface{}{
		"from":        from,
		"to":          to,
		"records":     records,
		"total_value": totalValue,
		"by_supplier": bySupplier,
	})
}

// handleProductionReport returns date-ranged production with reject totals.
func handleProductionReport(w http.ResponseWriter, r *http.Request) {
	from, to, err := reportRange(r)
	if err != nil {
		jsonErr(w, err.Error(), 400)
		return
	}

	rows, err := db.Query(`SELECT pr.id, pr.date, pr.product_id, pr.quantity_produced, pr.rejects,
			pr.remarks, p.name, p.volume, pr.created_at
		FROM production pr JOIN products p ON pr.product_id = p.id
		WHERE pr.date >= ? AND pr.date <= ?
		ORDER BY pr.date, pr.id`, from, to)
	if err != nil {
		jsonErr(w, "Failed to load production report", 500)
		return
	}
	defer rows.Close()

	records := []ProductionRecord{}
	totalProduced, totalRejects := 0, 0
	for rows.Next() {
		var rec ProductionRecord
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.ProductID, &rec.Quantity, &rec.Rejects,
			&rec.Remarks, &rec.ProductName, &rec.Volume, &rec.CreatedAt); err != nil {
			jsonErr(w, "Failed to scan production record", 500)
			return
		}
		records = append(records, rec)
		totalProduced += rec.Quantity
		totalRejects += rec.Rejects
	}

	jsonResp(w, map[string]interface{}{
		"from":           from,
		"to":             to,
		"records":        records,
		"total_produced": totalProduced,
		"total_rejects":  totalRejects,
	})
}
