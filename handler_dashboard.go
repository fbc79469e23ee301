package main

import (
	"net/http"
	"time"

	"packinv/internal/models"
)

// handleDashboard aggregates the landing-page KPIs in one response.
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	var d DashboardData

	db.QueryRow("SELECT COUNT(*) FROM products").Scan(&d.TotalProducts)
	db.QueryRow("SELECT COUNT(*) FROM customers").Scan(&d.TotalCustomers)
	db.QueryRow("SELECT COUNT(*) FROM suppliers").Scan(&d.TotalSuppliers)

	today := time.Now().Format("2006-01-02")
	db.QueryRow("SELECT COALESCE(SUM(quantity_produced), 0) FROM production WHERE date = ?", today).Scan(&d.TodayProduction)
	db.QueryRow("SELECT COALESCE(SUM(quantity), 0) FROM sales WHERE date = ?", today).Scan(&d.TodaySales)

	db.QueryRow("SELECT COALESCE(SUM(current_stock), 0) FROM product_stock").Scan(&d.TotalFinishedStock)
	db.QueryRow("SELECT COALESCE(SUM(quantity), 0) FROM sales").Scan(&d.TotalSalesQty)
	db.QueryRow("SELECT COALESCE(SUM(quantity * rate), 0) FROM purchase").Scan(&d.TotalPurchaseValue)

	since := time.Now().AddDate(0, 0, -cfg.DashboardTrendDays+1).Format("2006-01-02")
	d.SalesTrend = queryTrend(`SELECT date, SUM(quantity) FROM sales
		WHERE date >= ? GROUP BY date ORDER BY date`, since)

	d.TopProduction = queryTop(`SELECT p.name, SUM(pr.quantity_produced)
		FROM production pr JOIN products p ON pr.product_id = p.id
		GROUP BY p.id ORDER BY 2 DESC LIMIT 5`)
	d.TopCustomers = queryTop(`SELECT c.name, SUM(sa.quantity)
		FROM sales sa JOIN customers c ON sa.customer_id = c.id
		GROUP BY c.id ORDER BY 2 DESC LIMIT 5`)
	d.TopSuppliers = queryTop(`SELECT s.name, SUM(pu.quantity)
		FROM purchase pu JOIN suppliers s ON pu.supplier_id = s.id
		GROUP BY s.id ORDER BY 2 DESC LIMIT 5`)

	d.LowRawMaterials = []models.LowStockMaterial{}
	rows, err := db.Query(`SELECT name, current_stock, unit FROM raw_materials
		WHERE current_stock < ? ORDER BY current_stock`, cfg.LowMaterialLevel)
	if err == nil {
		for rows.Next() {
			var m models.LowStockMaterial
			if rows.Scan(&m.Name, &m.CurrentStock, &m.Unit) == nil {
				d.LowRawMaterials = append(d.LowRawMaterials, m)
			}
		}
		rows.Close()
	}

	d.LowFinishedGoods = []models.LowStockProduct{}
	rows, err = db.Query(`SELECT p.name, p.volume, COALESCE(ps.current_stock, 0)
		FROM products p LEFT JOIN product_stock ps ON p.id = ps.product_id
		WHERE COALESCE(ps.current_stock, 0) < ?
		ORDER BY COALESCE(ps.current_stock, 0)`, cfg.LowFinishedLevel)
	if err == nil {
		for rows.Next() {
			var p models.LowStockProduct
			if rows.Scan(&p.Name, &p.Volume, &p.CurrentStock) == nil {
				d.LowFinishedGoods = append(d.LowFinishedGoods, p)
			}
		}
		rows.Close()
	}

	jsonResp(w, d)
}

func queryTrend(query string, args ...interface{}) []models.TrendPoint {
	points := []models.TrendPoint{}
	rows, err := db.Query(query, args...)
	if err != nil {
		return points
	}
	defer rows.Close()
	for rows.Next() {
		var p models.TrendPoint
		if rows.Scan(&p.Date, &p.Qty) == nil {
			points = append(points, p)
		}
	}
	return points
}

func queryTop(query string, args ...interface{}) []models.TopEntry {
	entries := []models.TopEntry{}
	rows, err := db.Query(query, args...)
	if err != nil {
		return entries
	}
	defer rows.Close()
	for rows.Next() {
		var e models.TopEntry
		if rows.Scan(&e.Name, &e.Qty) == nil {
			entries = append(entries, e)
		}
	}
	return entries
}
