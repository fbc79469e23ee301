package main

import (
	"testing"
	"time"
)

func TestDashboardKPIs(t *testing.T) {
	setupTestDB(t)

	productID := createProduct(t, "Bottle 500ml")
	materialID := createMaterial(t, "PET Preform", 30)
	customerID := createCustomer(t, "Acme Traders")
	supplierID := createSupplier(t, "Polymer Supply Co")
	setBOMEntry(t, productID, materialID, 1)

	today := time.Now().Format("2006-01-02")
	doJSON(t, "POST", "/api/v1/purchases", map[string]interface{}{
		"date": today, "supplier_id": supplierID, "raw_material_id": materialID,
		"quantity": 10.0, "rate": 4.0,
	}, nil)
	doJSON(t, "POST", "/api/v1/production", map[string]interface{}{
		"date": today, "product_id": productID, "quantity_produced": 8,
	}, nil)
	doJSON(t, "POST", "/api/v1/sales", map[string]interface{}{
		"date": today, "customer_id": customerID, "product_id": productID, "quantity": 3,
	}, nil)

	var resp struct {
		Data DashboardData `json:"data"`
	}
	rec := doJSON(t, "GET", "/api/v1/dashboard", nil, &resp)
	if rec.Code != 200 {
		t.Fatalf("dashboard: %d %s", rec.Code, rec.Body.String())
	}
	d := resp.Data

	if d.TotalProducts != 1 || d.TotalCustomers != 1 || d.TotalSuppliers != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/1/1", d.TotalProducts, d.TotalCustomers, d.TotalSuppliers)
	}
	if d.TodayProduction != 8 || d.TodaySales != 3 {
		t.Errorf("today = %d produced / %d sold, want 8/3", d.TodayProduction, d.TodaySales)
	}
	if d.TotalFinishedStock != 5 {
		t.Errorf("finished stock = %d, want 5", d.TotalFinishedStock)
	}
	if d.TotalPurchaseValue != 40 {
		t.Errorf("purchase value = %g, want 40", d.TotalPurchaseValue)
	}
	if len(d.SalesTrend) != 1 || d.SalesTrend[0].Qty != 3 {
		t.Errorf("sales trend = %+v", d.SalesTrend)
	}
	if len(d.TopCustomers) != 1 || d.TopCustomers[0].Name != "Acme Traders" {
		t.Errorf("top customers = %+v", d.TopCustomers)
	}
	// 32 kg remaining is below the default alert level of 50.
	if len(d.LowRawMaterials) != 1 {
		t.Errorf("low materials = %+v", d.LowRawMaterials)
	}
	// 5 finished units is below the default alert level of 1000.
	if len(d.LowFinishedGoods) != 1 {
		t.Errorf("low finished = %+v", d.LowFinishedGoods)
	}
}

func TestSalesReportRangeAndTotals(t *testing.T) {
	setupTestDB(t)

	productID := createProduct(t, "Bottle 500ml")
	materialID := createMaterial(t, "PET Preform", 100)
	customerID := createCustomer(t, "Acme Traders")
	setBOMEntry(t, productID, materialID, 1)
	doJSON(t, "POST", "/api/v1/production", map[string]interface{}{
		"date": "2026-08-01", "product_id": productID, "quantity_produced": 50,
	}, nil)

	for _, day := range []string{"2026-08-10", "2026-08-15", "2026-08-20"} {
		rec := doJSON(t, "POST", "/api/v1/sales", map[string]interface{}{
			"date": day, "customer_id": customerID, "product_id": productID, "quantity": 5,
		}, nil)
		if rec.Code != 200 {
			t.Fatalf("sale on %s: %d %s", day, rec.Code, rec.Body.String())
		}
	}

	var report struct {
		Data struct {
			Records  []SalesRecord `json:"records"`
			TotalQty int           `json:"total_qty"`
		} `json:"data"`
	}
	rec := doJSON(t, "GET", "/api/v1/reports/sales?from=2026-08-12&to=2026-08-31", nil, &report)
	if rec.Code != 200 {
		t.Fatalf("sales report: %d %s", rec.Code, rec.Body.String())
	}
	if len(report.Data.Records) != 2 || report.Data.TotalQty != 10 {
		t.Errorf("records = %d, total = %d, want 2 and 10", len(report.Data.Records), report.Data.TotalQty)
	}

	rec = doJSON(t, "GET", "/api/v1/reports/sales?from=2026-09-01&to=2026-08-01", nil, nil)
	if rec.Code != 400 {
		t.Fatalf("inverted range: %d, want 400", rec.Code)
	}
}

func TestPurchaseReportValue(t *testing.T) {
	setupTestDB(t)

	materialID := createMaterial(t, "PET Preform", 0)
	supplierID := createSupplier(t, "Polymer Supply Co")

	doJSON(t, "POST", "/api/v1/purchases", map[string]interface{}{
		"date": "2026-08-10", "supplier_id": supplierID, "raw_material_id": materialID,
		"quantity": 10.0, "rate": 2.0, "bill_number": "B-1",
	}, nil)
	doJSON(t, "POST", "/api/v1/purchases", map[string]interface{}{
		"date": "2026-08-12", "supplier_id": supplierID, "raw_material_id": materialID,
		"quantity": 5.0, "rate": 3.0, "bill_number": "B-2",
	}, nil)

	var report struct {
		Data struct {
			TotalValue float64 `json:"total_value"`
		} `json:"data"`
	}
	rec := doJSON(t, "GET", "/api/v1/reports/purchases?from=2026-08-01&to=2026-08-31", nil, &report)
	if rec.Code != 200 {
		t.Fatalf("purchase report: %d %s", rec.Code, rec.Body.String())
	}
	if report.Data.TotalValue != 35 {
		t.Errorf("total value = %g, want 35", report.Data.TotalValue)
	}
}
