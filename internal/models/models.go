package models

// APIResponse is the standard success envelope for API endpoints.
type APIResponse struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

// Meta carries pagination metadata.
type Meta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Product is a finished good in the catalog. Names are unique
// case-insensitively.
type Product struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Volume        string  `json:"volume"`
	PreformWeight float64 `json:"preform_weight"`
	CapType       string  `json:"cap_type"`
	CreatedAt     string  `json:"created_at"`
}

// RawMaterial is an input material. CurrentStock is mutated only by the
// stock engine (purchase increments, production decrements).
type RawMaterial struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	MaterialType string  `json:"material_type"`
	Unit         string  `json:"unit"`
	CurrentStock float64 `json:"current_stock"`
	CreatedAt    string  `json:"created_at"`
}

// BOMEntry defines how much of one raw material a single unit of a product
// consumes.
type BOMEntry struct {
	ID                 int     `json:"id"`
	ProductID          int     `json:"product_id"`
	RawMaterialID      int     `json:"raw_material_id"`
	ConsumptionPerUnit float64 `json:"consumption_per_unit"`
	ProductName        string  `json:"product_name,omitempty"`
	MaterialName       string  `json:"material_name,omitempty"`
	Unit               string  `json:"unit,omitempty"`
}

// ProductStock is the finished-goods counter for one product. The row is
// created lazily on the first production run.
type ProductStock struct {
	ProductID    int    `json:"product_id"`
	CurrentStock int    `json:"current_stock"`
	ProductName  string `json:"product_name,omitempty"`
	Volume       string `json:"volume,omitempty"`
	UpdatedAt    string `json:"updated_at"`
}

// ProductionRecord is an append-only log entry for a production run.
type ProductionRecord struct {
	ID          int    `json:"id"`
	Date        string `json:"date"`
	ProductID   int    `json:"product_id"`
	Quantity    int    `json:"quantity_produced"`
	Rejects     int    `json:"rejects"`
	Remarks     string `json:"remarks"`
	ProductName string `json:"product_name,omitempty"`
	Volume      string `json:"volume,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// PurchaseRecord is an append-only log entry for a raw material purchase.
type PurchaseRecord struct {
	ID            int     `json:"id"`
	Date          string  `json:"date"`
	SupplierID    int     `json:"supplier_id"`
	RawMaterialID int     `json:"raw_material_id"`
	Quantity      float64 `json:"quantity"`
	Rate          float64 `json:"rate"`
	BillNumber    string  `json:"bill_number"`
	Remarks       string  `json:"remarks"`
	SupplierName  string  `json:"supplier_name,omitempty"`
	MaterialName  string  `json:"material_name,omitempty"`
	Unit          string  `json:"unit,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// SalesRecord is an append-only log entry for a dispatch of finished goods.
type SalesRecord struct {
	ID            int    `json:"id"`
	Date          string `json:"date"`
	CustomerID    int    `json:"customer_id"`
	ProductID     int    `json:"product_id"`
	Quantity      int    `json:"quantity"`
	DispatchType  string `json:"dispatch_type"`
	VehicleNumber string `json:"vehicle_number"`
	Remarks       string `json:"remarks"`
	CustomerName  string `json:"customer_name,omitempty"`
	ProductName   string `json:"product_name,omitempty"`
	Volume        string `json:"volume,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// Customer is a buyer of finished goods.
type Customer struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	CreatedAt string `json:"created_at"`
}

// Supplier provides raw materials.
type Supplier struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	CreatedAt string `json:"created_at"`
}

// User is an application account.
type User struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Active      int    `json:"active"`
	CreatedAt   string `json:"created_at"`
	LastLogin   string `json:"last_login,omitempty"`
}

// LowStockMaterial is a raw material below the alert threshold.
type LowStockMaterial struct {
	Name         string  `json:"name"`
	CurrentStock float64 `json:"current_stock"`
	Unit         string  `json:"unit"`
}

// LowStockProduct is a finished good below the alert threshold.
type LowStockProduct struct {
	Name         string `json:"name"`
	Volume       string `json:"volume"`
	CurrentStock int    `json:"current_stock"`
}

// TrendPoint is one day of aggregated quantity for dashboard charts.
type TrendPoint struct {
	Date string  `json:"date"`
	Qty  float64 `json:"qty"`
}

// TopEntry is one row of a top-N ranking on the dashboard.
type TopEntry struct {
	Name string  `json:"name"`
	Qty  float64 `json:"qty"`
}

// DashboardData aggregates the landing-page KPIs.
type DashboardData struct {
	TotalProducts      int                `json:"total_products"`
	TotalCustomers     int                `json:"total_customers"`
	TotalSuppliers     int                `json:"total_suppliers"`
	TodayProduction    int                `json:"today_production"`
	TodaySales         int                `json:"today_sales"`
	TotalFinishedStock int                `json:"total_finished_stock"`
	TotalSalesQty      int                `json:"total_sales_qty"`
	TotalPurchaseValue float64            `json:"total_purchase_value"`
	SalesTrend         []TrendPoint       `json:"sales_trend"`
	TopProduction      []TopEntry         `json:"top_production"`
	TopCustomers       []TopEntry         `json:"top_customers"`
	TopSuppliers       []TopEntry         `json:"top_suppliers"`
	LowRawMaterials    []LowStockMaterial `json:"low_raw_materials"`
	LowFinishedGoods   []LowStockProduct  `json:"low_finished_goods"`
}
