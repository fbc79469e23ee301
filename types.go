package main

import "packinv/internal/models"

// Type aliases keep handler code terse while the definitions live in
// internal/models.
type (
	Product          = models.Product
	RawMaterial      = models.RawMaterial
	BOMEntry         = models.BOMEntry
	ProductStock     = models.ProductStock
	ProductionRecord = models.ProductionRecord
	PurchaseRecord   = models.PurchaseRecord
	SalesRecord      = models.SalesRecord
	Customer         = models.Customer
	Supplier         = models.Supplier
	User             = models.User
	DashboardData    = models.DashboardData
	LowStockMaterial = models.LowStockMaterial
	LowStockProduct  = models.LowStockProduct
)
