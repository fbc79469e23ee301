package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"packinv/internal/auth"
	"packinv/internal/stock"
	"packinv/internal/websocket"
)

var (
	cfg    Config
	hub    *websocket.Hub
	engine *stock.Engine
)

func main() {
	var err error
	cfg, err = loadConfig(os.Args[1:])
	if err != nil {
		log.Fatal("config:", err)
	}

	if err := initDB(cfg.DBPath); err != nil {
		log.Fatal("DB init failed:", err)
	}
	seedDB()

	if err := auth.InitPermissionsTable(db, permCache); err != nil {
		log.Fatal("permissions init failed:", err)
	}

	hub = websocket.NewHub()
	engine = stock.NewEngine(db)

	mux := http.NewServeMux()

	// Auth routes
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			handleLogin(w, r)
		} else {
			http.Error(w, "Method not allowed", 405)
		}
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			handleLogout(w, r)
		} else {
			http.Error(w, "Method not allowed", 405)
		}
	})
	mux.HandleFunc("/auth/me", handleMe)

	// Live updates
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		websocket.HandleWebSocket(hub, w, r)
	})

	// API routes - using a simple router
	mux.HandleFunc("/api/v1/", routeAPI)

	handler := logging(requireAuth(requirePermission(mux)))
	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("%s inventory listening on %s", cfg.CompanyName, addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}

func routeAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/")
	path = strings.TrimSuffix(path, "/")
	parts := strings.Split(path, "/")

	switch {
	// Dashboard
	case path == "dashboard" && r.Method == "GET":
		handleDashboard(w, r)

	// Products
	case parts[0] == "products" && len(parts) == 1 && r.Method == "GET":
		handleListProducts(w, r)
	case parts[0] == "products" && len(parts) == 1 && r.Method == "POST":
		handleCreateProduct(w, r)
	case parts[0] == "products" && len(parts) == 2 && r.Method == "GET":
		handleGetProduct(w, r, parts[1])
	case parts[0] == "products" && len(parts) == 2 && r.Method == "PUT":
		handleUpdateProduct(w, r, parts[1])
	case parts[0] == "products" && len(parts) == 2 && r.Method == "DELETE":
		handleDeleteProduct(w, r, parts[1])

	// Raw materials
	case parts[0] == "materials" && len(parts) == 1 && r.Method == "GET":
		handleListMaterials(w, r)
	case parts[0] == "materials" && len(parts) == 1 && r.Method == "POST":
		handleCreateMaterial(w, r)
	case parts[0] == "materials" && len(parts) == 2 && r.Method == "GET":
		handleGetMaterial(w, r, parts[1])
	case parts[0] == "materials" && len(parts) == 2 && r.Method == "PUT":
		handleUpdateMaterial(w, r, parts[1])
	case parts[0] == "materials" && len(parts) == 2 && r.Method == "DELETE":
		handleDeleteMaterial(w, r, parts[1])

	// Recipes
	case parts[0] == "bom" && len(parts) == 2 && r.Method == "GET":
		handleGetBOM(w, r, parts[1])
	case parts[0] == "bom" && len(parts) == 2 && (r.Method == "POST" || r.Method == "PUT"):
		handleSetBOMEntry(w, r, parts[1])
	case parts[0] == "bom" && len(parts) == 3 && r.Method == "DELETE":
		handleDeleteBOMEntry(w, r, parts[1], parts[2])

	// Stock transactions
	case path == "production" && r.Method == "GET":
		handleListProduction(w, r)
	case path == "production" && r.Method == "POST":
		handleCreateProduction(w, r)
	case path == "purchases" && r.Method == "GET":
		handleListPurchases(w, r)
	case path == "purchases" && r.Method == "POST":
		handleCreatePurchase(w, r)
	case path == "sales" && r.Method == "GET":
		handleListSales(w, r)
	case path == "sales" && r.Method == "POST":
		handleCreateSale(w, r)

	// Stock views
	case path == "stock/finished" && r.Method == "GET":
		handleFinishedStock(w, r)
	case path == "stock/materials" && r.Method == "GET":
		handleMaterialStock(w, r)
	case path == "stock/low" && r.Method == "GET":
		handleLowStock(w, r)
	case path == "stock/export" && r.Method == "GET":
		handleExportStock(w, r)

	// Customers
	case parts[0] == "customers" && len(parts) == 1 && r.Method == "GET":
		handleListCustomers(w, r)
	case parts[0] == "customers" && len(parts) == 1 && r.Method == "POST":
		handleCreateCustomer(w, r)
	case parts[0] == "customers" && len(parts) == 2 && r.Method == "PUT":
		handleUpdateCustomer(w, r, parts[1])
	case parts[0] == "customers" && len(parts) == 2 && r.Method == "DELETE":
		handleDeleteCustomer(w, r, parts[1])

	// Suppliers
	case parts[0] == "suppliers" && len(parts) == 1 && r.Method == "GET":
		handleListSuppliers(w, r)
	case parts[0] == "suppliers" && len(parts) == 1 && r.Method == "POST":
		handleCreateSupplier(w, r)
	case parts[0] == "suppliers" && len(parts) == 2 && r.Method == "PUT":
		handleUpdateSupplier(w, r, parts[1])
	case parts[0] == "suppliers" && len(parts) == 2 && r.Method == "DELETE":
		handleDeleteSupplier(w, r, parts[1])

	// Reports
	case path == "reports/sales" && r.Method == "GET":
		handleSalesReport(w, r)
	case path == "reports/purchases" && r.Method == "GET":
		handlePurchaseReport(w, r)
	case path == "reports/production" && r.Method == "GET":
		handleProductionReport(w, r)

	// Administration
	case parts[0] == "users" && len(parts) == 1 && r.Method == "GET":
		handleListUsers(w, r)
	case parts[0] == "users" && len(parts) == 1 && r.Method == "POST":
		handleCreateUser(w, r)
	case parts[0] == "users" && len(parts) == 2 && r.Method == "PUT":
		handleUpdateUser(w, r, parts[1])
	case parts[0] == "users" && len(parts) == 3 && parts[2] == "toggle" && r.Method == "POST":
		handleToggleUser(w, r, parts[1])
	case parts[0] == "users" && len(parts) == 3 && parts[2] == "password" && r.Method == "POST":
		handleResetPassword(w, r, parts[1])
	case path == "permissions" && r.Method == "GET":
		handleGetPermissions(w, r)
	case path == "permissions" && r.Method == "PUT":
		handleSetPermissions(w, r)
	case parts[0] == "apikeys" && len(parts) == 1 && r.Method == "GET":
		handleListAPIKeys(w, r)
	case parts[0] == "apikeys" && len(parts) == 1 && r.Method == "POST":
		handleCreateAPIKey(w, r)
	case parts[0] == "apikeys" && len(parts) == 2 && r.Method == "DELETE":
		handleRevokeAPIKey(w, r, parts[1])
	case path == "audit" && r.Method == "GET":
		handleAuditLog(w, r)

	default:
		jsonErr(w, "Not found", 404)
	}
}
