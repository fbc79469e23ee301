package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"packinv/internal/auth"
	"packinv/internal/stock"
	"packinv/internal/websocket"
)

var handlerTestSeq int

// setupTestDB wires the full application state against a fresh in-memory
// database and restores the previous globals on cleanup.
func setupTestDB(t *testing.T) {
	t.Helper()
	handlerTestSeq++

	oldDB := db
	dsn := fmt.Sprintf("file:handlertest%d?mode=memory&cache=shared", handlerTestSeq)
	if err := initDB(dsn); err != nil {
		t.Fatalf("initDB: %v", err)
	}
	seedDB()
	if err := auth.InitPermissionsTable(db, permCache); err != nil {
		t.Fatalf("init permissions: %v", err)
	}

	cfg = defaultConfig()
	hub = websocket.NewHub()
	engine = stock.NewEngine(db)

	t.Cleanup(func() {
		db.Close()
		db = oldDB
	})
}

// sessionFor inserts a session for the given user and returns its cookie.
func sessionFor(t *testing.T, username string) *http.Cookie {
	t.Helper()
	var userID int
	if err := db.QueryRow("SELECT id FROM users WHERE username = ?", username).Scan(&userID); err != nil {
		t.Fatalf("lookup user %s: %v", username, err)
	}
	token := generateToken()
	expires := time.Now().Add(time.Hour)
	if _, err := db.Exec("INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)",
		token, userID, expires.Format("2006-01-02 15:04:05")); err != nil {
		t.Fatalf("insert session: %v", err)
	}
	return &http.Cookie{Name: sessionCookie, Value: token}
}

// doJSON performs a request against the API router and decodes the response.
func doJSON(t *testing.T, method, path string, body interface{}, out interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	routeAPI(rec, req)
	if out != nil && rec.Code < 300 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode response (%d %s): %v", rec.Code, rec.Body.String(), err)
		}
	}
	return rec
}

type idResponse struct {
	Data struct {
		ID int `json:"id"`
	} `json:"data"`
}

func createProduct(t *testing.T, name string) int {
	t.Helper()
	var resp idResponse
	rec := doJSON(t, "POST", "/api/v1/products", map[string]interface{}{"name": name, "volume": "500ml"}, &resp)
	if rec.Code != 200 {
		t.Fatalf("create product: %d %s", rec.Code, rec.Body.String())
	}
	return resp.Data.ID
}

func createMaterial(t *testing.T, name string, opening float64) int {
	t.Helper()
	var resp idResponse
	rec := doJSON(t, "POST", "/api/v1/materials",
		map[string]interface{}{"name": name, "unit": "kg", "opening_stock": opening}, &resp)
	if rec.Code != 200 {
		t.Fatalf("create material: %d %s", rec.Code, rec.Body.String())
	}
	return resp.Data.ID
}

func createCustomer(t *testing.T, name string) int {
	t.Helper()
	var resp idResponse
	rec := doJSON(t, "POST", "/api/v1/customers", map[string]interface{}{"name": name}, &resp)
	if rec.Code != 200 {
		t.Fatalf("create customer: %d %s", rec.Code, rec.Body.String())
	}
	return resp.Data.ID
}

func createSupplier(t *testing.T, name string) int {
	t.Helper()
	var resp idResponse
	rec := doJSON(t, "POST", "/api/v1/suppliers", map[string]interface{}{"name": name}, &resp)
	if rec.Code != 200 {
		t.Fatalf("create supplier: %d %s", rec.Code, rec.Body.String())
	}
	return resp.Data.ID
}

func setBOMEntry(t *testing.T, productID, materialID int, perUnit float64) {
	t.Helper()
	rec := doJSON(t, "POST", fmt.Sprintf("/api/v1/bom/%d", productID),
		map[string]interface{}{"raw_material_id": materialID, "consumption_per_unit": perUnit}, nil)
	if rec.Code != 200 {
		t.Fatalf("set bom entry: %d %s", rec.Code, rec.Body.String())
	}
}
