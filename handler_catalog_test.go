package main

import (
	"fmt"
	"testing"
)

func TestProductCRUD(t *testing.T) {
	setupTestDB(t)

	id := createProduct(t, "Bottle 500ml")

	// Names are unique case-insensitively.
	rec := doJSON(t, "POST", "/api/v1/products", map[string]interface{}{"name": "bottle 500ML"}, nil)
	if rec.Code != 409 {
		t.Fatalf("duplicate name: %d, want 409", rec.Code)
	}

	rec = doJSON(t, "PUT", fmt.Sprintf("/api/v1/products/%d", id),
		map[string]interface{}{"name": "Bottle 500ml Clear", "volume": "500ml"}, nil)
	if rec.Code != 200 {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}

	var got struct {
		Data Product `json:"data"`
	}
	rec = doJSON(t, "GET", fmt.Sprintf("/api/v1/products/%d", id), nil, &got)
	if rec.Code != 200 || got.Data.Name != "Bottle 500ml Clear" {
		t.Fatalf("get after update: %d %+v", rec.Code, got.Data)
	}

	rec = doJSON(t, "DELETE", fmt.Sprintf("/api/v1/products/%d", id), nil, nil)
	if rec.Code != 200 {
		t.Fatalf("delete: %d", rec.Code)
	}
	rec = doJSON(t, "GET", fmt.Sprintf("/api/v1/products/%d", id), nil, nil)
	if rec.Code != 404 {
		t.Fatalf("get after delete: %d, want 404", rec.Code)
	}
}

func TestProductDeleteBlockedByHistory(t *testing.T) {
	setupTestDB(t)

	productID := createProduct(t, "Bottle 500ml")
	materialID := createMaterial(t, "PET Preform", 10)
	setBOMEntry(t, productID, materialID, 1)
	doJSON(t, "POST", "/api/v1/production", map[string]interface{}{
		"date": "2026-08-30", "product_id": productID, "quantity_produced": 1,
	}, nil)

	rec := doJSON(t, "DELETE", fmt.Sprintf("/api/v1/products/%d", productID), nil, nil)
	if rec.Code != 409 {
		t.Fatalf("delete with history: %d, want 409", rec.Code)
	}
}

func TestMaterialUpdateCannotTouchStock(t *testing.T) {
	setupTestDB(t)

	materialID := createMaterial(t, "PET Preform", 25)

	rec := doJSON(t, "PUT", fmt.Sprintf("/api/v1/materials/%d", materialID),
		map[string]interface{}{"name": "PET Preform 24g", "unit": "kg", "opening_stock": 9999}, nil)
	if rec.Code != 200 {
		t.Fatalf("update material: %d %s", rec.Code, rec.Body.String())
	}

	var got struct {
		Data RawMaterial `json:"data"`
	}
	doJSON(t, "GET", fmt.Sprintf("/api/v1/materials/%d", materialID), nil, &got)
	if got.Data.CurrentStock != 25 {
		t.Errorf("stock = %g, want 25 (edits must not move stock)", got.Data.CurrentStock)
	}
	if got.Data.Name != "PET Preform 24g" {
		t.Errorf("name = %s", got.Data.Name)
	}
}

func TestBOMEndpoints(t *testing.T) {
	setupTestDB(t)

	productID := createProduct(t, "Bottle 1L")
	m1 := createMaterial(t, "PET Preform", 0)
	m2 := createMaterial(t, "Cap 28mm", 0)

	setBOMEntry(t, productID, m1, 2.5)
	setBOMEntry(t, productID, m2, 1)
	// Upsert replaces the consumption value.
	setBOMEntry(t, productID, m1, 3)

	var entries struct {
		Data []BOMEntry `json:"data"`
	}
	rec := doJSON(t, "GET", fmt.Sprintf("/api/v1/bom/%d", productID), nil, &entries)
	if rec.Code != 200 {
		t.Fatalf("get bom: %d", rec.Code)
	}
	if len(entries.Data) != 2 {
		t.Fatalf("bom entries = %d, want 2", len(entries.Data))
	}
	if entries.Data[0].RawMaterialID != m1 || entries.Data[0].ConsumptionPerUnit != 3 {
		t.Errorf("first entry = %+v", entries.Data[0])
	}

	rec = doJSON(t, "DELETE", fmt.Sprintf("/api/v1/bom/%d/%d", productID, m2), nil, nil)
	if rec.Code != 200 {
		t.Fatalf("delete bom entry: %d", rec.Code)
	}
	doJSON(t, "GET", fmt.Sprintf("/api/v1/bom/%d", productID), nil, &entries)
	if len(entries.Data) != 1 {
		t.Errorf("bom entries after delete = %d, want 1", len(entries.Data))
	}

	rec = doJSON(t, "GET", "/api/v1/bom/999", nil, nil)
	if rec.Code != 404 {
		t.Fatalf("bom of unknown product: %d, want 404", rec.Code)
	}
}

func TestBOMEntryValidation(t *testing.T) {
	setupTestDB(t)

	productID := createProduct(t, "Bottle 1L")
	rec := doJSON(t, "POST", fmt.Sprintf("/api/v1/bom/%d", productID),
		map[string]interface{}{"raw_material_id": 1, "consumption_per_unit": 0}, nil)
	if rec.Code != 400 {
		t.Fatalf("zero consumption: %d, want 400", rec.Code)
	}
}
