package handler

import (
	"net/http"
	"testing"

	"github.com/bitfantasy/nimo-erp/internal/erp/repository"
	"github.com/bitfantasy/nimo-erp/internal/erp/service"
	"github.com/bitfantasy/nimo-erp/internal/erp/testutil"
	"go.uber.org/zap"
)

func setupItemTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	services := service.NewServices(repository.NewRepositories(db), db, zap.NewNop(), service.Options{})
	handlers := NewHandlers(services)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1/erp")
	api.GET("/items", handlers.Item.List)
	api.POST("/items", handlers.Item.Create)
	api.GET("/items/:id", handlers.Item.Get)
	api.PUT("/items/:id", handlers.Item.Update)
	api.DELETE("/items/:id", handlers.Item.Delete)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func TestItemCRUD(t *testing.T) {
	env := setupItemTest(t)
	token := testutil.DefaultTestToken()

	// Create
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/erp/items", map[string]interface{}{
		"item_code":     "FG-001",
		"item_name":     "成品A",
		"item_type":     "FINISHED_GOOD",
		"standard_cost": "12.50",
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 0 {
		t.Fatalf("create code = %v", resp["code"])
	}
	data := resp["data"].(map[string]interface{})
	itemID := data["id"].(string)
	if data["item_code"] != "FG-001" {
		t.Errorf("item_code = %v", data["item_code"])
	}

	// Duplicate code rejected
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/erp/items", map[string]interface{}{
		"item_code": "FG-001",
		"item_name": "重复",
		"item_type": "FINISHED_GOOD",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("duplicate create status = %d, want 400", w.Code)
	}

	// Get
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/erp/items/"+itemID, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}

	// Update
	w = testutil.DoRequest(env.Router, "PUT", "/api/v1/erp/items/"+itemID, map[string]interface{}{
		"item_name": "成品A改",
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
	}
	resp = testutil.ParseResponse(w)
	if resp["data"].(map[string]interface{})["item_name"] != "成品A改" {
		t.Errorf("updated name = %v", resp["data"].(map[string]interface{})["item_name"])
	}

	// List with filter
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/erp/items?item_type=FINISHED_GOOD", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	resp = testutil.ParseResponse(w)
	listData := resp["data"].(map[string]interface{})
	if listData["total"].(float64) != 1 {
		t.Errorf("list total = %v, want 1", listData["total"])
	}

	// Deactivate: record survives but drops out of listings
	w = testutil.DoRequest(env.Router, "DELETE", "/api/v1/erp/items/"+itemID, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/erp/items/"+itemID, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("get after delete status = %d", w.Code)
	}
	resp = testutil.ParseResponse(w)
	if resp["data"].(map[string]interface{})["is_active"] != false {
		t.Error("item still active after delete")
	}
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/erp/items", nil, token)
	resp = testutil.ParseResponse(w)
	if resp["data"].(map[string]interface{})["total"].(float64) != 0 {
		t.Errorf("list after delete total = %v, want 0", resp["data"].(map[string]interface{})["total"])
	}
}

func TestItemGetNotFound(t *testing.T) {
	env := setupItemTest(t)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/erp/items/no-such-item", nil, testutil.DefaultTestToken())
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 10002 {
		t.Errorf("code = %v, want 10002", resp["code"])
	}
}

func TestItemRequiresAuth(t *testing.T) {
	env := setupItemTest(t)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/erp/items", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", w.Code)
	}
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/erp/items", nil, "not-a-jwt")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", w.Code)
	}
}
