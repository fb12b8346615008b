package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mdyrsy/kalbar-cm/internal/model"
	"github.com/mdyrsy/kalbar-cm/internal/query"
	"github.com/mdyrsy/kalbar-cm/pkg/database"
	"github.com/mdyrsy/kalbar-cm/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB swaps the shared connection for a throwaway in-memory
// database with the full schema migrated.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	// A single connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&model.User{},
		&model.ServiceType{},
		&model.Service{},
		&model.ContractType{},
		&model.ContractProgress{},
		&model.Contract{},
		&model.ContractLink{},
		&model.SessionToken{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	database.SetDB(db)
	return db
}

func doGet(t *testing.T, h echo.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func doGetID(t *testing.T, h echo.HandlerFunc, path, id string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)

	if err := h(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func doDeleteID(t *testing.T, h echo.HandlerFunc, path, id string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)

	if err := h(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
}

func TestDeletedServiceExcludedFromListAndGet(t *testing.T) {
	db := setupTestDB(t)

	seed := []model.Service{
		{Name: "colocation"},
		{Name: "dedicated line"},
		{Name: "managed wifi"},
	}
	for i := range seed {
		if err := db.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed service: %v", err)
		}
	}

	victim := fmt.Sprint(seed[1].ID)
	rec := doDeleteID(t, DeleteService, "/services/"+victim, victim)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want %d", rec.Code, http.StatusOK)
	}

	var list struct {
		Data []model.Service `json:"data"`
		Meta query.Meta      `json:"meta"`
	}
	decodeInto(t, doGet(t, ListServices, "/services"), &list)

	if list.Meta.Total != 2 || len(list.Data) != 2 {
		t.Fatalf("got total=%d rows=%d, want 2/2", list.Meta.Total, len(list.Data))
	}
	for _, svc := range list.Data {
		if svc.ID == seed[1].ID {
			t.Errorf("deleted service %d still listed", svc.ID)
		}
	}

	rec = doGetID(t, GetService, "/services/"+victim, victim)
	if rec.Code != http.StatusNotFound {
		t.Errorf("fetch of deleted service: status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestListServicesPaginationSlice(t *testing.T) {
	db := setupTestDB(t)

	for i := 1; i <= 25; i++ {
		svc := model.Service{Name: fmt.Sprintf("svc-%02d", i)}
		if err := db.Create(&svc).Error; err != nil {
			t.Fatalf("seed service: %v", err)
		}
	}

	var list struct {
		Data []model.Service `json:"data"`
		Meta query.Meta      `json:"meta"`
	}
	decodeInto(t, doGet(t, ListServices, "/services?page=2&limit=10&sort_by=name&sort_order=asc"), &list)

	if list.Meta.Total != 25 || list.Meta.TotalPages != 3 || list.Meta.Page != 2 {
		t.Fatalf("meta = %+v, want total=25 total_pages=3 page=2", list.Meta)
	}
	if len(list.Data) != 10 {
		t.Fatalf("page size = %d, want 10", len(list.Data))
	}
	for i, svc := range list.Data {
		want := fmt.Sprintf("svc-%02d", 11+i)
		if svc.Name != want {
			t.Errorf("row %d = %q, want %q", i, svc.Name, want)
		}
	}
}

func TestContractCreateFetchUpdateRoundTrip(t *testing.T) {
	setupTestDB(t)

	rec := postJSON(t, CreateContract, "/contracts",
		`{"segment":"PRQ","customer_name":"PT Khatulistiwa","contract_number":"CTR-2026-001","contract_value":150,"contract_kind":"new"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		Data model.Contract `json:"data"`
	}
	decodeInto(t, rec, &created)

	// A later wall-clock instant makes the updated_at advance observable.
	time.Sleep(20 * time.Millisecond)

	id := fmt.Sprint(created.Data.ID)
	rec = putJSON(t, UpdateContract, "/contracts/"+id, id,
		`{"progress_note":"site survey done","contract_value":275}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}

	var fetched struct {
		Data model.Contract `json:"data"`
	}
	decodeInto(t, doGetID(t, GetContract, "/contracts/"+id, id), &fetched)

	if fetched.Data.ProgressNote != "site survey done" {
		t.Errorf("progress_note = %q", fetched.Data.ProgressNote)
	}
	if fetched.Data.ContractValue != 275 {
		t.Errorf("contract_value = %v, want 275", fetched.Data.ContractValue)
	}
	if fetched.Data.CustomerName != "PT Khatulistiwa" {
		t.Errorf("customer_name changed to %q", fetched.Data.CustomerName)
	}
	if fetched.Data.ContractNumber != "CTR-2026-001" {
		t.Errorf("contract_number changed to %q", fetched.Data.ContractNumber)
	}
	if fetched.Data.Segment != "PRQ" {
		t.Errorf("segment changed to %q", fetched.Data.Segment)
	}
	if !fetched.Data.CreatedAt.Equal(created.Data.CreatedAt) {
		t.Errorf("created_at moved from %v to %v", created.Data.CreatedAt, fetched.Data.CreatedAt)
	}
	if !fetched.Data.UpdatedAt.After(created.Data.UpdatedAt) {
		t.Errorf("updated_at did not advance: %v vs %v", created.Data.UpdatedAt, fetched.Data.UpdatedAt)
	}
}

func TestSegmentChangeRefreshesBothGauges(t *testing.T) {
	db := setupTestDB(t)

	contract := model.Contract{
		Segment:        model.SegmentPRQ,
		CustomerName:   "PT Khatulistiwa",
		ContractNumber: "CTR-2026-002",
		ContractValue:  100,
	}
	if err := db.Create(&contract).Error; err != nil {
		t.Fatalf("seed contract: %v", err)
	}
	refreshSegmentGauges(model.SegmentPRQ)

	id := fmt.Sprint(contract.ID)
	rec := putJSON(t, UpdateContract, "/contracts/"+id, id,
		fmt.Sprintf(`{"segment":%q}`, model.SegmentGovernment))
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}

	prqGauge := prometheus.ContractsPerSegmentGauge.WithLabelValues(model.SegmentPRQ)
	govGauge := prometheus.ContractsPerSegmentGauge.WithLabelValues(model.SegmentGovernment)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if testutil.ToFloat64(prqGauge) == 0 && testutil.ToFloat64(govGauge) == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("gauges not refreshed: prq=%v government=%v",
		testutil.ToFloat64(prqGauge), testutil.ToFloat64(govGauge))
}
