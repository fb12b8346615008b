package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func getStats(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := ContractStats(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func TestContractStatsRequiresYear(t *testing.T) {
	rec := getStats(t, "/contracts/stats")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if got := decodeError(t, rec); got != "year is required" {
		t.Errorf("error = %q", got)
	}
}

func TestContractStatsRejectsNonNumericYear(t *testing.T) {
	rec := getStats(t, "/contracts/stats?year=twenty")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if got := decodeError(t, rec); got != "year must be a number" {
		t.Errorf("error = %q", got)
	}
}

func TestContractStatsRejectsInvalidMonth(t *testing.T) {
	for _, month := range []string{"0", "13", "jan"} {
		rec := getStats(t, "/contracts/stats?year=2025&month="+month)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("month %s: status = %d, want %d", month, rec.Code, http.StatusBadRequest)
		}
		if got := decodeError(t, rec); got != "month must be between 1 and 12" {
			t.Errorf("month %s: error = %q", month, got)
		}
	}
}

func TestCreateContractValidation(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			"missing fields",
			`{"segment":"PRQ"}`,
			"segment, customer_name, and contract_number are required",
		},
		{
			"unknown segment",
			`{"segment":"retail","customer_name":"PT Khatulistiwa","contract_number":"CTR-001"}`,
			"unknown segment",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, CreateContract, "/contracts", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if got := decodeError(t, rec); got != tc.wantErr {
				t.Errorf("error = %q, want %q", got, tc.wantErr)
			}
		})
	}
}

func TestUpdateContractRejectsEmptyBody(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPatch, "/contracts/1", nil)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := UpdateContract(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if got := decodeError(t, rec); got != "nothing to update" {
		t.Errorf("error = %q", got)
	}
}
