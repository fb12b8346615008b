package handler

import (
	"net/http"
	"testing"
)

func TestCreateUserValidation(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			"missing fields",
			`{"name":"AM One"}`,
			"name, email, and password are required",
		},
		{
			"short password",
			`{"name":"AM One","email":"am@example.com","password":"short"}`,
			"password must be at least 8 characters",
		},
		{
			"unknown role",
			`{"name":"AM One","email":"am@example.com","password":"longenough","role":"observer"}`,
			"unknown role",
		},
		{
			"unknown segment",
			`{"name":"AM One","email":"am@example.com","password":"longenough","segment":"retail"}`,
			"unknown segment",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, CreateUser, "/users", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if got := decodeError(t, rec); got != tc.wantErr {
				t.Errorf("error = %q, want %q", got, tc.wantErr)
			}
		})
	}
}
