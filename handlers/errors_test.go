package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/carelink/carelink/backend/go-services/internal/apperr"
)

func TestRespondErrorHidesInternals(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"field error keeps its message", &apperr.FieldError{Field: "name", Message: "is required"}, http.StatusBadRequest, `{"error":"name: is required"}`},
		{"schema validation", fmt.Errorf("users: unknown column x: %w", apperr.ErrValidation), http.StatusBadRequest, `{"error":"Invalid request"}`},
		{"unique conflict", &apperr.ConflictError{Collection: "patients", Field: "registration_number"}, http.StatusBadRequest, `{"error":"Record already exists"}`},
		{"not found", fmt.Errorf("beds b1: %w", apperr.ErrNotFound), http.StatusNotFound, `{"error":"Bed not found"}`},
		{"credentials", apperr.ErrAuthentication, http.StatusUnauthorized, `{"error":"Invalid credentials"}`},
		{"backend failure", errors.New("pq: relation \"users\" does not exist"), http.StatusInternalServerError, `{"error":"Internal server error"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPut, "/api/beds/b1", nil)

			respondError(c, tc.err, "Bed not found")

			assert.Equal(t, tc.status, w.Code)
			assert.JSONEq(t, tc.body, w.Body.String())
		})
	}
}
