package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/campushq/campushub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestPrincipal describes a caller identity for handler tests.
type TestPrincipal struct {
	ID            primitive.ObjectID
	Name          string
	Email         string
	Role          string
	InstitutionID *primitive.ObjectID
}

// StudentPrincipal returns a student caller.
func StudentPrincipal() TestPrincipal {
	return TestPrincipal{
		ID:    primitive.NewObjectID(),
		Name:  "Test Student",
		Email: "student@example.edu",
		Role:  "student",
	}
}

// EmployeePrincipal returns an employee caller.
func EmployeePrincipal() TestPrincipal {
	return TestPrincipal{
		ID:    primitive.NewObjectID(),
		Name:  "Test Employee",
		Email: "employee@example.edu",
		Role:  "employee",
	}
}

// InstitutionPrincipal returns the admin caller for an institution.
func InstitutionPrincipal(instID primitive.ObjectID) TestPrincipal {
	return TestPrincipal{
		ID:            primitive.NewObjectID(),
		Name:          "Test Institution",
		Email:         "admin@example.edu",
		Role:          "institution",
		InstitutionID: &instID,
	}
}

// SuperAdminPrincipal returns the platform super admin caller.
func SuperAdminPrincipal() TestPrincipal {
	return TestPrincipal{
		ID:    primitive.NewObjectID(),
		Name:  "Super Admin",
		Email: "root@example.com",
		Role:  "super_admin",
	}
}

// WithPrincipal injects the caller into the request context, bypassing
// cookie and session resolution.
func WithPrincipal(r *http.Request, p TestPrincipal) *http.Request {
	return auth.WithTestPrincipal(r, &auth.Principal{
		UserID:        p.ID,
		Role:          p.Role,
		Email:         p.Email,
		FullName:      p.Name,
		InstitutionID: p.InstitutionID,
	})
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates a request with a JSON body.
func NewJSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewAuthenticatedRequest creates an HTTP request with a caller in context.
func NewAuthenticatedRequest(method, target string, p TestPrincipal) *http.Request {
	return WithPrincipal(httptest.NewRequest(method, target, nil), p)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}

// DecodeJSON unmarshals the response body into dst.
func (r *ResponseRecorder) DecodeJSON(t *testing.T, dst any) {
	t.Helper()
	if err := json.Unmarshal(r.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response body: %v\nbody: %s", err, r.Body.String())
	}
}
