// internal/app/features/health/handler_test.go
package health_test

import (
	"net/http"
	"testing"

	"go.uber.org/zap"

	"github.com/campushq/campushub/internal/app/features/health"
	"github.com/campushq/campushub/internal/testutil"
)

func TestServe(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := health.NewHandler(db.Client(), zap.NewNop())
	router := health.Routes(h)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "connected")
}
