// internal/app/features/diag/handler.go

// Package diag exposes a diagnostic endpoint that, unlike the rest of
// the API, intentionally echoes raw database error detail. It exists
// for operators debugging connectivity; do not put it behind a cached
// load balancer path.
package diag

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/campushq/campushub/internal/app/system/timeouts"
)

type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger}
}

type diagResponse struct {
	Database    string           `json:"database"`
	PingMS      int64            `json:"ping_ms"`
	PingError   string           `json:"ping_error,omitempty"`
	Collections map[string]int64 `json:"collections,omitempty"`
}

// Serve handles GET /diag.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	resp := diagResponse{Database: h.DB.Name()}

	start := time.Now()
	if err := h.DB.Client().Ping(ctx, readpref.Primary()); err != nil {
		resp.PingMS = time.Since(start).Milliseconds()
		resp.PingError = err.Error()
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(resp)
		return
	}
	resp.PingMS = time.Since(start).Milliseconds()

	resp.Collections = map[string]int64{}
	for _, name := range []string{
		"users", "institutions", "memberships",
		"clubs", "club_members", "advisories", "staff",
		"events", "announcements", "sessions", "audit_events",
	} {
		n, err := h.DB.Collection(name).EstimatedDocumentCount(ctx)
		if err != nil {
			h.Log.Warn("diag: count failed", zap.String("collection", name), zap.Error(err))
			continue
		}
		resp.Collections[name] = n
	}

	_ = json.NewEncoder(w).Encode(resp)
}
