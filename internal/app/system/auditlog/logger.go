// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/campushq/campushub/internal/app/store/audit"
	"github.com/campushq/campushub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config controls where audit events go, per category.
// Values: "all" (MongoDB + zap), "db", "log", "off".
type Config struct {
	Auth  string
	Admin string
}

// Logger records audit events to MongoDB and structured logs.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

// Log records one event per the category's configuration. A nil Logger
// is a no-op so tests can skip auditing.
func (l *Logger) Log(ctx context.Context, ev audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch ev.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	default:
		setting = "all"
	}
	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(ev)
	}
	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, ev); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", ev.EventType))
		}
	}
}

func (l *Logger) logToZap(ev audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", ev.Category),
		zap.String("event_type", ev.EventType),
		zap.Bool("success", ev.Success),
		zap.String("ip", ev.IP),
	}
	if ev.UserID != nil {
		fields = append(fields, zap.String("user_id", ev.UserID.Hex()))
	}
	if ev.ActorID != nil {
		fields = append(fields, zap.String("actor_id", ev.ActorID.Hex()))
	}
	if ev.InstitutionID != nil {
		fields = append(fields, zap.String("institution_id", ev.InstitutionID.Hex()))
	}
	if ev.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", ev.FailureReason))
	}
	for k, v := range ev.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if ev.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// --- Authentication events ---

func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, instID *primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginSuccess,
		UserID:        &userID,
		InstitutionID: instID,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       true,
		Details:       map[string]string{"email": email},
	})
}

func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, email, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailed,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: reason,
		Details:       map[string]string{"email": email},
	})
}

func (l *Logger) Logout(ctx context.Context, r *http.Request, userID *primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    userID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// --- Admin events ---

// ApprovalDecision records an approve or reject of an institution,
// club, or membership application.
func (l *Logger) ApprovalDecision(ctx context.Context, r *http.Request, actorID primitive.ObjectID, instID *primitive.ObjectID, subject, subjectID, decision string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAdmin,
		EventType:     audit.EventApprovalDecision,
		ActorID:       &actorID,
		InstitutionID: instID,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       true,
		Details: map[string]string{
			"subject":    subject,
			"subject_id": subjectID,
			"decision":   decision,
		},
	})
}

func (l *Logger) OfficerAssigned(ctx context.Context, r *http.Request, actorID, targetUserID, clubID primitive.ObjectID, instID *primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAdmin,
		EventType:     audit.EventOfficerAssigned,
		UserID:        &targetUserID,
		ActorID:       &actorID,
		InstitutionID: instID,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       true,
		Details:       map[string]string{"club_id": clubID.Hex()},
	})
}

func (l *Logger) AdvisorAssigned(ctx context.Context, r *http.Request, actorID, targetUserID, clubID primitive.ObjectID, instID *primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAdmin,
		EventType:     audit.EventAdvisorAssigned,
		UserID:        &targetUserID,
		ActorID:       &actorID,
		InstitutionID: instID,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       true,
		Details:       map[string]string{"club_id": clubID.Hex()},
	})
}

func (l *Logger) StaffAssigned(ctx context.Context, r *http.Request, actorID, targetUserID primitive.ObjectID, instID *primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAdmin,
		EventType:     audit.EventStaffAssigned,
		UserID:        &targetUserID,
		ActorID:       &actorID,
		InstitutionID: instID,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       true,
	})
}

func (l *Logger) StatusChanged(ctx context.Context, r *http.Request, actorID primitive.ObjectID, instID *primitive.ObjectID, subject, subjectID, status string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAdmin,
		EventType:     audit.EventStatusChanged,
		ActorID:       &actorID,
		InstitutionID: instID,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       true,
		Details: map[string]string{
			"subject":    subject,
			"subject_id": subjectID,
			"status":     status,
		},
	})
}

// ProtectedDenied records a blocked mutation against a protected account.
func (l *Logger) ProtectedDenied(ctx context.Context, r *http.Request, actorID, targetUserID primitive.ObjectID, operation string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAdmin,
		EventType:     audit.EventProtectedDenied,
		UserID:        &targetUserID,
		ActorID:       &actorID,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "target account is protected",
		Details:       map[string]string{"operation": operation},
	})
}

func (l *Logger) AccountDeleted(ctx context.Context, r *http.Request, actorID, targetUserID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventAccountDeleted,
		UserID:    &targetUserID,
		ActorID:   &actorID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

func (l *Logger) EmailChanged(ctx context.Context, r *http.Request, actorID, targetUserID primitive.ObjectID, newEmail string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventEmailChanged,
		UserID:    &targetUserID,
		ActorID:   &actorID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details:   map[string]string{"new_email": newEmail},
	})
}
