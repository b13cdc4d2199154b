package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session cookie constants & globals                                         |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	SessionName = "campushub-session"

	tokenKey = "session_token"
)

// Store is initialised once via InitSessionStore.
var Store *sessions.CookieStore

// InitSessionStore initializes the global session Store using the provided
// session key and domain. The `secure` flag controls whether cookies are
// marked Secure and which SameSite mode is used.
//
// In production (secure=true), cookies are Secure + SameSite=None so they
// work in cross-site contexts over HTTPS. In local dev over http://localhost,
// use secure=false so cookies are accepted.
func InitSessionStore(sessionKey, domain string, secure bool, logger *zap.Logger) error {
	if sessionKey == "" {
		return fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
		MaxAge:   7 * 24 * 60 * 60,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts
	Store = store

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return nil
}

// IssueCookie writes the opaque session token into the cookie. The token
// itself is the only session state the client holds; everything else
// lives server side.
func IssueCookie(w http.ResponseWriter, r *http.Request, token string) error {
	sess, _ := Store.Get(r, SessionName)
	sess.Values[tokenKey] = token
	return sess.Save(r, w)
}

// ClearCookie expires the session cookie.
func ClearCookie(w http.ResponseWriter, r *http.Request) error {
	sess, _ := Store.Get(r, SessionName)
	sess.Options.MaxAge = -1
	sess.Values = map[interface{}]interface{}{}
	return sess.Save(r, w)
}

// CookieToken extracts the session token from the request cookie, or ""
// when the caller has none.
func CookieToken(r *http.Request) string {
	if Store == nil {
		return ""
	}
	sess, _ := Store.Get(r, SessionName)
	if v, ok := sess.Values[tokenKey].(string); ok {
		return v
	}
	return ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| Current-Principal helpers                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const currentPrincipalKey ctxKey = "currentPrincipal"

// CurrentPrincipal returns the resolved caller and a "found?" flag.
// An anonymous request has no principal.
func CurrentPrincipal(r *http.Request) (*Principal, bool) {
	p, ok := r.Context().Value(currentPrincipalKey).(*Principal)
	return p, ok
}

// LoadPrincipal resolves the session cookie into a Principal and injects
// it into r.Context(). Every resolution failure degrades to anonymous;
// infrastructure errors are logged but never surface to the client here.
func LoadPrincipal(resolver *Resolver, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := CookieToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			p, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				logger.Warn("session resolution failed, treating as anonymous",
					zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if p != nil {
				r = withPrincipal(r, p)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithTestPrincipal injects a principal directly, bypassing cookie and
// session resolution. Test helper only.
func WithTestPrincipal(r *http.Request, p *Principal) *http.Request {
	return withPrincipal(r, p)
}

func withPrincipal(r *http.Request, p *Principal) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentPrincipalKey, p))
}
