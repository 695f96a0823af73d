package security

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"budget/internal/cache"
	"budget/internal/log"
)

// Realm is announced in the Basic auth challenge.
const Realm = "budget"

// PasswordGate requires HTTP Basic credentials whose password matches a
// bcrypt hash. The user name is ignored. Accepted credentials are
// remembered for a while so bcrypt does not run on every request.
type PasswordGate struct {
	hash     []byte
	verified *cache.LRUCache[bool]
	exempt   []string
	logger   *log.Logger
}

// NewPasswordGate returns nil when hash is empty, which disables the gate.
// Paths starting with one of exempt skip authentication.
func NewPasswordGate(hash string, logger *log.Logger, exempt ...string) *PasswordGate {
	if hash == "" {
		return nil
	}
	return &PasswordGate{
		hash:     []byte(hash),
		verified: cache.NewLRUCache[bool](16, 10*time.Minute),
		exempt:   exempt,
		logger:   logger.WithComponent(log.ComponentSecurity),
	}
}

// Cache exposes the credential cache so it can be swept periodically.
func (g *PasswordGate) Cache() *cache.LRUCache[bool] {
	return g.verified
}

func (g *PasswordGate) check(r *http.Request) bool {
	_, password, ok := r.BasicAuth()
	if !ok {
		return false
	}
	sum := sha256.Sum256([]byte(password))
	key := hex.EncodeToString(sum[:])
	if _, ok := g.verified.Get(key); ok {
		return true
	}
	if bcrypt.CompareHashAndPassword(g.hash, []byte(password)) != nil {
		return false
	}
	g.verified.Set(key, true)
	return true
}

// Middleware wraps next. A nil gate passes every request through.
func (g *PasswordGate) Middleware(next http.Handler) http.Handler {
	if g == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range g.exempt {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}
		if !g.check(r) {
			g.logger.WarnContext(r.Context(), "Authentication failed", log.FieldPath, r.URL.Path)
			w.Header().Set("WWW-Authenticate", `Basic realm="`+Realm+`", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
