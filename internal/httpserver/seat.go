// internal/httpserver/seat.go
//
// Seat tokens: an HS256 JWT whose "gid" claim names the one game its holder
// may act on. Issued by POST /game/new, sent back as a bearer token or the
// game-scoped cookie, and checked by requireSeat on every mutating route.

package httpserver

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

const seatCookieName = "checkers_seat"

func seatSecret() []byte { return []byte(getEnv("JWT_SECRET", "dev_secret_change_me")) }

// signSeat creates a seat token for gameID expiring after SEAT_TOKEN_DAYS (default 14).
func signSeat(gameID string) (string, time.Time, error) {
	days := 14
	if v := os.Getenv("SEAT_TOKEN_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			days = n
		}
	}
	now := time.Now()
	exp := now.Add(time.Duration(days) * 24 * time.Hour)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"gid": gameID,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	})
	ss, err := t.SignedString(seatSecret())
	return ss, exp, err
}

// parseSeat verifies tok and returns its game id.
func parseSeat(tok string) (string, bool) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return seatSecret(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return "", false
	}
	gid, _ := claims["gid"].(string)
	return gid, gid != ""
}

// setSeatCookie scopes the cookie to the game's routes so several games can
// be held by one browser.
func setSeatCookie(w http.ResponseWriter, gameID, token string, exp time.Time) {
	secure := os.Getenv("NODE_ENV") == "production"
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     seatCookieName,
		Value:    token,
		Path:     "/game/" + gameID,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// bearerOrCookie extracts a seat token from the Authorization header or cookie.
func bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(seatCookieName); err == nil {
		return c.Value
	}
	return ""
}

// requireSeat rejects requests without a valid seat token for the {id} in the path.
func requireSeat(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := bearerOrCookie(r)
		if tok == "" {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		gid, ok := parseSeat(tok)
		if !ok {
			http.Error(w, `{"error":"invalid_token"}`, http.StatusUnauthorized)
			return
		}
		if gid != chi.URLParam(r, "id") {
			http.Error(w, `{"error":"wrong_game"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
