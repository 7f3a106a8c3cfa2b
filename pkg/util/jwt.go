package util

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// The signing key belongs to the backend; the client only uses the claim to
// skip a round trip for a token that is already known to be dead.
// ok is false for opaque tokens and tokens without exp.
func TokenExpiry(tokenStr string) (exp time.Time, ok bool) {
	if tokenStr == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return time.Time{}, false
	}
	expAt, err := claims.GetExpirationTime()
	if err != nil || expAt == nil {
		return time.Time{}, false
	}
	return expAt.Time, true
}

// TokenExpired reports whether the token carries an exp claim before now.
func TokenExpired(tokenStr string, now time.Time) bool {
	exp, ok := TokenExpiry(tokenStr)
	return ok && !now.Before(exp)
}

// ExtractToken returns the bearer token of the Authorization header, or "".
func ExtractToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	parts := strings.Split(auth, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return parts[1]
}
