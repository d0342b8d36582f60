package middleware

import (
	"encoding/json"
	"strconv"

	"github.com/labstack/echo/v4"
)

// UserID returns the authenticated user id stored by JWTAuth.
func UserID(c echo.Context) (uint64, bool) {
	return parseUserID(c.Get(ctxUserID))
}

// parseUserID accepts the shapes a subject claim takes after JSON decoding
// as well as values already converted by JWTAuth.
func parseUserID(v interface{}) (uint64, bool) {
	switch t := v.(type) {
	case uint64:
		return t, t > 0
	case float64:
		if t < 1 || t != float64(uint64(t)) {
			return 0, false
		}
		return uint64(t), true
	case int:
		return uint64(t), t > 0
	case int64:
		return uint64(t), t > 0
	case json.Number:
		n, err := strconv.ParseUint(t.String(), 10, 64)
		return n, err == nil && n > 0
	case string:
		n, err := strconv.ParseUint(t, 10, 64)
		return n, err == nil && n > 0
	}
	return 0, false
}

// rateKeyUser is the user component of a rate-limit key; "anon" before
// authentication has run.
func rateKeyUser(c echo.Context) string {
	if uid, ok := UserID(c); ok {
		return strconv.FormatUint(uid, 10)
	}
	return "anon"
}
