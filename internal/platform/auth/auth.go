package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Front-office roles. Admin staff register patients and visits; doctors read
// queues and progress visit status.
const (
	RoleAdministrasi = "administrasi"
	RoleDokter       = "dokter"
)

type contextKey string

const userKey contextKey = "auth.user"

// User is the authenticated principal extracted from the bearer token.
type User struct {
	ID       string
	Username string
	Name     string
	Role     string
}

// Claims is the JWT claim set issued for front-office users.
type Claims struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Middleware validates the Authorization bearer token and stores the user in
// the request context. In dev mode every request is treated as an
// administrasi user so the API is usable without an identity provider.
func Middleware(secret string, devMode bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if devMode {
				ctx := WithUser(c.Request().Context(), &User{
					ID:       "dev",
					Username: "dev",
					Name:     "Development User",
					Role:     RoleAdministrasi,
				})
				c.SetRequest(c.Request().WithContext(ctx))
				return next(c)
			}

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			tokenString := strings.TrimPrefix(header, "Bearer ")

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			ctx := WithUser(c.Request().Context(), &User{
				ID:       claims.Subject,
				Username: claims.Username,
				Name:     claims.Name,
				Role:     claims.Role,
			})
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// GenerateToken issues a signed token for a front-office user.
func GenerateToken(secret, userID, username, name, role string, ttl time.Duration) (string, error) {
	claims := &Claims{
		Username: username,
		Name:     name,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userKey).(*User)
	return u
}
