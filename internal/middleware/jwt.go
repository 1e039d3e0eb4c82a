package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	appErrors "github.com/noah-isme/roster-api/pkg/errors"
	"github.com/noah-isme/roster-api/pkg/response"
)

// ContextTeacherKey is the gin context key storing the authenticated
// teacher's identity.
const ContextTeacherKey = "teacherID"

// JWT requires a valid externally issued HS256 access token and exposes
// its subject as the teacher identity. Token issuance is not this
// service's concern; it only verifies.
func JWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		teacherID, err := validateToken(parts[1], secret)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextTeacherKey, teacherID)
		c.Next()
	}
}

// TeacherID returns the authenticated identity stored in the context.
func TeacherID(c *gin.Context) string {
	if v, exists := c.Get(ContextTeacherKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func validateToken(tokenString, secret string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims.Subject, nil
}
