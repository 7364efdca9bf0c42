package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitgym/nutrition-app/internal/domain"
)

// Constants for context keys
const (
	ContextUserIDKey   = "userID"
	ContextUserRoleKey = "userRole"
	ContextCallerKey   = "caller"
)

// GymHeader carries the gym scope for unauthenticated requests. Signed-in
// callers get their gym from the token instead.
const GymHeader = "X-Gym-ID"

// evalDateParam lets read endpoints evaluate the catalog as of a given day.
const evalDateParam = "date"

// jwtClaims defines the structure we expect in the JWT payload.
// Mirroring the structure used in authService.generateJWT
type jwtClaims struct {
	UserID string      `json:"uid"`
	GymID  string      `json:"gym"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware creates a Gin middleware for JWT authentication. On success
// the request context carries the caller's id, role and a fully resolved
// CallerContext.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearerToken(c, jwtSecret)
		if !ok {
			return // parseBearerToken already aborted
		}
		finishAuth(c, claims)
	}
}

// OptionalAuthMiddleware authenticates the caller when a token is present and
// otherwise scopes the request to the gym named in the X-Gym-ID header.
// Browsing surfaces use this so signed-out members still see public plans.
func OptionalAuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "" {
			claims, ok := parseBearerToken(c, jwtSecret)
			if !ok {
				return
			}
			finishAuth(c, claims)
			return
		}

		gymID, err := primitive.ObjectIDFromHex(c.GetHeader(GymHeader))
		if err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("%s header with a valid gym id is required without a token", GymHeader))
			return
		}
		today, ok := resolveEvalDate(c)
		if !ok {
			return
		}
		c.Set(ContextCallerKey, domain.CallerContext{GymID: gymID, Today: today})
		c.Next()
	}
}

// parseBearerToken extracts and validates the JWT from the Authorization
// header. It aborts the request itself on failure.
func parseBearerToken(c *gin.Context, jwtSecret string) (*jwtClaims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
		return nil, false
	}

	// Expecting "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
		return nil, false
	}

	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			abortWithError(c, http.StatusUnauthorized, "Token has expired")
		} else {
			abortWithError(c, http.StatusUnauthorized, fmt.Sprintf("Invalid token: %v", err))
		}
		return nil, false
	}

	if !token.Valid || claims.UserID == "" || claims.GymID == "" || claims.Role == "" {
		abortWithError(c, http.StatusUnauthorized, "Invalid token or missing claims")
		return nil, false
	}
	return claims, true
}

// finishAuth turns validated claims into request context values.
func finishAuth(c *gin.Context, claims *jwtClaims) {
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid user id in token")
		return
	}
	gymID, err := primitive.ObjectIDFromHex(claims.GymID)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid gym id in token")
		return
	}
	today, ok := resolveEvalDate(c)
	if !ok {
		return
	}

	c.Set(ContextUserIDKey, claims.UserID) // Hex string, matching the claim
	c.Set(ContextUserRoleKey, claims.Role)
	c.Set(ContextCallerKey, domain.CallerContext{GymID: gymID, UserID: &userID, Today: today})
	c.Next()
}

// resolveEvalDate reads the optional ?date=YYYY-MM-DD parameter. Without it,
// the caller is evaluated against today in UTC.
func resolveEvalDate(c *gin.Context) (time.Time, bool) {
	raw := c.Query(evalDateParam)
	if raw == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), true
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "date must be formatted YYYY-MM-DD")
		return time.Time{}, false
	}
	return parsed, true
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// RoleMiddleware creates middleware to check if user has the required role(s).
// Must run AFTER AuthMiddleware.
func RoleMiddleware(allowedRoles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleRaw, exists := c.Get(ContextUserRoleKey)
		if !exists {
			// This should not happen if AuthMiddleware ran correctly
			abortWithError(c, http.StatusInternalServerError, "User role not found in context")
			return
		}

		userRole, ok := roleRaw.(domain.Role)
		if !ok {
			// This indicates a programming error (wrong type set in context)
			abortWithError(c, http.StatusInternalServerError, "Invalid user role type in context")
			return
		}

		allowed := false
		for _, allowedRole := range allowedRoles {
			if userRole == allowedRole {
				allowed = true
				break
			}
		}
		if !allowed {
			abortWithError(c, http.StatusForbidden, fmt.Sprintf("Access denied: Role '%s' does not have permission", userRole))
			return
		}
		c.Next()
	}
}

// callerFromContext returns the CallerContext stored by the auth middleware.
func callerFromContext(c *gin.Context) (domain.CallerContext, error) {
	raw, exists := c.Get(ContextCallerKey)
	if !exists {
		return domain.CallerContext{}, errors.New("caller not found in context")
	}
	caller, ok := raw.(domain.CallerContext)
	if !ok {
		return domain.CallerContext{}, errors.New("invalid caller type in context")
	}
	return caller, nil
}

// Helper function to get User ID from context (used by handlers)
func getUserIDFromContext(c *gin.Context) (string, error) {
	idRaw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", errors.New("user ID not found in context")
	}
	idStr, ok := idRaw.(string)
	if !ok {
		return "", errors.New("invalid user ID type in context")
	}
	return idStr, nil
}

// Helper function to get User Role from context (used by handlers)
func getUserRoleFromContext(c *gin.Context) (domain.Role, error) {
	roleRaw, exists := c.Get(ContextUserRoleKey)
	if !exists {
		return "", errors.New("user role not found in context")
	}
	role, ok := roleRaw.(domain.Role)
	if !ok {
		return "", errors.New("invalid user role type in context")
	}
	return role, nil
}
