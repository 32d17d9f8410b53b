package middleware

import (
	"errors"
	"strings"

	"blood_connect_backend/internal/common"
	"blood_connect_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// AuthorizationHeader is the header name for the authorization token.
	AuthorizationHeader = "Authorization"
	// AuthorizationTypeBearer is the prefix for Bearer tokens.
	AuthorizationTypeBearer = "Bearer"
	// DonorKey is the context key for the authenticated donor identity.
	DonorKey = "authDonor"
)

// AuthMiddleware creates a Gin middleware for bearer-token authentication.
// After the token checks out it re-fetches the donor live from the store
// rather than trusting the token's claims, so role changes, blocking, or
// account deletion take effect on the very next request.
func AuthMiddleware(tokenService shared.TokenService, donors shared.DonorProvider, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeader)
		if authHeader == "" {
			logger.Debug("Authorization header missing")
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header is required."))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], AuthorizationTypeBearer) {
			logger.Debug("Authorization header format invalid", zap.String("header", authHeader))
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header format must be 'Bearer <token>'."))
			return
		}

		claims, err := tokenService.ValidateToken(parts[1])
		if err != nil {
			logger.Warn("Token validation failed", zap.Error(err))
			common.RespondWithError(c, common.ErrInvalidToken)
			return
		}

		authDonor, err := donors.GetDonorByID(c.Request.Context(), claims.DonorID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				logger.Warn("Token references a donor that no longer exists", zap.String("donorID", claims.DonorID.String()))
				common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Donor account no longer exists."))
				return
			}
			logger.Error("Failed to load donor for authenticated request", zap.Error(err), zap.String("donorID", claims.DonorID.String()))
			common.RespondWithError(c, common.ErrInternalServer)
			return
		}

		c.Set(DonorKey, authDonor)

		logger.Debug("Donor authenticated successfully",
			zap.String("donorID", authDonor.ID.String()),
			zap.String("role", string(authDonor.Role)),
		)

		c.Next()
	}
}

// GetDonorFromContext retrieves the authenticated donor from the Gin context.
// Returns nil if the auth middleware did not run.
func GetDonorFromContext(c *gin.Context) *shared.Donor {
	val, exists := c.Get(DonorKey)
	if !exists {
		return nil
	}
	authDonor, ok := val.(*shared.Donor)
	if !ok {
		return nil
	}
	return authDonor
}

// AdminRequired gates admin-prefixed operations. It must run after
// AuthMiddleware and rejects any authenticated donor whose role does not
// grant admin capability.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authDonor := GetDonorFromContext(c)
		if authDonor == nil {
			common.RespondWithError(c, common.ErrForbidden.WithDetails("Donor identity not found in context."))
			return
		}
		if !authDonor.Role.IsAdmin() {
			common.RespondWithError(c, common.ErrForbidden.WithDetails("Access denied. Admin resources only."))
			return
		}
		c.Next()
	}
}
