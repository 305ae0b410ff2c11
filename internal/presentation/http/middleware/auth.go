package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	infraRepo "github.com/sangkips/foodbridge-api/internal/infrastructure/repository"
	"github.com/sangkips/foodbridge-api/internal/presentation/http/dto/response"
	"github.com/sangkips/foodbridge-api/pkg/utils"
)

// AuthMiddleware validates bearer tokens issued by the hosted auth provider.
// A nil validator leaves the routes open.
func AuthMiddleware(validator *utils.TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if validator == nil {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := validator.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.Subject)
		c.Set("user_email", claims.Email)
		c.Set("user_role", claims.Role)

		if claims.DonorID != "" {
			donorID, err := uuid.Parse(claims.DonorID)
			if err != nil {
				response.Unauthorized(c, "Invalid donor claim")
				c.Abort()
				return
			}
			c.Set("donor_id", donorID)
			c.Request = c.Request.WithContext(infraRepo.WithDonor(c.Request.Context(), donorID))
		}

		c.Next()
	}
}
