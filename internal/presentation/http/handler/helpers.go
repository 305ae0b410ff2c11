package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetUserID extracts the token subject from the Gin context
func GetUserID(c *gin.Context) string {
	return c.GetString("user_id")
}

// GetUserEmail extracts the user email from the Gin context
func GetUserEmail(c *gin.Context) string {
	return c.GetString("user_email")
}

// GetDonorID returns the donor the caller is bound to, if any
func GetDonorID(c *gin.Context) *uuid.UUID {
	donorIDVal, exists := c.Get("donor_id")
	if !exists {
		return nil
	}
	donorID, ok := donorIDVal.(uuid.UUID)
	if !ok {
		return nil
	}
	return &donorID
}
