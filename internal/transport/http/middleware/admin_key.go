package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"supportdesk/internal/transport/http/response"
)

const AdminKeyHeader = "x-admin-key"

// AdminKey rejects requests whose x-admin-key header does not match key.
// An empty key locks the admin routes entirely.
func AdminKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader(AdminKeyHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			response.Error(c, http.StatusForbidden, response.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
