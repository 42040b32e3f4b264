package response

import "github.com/gin-gonic/gin"

const (
	ErrForbidden       = "forbidden"
	ErrNoFile          = "no file provided"
	ErrFileTooLarge    = "file too large"
	ErrMessageRequired = "message or file required"
	ErrChatFailed      = "chat_failed"
	ErrUploadFailed    = "upload failed"
	ErrHistoryFailed   = "history failed"
	ErrFailed          = "failed"
)

// OK writes {"ok": true, ...fields}.
func OK(c *gin.Context, fields gin.H) {
	body := gin.H{"ok": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(200, body)
}

func Error(c *gin.Context, httpStatus int, code string) {
	c.JSON(httpStatus, gin.H{"error": code})
}

// ErrorWithReply is the degraded chat envelope: an error status that still carries a renderable reply.
func ErrorWithReply(c *gin.Context, httpStatus int, code, reply string) {
	c.JSON(httpStatus, gin.H{"error": code, "reply": reply})
}
