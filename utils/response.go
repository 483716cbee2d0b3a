package utils

import "github.com/gin-gonic/gin"

// FieldError names one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func JSONSuccess(c *gin.Context, code int, data interface{}) {
	c.JSON(code, gin.H{"success": true, "data": data})
}

func JSONError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"success": false, "error": message})
}

// JSONErrorCode is JSONError with a machine-readable code and, for
// validation failures, the offending fields.
func JSONErrorCode(c *gin.Context, code int, errCode, message string, fields []FieldError) {
	body := gin.H{"success": false, "error": message, "code": errCode}
	if len(fields) > 0 {
		body["fields"] = fields
	}
	c.AbortWithStatusJSON(code, body)
}
