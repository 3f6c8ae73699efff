// Package response 统一的 JSON 响应信封
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Success 写入 200 响应，body 字段与 success=true 平铺在同一层
func Success(c *gin.Context, body gin.H) {
	out := gin.H{"success": true}
	for k, v := range body {
		out[k] = v
	}
	c.JSON(http.StatusOK, out)
}

// ErrorWithStatus 写入失败响应
func ErrorWithStatus(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
}
