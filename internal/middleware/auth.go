package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"p2p_trade/internal/service"
)

// SessionAuth 是一個 Gin 中間件，用於驗證請求攜帶的不透明會話憑證
// 憑證不攜帶任何聲明，只透過房間存放區的憑證索引反查
func SessionAuth(rooms *service.RoomService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 從請求頭中獲取 Authorization 字段
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		// 檢查 Authorization 頭的格式
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			c.Abort()
			return
		}

		// 反查會話憑證
		binding, ok := rooms.ResolveToken(parts[1])
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "無效的會話憑證"})
			c.Abort()
			return
		}

		// 將會話信息設置到上下文中
		c.Set("sessionToken", parts[1])
		c.Set("sessionOrderID", binding.OrderID)
		c.Set("sessionRole", binding.Role)
		c.Next()
	}
}
