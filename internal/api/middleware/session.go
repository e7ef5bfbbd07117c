package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/qs3c/datawarfare_server/internal/pkg/response"
	"github.com/qs3c/datawarfare_server/internal/service"
)

const SessionKey = "session"

// LoadSession 根据已认证的账户加载会话，未登录时放入匿名会话
func LoadSession(provider *service.SessionProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := GetUserID(c)
		session, err := provider.Load(c.Request.Context(), userID, GetEmail(c))
		if err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("load session failed")
			response.ServerError(c, "")
			c.Abort()
			return
		}
		c.Set(SessionKey, session)
		c.Next()
	}
}

// GetSession 从上下文获取会话，不存在时返回匿名会话
func GetSession(c *gin.Context) *service.Session {
	if v, ok := c.Get(SessionKey); ok {
		if s, ok := v.(*service.Session); ok {
			return s
		}
	}
	return service.Anonymous()
}
