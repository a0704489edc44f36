package middleware

import (
	"context"
	"fmt"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/hertz-contrib/jwt"

	"AreYouDead/pkg/logger"
	"AreYouDead/pkg/token"
)

const (
	IdentityKey = token.IdentityKey
)

var (
	authMiddleware *jwt.HertzJWTMiddleware
)

func initAuthMiddleware() error {
	// 使用 token 包中共享的生成器
	sharedGenerator := token.GetGenerator()
	if sharedGenerator == nil {
		authMiddleware = nil
		logger.Logger.Warn("Token generator not initialized, API authentication disabled")
		return nil
	}

	mw, err := jwt.New(&jwt.HertzJWTMiddleware{
		Realm:       sharedGenerator.Realm,
		Key:         sharedGenerator.Key,
		Timeout:     sharedGenerator.Timeout,
		MaxRefresh:  sharedGenerator.MaxRefresh,
		IdentityKey: sharedGenerator.IdentityKey,
		TimeFunc:    sharedGenerator.TimeFunc,

		IdentityHandler: func(ctx context.Context, c *app.RequestContext) interface{} {
			claims := jwt.ExtractClaims(ctx, c)
			sub, ok := claims[IdentityKey].(string)
			if !ok {
				return nil
			}
			return sub
		},

		Unauthorized: func(ctx context.Context, c *app.RequestContext, code int, message string) {
			c.JSON(code, map[string]interface{}{
				"error": map[string]interface{}{
					"code":    "UNAUTHORIZED",
					"message": message,
				},
			})
		},

		TokenLookup:   "header: Authorization, query: token",
		TokenHeadName: "Bearer",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize auth middleware: %w", err)
	}
	authMiddleware = mw
	return nil
}

// AuthMiddleware 未配置 JWT_SECRET 时直接放行
func AuthMiddleware() app.HandlerFunc {
	if authMiddleware == nil {
		return func(ctx context.Context, c *app.RequestContext) {
			c.Next(ctx)
		}
	}
	return authMiddleware.MiddlewareFunc()
}

// GetSubject 从请求上下文中获取令牌 subject
func GetSubject(ctx context.Context, c *app.RequestContext) (string, bool) {
	sub, exists := c.Get(IdentityKey)
	if !exists {
		return "", false
	}

	id, ok := sub.(string)
	if !ok {
		return "", false
	}

	return id, true
}
