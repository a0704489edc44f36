// Package token 签发和校验访问令牌。服务只有一个操作者，subject 固定为 owner
package token

import (
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/hertz-contrib/jwt"

	"AreYouDead/pkg/errors"
)

const (
	IdentityKey    = "sub"
	DefaultSubject = "owner"
)

var (
	// 这个实例会被 middleware 和 token 包共同使用
	sharedGenerator *jwt.HertzJWTMiddleware
)

// Init 初始化共享的 token 生成器；secret 为空时不初始化，鉴权关闭
func Init(secret string, expire time.Duration) error {
	if secret == "" {
		sharedGenerator = nil
		return nil
	}
	if expire <= 0 {
		expire = 30 * 24 * time.Hour
	}

	var err error
	sharedGenerator, err = jwt.New(&jwt.HertzJWTMiddleware{
		Realm:       "Are You Dead? API",
		Key:         []byte(secret),
		Timeout:     expire,
		MaxRefresh:  expire,
		IdentityKey: IdentityKey,
		TimeFunc:    time.Now,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize token generator: %w", err)
	}
	return nil
}

// GetGenerator 获取共享的 token 生成器（供 middleware 使用），未启用鉴权时为 nil
func GetGenerator() *jwt.HertzJWTMiddleware {
	return sharedGenerator
}

// Enabled 是否启用了鉴权
func Enabled() bool {
	return sharedGenerator != nil
}

// GenerateToken 签发 access token
func GenerateToken(subject string) (accessToken string, expiresIn int, err error) {
	if sharedGenerator == nil {
		return "", 0, errors.ErrTokenGeneratorNotInitialized
	}
	if subject == "" {
		subject = DefaultSubject
	}

	now := sharedGenerator.TimeFunc()
	expiresAt := now.Add(sharedGenerator.Timeout)

	claims := jwtv5.MapClaims{
		IdentityKey: subject,
		"iat":       now.Unix(),
		"exp":       expiresAt.Unix(),
	}

	accessToken, err = jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(sharedGenerator.Key)
	if err != nil {
		return "", 0, fmt.Errorf("failed to generate access token: %w", err)
	}

	expiresIn = int(expiresAt.Sub(now).Seconds())
	return accessToken, expiresIn, nil
}

// ValidateToken 校验 access token 并返回 subject
func ValidateToken(tokenString string) (string, error) {
	if sharedGenerator == nil {
		return "", errors.ErrTokenGeneratorNotInitialized
	}

	token, err := jwtv5.ParseWithClaims(tokenString, jwtv5.MapClaims{}, func(token *jwtv5.Token) (interface{}, error) {
		if token.Method != jwtv5.SigningMethodHS256 {
			return nil, fmt.Errorf("%w: %v, expected HS256", errors.ErrUnexpectedSigningMethod, token.Header["alg"])
		}
		return sharedGenerator.Key, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return "", errors.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwtv5.MapClaims)
	if !ok {
		return "", errors.ErrInvalidTokenClaims
	}

	sub, ok := claims[IdentityKey].(string)
	if !ok || sub == "" {
		return "", errors.ErrSubjectNotFound
	}
	return sub, nil
}
