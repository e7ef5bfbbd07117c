package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrMissingSub   = errors.New("token missing sub")
)

const defaultLeeway = 30 * time.Second

// Claims 身份平台签发的访问令牌，Subject 即账户 ID
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// UserID 返回账户 ID
func (c *Claims) UserID() string {
	return c.Subject
}

// Verifier 校验访问令牌
type Verifier interface {
	Verify(token string) (*Claims, error)
}

// GenerateToken 生成 HS256 令牌，供本地开发和测试使用
func GenerateToken(userID, email, secret string, expireHours int) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expireHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken 使用共享密钥解析 HS256 令牌
func ParseToken(tokenString, secret string) (*Claims, error) {
	return parse(jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name})), tokenString,
		func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
}

func parse(parser *jwt.Parser, tokenString string, kf jwt.Keyfunc) (*Claims, error) {
	token, err := parser.ParseWithClaims(tokenString, &Claims{}, kf)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrMissingSub
	}
	return claims, nil
}

// SecretVerifier 共享密钥校验器
type SecretVerifier struct {
	secret string
}

func NewSecretVerifier(secret string) *SecretVerifier {
	return &SecretVerifier{secret: secret}
}

func (v *SecretVerifier) Verify(token string) (*Claims, error) {
	return ParseToken(token, v.secret)
}

// JWKSVerifier 通过身份平台公布的 JWKS 校验 RS/ES 令牌
type JWKSVerifier struct {
	keyfunc keyfunc.Keyfunc
	parser  *jwt.Parser
}

// NewJWKSVerifier 创建 JWKS 校验器，issuer 与 audience 为空时不校验
func NewJWKSVerifier(jwksURL, issuer, audience string) (*JWKSVerifier, error) {
	kf, err := keyfunc.NewDefault([]string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("init JWKS keyfunc: %w", err)
	}
	return newJWKSVerifier(kf, issuer, audience), nil
}

func newJWKSVerifier(kf keyfunc.Keyfunc, issuer, audience string) *JWKSVerifier {
	opts := []jwt.ParserOption{
		jwt.WithLeeway(defaultLeeway),
		jwt.WithValidMethods([]string{
			jwt.SigningMethodRS256.Name, jwt.SigningMethodRS384.Name, jwt.SigningMethodRS512.Name,
			jwt.SigningMethodES256.Name, jwt.SigningMethodES384.Name,
		}),
	}
	if issuer = strings.TrimSpace(issuer); issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience = strings.TrimSpace(audience); audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return &JWKSVerifier{keyfunc: kf, parser: jwt.NewParser(opts...)}
}

func (v *JWKSVerifier) Verify(token string) (*Claims, error) {
	return parse(v.parser, token, v.keyfunc.Keyfunc)
}

// NewVerifier 按配置选择校验器，配置了 JWKS 时优先使用
func NewVerifier(secret, jwksURL, issuer, audience string) (Verifier, error) {
	if jwksURL != "" {
		return NewJWKSVerifier(jwksURL, issuer, audience)
	}
	if secret == "" {
		return nil, errors.New("auth secret or jwks url is required")
	}
	return NewSecretVerifier(secret), nil
}
