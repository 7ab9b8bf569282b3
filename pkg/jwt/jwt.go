package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/xiebiao/ticketflow/pkg/errors"
)

// Manager JWT管理器
// 设计说明：
// 1. 用户体系由账号服务负责，本服务只做Token校验（支付接口需要识别下单用户）
// 2. 签名密钥与账号服务共享（HS256对称签名）
// 3. GenerateToken保留用于集成测试签发测试用户Token
type Manager struct {
	secret            string        // JWT签名密钥
	accessTokenExpire time.Duration // Access Token有效期
}

// NewManager 创建JWT管理器
func NewManager(secret string, accessTokenExpire time.Duration) *Manager {
	return &Manager{
		secret:            secret,
		accessTokenExpire: accessTokenExpire,
	}
}

// Claims 自定义JWT Claims
// 嵌入jwt.RegisteredClaims获取标准字段（exp、iat、nbf等）
type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateToken 生成Access Token
func (m *Manager) GenerateToken(userID uint, email string) (string, error) {
	now := time.Now()

	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTokenExpire)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "ticketflow",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.secret))
	if err != nil {
		return "", apperrors.Wrap(err, "签发Token失败")
	}
	return signed, nil
}

// ParseToken 解析并校验Token
// 错误区分：过期返回ErrTokenExpired，其余校验失败返回ErrInvalidToken
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// 防止算法替换攻击：只接受HS256
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("非预期的签名算法: %v", t.Header["alg"])
		}
		return []byte(m.secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperrors.ErrInvalidToken
	}

	return claims, nil
}
