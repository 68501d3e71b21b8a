package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserJWTClaims 用户令牌声明（令牌由外部认证系统签发，本服务只校验）
type UserJWTClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// AdminJWTClaims 管理员令牌声明
type AdminJWTClaims struct {
	AdminID  uint   `json:"admin_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// SignUserJWT 签发用户令牌，供本地调试与测试使用
func SignUserJWT(secretKey string, userID uint, email string, expireHours int) (string, error) {
	if expireHours <= 0 {
		expireHours = 24
	}
	now := time.Now()
	claims := UserJWTClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expireHours) * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secretKey))
}

// SignAdminJWT 签发管理员令牌，供本地调试与测试使用
func SignAdminJWT(secretKey string, adminID uint, username string, expireHours int) (string, error) {
	if expireHours <= 0 {
		expireHours = 24
	}
	now := time.Now()
	claims := AdminJWTClaims{
		AdminID:  adminID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expireHours) * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secretKey))
}
