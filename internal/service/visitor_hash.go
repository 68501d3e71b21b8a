package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashVisitorIP 计算访客 IP 的不可逆摘要。
// 使用服务端密钥做 HMAC-SHA256，原始 IP 不落库也无法离线反查。
func HashVisitorIP(secret, ip string) string {
	normalized := strings.TrimSpace(ip)
	if normalized == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(normalized))
	return hex.EncodeToString(mac.Sum(nil))
}
