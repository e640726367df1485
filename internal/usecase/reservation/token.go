package reservation

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// tokenFor детерминированный токен резерва: HMAC-SHA256(secret, resourceKey|employeeID)
// Привязан к сотруднику, поэтому знание ключа ресурса не позволяет подтвердить чужой резерв
func tokenFor(secret []byte, resourceKey, employeeID string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(resourceKey))
	mac.Write([]byte{'|'})
	mac.Write([]byte(employeeID))
	return hex.EncodeToString(mac.Sum(nil))
}

// tokenMatches сравнивает токены за постоянное время
func tokenMatches(expected, got string) bool {
	return hmac.Equal([]byte(expected), []byte(got))
}
