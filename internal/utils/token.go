package utils

import (
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
)

const sessionTokenBytes = 24

// NewID 生成一個新的不透明識別碼，用於訂單、消息與上傳
func NewID() string {
	return uuid.NewString()
}

// NewSessionToken 生成一個抗碰撞的不透明會話憑證
// 憑證不攜帶任何聲明，只能透過索引反查，因此不需要簽名
func NewSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base58.Encode(buf), nil
}
