package utils

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

const codeSpace = 1_000_000 // 000000..999999

// NewVerificationCode возвращает 6-значный цифровой код, равномерно из всего
// диапазона 000000–999999 (ведущие нули допустимы). Источник — crypto/rand,
// без общего состояния, безопасно для конкурентных вызовов.
func NewVerificationCode() (string, error) {
	// rejection sampling: отбрасываем хвост, чтобы остаток по модулю не
	// смещал распределение
	const limit = (1 << 32) - (1<<32)%codeSpace
	for {
		var b [4]byte
		if _, err := rand.Read(b[:]); err != nil {
			return "", fmt.Errorf("verification code: %w", err)
		}
		n := binary.BigEndian.Uint32(b[:])
		if n >= limit {
			continue
		}
		return fmt.Sprintf("%06d", n%codeSpace), nil
	}
}
