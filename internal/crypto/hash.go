package crypto

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// DigestSize размер ChangeHash в байтах (BLAKE2b-256)
const DigestSize = blake2b.Size256

// Digest хеш содержимого payload
type Digest [DigestSize]byte

// String возвращает hex-представление хеша
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero сообщает, что хеш еще не вычислялся
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// Hasher вычисляет хеш канонического представления payload
type Hasher interface {
	Sum(data []byte) Digest
}

// Blake2bHasher хеширует через BLAKE2b-256
type Blake2bHasher struct{}

// Sum реализует Hasher
func (Blake2bHasher) Sum(data []byte) Digest {
	return blake2b.Sum256(data)
}

// CanonicalJSON кодирует значение в детерминированный JSON
// encoding/json сортирует ключи map, поэтому одинаковое содержимое
// всегда дает одинаковые байты независимо от порядка вставки
func CanonicalJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode canonical json: %w", err)
	}
	return data, nil
}

// ContentHash возвращает BLAKE2b-256 хеш канонического JSON значения
// вместе с самими каноническими байтами
func ContentHash(v any) (Digest, []byte, error) {
	data, err := CanonicalJSON(v)
	if err != nil {
		return Digest{}, nil, err
	}
	return blake2b.Sum256(data), data, nil
}
