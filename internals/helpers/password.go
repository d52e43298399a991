package helper

import (
	"crypto/rand"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// Charset skips look-alikes (0/O, 1/l/I) since temp passwords get read aloud.
const tempPasswordCharset = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const TempPasswordLength = 12

// GenerateTempPassword returns a random plaintext password. Callers hash it
// before persisting; the plaintext is returned to the client exactly once.
func GenerateTempPassword(n int) (string, error) {
	if n <= 0 {
		n = TempPasswordLength
	}
	out := make([]byte, n)
	max := big.NewInt(int64(len(tempPasswordCharset)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = tempPasswordCharset[idx.Int64()]
	}
	return string(out), nil
}

func HashPassword(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
