package utils

import (
	"crypto/rand"
	"math/big"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const upperAlnum = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// HashPassword hashes a plain password using bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a plain password with a bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IsEmail returns true if the string is a valid email address.
func IsEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

// RandomCode returns n characters drawn from A-Z0-9.
func RandomCode(n int) string {
	var b strings.Builder
	b.Grow(n)
	max := big.NewInt(int64(len(upperAlnum)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand never fails on supported platforms
			panic(err)
		}
		b.WriteByte(upperAlnum[idx.Int64()])
	}
	return b.String()
}

// NormalizePhone strips a leading '+' and any spaces or dashes.
func NormalizePhone(phone string) string {
	r := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
	return strings.TrimPrefix(r.Replace(strings.TrimSpace(phone)), "+")
}

// HasAnyPrefix reports whether s starts with one of prefixes.
func HasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
