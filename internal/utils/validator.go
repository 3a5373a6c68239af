package utils

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	emailPattern      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	jsSchemePattern   = regexp.MustCompile(`(?i)javascript:`)
	controlRunPattern = regexp.MustCompile(`[;&]`)
)

// HashPassword hashes a password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// CheckPassword verifies a password against its bcrypt hash.
func CheckPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// ValidateUsername checks length bounds (2-32 runes after trimming).
func ValidateUsername(username string) bool {
	n := len([]rune(strings.TrimSpace(username)))
	return n >= 2 && n <= 32
}

// ValidatePassword enforces the minimum length (8 chars).
func ValidatePassword(password string) bool {
	return len(password) >= 8
}

// ValidateEmail checks the email shape.
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Sanitize strips HTML tags, javascript: schemes and shell
// metacharacters from user-submitted text, then trims whitespace.
func Sanitize(v string) string {
	v = htmlTagPattern.ReplaceAllString(v, "")
	v = jsSchemePattern.ReplaceAllString(v, "")
	v = controlRunPattern.ReplaceAllString(v, "")
	return strings.TrimSpace(v)
}

// GenerateSessionToken returns a 64-char hex token from crypto/rand.
func GenerateSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// GenerateInviteCode returns a short URL-safe room invite code.
func GenerateInviteCode() (string, error) {
	buf := make([]byte, 9)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
