// Package auth implements the dashboard's single-operator authentication:
// password hashing, JWT issuance/validation, an in-memory logout
// blacklist, and optional TOTP two-factor.
package auth

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"

	"spotpilot/logger"
)

// JWTSecret signs every token issued by GenerateJWT. Set once at startup
// from config.
var JWTSecret []byte

// OTPIssuer names the account in an operator's authenticator app.
const OTPIssuer = "spotpilot"

// maxBlacklistEntries bounds the in-memory logout blacklist; there is only
// ever one operator session, so this ceiling is never realistically hit —
// it exists as a sweep trigger rather than a real capacity concern.
const maxBlacklistEntries = 10_000

var tokenBlacklist = struct {
	sync.RWMutex
	items map[string]time.Time
}{items: make(map[string]time.Time)}

// SetJWTSecret installs the signing key used by GenerateJWT/ValidateJWT.
func SetJWTSecret(secret string) { JWTSecret = []byte(secret) }

// BlacklistToken marks token invalid until its own expiry, used on logout.
func BlacklistToken(token string, exp time.Time) {
	tokenBlacklist.Lock()
	defer tokenBlacklist.Unlock()
	tokenBlacklist.items[token] = exp

	if len(tokenBlacklist.items) > maxBlacklistEntries {
		now := time.Now()
		for t, e := range tokenBlacklist.items {
			if now.After(e) {
				delete(tokenBlacklist.items, t)
			}
		}
		if len(tokenBlacklist.items) > maxBlacklistEntries {
			logger.Warnf("auth: token blacklist size (%d) exceeds limit (%d) after sweep", len(tokenBlacklist.items), maxBlacklistEntries)
		}
	}
}

// IsTokenBlacklisted reports whether token was logged out and has not yet
// expired on its own.
func IsTokenBlacklisted(token string) bool {
	tokenBlacklist.Lock()
	defer tokenBlacklist.Unlock()
	if exp, ok := tokenBlacklist.items[token]; ok {
		if time.Now().After(exp) {
			delete(tokenBlacklist.items, token)
			return false
		}
		return true
	}
	return false
}

// Claims is the JWT payload for the dashboard operator.
type Claims struct {
	jwt.RegisteredClaims
}

// HashPassword bcrypt-hashes the operator's password for storage.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword verifies password against a stored bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateOTPSecret produces a new TOTP secret for enrolling 2FA.
func GenerateOTPSecret(accountName string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{Issuer: OTPIssuer, AccountName: accountName})
	if err != nil {
		return "", err
	}
	return key.Secret(), nil
}

// VerifyOTP checks a 6-digit code against secret.
func VerifyOTP(secret, code string) bool {
	return totp.Validate(code, secret)
}

// GetOTPQRCodeURL builds the otpauth:// URL an authenticator app scans.
func GetOTPQRCodeURL(secret, accountName string) string {
	return fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s", OTPIssuer, accountName, secret, OTPIssuer)
}

// GenerateJWT issues a 24h token for the single dashboard operator.
func GenerateJWT() (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    OTPIssuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JWTSecret)
}

// ValidateJWT parses and verifies a token, rejecting blacklisted ones.
func ValidateJWT(tokenString string) (*Claims, error) {
	if IsTokenBlacklisted(tokenString) {
		return nil, fmt.Errorf("token has been revoked")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return JWTSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// GenerateSecureSecret returns n cryptographically random bytes suitable as a
// fresh JWT signing key when none is configured.
func GenerateSecureSecret(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
