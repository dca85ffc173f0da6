package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost     = 12
	randomTokenLen = 32
)

type AuthService struct {
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration

	now func() time.Time
}

func NewAuthService(secret string, accessExpiry, refreshExpiry time.Duration) *AuthService {
	return &AuthService{
		JWTSecret:          secret,
		AccessTokenExpiry:  accessExpiry,
		RefreshTokenExpiry: refreshExpiry,
		now:                time.Now,
	}
}

func (a *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (a *AuthService) CompareHashAndPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// GenerateToken issues an HS256 access token whose subject is the user id.
func (a *AuthService) GenerateToken(userID int) (string, error) {
	if a.AccessTokenExpiry <= 0 {
		return "", errors.New("access token expiry is not configured")
	}
	now := a.now()
	claims := jwt.MapClaims{
		"sub": strconv.Itoa(userID),
		"exp": now.Add(a.AccessTokenExpiry).Unix(),
		"iat": now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.JWTSecret))
}

func (a *AuthService) GenerateRefreshToken() (string, error) {
	return randomToken()
}

// RefreshTokenExpiresAt is the expiry stored with a new session.
func (a *AuthService) RefreshTokenExpiresAt() time.Time {
	return a.now().Add(a.RefreshTokenExpiry)
}

// ValidateToken checks signature and expiry and returns the user id.
func (a *AuthService) ValidateToken(tokenString string) (int, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(a.JWTSecret), nil
	})

	if err != nil {
		return 0, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		sub, ok := claims["sub"].(string)
		if !ok {
			return 0, errors.New("invalid token: 'sub' claim missing or not a string")
		}
		userID, err := strconv.Atoi(sub)
		if err != nil || userID <= 0 {
			return 0, errors.New("invalid token: 'sub' claim is not a user id")
		}
		return userID, nil
	}

	return 0, errors.New("invalid token")
}

// GenerateShareToken returns an unguessable token for read-only report links.
func GenerateShareToken() (string, error) {
	return randomToken()
}

func randomToken() (string, error) {
	b := make([]byte, randomTokenLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
