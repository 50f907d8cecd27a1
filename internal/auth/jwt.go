package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")
)

type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

type Claims struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	IsStaff   bool      `json:"is_staff"`
	TokenType TokenType `json:"token_type"`
	Remember  bool      `json:"remember,omitempty"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	Access           string
	Refresh          string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// JWTManager issues HS256 access/refresh pairs. Remember-me sessions get a
// refresh lifetime multiplied by rememberFactor.
type JWTManager struct {
	secretKey      []byte
	accessTTL      time.Duration
	refreshTTL     time.Duration
	rememberFactor int
	now            func() time.Time
}

func NewJWTManager(secretKey string, accessTTL, refreshTTL time.Duration, rememberFactor int) *JWTManager {
	if rememberFactor < 1 {
		rememberFactor = 1
	}
	return &JWTManager{
		secretKey:      []byte(secretKey),
		accessTTL:      accessTTL,
		refreshTTL:     refreshTTL,
		rememberFactor: rememberFactor,
		now:            time.Now,
	}
}

func (m *JWTManager) IssuePair(userID, email string, staff, remember bool) (TokenPair, error) {
	now := m.now()

	access, accessExp, err := m.sign(userID, email, staff, remember, TokenAccess, now, m.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}

	refreshTTL := m.refreshTTL
	if remember {
		refreshTTL *= time.Duration(m.rememberFactor)
	}
	refresh, refreshExp, err := m.sign(userID, email, staff, remember, TokenRefresh, now, refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		Access:           access,
		Refresh:          refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is returned unchanged.
func (m *JWTManager) Refresh(refreshToken string) (TokenPair, error) {
	claims, err := m.Validate(refreshToken, TokenRefresh)
	if err != nil {
		return TokenPair{}, err
	}

	access, accessExp, err := m.sign(claims.UserID, claims.Email, claims.IsStaff, claims.Remember, TokenAccess, m.now(), m.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}

	pair := TokenPair{
		Access:          access,
		Refresh:         refreshToken,
		AccessExpiresAt: accessExp,
	}
	if claims.ExpiresAt != nil {
		pair.RefreshExpiresAt = claims.ExpiresAt.Time
	}
	return pair, nil
}

func (m *JWTManager) sign(userID, email string, staff, remember bool, kind TokenType, now time.Time, ttl time.Duration) (string, time.Time, error) {
	expiresAt := now.Add(ttl)
	claims := &Claims{
		UserID:    userID,
		Email:     email,
		IsStaff:   staff,
		TokenType: kind,
		Remember:  remember,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate parses a token and checks that it is of the expected type.
func (m *JWTManager) Validate(tokenString string, expected TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != expected {
		return nil, fmt.Errorf("%w: expected %s token", ErrInvalidToken, expected)
	}
	return claims, nil
}
