package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carried by both access and refresh tokens. The jti lives in
// RegisteredClaims.ID and is generated fresh on every mint.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// MintedToken is the result of a single mint: the signed token string plus
// the bookkeeping the caller persists.
type MintedToken struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
}

// TokenIssuer signs access and refresh tokens with separate secrets, so a
// leaked access secret cannot forge refresh tokens and vice versa. It holds
// no state beyond configuration and persists nothing.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenIssuer fails when either secret is empty. Signing can only fail on
// misconfiguration, so this is checked once at startup instead of per
// request.
func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*TokenIssuer, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("jwt access and refresh secrets must be configured")
	}
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

// AccessTTL returns the configured access token lifetime.
func (i *TokenIssuer) AccessTTL() time.Duration { return i.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (i *TokenIssuer) RefreshTTL() time.Duration { return i.refreshTTL }

// MintAccess signs a short-lived access token with a fresh jti.
func (i *TokenIssuer) MintAccess(userID uuid.UUID, username string) (*MintedToken, error) {
	return mint(i.accessSecret, userID, username, i.accessTTL)
}

// MintRefresh signs a long-lived refresh token with a fresh jti.
func (i *TokenIssuer) MintRefresh(userID uuid.UUID, username string) (*MintedToken, error) {
	return mint(i.refreshSecret, userID, username, i.refreshTTL)
}

func mint(secret []byte, userID uuid.UUID, username string, ttl time.Duration) (*MintedToken, error) {
	jti := uuid.NewString()
	expiresAt := time.Now().Add(ttl)

	claims := Claims{
		UserID:   userID.String(),
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return nil, err
	}

	return &MintedToken{Token: signed, JTI: jti, ExpiresAt: expiresAt}, nil
}

// ParseAccess validates an access token string and returns its claims.
func (i *TokenIssuer) ParseAccess(tokenString string) (*Claims, error) {
	return parse(tokenString, i.accessSecret)
}

// ParseRefresh validates a refresh token string and returns its claims.
func (i *TokenIssuer) ParseRefresh(tokenString string) (*Claims, error) {
	return parse(tokenString, i.refreshSecret)
}

func parse(tokenString string, secret []byte) (*Claims, error) {
	// Every minted token carries exp; callers dereference claims.ExpiresAt,
	// so a token without it is rejected outright.
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	}, jwt.WithExpirationRequired())

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
