package auth

import (
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for malformed, expired or mistyped tokens.
var ErrInvalidToken = errors.New("token is invalid or expired")

// TokenType distinguishes access from refresh tokens.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// Claims is the JWT payload.
type Claims struct {
	UserID    int64     `json:"user_id"`
	Admin     bool      `json:"admin"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// Pair is a freshly issued access and refresh token.
type Pair struct {
	Access  string
	Refresh string
}

// IssuerConfig configures an Issuer.
type IssuerConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewIssuer creates an Issuer. Zero TTLs default to 5 minutes for access
// tokens and 24 hours for refresh tokens.
func NewIssuer(cfg IssuerConfig) *Issuer {
	i := &Issuer{
		secret:     cfg.Secret,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        cfg.Now,
	}
	if i.accessTTL == 0 {
		i.accessTTL = 5 * time.Minute
	}
	if i.refreshTTL == 0 {
		i.refreshTTL = 24 * time.Hour
	}
	if i.now == nil {
		i.now = time.Now
	}
	return i
}

// Issue returns an access and refresh token for p.
func (i *Issuer) Issue(p Principal) (Pair, error) {
	access, err := i.sign(p, TokenAccess, i.accessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := i.sign(p, TokenRefresh, i.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

// Verify parses an access token.
func (i *Issuer) Verify(token string) (Principal, error) {
	return i.parse(token, TokenAccess)
}

// Refresh exchanges a refresh token for a new access token.
func (i *Issuer) Refresh(refresh string) (string, error) {
	p, err := i.parse(refresh, TokenRefresh)
	if err != nil {
		return "", err
	}
	return i.sign(p, TokenAccess, i.accessTTL)
}

func (i *Issuer) sign(p Principal, typ TokenType, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		UserID:    p.UserID,
		Admin:     p.Admin,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(p.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return s, nil
}

func (i *Issuer) parse(token string, want TokenType) (Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return Principal{}, errors.Wrap(ErrInvalidToken, err.Error())
	}
	if claims.TokenType != want {
		return Principal{}, errors.Wrapf(ErrInvalidToken, "token type %q", claims.TokenType)
	}
	return Principal{UserID: claims.UserID, Admin: claims.Admin}, nil
}
