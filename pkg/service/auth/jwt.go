package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/m-mizutani/goerr/v2"

	"github.com/docket-labs/docket/pkg/domain/model/auth"
	"github.com/docket-labs/docket/pkg/domain/types"
)

// Verifier validates HS256 bearer tokens and turns them into identities.
// Token issuance normally happens in a separate identity service; Issue
// exists for local setups and tests.
type Verifier struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewVerifier(secret, issuer string, ttl time.Duration) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

type identityClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
	Name string `json:"name,omitempty"`
}

// Verify parses and validates a bearer token, returning the identity it
// carries. The role claim must be one of the known roles.
func (v *Verifier) Verify(tokenString string) (*auth.Identity, error) {
	if tokenString == "" {
		return nil, goerr.New("empty token")
	}

	token, err := jwt.ParseWithClaims(tokenString, &identityClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, goerr.New("unexpected signing method", goerr.V("alg", token.Header["alg"]))
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse token")
	}

	claims, ok := token.Claims.(*identityClaims)
	if !ok || !token.Valid {
		return nil, goerr.New("invalid token claims")
	}

	if v.issuer != "" && claims.Issuer != v.issuer {
		return nil, goerr.New("invalid issuer", goerr.V("issuer", claims.Issuer))
	}
	if claims.Subject == "" {
		return nil, goerr.New("token has no subject")
	}

	role, err := types.ParseRole(claims.Role)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid role claim", goerr.V("role", claims.Role))
	}

	return &auth.Identity{
		UserID: types.UserID(claims.Subject),
		Role:   role,
		Name:   claims.Name,
	}, nil
}

// Issue signs a token for the identity
func (v *Verifier) Issue(id *auth.Identity) (string, error) {
	now := time.Now()
	claims := identityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(id.UserID),
			Issuer:    v.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: string(id.Role),
		Name: id.Name,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", goerr.Wrap(err, "failed to sign token")
	}

	return signed, nil
}
