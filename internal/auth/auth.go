package auth

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is the local user as derived from the bearer token claims.
type Identity struct {
	UserID   string
	Username string
}

// Credentials supplies the bearer token for the REST and socket transports.
// An empty token is a defined "do not connect" state, not an error.
type Credentials struct {
	token    string
	identity Identity
}

// NewCredentials parses the token's claims without verifying the signature.
// Verification is the server's job; the client only needs to know who it is.
func NewCredentials(token string) (*Credentials, error) {
	if token == "" {
		return &Credentials{}, nil
	}

	identity, err := parseIdentity(token)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credential: %w", err)
	}

	return &Credentials{token: token, identity: identity}, nil
}

// Token returns the raw bearer token, empty when no credential is available.
func (c *Credentials) Token() string {
	return c.token
}

// Identity returns the local user derived from the token claims.
func (c *Credentials) Identity() Identity {
	return c.identity
}

func parseIdentity(tokenStr string) (Identity, error) {
	parser := jwt.NewParser()

	token, _, err := parser.ParseUnverified(tokenStr, jwt.MapClaims{})
	if err != nil {
		return Identity{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["user_id"] == nil {
		return Identity{}, ErrInvalidToken
	}

	identity := Identity{}
	switch id := claims["user_id"].(type) {
	case string:
		identity.UserID = id
	case float64:
		identity.UserID = strconv.Itoa(int(id))
	default:
		return Identity{}, ErrInvalidToken
	}

	if username, ok := claims["username"].(string); ok {
		identity.Username = username
	}

	return identity, nil
}
