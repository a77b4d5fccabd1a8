package rpc

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"ajochain/crypto"
)

// JWTConfig configures HMAC bearer-token verification. The token subject is
// the bech32 account of the caller.
type JWTConfig struct {
	Secret    []byte
	Issuer    string
	Audience  string
	ClockSkew time.Duration
}

type contextKey string

const callerContextKey contextKey = "rpc.caller"

type authenticator struct {
	cfg JWTConfig
}

func newAuthenticator(cfg JWTConfig) (*authenticator, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("rpc: jwt secret required")
	}
	if cfg.ClockSkew <= 0 {
		cfg.ClockSkew = 2 * time.Minute
	}
	return &authenticator{cfg: cfg}, nil
}

func (a *authenticator) authenticate(r *http.Request) ([20]byte, *RPCError) {
	tokenString := extractBearer(r.Header.Get("Authorization"))
	if tokenString == "" {
		return [20]byte{}, &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	opts := []jwt.ParserOption{
		jwt.WithLeeway(a.cfg.ClockSkew),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.cfg.Issuer))
	}
	if a.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(a.cfg.Audience))
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return a.cfg.Secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return [20]byte{}, &RPCError{Code: codeUnauthorized, Message: "invalid token", Data: errorText(err)}
	}
	caller, err := crypto.ParseAccount(claims.Subject)
	if err != nil {
		return [20]byte{}, &RPCError{Code: codeUnauthorized, Message: "invalid token subject", Data: err.Error()}
	}
	return caller, nil
}

func errorText(err error) interface{} {
	if err == nil {
		return nil
	}
	return err.Error()
}

func extractBearer(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func withCaller(ctx context.Context, caller [20]byte) context.Context {
	return context.WithValue(ctx, callerContextKey, caller)
}

func callerFrom(ctx context.Context) ([20]byte, bool) {
	caller, ok := ctx.Value(callerContextKey).([20]byte)
	return caller, ok
}

// IssueToken signs an HS256 bearer token for account. It is used by operator
// tooling to hand out credentials.
func IssueToken(secret []byte, account [20]byte, issuer, audience string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("rpc: jwt secret required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   crypto.FormatAccount(account),
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
