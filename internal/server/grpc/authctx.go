package grpcserver

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/thewoodfish/property-delphi-contract/internal/model"
)

type ctxKey string

const principalKey ctxKey = "delphi.principal"

// WithPrincipal stores the authenticated caller in context.
func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromCtx fetches the authenticated caller from context.
func PrincipalFromCtx(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(principalKey).(model.Principal)
	return p, ok && p != ""
}

func callerFromCtx(ctx context.Context) (model.Principal, error) {
	p, ok := PrincipalFromCtx(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "no auth")
	}
	return p, nil
}

// AuthUnary verifies a bearer token when one is sent and stores its subject
// as the caller. Calls without a token proceed anonymously; handlers that
// need a caller reject them.
func AuthUnary(signKey []byte) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		tok, err := bearerTokenFromMD(ctx)
		if err != nil {
			return next(ctx, req)
		}
		p, err := principalFromToken(tok, signKey)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		return next(WithPrincipal(ctx, p), req)
	}
}

// principalFromToken verifies an HS256 JWT and returns its subject.
func principalFromToken(tok string, signKey []byte) (model.Principal, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(tok, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return signKey, nil
	}, jwt.WithLeeway(30*time.Second))
	if err != nil || !parsed.Valid {
		return "", errors.New("invalid token")
	}

	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return "", errors.New("bad subject")
	}
	return model.Principal(id.String()), nil
}

func bearerTokenFromMD(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", errors.New("no metadata")
	}
	for _, v := range md.Get("authorization") {
		v = strings.TrimSpace(v)
		if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
			t := strings.TrimSpace(v[7:])
			if t != "" {
				return t, nil
			}
		}
	}
	return "", errors.New("no bearer token")
}
