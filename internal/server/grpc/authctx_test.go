package grpcserver

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/thewoodfish/property-delphi-contract/internal/model"
)

func makeJWT(t *testing.T, sub string, key []byte, method jwt.SigningMethod, iat time.Time, ttl time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   sub,
		IssuedAt:  jwt.NewNumericDate(iat),
		NotBefore: jwt.NewNumericDate(iat),
		ExpiresAt: jwt.NewNumericDate(iat.Add(ttl)),
	}
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func ctxWithAuth(token string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))
}

func TestPrincipalCtx(t *testing.T) {
	t.Parallel()

	_, ok := PrincipalFromCtx(context.Background())
	require.False(t, ok)
	_, err := callerFromCtx(context.Background())
	require.Equal(t, codes.Unauthenticated, status.Code(err))

	ctx := WithPrincipal(context.Background(), "p-1")
	p, ok := PrincipalFromCtx(ctx)
	require.True(t, ok)
	require.Equal(t, model.Principal("p-1"), p)

	_, ok = PrincipalFromCtx(WithPrincipal(context.Background(), ""))
	require.False(t, ok)
}

func TestBearerTokenFromMD(t *testing.T) {
	t.Parallel()

	got, err := bearerTokenFromMD(ctxWithAuth("abc.def.ghi"))
	require.NoError(t, err)
	require.Equal(t, "abc.def.ghi", got)

	md := metadata.New(nil)
	md.Append("authorization", "Basic foo")
	md.Append("authorization", "  bearer   tok.part.sig   ")
	got, err = bearerTokenFromMD(metadata.NewIncomingContext(context.Background(), md))
	require.NoError(t, err)
	require.Equal(t, "tok.part.sig", got)

	_, err = bearerTokenFromMD(metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Basic foo")))
	require.Error(t, err)
	_, err = bearerTokenFromMD(metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer   ")))
	require.Error(t, err)
	_, err = bearerTokenFromMD(context.Background())
	require.Error(t, err)
}

func TestPrincipalFromToken(t *testing.T) {
	t.Parallel()
	key := []byte("secret")
	sub := uuid.Must(uuid.NewV4()).String()
	now := time.Now().UTC()

	p, err := principalFromToken(makeJWT(t, sub, key, jwt.SigningMethodHS256, now.Add(-time.Minute), 10*time.Minute), key)
	require.NoError(t, err)
	require.Equal(t, model.Principal(sub), p)

	// small clock skew is tolerated
	_, err = principalFromToken(makeJWT(t, sub, key, jwt.SigningMethodHS256, now.Add(10*time.Second), time.Hour), key)
	require.NoError(t, err)

	cases := map[string]string{
		"expired":     makeJWT(t, sub, key, jwt.SigningMethodHS256, now.Add(-2*time.Hour), time.Hour),
		"nbf future":  makeJWT(t, sub, key, jwt.SigningMethodHS256, now.Add(10*time.Minute), time.Hour),
		"bad subject": makeJWT(t, "not-a-uuid", key, jwt.SigningMethodHS256, now, time.Hour),
		"wrong alg":   makeJWT(t, sub, key, jwt.SigningMethodHS384, now, time.Hour),
		"wrong key":   makeJWT(t, sub, []byte("other"), jwt.SigningMethodHS256, now, time.Hour),
		"garbage":     "this-is-not-a-jwt",
	}
	for name, tok := range cases {
		_, err := principalFromToken(tok, key)
		require.Error(t, err, name)
	}
}

func TestAuthUnary(t *testing.T) {
	t.Parallel()
	key := []byte("secret")
	ic := AuthUnary(key)
	info := &grpc.UnaryServerInfo{FullMethod: "/delphi.v1.Registry/RegisterAccount"}

	var seen model.Principal
	h := func(ctx context.Context, _ any) (any, error) {
		seen, _ = PrincipalFromCtx(ctx)
		return "ok", nil
	}

	_, err := ic(context.Background(), nil, info, h)
	require.NoError(t, err)
	require.Empty(t, seen)

	sub := uuid.Must(uuid.NewV4()).String()
	_, err = ic(ctxWithAuth(makeJWT(t, sub, key, jwt.SigningMethodHS256, time.Now(), time.Hour)), nil, info, h)
	require.NoError(t, err)
	require.Equal(t, model.Principal(sub), seen)

	_, err = ic(ctxWithAuth("bogus"), nil, info, h)
	require.Equal(t, codes.Unauthenticated, status.Code(err))
}
