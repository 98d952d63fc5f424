package tokens

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCodec(t *testing.T, clock *fakeClock) *Codec {
	t.Helper()
	c, err := NewCodec([]byte("test-jwt-secret"), "HS256", 0, WithClock(clock.Now))
	require.NoError(t, err)
	return c
}

func TestCodec_IssueDecode_RoundTrip(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec := newTestCodec(t, clock)
	subject := uuid.NewString()

	issued, err := codec.Issue(subject, TypeAccess, 15*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, issued.Token)
	require.NotEmpty(t, issued.JTI)
	assert.True(t, clock.t.Add(15*time.Minute).Equal(issued.ExpiresAt))

	claims, err := codec.Decode(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, subject, claims.Subject)
	assert.Equal(t, issued.JTI, claims.JTI())
	assert.Equal(t, TypeAccess, claims.Type)
	assert.True(t, clock.t.Equal(claims.IssuedAtTime()))
	assert.Equal(t, 15*time.Minute, claims.Remaining(clock.t))
}

func TestCodec_FreshJTIPerIssue(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, &fakeClock{t: time.Now()})
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		issued, err := codec.Issue("subject", TypeRefresh, time.Hour)
		require.NoError(t, err)
		require.False(t, seen[issued.JTI], "duplicate jti %s", issued.JTI)
		seen[issued.JTI] = true
	}
}

func TestCodec_Decode_Expired(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	codec := newTestCodec(t, clock)

	issued, err := codec.Issue("subject", TypeAccess, time.Minute)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = codec.Decode(issued.Token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestCodec_Decode_SkewTolerance(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	codec, err := NewCodec([]byte("test-jwt-secret"), "HS256", 30*time.Second, WithClock(clock.Now))
	require.NoError(t, err)

	issued, err := codec.Issue("subject", TypeAccess, time.Minute)
	require.NoError(t, err)

	clock.Advance(time.Minute + 10*time.Second)
	_, err = codec.Decode(issued.Token)
	require.NoError(t, err)
}

func TestCodec_Decode_Rejects(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	codec := newTestCodec(t, clock)
	other, err := NewCodec([]byte("other-secret"), "HS256", 0, WithClock(clock.Now))
	require.NoError(t, err)
	hs512, err := NewCodec([]byte("test-jwt-secret"), "HS512", 0, WithClock(clock.Now))
	require.NoError(t, err)

	foreign, err := other.Issue("subject", TypeAccess, time.Hour)
	require.NoError(t, err)
	wrongAlg, err := hs512.Issue("subject", TypeAccess, time.Hour)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Type: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  "subject",
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(clock.t),
		},
	}).SignedString([]byte("test-jwt-secret"))
	require.NoError(t, err)

	badType, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Type: "session",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "subject",
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(clock.t),
			ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
		},
	}).SignedString([]byte("test-jwt-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-valid-jwt"},
		{name: "empty", token: ""},
		{name: "foreign signature", token: foreign.Token},
		{name: "unexpected algorithm", token: wrongAlg.Token},
		{name: "missing expiry", token: noExp},
		{name: "unknown type", token: badType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := codec.Decode(tt.token)
			require.Error(t, err)
			assert.Nil(t, claims)
			assert.True(t, errors.Is(err, ErrInvalidToken))
			assert.False(t, errors.Is(err, ErrExpired))
		})
	}
}

func TestNewCodec_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewCodec(nil, "HS256", 0)
	require.Error(t, err)

	_, err = NewCodec([]byte("secret"), "RS256", 0)
	require.Error(t, err)

	_, err = NewCodec([]byte("secret"), "none", 0)
	require.Error(t, err)
}
