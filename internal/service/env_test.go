package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/book_api/internal/hash"
	"github.com/Skotchmaster/book_api/internal/models"
	"github.com/Skotchmaster/book_api/internal/mykafka"
	"github.com/Skotchmaster/book_api/internal/repo"
	"github.com/Skotchmaster/book_api/internal/testutil"
	"github.com/Skotchmaster/book_api/internal/tokens"
)

type recordedEvent struct {
	Topic string
	Key   string
	Event mykafka.Event
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakePublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{Topic: topic, Key: key, Event: event.(mykafka.Event)})
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Event.Type)
	}
	return out
}

type testEnv struct {
	repo    *repo.GormRepo
	mr      *miniredis.Miniredis
	clock   *testutil.Clock
	codec   *tokens.Codec
	events  *fakePublisher
	auth    *AuthService
	guard   *Guard
	users   *UserService
	books   *BookService
	reviews *ReviewService
}

const testPassword = "Secret123!"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	rp := repo.New(testutil.InitTestDB(t))
	mr, store := testutil.InitTestRedis(t)
	clock := testutil.NewClock(time.Now().UTC().Truncate(time.Second))

	codec, err := tokens.NewCodec([]byte("test-jwt-secret"), "HS256", 0, tokens.WithClock(clock.Now))
	require.NoError(t, err)

	hasher := hash.New(bcrypt.MinCost)
	events := &fakePublisher{}

	return &testEnv{
		repo:   rp,
		mr:     mr,
		clock:  clock,
		codec:  codec,
		events: events,
		auth: &AuthService{
			Repo:    rp,
			Hasher:  hasher,
			Codec:   codec,
			Revoked: store,
			Events:  events,
			Tokens:  TokenConfig{AccessTTL: 15 * time.Minute, RefreshTTL: 24 * time.Hour},
			Now:     clock.Now,
		},
		guard:   &Guard{Repo: rp, Codec: codec, Revoked: store},
		users:   &UserService{Repo: rp, Hasher: hasher, Events: events},
		books:   &BookService{Repo: rp, Events: events},
		reviews: &ReviewService{Repo: rp},
	}
}

func (e *testEnv) register(t *testing.T) (*models.User, RegisterInput) {
	t.Helper()

	fake := testutil.FakeUser()
	in := RegisterInput{
		Username:  fake.Username,
		Email:     fake.Email,
		Password:  testPassword,
		FirstName: fake.FirstName,
		LastName:  fake.LastName,
	}
	user, err := e.auth.Register(context.Background(), in)
	require.NoError(t, err)
	return user, in
}

func (e *testEnv) registerWithRole(t *testing.T, role models.Role) *models.User {
	t.Helper()

	user, _ := e.register(t)
	if role != models.RoleUser {
		updated, err := e.users.ChangeRole(context.Background(), user.UUID, role)
		require.NoError(t, err)
		user = updated
	}
	return user
}

func (e *testEnv) login(t *testing.T, email string) *TokenPair {
	t.Helper()

	pair, err := e.auth.Login(context.Background(), email, testPassword)
	require.NoError(t, err)
	return pair
}

func (e *testEnv) claims(t *testing.T, raw string) *tokens.Claims {
	t.Helper()

	c, err := e.codec.Decode(raw)
	require.NoError(t, err)
	return c
}

func newID() uuid.UUID { return uuid.New() }
