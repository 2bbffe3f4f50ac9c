package auth

import (
	"context"
	"testing"
	"time"

	"pos-till/internal/model"
	"pos-till/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestService(t *testing.T, users ...model.User) (*Service, *store.Memory[model.User]) {
	t.Helper()
	mem := store.NewMemory(users...)
	return NewService(mem, testSecret, time.Hour, zerolog.Nop()), mem
}

func worker(t *testing.T) model.User {
	t.Helper()
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	return model.User{Username: "worker1", PasswordHash: hash, Role: model.RoleWorker}
}

func TestLogin_Success(t *testing.T) {
	s, _ := newTestService(t, worker(t))

	token, user, err := s.Login(context.Background(), "worker1", "hunter22")

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, token)
	assert.Equal(t, model.RoleWorker, user.Role)

	claims, err := s.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "worker1", claims.Username)
	assert.Equal(t, model.RoleWorker, claims.Role)
}

func TestLogin_Failures(t *testing.T) {
	s, _ := newTestService(t, worker(t))
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "Wrong password", username: "worker1", password: "wrong"},
		{name: "Unknown user", username: "ghost", password: "hunter22"},
		{name: "Empty credentials", username: "", password: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, user, err := s.Login(ctx, tt.username, tt.password)

			assert.ErrorIs(t, err, model.ErrUnauthorised)
			assert.Empty(t, token)
			assert.Nil(t, user)
		})
	}
}

func TestVerifyToken_Invalid(t *testing.T) {
	s, _ := newTestService(t, worker(t))

	_, err := s.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, model.ErrUnauthorised)

	// A token signed with a different secret is rejected.
	other := NewService(store.NewMemory(worker(t)), "other-secret", time.Hour, zerolog.Nop())
	token, _, err := other.Login(context.Background(), "worker1", "hunter22")
	require.NoError(t, err)

	_, err = s.VerifyToken(token)
	assert.ErrorIs(t, err, model.ErrUnauthorised)
}

func TestVerifyToken_Expired(t *testing.T) {
	s, _ := newTestService(t, worker(t))
	s.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := s.Login(context.Background(), "worker1", "hunter22")
	require.NoError(t, err)

	_, err = s.VerifyToken(token)
	assert.ErrorIs(t, err, model.ErrUnauthorised)
}

func TestEnsureDefaultAdmin(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestService(t)

	require.NoError(t, s.EnsureDefaultAdmin(ctx, "admin", "adminpass"))

	users, err := mem.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, model.RoleAdmin, users[0].Role)

	_, user, err := s.Login(ctx, "admin", "adminpass")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, user.Role)

	// A second call must not add another account.
	require.NoError(t, s.EnsureDefaultAdmin(ctx, "admin", "adminpass"))
	users, err = mem.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestEnsureDefaultAdmin_ExistingUsersUntouched(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestService(t, worker(t))

	require.NoError(t, s.EnsureDefaultAdmin(ctx, "admin", "adminpass"))

	users, err := mem.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "worker1", users[0].Username)
}
