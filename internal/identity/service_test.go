package identity_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/reloveshop/storefront/internal/config"
	"github.com/reloveshop/storefront/internal/gateway"
	"github.com/reloveshop/storefront/internal/identity"
)

func newTestService(t *testing.T, verifier identity.ProviderVerifier) (*identity.Service, *gateway.Store) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	gw := gateway.New(db)
	return identity.NewService(db, gw, nil, verifier, []byte("test_secret")), gw
}

func TestRegisterDefaultsRoleUser(t *testing.T) {
	svc, gw := newTestService(t, nil)
	ctx := context.Background()

	sess, err := svc.Register(ctx, "shopper@example.com", "hunter22", "Shopper")
	require.NoError(t, err)
	assert.Equal(t, "user", sess.User.Role)
	assert.Equal(t, "shopper@example.com", sess.User.Email)
	assert.NotEmpty(t, sess.Token)

	doc, err := gw.Get(ctx, "users", sess.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "user", doc["role"])
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "shopper@example.com", "hunter22", "Shopper")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "shopper@example.com", "hunter22", "Shopper")
	require.ErrorIs(t, err, identity.ErrEmailTaken)
}

func TestSignInWithPassword(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "shopper@example.com", "hunter22", "Shopper")
	require.NoError(t, err)

	sess, err := svc.SignInWithPassword(ctx, "shopper@example.com", "hunter22", false)
	require.NoError(t, err)
	assert.False(t, sess.Persist)

	_, err = svc.SignInWithPassword(ctx, "shopper@example.com", "wrong", false)
	require.ErrorIs(t, err, identity.ErrInvalidCredentials)

	_, err = svc.SignInWithPassword(ctx, "nobody@example.com", "hunter22", false)
	require.ErrorIs(t, err, identity.ErrInvalidCredentials)
}

func TestCurrentRoleDefaultsAndReadsRecord(t *testing.T) {
	svc, gw := newTestService(t, nil)
	ctx := context.Background()

	role, err := svc.CurrentRole(ctx, "no-record")
	require.NoError(t, err)
	assert.Equal(t, "user", role)

	// admin is provisioned directly in the document store
	_, err = gw.Put(ctx, "users", "uid-admin", map[string]any{"role": "admin"})
	require.NoError(t, err)

	role, err = svc.CurrentRole(ctx, "uid-admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", role)
}

func TestSignInWithProviderCreatesAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer provider-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]string{
			"sub":   "google-uid-1",
			"email": "Social@Example.com",
			"name":  "Social Shopper",
		})
	}))
	defer srv.Close()

	verifier := identity.NewHTTPVerifier(srv.URL, srv.URL)
	svc, gw := newTestService(t, verifier)
	ctx := context.Background()

	sess, err := svc.SignInWithProvider(ctx, identity.ProviderGoogle, "provider-token", true)
	require.NoError(t, err)
	assert.Equal(t, "social@example.com", sess.User.Email)
	assert.Equal(t, "Social Shopper", sess.User.DisplayName)
	assert.Equal(t, "user", sess.User.Role)
	assert.True(t, sess.Persist)

	doc, err := gw.Get(ctx, "users", sess.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "user", doc["role"])

	// second sign-in reuses the account
	again, err := svc.SignInWithProvider(ctx, identity.ProviderGoogle, "provider-token", false)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, again.User.ID)
}

func TestSignInWithProviderInstagramExcluded(t *testing.T) {
	svc, _ := newTestService(t, identity.NewHTTPVerifier("", ""))

	_, err := svc.SignInWithProvider(context.Background(), identity.ProviderInstagram, "tok", false)
	require.ErrorIs(t, err, identity.ErrProviderNotSupported)

	_, err = identity.ParseProvider("instagram")
	require.ErrorIs(t, err, identity.ErrProviderNotSupported)
	_, err = identity.ParseProvider("myspace")
	require.ErrorIs(t, err, identity.ErrProviderNotSupported)
}

func TestOnChangeSubscription(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	var seen []*identity.User
	unsubscribe := svc.OnChange(func(u *identity.User) {
		seen = append(seen, u)
	})

	// immediate invocation with the current (signed-out) identity
	require.Len(t, seen, 1)
	assert.Nil(t, seen[0])

	sess, err := svc.Register(ctx, "shopper@example.com", "hunter22", "Shopper")
	require.NoError(t, err)
	require.Len(t, seen, 2)
	require.NotNil(t, seen[1])
	assert.Equal(t, sess.User.ID, seen[1].ID)

	svc.SignOut(ctx, sess.User.ID)
	require.Len(t, seen, 3)
	assert.Nil(t, seen[2])

	unsubscribe()
	_, err = svc.SignInWithPassword(ctx, "shopper@example.com", "hunter22", false)
	require.NoError(t, err)
	assert.Len(t, seen, 3)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "shopper@example.com", "hunter22", "Shopper")
	require.NoError(t, err)

	// token delivery is via events; grab it through the publisher
	var token string
	svc.Producer = publisherFunc(func(event any) {
		m := event.(map[string]any)
		if m["type"] == "password_reset_requested" {
			token = m["token"].(string)
		}
	})

	require.NoError(t, svc.RequestPasswordReset(ctx, "shopper@example.com"))
	require.NotEmpty(t, token)

	require.NoError(t, svc.ConfirmPasswordReset(ctx, token, "newpassword"))

	_, err = svc.SignInWithPassword(ctx, "shopper@example.com", "hunter22", false)
	require.ErrorIs(t, err, identity.ErrInvalidCredentials)
	_, err = svc.SignInWithPassword(ctx, "shopper@example.com", "newpassword", false)
	require.NoError(t, err)

	// single use
	require.ErrorIs(t, svc.ConfirmPasswordReset(ctx, token, "another"), identity.ErrResetTokenInvalid)

	// unknown email does not error
	require.NoError(t, svc.RequestPasswordReset(ctx, "nobody@example.com"))
}

func TestUserFromToken(t *testing.T) {
	svc, gw := newTestService(t, nil)
	ctx := context.Background()

	sess, err := svc.Register(ctx, "shopper@example.com", "hunter22", "Shopper")
	require.NoError(t, err)

	user, err := svc.UserFromToken(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User, *user)

	// role changes in the store are picked up on restoration
	_, err = gw.Put(ctx, "users", sess.User.ID, map[string]any{"role": "admin"})
	require.NoError(t, err)
	user, err = svc.UserFromToken(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Role)

	_, err = svc.UserFromToken(ctx, "garbage")
	require.ErrorIs(t, err, identity.ErrInvalidCredentials)
}

type publisherFunc func(event any)

func (f publisherFunc) PublishEvent(_ context.Context, _, _ string, event any) error {
	f(event)
	return nil
}
