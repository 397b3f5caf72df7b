package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"connext-backend/internal/auth"
	"connext-backend/internal/models"
)

type userFixture struct {
	store    *memStore
	images   *fakeImages
	notifier *recordingNotifier
	tokens   *auth.Tokens
	svc      *UserService
}

func newUserFixture() *userFixture {
	f := &userFixture{store: newMemStore(), images: &fakeImages{}, notifier: &recordingNotifier{}, tokens: auth.NewTokens("test-secret", time.Hour)}
	f.svc = NewUserService(f.store, f.images, f.notifier, f.tokens)
	return f
}

func TestSignupAndLogin(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	user, token, err := f.svc.Signup(ctx, " Alice ", "Alice@Example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.FullName)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	id, err := f.tokens.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	_, _, err = f.svc.Signup(ctx, "Other", "alice@example.com", "secret2")
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	loggedIn, _, err := f.svc.Login(ctx, "ALICE@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	_, _, err = f.svc.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = f.svc.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignupValidation(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	_, _, err := f.svc.Signup(ctx, "", "a@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = f.svc.Signup(ctx, "Alice", "a@example.com", "short")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, f.store.users)
}

func TestUpdateProfileReplacesPicture(t *testing.T) {
	f := newUserFixture()
	alice := f.store.seedUser("Alice")
	ctx := context.Background()

	_, err := f.svc.UpdateProfile(ctx, alice, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	first, err := f.svc.UpdateProfile(ctx, alice, "data:image/png;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, "https://img.test/1.png", first.ProfilePic)

	second, err := f.svc.UpdateProfile(ctx, alice, "data:image/png;base64,BBBB")
	require.NoError(t, err)
	assert.Equal(t, "https://img.test/2.png", second.ProfilePic)
	assert.Equal(t, []string{"https://img.test/1.png"}, f.images.destroyed)
}

func TestUpdateProfileSaveFailureDropsUpload(t *testing.T) {
	f := newUserFixture()
	alice := f.store.seedUser("Alice")
	f.store.profileErr = errors.New("db down")

	_, err := f.svc.UpdateProfile(context.Background(), alice, "data:image/png;base64,AAAA")
	assert.ErrorIs(t, err, f.store.profileErr)
	assert.Equal(t, []string{"https://img.test/1.png"}, f.images.destroyed)
	assert.Empty(t, f.store.users[alice].ProfilePic)
}

func TestBlockTearsDownContactsAndHistory(t *testing.T) {
	f := newUserFixture()
	bob := f.store.seedUser("Bob")
	carol := f.store.seedUser("Carol")
	alice := f.store.seedUser("Alice", bob, carol)
	ctx := context.Background()

	for _, m := range []models.Message{
		models.NewDirectMessage(alice, bob, "hi", ""),
		models.NewDirectMessage(bob, alice, "yo", ""),
		models.NewDirectMessage(alice, carol, "hello", ""),
	} {
		f.store.seedMessage(m)
	}

	require.NoError(t, f.svc.Block(ctx, alice, bob))

	a, _ := f.store.GetUser(ctx, alice)
	b, _ := f.store.GetUser(ctx, bob)
	assert.Equal(t, []int{carol}, a.Contacts)
	assert.Empty(t, b.Contacts)
	assert.Equal(t, []int{bob}, a.BlockedUsers)

	history, _ := f.store.ListConversation(ctx, alice, bob)
	assert.Empty(t, history)
	kept, _ := f.store.ListConversation(ctx, alice, carol)
	assert.Len(t, kept, 1)

	success := f.notifier.named(models.EventBlockSuccess)
	require.Len(t, success, 1)
	assert.Equal(t, []int{alice}, success[0].to)
	assert.Equal(t, models.BlockSuccessPayload{BlockedUserID: bob}, success[0].event.Payload)

	blocked := f.notifier.named(models.EventUserBlocked)
	require.Len(t, blocked, 1)
	assert.Equal(t, []int{bob}, blocked[0].to)
	assert.Equal(t, models.UserBlockedPayload{BlockedBy: alice}, blocked[0].event.Payload)

	between, err := f.svc.BlockedBetween(ctx, bob, alice)
	require.NoError(t, err)
	assert.True(t, between)
	between, err = f.svc.BlockedBetween(ctx, alice, carol)
	require.NoError(t, err)
	assert.False(t, between)

	assert.ErrorIs(t, f.svc.Block(ctx, alice, bob), ErrAlreadyBlocked)
}

func TestBlockRejectsSelfAndUnknown(t *testing.T) {
	f := newUserFixture()
	alice := f.store.seedUser("Alice")

	assert.ErrorIs(t, f.svc.Block(context.Background(), alice, alice), ErrSelfBlock)
	assert.ErrorIs(t, f.svc.Block(context.Background(), alice, 999), ErrUserNotFound)
	assert.Empty(t, f.notifier.deliveries)
}

func TestUnblockDoesNotRestoreContacts(t *testing.T) {
	f := newUserFixture()
	bob := f.store.seedUser("Bob")
	alice := f.store.seedUser("Alice", bob)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.Unblock(ctx, alice, bob), ErrNotBlocked)

	require.NoError(t, f.svc.Block(ctx, alice, bob))
	blocked, err := f.svc.ListBlocked(ctx, alice)
	require.NoError(t, err)
	require.Len(t, blocked, 1)
	assert.Equal(t, bob, blocked[0].ID)

	require.NoError(t, f.svc.Unblock(ctx, alice, bob))
	blocked, err = f.svc.ListBlocked(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, blocked)

	a, _ := f.store.GetUser(ctx, alice)
	assert.Empty(t, a.Contacts)
}

func TestSearchHidesBlockedUsers(t *testing.T) {
	f := newUserFixture()
	alice := f.store.seedUser("Alice")
	bob := f.store.seedUser("Bobby")
	bea := f.store.seedUser("Bea")
	ctx := context.Background()

	users, err := f.svc.Search(ctx, alice, "b")
	require.NoError(t, err)
	assert.Len(t, users, 2)

	require.NoError(t, f.svc.Block(ctx, bea, alice))
	users, err = f.svc.Search(ctx, alice, "b")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, bob, users[0].ID)

	users, err = f.svc.Search(ctx, alice, "  ")
	require.NoError(t, err)
	assert.Empty(t, users)
}
