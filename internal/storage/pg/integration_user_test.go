package pg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authd-dev/authd/internal/domain"
	"github.com/authd-dev/authd/internal/errors"
)

func TestSaveUser(t *testing.T) {
	id, err := storage.SaveUser("test@example.com", "hash")
	require.NoError(t, err, "SaveUser should not return an error")
	assert.Greater(t, id, int64(0), "Expected ID > 0")

	_, err = storage.SaveUser("test@example.com", "hash")
	require.Error(t, err, "Saving user twice should return an error")
	assert.True(t, errors.IsConflict(err), "Duplicate email should map to 409")
}

func TestSaveUserLowercasesEmail(t *testing.T) {
	_, err := storage.SaveUser("MiXeD@Example.COM", "hash")
	require.NoError(t, err)

	user, err := storage.UserByEmail("mixed@example.com", domain.AnyState())
	require.NoError(t, err)
	assert.Equal(t, "mixed@example.com", user.Email)

	// Lookup input is lowercased too.
	_, err = storage.UserByEmail("MIXED@EXAMPLE.COM", domain.AnyState())
	assert.NoError(t, err)
}

func TestUserByEmail(t *testing.T) {
	_, err := storage.SaveUser("byemail@example.com", "somehash")
	require.NoError(t, err)

	user, err := storage.UserByEmail("byemail@example.com", domain.AnyState())
	require.NoError(t, err)
	assert.Equal(t, "byemail@example.com", user.Email)
	assert.Equal(t, "somehash", user.PassHash)
	assert.False(t, user.Active(), "New user should be inactive")
	assert.False(t, user.Banned(), "New user should not be banned")

	_, err = storage.UserByEmail("nonexistent@example.com", domain.AnyState())
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err), "Expected status code 404")
}

func TestLookupFilters(t *testing.T) {
	id, err := storage.SaveUser("filters@example.com", "hash")
	require.NoError(t, err)

	// Inactive user is invisible through the active-only filter.
	_, err = storage.UserById(id, domain.ActiveUnbanned())
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	// ... but visible through the pending-activation filter.
	_, err = storage.UserById(id, domain.InactiveUnbanned())
	require.NoError(t, err)

	require.NoError(t, storage.ActivateUser(id, time.Now().UTC()))

	user, err := storage.UserById(id, domain.ActiveUnbanned())
	require.NoError(t, err)
	assert.True(t, user.Active())

	// A banned user drops out of the unbanned filters.
	require.NoError(t, storage.BanUser(id, time.Now().UTC()))
	_, err = storage.UserById(id, domain.ActiveUnbanned())
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	// Unfiltered lookup still sees the record.
	user, err = storage.UserById(id, domain.AnyState())
	require.NoError(t, err)
	assert.True(t, user.Banned())

	require.NoError(t, storage.UnbanUser(id))
	_, err = storage.UserById(id, domain.ActiveUnbanned())
	assert.NoError(t, err)
}

func TestActivateDeactivate(t *testing.T) {
	id, err := storage.SaveUser("lifecycle@example.com", "hash")
	require.NoError(t, err)

	require.NoError(t, storage.ActivateUser(id, time.Now().UTC()))
	user, err := storage.UserById(id, domain.AnyState())
	require.NoError(t, err)
	require.NotNil(t, user.ActivatedAt)

	require.NoError(t, storage.DeactivateUser(id))
	user, err = storage.UserById(id, domain.AnyState())
	require.NoError(t, err)
	assert.Nil(t, user.ActivatedAt)

	err = storage.ActivateUser(99999999, time.Now().UTC())
	require.Error(t, err, "Activating a missing user should fail")
	assert.True(t, errors.IsNotFound(err))
}

func TestUpdatePassword(t *testing.T) {
	id, err := storage.SaveUser("password@example.com", "oldhash")
	require.NoError(t, err)

	require.NoError(t, storage.UpdatePassword(id, "newhash"))

	user, err := storage.UserById(id, domain.AnyState())
	require.NoError(t, err)
	assert.Equal(t, "newhash", user.PassHash)

	err = storage.UpdatePassword(99999999, "hash")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}
