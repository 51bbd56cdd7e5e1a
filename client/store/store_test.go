package store

import (
	"os"
	"path/filepath"
	"testing"

	"issuex/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetRoundTrip(t *testing.T) {
	st, err := Open(t.TempDir())
	require.NoError(t, err)

	loc := models.Location{Lat: 12.9716, Lng: 77.5946, Address: "MG Road", Town: "Bengaluru"}
	require.NoError(t, st.Set(KeyUserLocation, loc))

	var got models.Location
	require.True(t, st.Get(KeyUserLocation, &got))
	assert.Equal(t, loc, got)
}

func TestGetMissingKeyReturnsFalse(t *testing.T) {
	st, err := Open(t.TempDir())
	require.NoError(t, err)

	var radius float64
	assert.False(t, st.Get(KeySearchRadius, &radius))
	assert.Zero(t, radius)
}

func TestDeleteIsIdempotent(t *testing.T) {
	st, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, st.Set(KeyToken, "abc123"))
	require.NoError(t, st.Delete(KeyToken))
	require.NoError(t, st.Delete(KeyToken))

	var token string
	assert.False(t, st.Get(KeyToken, &token))
}

func TestValuesSurviveReopen(t *testing.T) {
	dir := t.TempDir()

	st, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, st.Set(KeySearchRadius, 25.0))

	st2, err := Open(dir)
	require.NoError(t, err)
	var radius float64
	require.True(t, st2.Get(KeySearchRadius, &radius))
	assert.Equal(t, 25.0, radius)
}

func TestTokenFileIsOwnerOnly(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, st.Set(KeyToken, "secret"))

	info, err := os.Stat(filepath.Join(dir, KeyToken+".json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestKeysCannotEscapeDirectory(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, st.Set("../escape", "nope"))
	_, err = os.Stat(filepath.Join(dir, ".._escape.json"))
	assert.NoError(t, err, "slashes in keys must be flattened into the store dir")
}

func TestCorruptFileReadsAsMissing(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, KeyUser+".json"), []byte("{not json"), 0o600))

	var user models.User
	assert.False(t, st.Get(KeyUser, &user))
}
