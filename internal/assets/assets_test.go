// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assets

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceReleasesPrevious(t *testing.T) {
	r := NewRegistry(t.TempDir())

	first, err := r.Replace(Logo, "logo.png", []byte("one"))
	require.NoError(t, err)
	require.FileExists(t, first.Path)

	second, err := r.Replace(Logo, "logo2.png", []byte("two"))
	require.NoError(t, err)

	assert.NoFileExists(t, first.Path)
	assert.FileExists(t, second.Path)
	assert.NotEqual(t, first.ID, second.ID)

	got, ok := r.Get(Logo)
	require.True(t, ok)
	assert.Equal(t, second, got)

	data, err := os.ReadFile(got.Path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestReplaceWithEmptyDataReleases(t *testing.T) {
	r := NewRegistry(t.TempDir())
	h, err := r.Replace(Signature, "firma.png", []byte("sig"))
	require.NoError(t, err)

	_, err = r.Replace(Signature, "", nil)
	require.NoError(t, err)

	assert.NoFileExists(t, h.Path)
	_, ok := r.Get(Signature)
	assert.False(t, ok)
}

func TestCloseReleasesAll(t *testing.T) {
	r := NewRegistry(t.TempDir())
	logo, err := r.Replace(Logo, "logo.png", []byte("l"))
	require.NoError(t, err)
	sig, err := r.Replace(Signature, "firma.png", []byte("s"))
	require.NoError(t, err)

	require.NoError(t, r.Close())

	assert.NoFileExists(t, logo.Path)
	assert.NoFileExists(t, sig.Path)
	_, err = r.Replace(Logo, "again.png", []byte("x"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("logo")
	require.NoError(t, err)
	assert.Equal(t, Logo, k)

	_, err = ParseKind("stamp")
	assert.Error(t, err)
}
