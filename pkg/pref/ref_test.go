package pref_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prxmesh/prxcore/pkg/pref"
)

func TestNullAndBroadcast(t *testing.T) {
	assert.True(t, pref.Null.IsNull())
	assert.False(t, pref.Broadcast.IsNull())
	assert.NotEqual(t, pref.Null, pref.Broadcast)
}

func TestNewIsUnique(t *testing.T) {
	a, err := pref.New()
	require.NoError(t, err)
	b, err := pref.New()
	require.NoError(t, err)
	assert.False(t, a.Equal(b))
}

func TestStringRoundTrip(t *testing.T) {
	r, err := pref.New()
	require.NoError(t, err)

	s := r.String()
	require.Len(t, s, 32)

	back, err := pref.FromString(s)
	require.NoError(t, err)
	assert.True(t, r.Equal(back))
}

func TestBytesRoundTrip(t *testing.T) {
	r, err := pref.New()
	require.NoError(t, err)

	back, err := pref.FromBytes(r.Bytes())
	require.NoError(t, err)
	assert.True(t, r.Equal(back))
	assert.Len(t, r.Bytes(), 16)
}

func TestFromBytesRejectsWrongLength(t *testing.T) {
	_, err := pref.FromBytes([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestFromStringRejectsBadInput(t *testing.T) {
	_, err := pref.FromString("not-hex")
	require.Error(t, err)
}

func TestHashStableAcrossCopies(t *testing.T) {
	r, err := pref.New()
	require.NoError(t, err)
	clone := r
	assert.Equal(t, r.Hash(), clone.Hash())
}

func TestSwap(t *testing.T) {
	a, err := pref.New()
	require.NoError(t, err)
	b, err := pref.New()
	require.NoError(t, err)

	origA, origB := a, b
	pref.Swap(&a, &b)
	assert.True(t, a.Equal(origB))
	assert.True(t, b.Equal(origA))
}

func TestAppendTo(t *testing.T) {
	r, err := pref.New()
	require.NoError(t, err)

	var sb strings.Builder
	r.AppendTo(&sb)
	assert.Equal(t, r.String(), sb.String())
}
