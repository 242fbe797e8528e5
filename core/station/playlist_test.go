package station

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaylistAppendKeepsOrder(t *testing.T) {
	p := NewPlaylist()
	p.Append("a")
	p.Append("b")
	p.Append("c")

	assert.Equal(t, []string{"a", "b", "c"}, p.IDs())
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, "", p.CurrentID(), "appending must not move the cursor")
}

func TestPlaylistAdvanceWrapsAround(t *testing.T) {
	p := NewPlaylist()
	p.Append("a")
	p.Append("b")
	p.Append("c")

	require.NoError(t, p.SetCurrent("b"))

	id, ok := p.Advance()
	require.True(t, ok)
	assert.Equal(t, "c", id)

	id, ok = p.Advance()
	require.True(t, ok)
	assert.Equal(t, "a", id, "advance past the last entry wraps to the first")

	id, ok = p.Advance()
	require.True(t, ok)
	assert.Equal(t, "b", id)
}

func TestPlaylistAdvanceEmpty(t *testing.T) {
	p := NewPlaylist()

	id, ok := p.Advance()
	assert.False(t, ok)
	assert.Equal(t, "", id)
}

func TestPlaylistSetCurrentRejectsUnknown(t *testing.T) {
	p := NewPlaylist()
	p.Append("a")

	err := p.SetCurrent("nope")
	assert.ErrorIs(t, err, ErrNotInPlaylist)
	assert.Equal(t, "", p.CurrentID())
}

func TestPlaylistRemoveNonCurrentKeepsCursor(t *testing.T) {
	p := NewPlaylist()
	p.Append("a")
	p.Append("b")
	p.Append("c")
	require.NoError(t, p.SetCurrent("c"))

	removed, wasCurrent, current := p.Remove("a")
	assert.True(t, removed)
	assert.False(t, wasCurrent)
	assert.Equal(t, "c", current, "cursor must keep pointing at the same entry")
	assert.Equal(t, []string{"b", "c"}, p.IDs())
}

func TestPlaylistRemoveCurrentMovesToNext(t *testing.T) {
	p := NewPlaylist()
	p.Append("a")
	p.Append("b")
	p.Append("c")
	require.NoError(t, p.SetCurrent("b"))

	removed, wasCurrent, current := p.Remove("b")
	assert.True(t, removed)
	assert.True(t, wasCurrent)
	assert.Equal(t, "c", current)
}

func TestPlaylistRemoveCurrentLastWraps(t *testing.T) {
	p := NewPlaylist()
	p.Append("a")
	p.Append("b")
	require.NoError(t, p.SetCurrent("b"))

	_, wasCurrent, current := p.Remove("b")
	assert.True(t, wasCurrent)
	assert.Equal(t, "a", current, "removing the current tail wraps the cursor to the head")
}

func TestPlaylistRemoveLastEntryClearsCursor(t *testing.T) {
	p := NewPlaylist()
	p.Append("a")
	require.NoError(t, p.SetCurrent("a"))

	removed, wasCurrent, current := p.Remove("a")
	assert.True(t, removed)
	assert.True(t, wasCurrent)
	assert.Equal(t, "", current)
	assert.Equal(t, 0, p.Len())
}

func TestPlaylistRemoveUnknownIsNoop(t *testing.T) {
	p := NewPlaylist()
	p.Append("a")
	require.NoError(t, p.SetCurrent("a"))

	removed, wasCurrent, current := p.Remove("zzz")
	assert.False(t, removed)
	assert.False(t, wasCurrent)
	assert.Equal(t, "a", current)
}

func TestPlaylistRemoveBeforeCursorAdjustsIndex(t *testing.T) {
	p := NewPlaylist()
	p.Append("a")
	p.Append("b")
	p.Append("c")
	require.NoError(t, p.SetCurrent("c"))

	p.Remove("a")

	// Advancing from c must still wrap to the head, not skip an entry.
	id, ok := p.Advance()
	require.True(t, ok)
	assert.Equal(t, "b", id)
}

func TestPlaylistRestore(t *testing.T) {
	p := NewPlaylist()
	p.Restore([]string{"x", "y"}, "y")

	assert.Equal(t, "y", p.CurrentID())

	id, ok := p.Advance()
	require.True(t, ok)
	assert.Equal(t, "x", id)
}

func TestPlaylistRestoreWithMissingCurrent(t *testing.T) {
	p := NewPlaylist()
	p.Restore([]string{"x", "y"}, "gone")

	assert.Equal(t, "", p.CurrentID())
}
