package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_UndoRedo(t *testing.T) {
	m := NewManager(0)
	assert.Equal(t, DefaultLimit, m.Limit())
	assert.Equal(t, -1, m.Index())

	_, ok := m.Undo()
	assert.False(t, ok)

	m.Commit(Snapshot("a"))
	m.Commit(Snapshot("b"))
	m.Commit(Snapshot("c"))

	s, ok := m.Undo()
	require.True(t, ok)
	assert.Equal(t, "b", string(s))

	s, ok = m.Undo()
	require.True(t, ok)
	assert.Equal(t, "a", string(s))

	_, ok = m.Undo()
	assert.False(t, ok, "first snapshot is the floor")

	s, ok = m.Redo()
	require.True(t, ok)
	assert.Equal(t, "b", string(s))

	s, ok = m.Redo()
	require.True(t, ok)
	assert.Equal(t, "c", string(s))

	_, ok = m.Redo()
	assert.False(t, ok)
}

func TestManager_CommitDropsRedoBranch(t *testing.T) {
	m := NewManager(10)
	m.Commit(Snapshot("a"))
	m.Commit(Snapshot("b"))
	m.Commit(Snapshot("c"))
	m.Undo()
	m.Undo()

	m.Commit(Snapshot("d"))
	assert.Equal(t, 2, m.Len())
	assert.False(t, m.CanRedo())

	cur, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "d", string(cur))

	s, _ := m.Undo()
	assert.Equal(t, "a", string(s))
}

func TestManager_Limit(t *testing.T) {
	m := NewManager(3)
	for i := 0; i < 5; i++ {
		m.Commit(Snapshot(fmt.Sprint(i)))
	}
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, 2, m.Index())

	var seen []string
	for m.CanUndo() {
		s, _ := m.Undo()
		seen = append(seen, string(s))
	}
	assert.Equal(t, []string{"3", "2"}, seen)
}

func TestManager_CommitCopiesInput(t *testing.T) {
	m := NewManager(5)
	buf := []byte("abc")
	m.Commit(buf)
	buf[0] = 'x'

	cur, _ := m.Current()
	assert.Equal(t, "abc", string(cur))

	m.Reset()
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, -1, m.Index())
}
