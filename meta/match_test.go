package meta

import (
	"testing"

	"github.com/coregx/vimre/nfa"
	"github.com/stretchr/testify/assert"
)

func TestNewMatch(t *testing.T) {
	t.Parallel()

	m := NewMatch(5, 11)
	assert.Equal(t, 5, m.Start())
	assert.Equal(t, 11, m.End())
	assert.Equal(t, 6, m.Len())
	assert.False(t, m.IsEmpty())
	assert.Equal(t, 1, m.NumGroups())
	assert.Equal(t, "foo123", m.Text(nfa.Bytes("test foo123 end"), 0))

	assert.True(t, m.Contains(5))
	assert.True(t, m.Contains(10))
	assert.False(t, m.Contains(11))
	assert.False(t, m.Contains(4))

	assert.True(t, NewMatch(3, 3).IsEmpty())
}

func TestMatchGroups(t *testing.T) {
	t.Parallel()

	m := &Match{spans: []int{0, 4, 0, 2, -1, -1}}
	assert.Equal(t, 3, m.NumGroups())

	start, end, ok := m.Group(1)
	assert.True(t, ok)
	assert.Equal(t, 0, start)
	assert.Equal(t, 2, end)

	_, _, ok = m.Group(2)
	assert.False(t, ok)
	_, _, ok = m.Group(3)
	assert.False(t, ok)
	_, _, ok = m.Group(-1)
	assert.False(t, ok)

	assert.Equal(t, []int{0, 4, 0, 2, -1, -1}, m.Spans())
	assert.Equal(t, "ab", m.Text(nfa.Runes([]rune("abcd")), 1))
	assert.Equal(t, "", m.Text(nfa.Runes([]rune("abcd")), 2))
}
