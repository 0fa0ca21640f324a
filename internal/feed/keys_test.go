package feed

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBindRoutesKeys(t *testing.T) {
	c := NewController(nil)
	c.Replace(threeVideos())
	kb := NewDispatcher()

	unbind := c.Bind(kb)
	require.True(t, c.Bound())
	require.Equal(t, 1, kb.Listeners())

	require.False(t, kb.Press(KeyArrowDown))
	require.Equal(t, 1, browsing(t, c).Index)
	require.True(t, kb.Press(KeySpace))
	require.False(t, browsing(t, c).Playing)

	unbind()
	unbind()
	require.Equal(t, 0, kb.Listeners())
	kb.Press(KeyArrowDown)
	require.Equal(t, 1, browsing(t, c).Index)
}

func TestBindTwiceKeepsOneListener(t *testing.T) {
	c := NewController(nil)
	c.Replace(threeVideos())
	kb := NewDispatcher()

	c.Bind(kb)
	c.Bind(kb)
	require.Equal(t, 1, kb.Listeners())

	kb.Press(KeyArrowDown)
	require.Equal(t, 1, browsing(t, c).Index)

	c.Unbind()
	require.False(t, c.Bound())
	require.Equal(t, 0, kb.Listeners())
}
