package appearance

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/scorekeeper/internal/dependencies/mocks"
	"github.com/mcoot/scorekeeper/internal/model"
)

func TestHashNameIsPolynomialBase31(t *testing.T) {
	assert.Equal(t, uint32(0), HashName(""))
	assert.Equal(t, uint32('a'), HashName("a"))
	// "ab" = 97*31 + 98
	assert.Equal(t, uint32(97*31+98), HashName("ab"))
}

func TestStringToColorIsDeterministic(t *testing.T) {
	assert.Equal(t, StringToColor("Alice"), StringToColor("Alice"))
	assert.NotEqual(t, StringToColor("Alice"), StringToColor("alice"))
}

func TestStringToColorBounds(t *testing.T) {
	names := []string{"", "A", "Alice", "Bob", "Zoë", "名前", "a very long player name indeed"}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			var hue, sat, light int
			n, err := fmt.Sscanf(StringToColor(name), "hsl(%d, %d%%, %d%%)", &hue, &sat, &light)
			require.NoError(t, err)
			require.Equal(t, 3, n)

			assert.GreaterOrEqual(t, hue, 0)
			assert.Less(t, hue, 360)
			assert.GreaterOrEqual(t, sat, 65)
			assert.LessOrEqual(t, sat, 85)
			assert.GreaterOrEqual(t, light, 45)
			assert.LessOrEqual(t, light, 55)
		})
	}
}

func TestRandomEmojiUsesRandomSource(t *testing.T) {
	rnd := mocks.NewMockRandom()
	rnd.QueueIntn(15, 0)
	a := New(rnd)

	assert.Equal(t, "🦊", a.RandomEmoji())
	assert.Equal(t, "😀", a.RandomEmoji())
}

func TestDefaultAvatarIsEmojiFromSet(t *testing.T) {
	rnd := mocks.NewMockRandom()
	rnd.QueueIntn(3)
	avatar := New(rnd).DefaultAvatar()

	emoji, ok := avatar.(model.EmojiAvatar)
	require.True(t, ok)
	assert.True(t, slices.Contains(Emojis, emoji.Value))
	assert.Equal(t, "🥳", emoji.Value)
}
