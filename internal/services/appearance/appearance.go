// Package appearance derives display attributes for players: a stable color
// from the name and a default emoji avatar.
package appearance

import (
	"fmt"

	"github.com/mcoot/scorekeeper/internal/dependencies/random"
	"github.com/mcoot/scorekeeper/internal/model"
)

// Color bounds keep text legible on light and dark backgrounds
const (
	hashBase = 31

	minSaturation = 65
	maxSaturation = 85
	minLightness  = 45
	maxLightness  = 55
)

// Emojis is the fixed set default avatars are drawn from
var Emojis = []string{
	"😀", "😎", "🤩", "🥳", "🙄", "😍", "🤔", "🤓",
	"👻", "👽", "🤖", "🐶", "🐱", "🐭", "🐰", "🦊",
}

// HashName is a polynomial rolling hash over the UTF-8 bytes of name with
// base 31 and uint32 wraparound. It is stable across platforms and runs.
func HashName(name string) uint32 {
	var h uint32
	for i := 0; i < len(name); i++ {
		h = h*hashBase + uint32(name[i])
	}
	return h
}

// StringToColor maps a name to an hsl() color with bounded saturation and lightness
func StringToColor(name string) string {
	h := HashName(name)
	hue := h % 360
	sat := minSaturation + (h>>8)%(maxSaturation-minSaturation+1)
	light := minLightness + (h>>16)%(maxLightness-minLightness+1)
	return fmt.Sprintf("hsl(%d, %d%%, %d%%)", hue, sat, light)
}

// Assigner picks creation-time defaults that need randomness
type Assigner struct {
	random random.Random
}

// New creates a new Assigner
func New(random random.Random) *Assigner {
	return &Assigner{random: random}
}

// RandomEmoji returns a uniformly chosen emoji from Emojis
func (a *Assigner) RandomEmoji() string {
	return random.Pick(a.random, Emojis)
}

// DefaultAvatar returns an emoji avatar with a random emoji
func (a *Assigner) DefaultAvatar() model.Avatar {
	return model.EmojiAvatar{Value: a.RandomEmoji()}
}
