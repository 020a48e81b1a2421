package model

import "fmt"

// AvatarKind names an avatar variant on the wire
type AvatarKind string

const (
	AvatarKindLetter AvatarKind = "letter"
	AvatarKindEmoji  AvatarKind = "emoji"
	AvatarKindImage  AvatarKind = "image"
)

// Avatar is a closed sum type: LetterAvatar, EmojiAvatar or ImageAvatar.
// Switch over the concrete types; the unexported method keeps the set closed.
type Avatar interface {
	Kind() AvatarKind
	isAvatar()
}

// LetterAvatar renders the first letter of the player's name
type LetterAvatar struct{}

// EmojiAvatar renders a single emoji
type EmojiAvatar struct {
	Value string
}

// ImageAvatar renders an image from a URL
type ImageAvatar struct {
	URL string
}

func (LetterAvatar) Kind() AvatarKind { return AvatarKindLetter }
func (EmojiAvatar) Kind() AvatarKind  { return AvatarKindEmoji }
func (ImageAvatar) Kind() AvatarKind  { return AvatarKindImage }

func (LetterAvatar) isAvatar() {}
func (EmojiAvatar) isAvatar()  {}
func (ImageAvatar) isAvatar()  {}

// NewAvatar builds an avatar from its wire kind and value
func NewAvatar(kind AvatarKind, value string) (Avatar, error) {
	switch kind {
	case AvatarKindLetter, "":
		return LetterAvatar{}, nil
	case AvatarKindEmoji:
		if value == "" {
			return nil, fmt.Errorf("%w: emoji avatar requires a value", ErrInvalidAvatar)
		}
		return EmojiAvatar{Value: value}, nil
	case AvatarKindImage:
		if value == "" {
			return nil, fmt.Errorf("%w: image avatar requires a url", ErrInvalidAvatar)
		}
		return ImageAvatar{URL: value}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidAvatar, kind)
	}
}

// AvatarValue returns the wire value carried by an avatar
func AvatarValue(a Avatar) string {
	switch v := a.(type) {
	case EmojiAvatar:
		return v.Value
	case ImageAvatar:
		return v.URL
	default:
		return ""
	}
}
