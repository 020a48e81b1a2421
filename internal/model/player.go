package model

// PlayerID uniquely identifies a player across the system
type PlayerID string

// Player represents a tracked participant
type Player struct {
	ID     PlayerID
	Name   string // case-insensitively unique, fixed at creation
	Color  string // hsl() string derived from the name when absent
	Avatar Avatar // nil renders as a letter avatar

	// ManualTotal overrides the computed grand total in rankings when set
	ManualTotal *int

	// Money is the running balance used by Poker games
	Money float64
}

// EffectiveAvatar returns the avatar, substituting the letter avatar for nil
func (p *Player) EffectiveAvatar() Avatar {
	if p.Avatar == nil {
		return LetterAvatar{}
	}
	return p.Avatar
}

// Clone returns a deep copy of the player
func (p Player) Clone() Player {
	if p.ManualTotal != nil {
		v := *p.ManualTotal
		p.ManualTotal = &v
	}
	return p
}
