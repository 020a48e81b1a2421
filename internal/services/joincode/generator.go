// Package joincode generates and validates three-word game join codes.
package joincode

import (
	"strconv"
	"strings"

	"github.com/mcoot/scorekeeper/internal/dependencies/random"
)

const (
	// WordsPerCode is the number of dictionary words in a join code
	WordsPerCode = 3
	// Separator joins the words of a code
	Separator = "-"
	// MaxAttempts bounds GenerateUnique before a numeric suffix is used
	MaxAttempts = 1000
)

// Words is the fixed dictionary codes are drawn from
var Words = []string{
	"apple", "banana", "cherry", "date", "elder", "fig", "grape", "honey",
	"iris", "jazz", "kiwi", "lemon", "mango", "ninja", "olive", "peach",
	"queen", "ruby", "spark", "tiger", "umbra", "vital", "waltz", "xenon",
	"yacht", "zebra", "amber", "birch", "coral", "daisy", "eagle", "fern",
	"glow", "harbor", "indigo", "juniper", "koala", "lotus", "meadow", "noble",
	"ocean", "pearl", "quartz", "river", "silver", "tulip", "unite", "velvet",
	"willow", "xylophone", "zephyr", "azure", "breeze", "crimson", "dusk",
}

// Generator produces join codes from a source of randomness.
// Codes are not guaranteed unique; use GenerateUnique against the existing set.
type Generator struct {
	random random.Random
}

// New creates a new Generator
func New(random random.Random) *Generator {
	return &Generator{random: random}
}

// Generate returns three independently drawn words joined by hyphens
func (g *Generator) Generate() string {
	parts := make([]string, WordsPerCode)
	for i := range parts {
		parts[i] = random.Pick(g.random, Words)
	}
	return strings.Join(parts, Separator)
}

// GenerateUnique regenerates until taken reports the code is free. After
// MaxAttempts collisions a numeric suffix is appended to the last word.
func (g *Generator) GenerateUnique(taken func(code string) bool) string {
	for range MaxAttempts {
		code := g.Generate()
		if !taken(code) {
			return code
		}
	}
	base := g.Generate()
	for n := 2; ; n++ {
		code := base + strconv.Itoa(n)
		if !taken(code) {
			return code
		}
	}
}

// IsValidCode reports whether code splits into exactly three non-empty parts
func IsValidCode(code string) bool {
	parts := strings.Split(code, Separator)
	if len(parts) != WordsPerCode {
		return false
	}
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return false
		}
	}
	return true
}

// Normalize lowercases and trims a user-typed code for lookup
func Normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
