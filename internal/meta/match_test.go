package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"kitten", "sitting", 3},
		{"", "abc", 3},
		{"abc", "", 3},
		{"", "", 0},
		{"flaw", "lawn", 2},
		{"same", "same", 0},
		{"über", "uber", 1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, Levenshtein(tt.a, tt.b))
			assert.Equal(t, tt.want, Levenshtein(tt.b, tt.a))
		})
	}
}

func TestIsTextSimilar(t *testing.T) {
	assert.True(t, IsTextSimilar("teleport", "telport"))
	assert.True(t, IsTextSimilar("narrate", "narate"))
	// shares neither first nor last character
	assert.False(t, IsTextSimilar("abc", "xbz"))
	// too far apart
	assert.False(t, IsTextSimilar("teleport", "tea"))
	assert.False(t, IsTextSimilar("", "abc"))
}

func TestBasicMatch(t *testing.T) {
	tests := []struct {
		name, query string
		want        MatchLevel
	}{
		{"teleport", "teleport", Exact},
		{"teleport", "telep", VerySimilar},
		{"teleport", "telepor", VerySimilar},
		{"teleport", "tele", Similar},
		{"teleport", "tel", Similar},
		{"teleport", "t", Similar},
		{"teleport", "port", Partial},
		{"teleport", "lepo", Partial},
		{"teleport", "zap", None},
		{"teleport", "", None},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, BasicMatch(tt.name, tt.query))
		})
	}
}

func TestDottedMatch(t *testing.T) {
	tests := []struct {
		name, query string
		want        MatchLevel
	}{
		{"player.name", "player.name", Exact},
		{"player.name", "player.name.first", None},
		{"player.name", "play.name", VerySimilar},
		{"player.name", "pl.name", Similar},
		{"player.name", "player.na", VerySimilar},
		{"player.name", "player.nam", VerySimilar},
		{"player.name", "layer.name", Partial},
		{"player.name.first", "player.name", Similar},
		{"player.name", "player", Similar},
		{"player.name", "entity.name", None},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, DottedMatch(tt.name, tt.query))
		})
	}
}

func TestStripTag(t *testing.T) {
	assert.Equal(t, "player.name", StripTag("<player.name>"))
	assert.Equal(t, "player.flag.expiration", StripTag("<player.flag[<name>].expiration>"))
	assert.Equal(t, "playertag.name", StripTag("<p@playertag.name>"))
	assert.Equal(t, "list.get", StripTag("<list.get[1]>"))
	assert.Equal(t, "list.get", StripTag("list.get[1"))
}

func TestStripLeadingSuffix(t *testing.T) {
	assert.Equal(t, "location.world", stripLeadingSuffix("locationtag.world", "tag"))
	assert.Equal(t, "location.world", stripLeadingSuffix("location.world", "tag"))
	assert.Equal(t, "locationtag", stripLeadingSuffix("locationtag", "tag"))
	assert.Equal(t, "tag.world", stripLeadingSuffix("tag.world", "tag"))
	assert.Equal(t, "item.flagtag", stripLeadingSuffix("itemtag.flagtag", "tag"))
}
