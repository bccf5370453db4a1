package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripLinks(t *testing.T) {
	assert.Equal(t, "see location and tags", StripLinks("see <@link language location> and <@link tag tags>"))
	assert.Equal(t, "plain", StripLinks("plain"))
}

func TestParseCode(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		inCode bool
		after  bool
	}{
		{"escape", "a > b [c] (d)", `a \> b \[c] \(d)`, false, false},
		{"span", "use <code>- narrate <player>", "use ```yml\n- narrate <player>\n```", false, true},
		{"closed", "x <code>y</code> (z)", "x ```yml\ny\n``` \\(z)", false, false},
		{"carried", "b]</code> after", "```yml\nb]\n``` after", true, false},
		{"two spans", "<code>a</code><code>b</code>", "```yml\na\n``````yml\nb\n```", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inCode := tt.inCode
			assert.Equal(t, tt.want, ParseCode(tt.in, "yml", &inCode))
			assert.Equal(t, tt.after, inCode)
		})
	}
}

func TestSplit(t *testing.T) {
	assert.Equal(t, []string{"short"}, Split("short", 10))

	assert.Equal(t, []string{"aaaa\n", "bbbb"}, Split("aaaa\nbbbb", 6))
	assert.Equal(t, []string{"aa bb ", "cc"}, Split("aa bb cc", 7))
	assert.Equal(t, []string{"abc", "def", "g"}, Split("abcdefg", 3))

	long := strings.Repeat("é", 25)
	chunks := Split(long, 10)
	assert.Len(t, chunks, 3)
	assert.Equal(t, long, strings.Join(chunks, ""))
}

func TestFence(t *testing.T) {
	assert.Equal(t, "```yml\nx\n```", Fence("yml", "x"))
	assert.Equal(t, len("```yml\n")+len("\n```"), fenceOverhead("yml"))
}

func TestPageText(t *testing.T) {
	p := Page{
		Title:    "Exact match",
		Sections: []Section{{Label: "Name", Body: "teleport"}},
		Number:   1,
		Total:    2,
	}
	assert.Equal(t, "Exact match\n\nName:\nteleport\n\nPage 1/2\n", p.Text())
	assert.Equal(t, 8, p.Len())
}
