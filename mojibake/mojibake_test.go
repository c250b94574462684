package mojibake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

// corrupt reproduces the damage: UTF-8 bytes read back as Windows-1252.
func corrupt(t *testing.T, s string) string {
	t.Helper()
	out, err := charmap.Windows1252.NewDecoder().String(s)
	require.NoError(t, err)
	return out
}

func TestRepairKnownWord(t *testing.T) {
	got := Repair("à¦†à¦®à¦¿")
	require.Equal(t, "আমি", got)
	assert.NotZero(t, BanglaCount(got))
	assert.Equal(t, got, Repair(got), "repaired text is stable")
}

func TestRepairLeavesCleanTextAlone(t *testing.T) {
	for _, s := range []string{
		"",
		"আমি গল্প বলি",
		"plain ascii text",
		"café au lait",
		"Part 03 — পর্ব ৩",
	} {
		assert.Equal(t, s, Repair(s))
	}
}

func TestRepairDoubleEncoded(t *testing.T) {
	want := "ভূতের গল্প"
	assert.Equal(t, want, Repair(corrupt(t, corrupt(t, want))))
}

func TestRepairStopsAfterTwoPasses(t *testing.T) {
	once := corrupt(t, "আমি")
	got := Repair(corrupt(t, corrupt(t, once)))
	require.Equal(t, once, got, "two passes undo two of three layers")
	assert.True(t, IsCandidate(got), "markers remain in %q", got)
}

func TestRepairRejectsUndecodable(t *testing.T) {
	// Bangla runes have no single-byte form.
	assert.Equal(t, "আমি à¦", Repair("আমি à¦"))
	// Markers whose bytes are not valid UTF-8 once reinterpreted.
	assert.Equal(t, "Ã and Â alone", Repair("Ã and Â alone"))
}

func TestRepairMonotonic(t *testing.T) {
	for _, in := range []string{
		corrupt(t, "আমি"),
		corrupt(t, corrupt(t, "গল্পকথা")),
		corrupt(t, "“quoted” text"),
		"Ã",
		"à¦",
		"â€œhelloâ€",
	} {
		got := Repair(in)
		if got == in {
			continue
		}
		assert.True(t, Improves(in, got), "Repair(%q) = %q without improvement", in, got)
	}
}

func TestScoring(t *testing.T) {
	assert.Equal(t, 3, BanglaCount("আমি abc"))
	assert.Equal(t, 3, MarkerCount("à¦†à¦®à¦¿"))
	assert.False(t, Improves("আমি", "আমি"), "identical strings are no improvement")
	assert.True(t, Improves("à¦", "x"), "fewer markers are an improvement")
}

func TestRepairValueNested(t *testing.T) {
	in := map[string]any{
		"title": "à¦†à¦®à¦¿",
		"count": float64(3),
		"ok":    true,
		"none":  nil,
		"tags":  []any{"à¦†à¦®à¦¿", "clean"},
		"parts": []any{
			map[string]any{"title": "à¦†à¦®à¦¿", "index": float64(1)},
		},
	}
	want := map[string]any{
		"title": "আমি",
		"count": float64(3),
		"ok":    true,
		"none":  nil,
		"tags":  []any{"আমি", "clean"},
		"parts": []any{
			map[string]any{"title": "আমি", "index": float64(1)},
		},
	}
	got, n := RepairTree(in)
	assert.Equal(t, want, got)
	assert.Equal(t, 3, n)
	assert.Equal(t, "à¦†à¦®à¦¿", in["title"], "the input is not modified")
}

func TestRepairValueScalars(t *testing.T) {
	assert.Equal(t, 42, RepairValue(42))
	assert.Equal(t, "আমি", RepairValue("à¦†à¦®à¦¿"))
}
