package slug

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	tests := map[string]string{
		"Elden Ring":                  "elden-ring",
		"Counter-Strike 2":            "counter-strike-2",
		"  Baldur's Gate 3!  ":        "baldur-s-gate-3",
		"DOOM: The Dark Ages":         "doom-the-dark-ages",
		"already-a-slug":              "already-a-slug",
	}

	for input, want := range tests {
		require.Equal(t, want, Make(input), "input %q", input)
	}
}
