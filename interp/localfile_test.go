package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestLocalFileRoundTrip is spec.md §8's law: "to-local-file
// (to-rebol-file p) == p on well-formed inputs."
func TestLocalFileRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		local   string
		windows bool
	}{
		{"posix absolute", "/usr/local/bin", false},
		{"posix relative", "src/main.go", false},
		{"windows drive", `C:\Users\test\file.txt`, true},
		{"windows relative", `src\main.go`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rebol := ToRebolFile(tt.local, tt.windows)
			back := ToLocalFile(rebol, tt.windows)
			assert.Equal(t, tt.local, back)
		})
	}
}

func TestToRebolFileDriveLetter(t *testing.T) {
	assert.Equal(t, "/C/Users/test", ToRebolFile(`C:\Users\test`, true))
	assert.Equal(t, `C:\Users\test`, ToLocalFile("/C/Users/test", true))
}

func TestSeparatorCollapseAndDots(t *testing.T) {
	assert.Equal(t, "/a/b/c", ToLocalFile("/a//b///c", false))
	assert.Equal(t, "/a/c", ToLocalFile("/a/./c", false))
	assert.Equal(t, "/a/c", ToLocalFile("/a/b/../c", false))
	assert.Equal(t, "c", ToLocalFile("a/../c", false))
}
