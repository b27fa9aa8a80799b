package userapps

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestImagesSkipsNonELFFiles confirms the loader only picks up *.elf files
// from bin/, leaving documentation alongside the real binaries.
func TestImagesSkipsNonELFFiles(t *testing.T) {
	images := Images()
	// bin/ currently holds only an empty placeholder.elf plus a README;
	// the loader must include the former and ignore the latter.
	assert.Len(t, images, 1)
	assert.Empty(t, images[0])
}
