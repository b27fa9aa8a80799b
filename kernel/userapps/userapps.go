// Package userapps embeds the user program ELF binaries this kernel image
// ships with. The spec's build-time app table (a _num_app symbol with a
// boundary-offset array and concatenated ELF bytes) is an external
// collaborator this core does not build; go:embed is this repo's
// equivalent delivery mechanism, baking whatever real ELF binaries land in
// bin/ directly into the kernel binary at compile time.
package userapps

import (
	"embed"
	"strings"
)

//go:embed bin
var binFS embed.FS

// Images returns the raw contents of every *.elf file under bin/, in
// directory order. The out-of-tree build step that compiles and drops user
// programs there is responsible for giving them meaningful content; this
// package only collects what it finds, one slice per file.
func Images() [][]byte {
	entries, err := binFS.ReadDir("bin")
	if err != nil {
		return nil
	}

	var images [][]byte
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".elf") {
			continue
		}
		data, err := binFS.ReadFile("bin/" + e.Name())
		if err != nil {
			continue
		}
		images = append(images, data)
	}
	return images
}
