package core

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unsafe"

	"github.com/devblok/korugfx/gfx"
)

const shaderSuffix = ".spv"

// ShaderFile is a compiled shader found on disk.
type ShaderFile struct {
	Path string

	// Function is the file name without the .spv suffix, e.g.
	// "shapes.vert", and names the shader inside a library.
	Function string
	Stage    gfx.ShaderStage
}

// ShaderFilesFromDirectory gets the list of files that are compiled shaders.
// The file name must have exactly two dots: the name of the shader, its
// stage (vert or frag) and the .spv extension. Other files are skipped.
// The result is sorted by function name.
func ShaderFilesFromDirectory(dir string) ([]ShaderFile, error) {
	var shaders []ShaderFile
	if err := filepath.Walk(dir, func(path string, f os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if f.IsDir() || !strings.HasSuffix(f.Name(), shaderSuffix) {
			return nil
		}

		shader := strings.TrimSuffix(f.Name(), shaderSuffix)
		nodes := strings.Split(shader, ".")
		if len(nodes) != 2 {
			return nil
		}

		switch nodes[1] {
		case "frag":
			shaders = append(shaders, ShaderFile{Path: path, Function: shader, Stage: gfx.FragmentStage})
		case "vert":
			shaders = append(shaders, ShaderFile{Path: path, Function: shader, Stage: gfx.VertexStage})
		}
		return nil
	}); err != nil {
		return nil, err
	}
	sort.Slice(shaders, func(i, j int) bool {
		return shaders[i].Function < shaders[j].Function
	})
	return shaders, nil
}

// SliceUint32 reslices bytes into a uint32, that is used
// to submit vulkan shaders for processing. Trailing bytes
// that do not fill a word are dropped.
func SliceUint32(data []byte) []uint32 {
	if len(data) < 4 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}
