// meshvol prints the enclosed volume and bounds of OBJ/STL mesh files, the
// same numbers the buoyancy system uses for mesh collisions.
package main

import (
	"fmt"
	"os"

	"github.com/marisim/simhost/internal/mesh"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: meshvol <mesh.obj|mesh.stl>...")
		os.Exit(1)
	}

	mgr := mesh.NewManager(zap.NewNop())
	failed := false
	for _, path := range os.Args[1:] {
		m, err := mgr.Load(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			failed = true
			continue
		}
		lo, hi := m.Bounds()
		fmt.Printf("%s\n  triangles %d\n  volume    %.6f m³\n  bounds    [%.3f %.3f %.3f] to [%.3f %.3f %.3f]\n",
			path, len(m.Triangles), m.Volume(), lo[0], lo[1], lo[2], hi[0], hi[1], hi[2])
	}
	if failed {
		os.Exit(1)
	}
}
