package mesh

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

const stlHeaderLen = 80

// ParseSTL detects ASCII or binary STL. Binary files may also begin with
// "solid", so the binary size check runs first.
func ParseSTL(data []byte) (*Mesh, error) {
	if len(data) >= stlHeaderLen+4 {
		n := binary.LittleEndian.Uint32(data[stlHeaderLen:])
		if int64(len(data)) == stlHeaderLen+4+int64(n)*50 {
			return parseBinarySTL(data, int(n))
		}
	}
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("solid")) {
		return parseASCIISTL(bytes.NewReader(data))
	}
	return nil, fmt.Errorf("stl: %w", ErrUnsupportedFormat)
}

func parseBinarySTL(data []byte, n int) (*Mesh, error) {
	if n == 0 {
		return nil, fmt.Errorf("stl: %w", ErrEmptyMesh)
	}
	m := &Mesh{
		Vertices:  make([]mgl64.Vec3, 0, n*3),
		Triangles: make([][3]int, 0, n),
	}
	off := stlHeaderLen + 4
	for i := 0; i < n; i++ {
		// 12 bytes normal, 3×12 bytes vertices, 2 bytes attribute count.
		base := off + i*50 + 12
		var tri [3]int
		for k := 0; k < 3; k++ {
			p := base + k*12
			v := mgl64.Vec3{
				float64(math.Float32frombits(binary.LittleEndian.Uint32(data[p:]))),
				float64(math.Float32frombits(binary.LittleEndian.Uint32(data[p+4:]))),
				float64(math.Float32frombits(binary.LittleEndian.Uint32(data[p+8:]))),
			}
			tri[k] = len(m.Vertices)
			m.Vertices = append(m.Vertices, v)
		}
		m.Triangles = append(m.Triangles, tri)
	}
	return m, nil
}

func parseASCIISTL(r io.Reader) (*Mesh, error) {
	m := &Mesh{}
	sc := bufio.NewScanner(r)
	var pending []int
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "vertex":
			if len(fields) < 4 {
				return nil, fmt.Errorf("stl line %d: vertex needs 3 coordinates", line)
			}
			var v mgl64.Vec3
			for i := 0; i < 3; i++ {
				f, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("stl line %d: %w", line, err)
				}
				v[i] = f
			}
			pending = append(pending, len(m.Vertices))
			m.Vertices = append(m.Vertices, v)
		case "endloop":
			if len(pending) != 3 {
				return nil, fmt.Errorf("stl line %d: facet has %d vertices", line, len(pending))
			}
			m.Triangles = append(m.Triangles, [3]int{pending[0], pending[1], pending[2]})
			pending = pending[:0]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read stl: %w", err)
	}
	if len(m.Triangles) == 0 {
		return nil, fmt.Errorf("stl: %w", ErrEmptyMesh)
	}
	return m, nil
}
