package scene

import "github.com/chewxy/math32"

// Mesh is an indexed triangle list. Every three indices form one triangle.
type Mesh struct {
	Vertices []Vec3
	Indices  []uint32
}

// Triangles returns the number of complete triangles in the mesh.
func (m *Mesh) Triangles() int {
	if m == nil {
		return 0
	}
	return len(m.Indices) / 3
}

// Triangle returns the vertices of triangle i.
func (m *Mesh) Triangle(i int) (a, b, c Vec3) {
	return m.Vertices[m.Indices[3*i]], m.Vertices[m.Indices[3*i+1]], m.Vertices[m.Indices[3*i+2]]
}

// Cube returns a unit cube centered at the origin.
func Cube() *Mesh {
	const h = 0.5
	return &Mesh{
		Vertices: []Vec3{
			{-h, -h, -h}, {h, -h, -h}, {h, h, -h}, {-h, h, -h},
			{-h, -h, h}, {h, -h, h}, {h, h, h}, {-h, h, h},
		},
		Indices: []uint32{
			4, 5, 6, 4, 6, 7, // front
			1, 0, 3, 1, 3, 2, // back
			0, 4, 7, 0, 7, 3, // left
			5, 1, 2, 5, 2, 6, // right
			7, 6, 2, 7, 2, 3, // top
			0, 1, 5, 0, 5, 4, // bottom
		},
	}
}

// Quad returns a unit square in the XY plane centered at the origin.
func Quad() *Mesh {
	const h = 0.5
	return &Mesh{
		Vertices: []Vec3{{-h, -h, 0}, {h, -h, 0}, {h, h, 0}, {-h, h, 0}},
		Indices:  []uint32{0, 1, 2, 0, 2, 3},
	}
}

// UVSphere returns a sphere of radius 0.5 with the given tessellation.
// stacks is clamped to at least 2 and slices to at least 3.
func UVSphere(stacks, slices int) *Mesh {
	stacks = max(stacks, 2)
	slices = max(slices, 3)

	m := &Mesh{}
	for i := 0; i <= stacks; i++ {
		phi := math32.Pi * float32(i) / float32(stacks)
		sp, cp := math32.Sincos(phi)
		for j := 0; j <= slices; j++ {
			theta := 2 * math32.Pi * float32(j) / float32(slices)
			st, ct := math32.Sincos(theta)
			m.Vertices = append(m.Vertices, Vec3{0.5 * sp * ct, 0.5 * cp, 0.5 * sp * st})
		}
	}

	row := uint32(slices + 1)
	for i := 0; i < stacks; i++ {
		for j := 0; j < slices; j++ {
			a := uint32(i)*row + uint32(j)
			b := a + row
			m.Indices = append(m.Indices, a, b, a+1, a+1, b, b+1)
		}
	}
	return m
}
