package assets

import "github.com/go-gl/mathgl/mgl32"

// ComputeNormals derives smooth vertex normals for an indexed triangle
// list by summing area-weighted face normals at each vertex.
func ComputeNormals(positions []mgl32.Vec3, indices []uint32) []mgl32.Vec3 {
	normals := make([]mgl32.Vec3, len(positions))

	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		if int(a) >= len(positions) || int(b) >= len(positions) || int(c) >= len(positions) {
			continue
		}
		// Unnormalized cross product: magnitude is twice the triangle area.
		face := positions[b].Sub(positions[a]).Cross(positions[c].Sub(positions[a]))
		normals[a] = normals[a].Add(face)
		normals[b] = normals[b].Add(face)
		normals[c] = normals[c].Add(face)
	}

	for i, n := range normals {
		if n.Len() < 1e-12 {
			normals[i] = mgl32.Vec3{0, 1, 0}
			continue
		}
		normals[i] = n.Normalize()
	}
	return normals
}
