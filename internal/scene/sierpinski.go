package scene

// Sierpinski subdivides the triangle a, b, c into a Sierpinski triangle.
// Depth 1 returns the triangle itself; every further level replaces each
// triangle by its three corner triangles, so the result holds 3^(depth-1)
// triangles. Midpoints blend the colours of the corners they lie between.
func Sierpinski(depth int, a, b, c Vertex) []Vertex {
	if depth < 1 {
		depth = 1
	}

	triangles := [][3]Vertex{{a, b, c}}
	for level := 1; level < depth; level++ {
		next := make([][3]Vertex, 0, len(triangles)*3)
		for _, t := range triangles {
			m0 := midpoint(t[0], t[1])
			m1 := midpoint(t[1], t[2])
			m2 := midpoint(t[2], t[0])

			next = append(next,
				[3]Vertex{t[0], m0, m2},
				[3]Vertex{m0, t[1], m1},
				[3]Vertex{m2, m1, t[2]})
		}
		triangles = next
	}

	vertices := make([]Vertex, 0, len(triangles)*3)
	for _, t := range triangles {
		vertices = append(vertices, t[0], t[1], t[2])
	}
	return vertices
}

func midpoint(a, b Vertex) Vertex {
	return Vertex{
		Position: a.Position.Add(b.Position).Mul(0.5),
		Color:    a.Color.Add(b.Color).Mul(0.5),
	}
}
