package scene

import (
	"log/slog"

	"github.com/cockroachdb/errors"
)

type Config struct {
	VertexShader   string
	FragmentShader string

	// Model is an OBJ file to draw instead of the built-in triangle.
	Model string
	// Sierpinski subdivides the built-in triangle to this depth when
	// greater than one. Ignored when Model is set.
	Sierpinski int

	Logger *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		VertexShader:   "shaders/simple.vert.spv",
		FragmentShader: "shaders/simple.frag.spv",
		Logger:         slog.Default(),
	}
}

// maxSierpinski keeps the vertex count at 3^11 triangles or fewer.
const maxSierpinski = 12

// Vertices builds the vertex list cfg asks for.
func Vertices(cfg Config) ([]Vertex, error) {
	switch {
	case cfg.Model != "":
		return LoadModel(cfg.Model)
	case cfg.Sierpinski > maxSierpinski:
		return nil, errors.Newf("sierpinski depth %d exceeds %d", cfg.Sierpinski, maxSierpinski)
	case cfg.Sierpinski > 1:
		return Sierpinski(cfg.Sierpinski, Triangle[0], Triangle[1], Triangle[2]), nil
	default:
		return Triangle, nil
	}
}
