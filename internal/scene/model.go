package scene

import (
	"io"
	"math"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
)

// LoadModel reads a Wavefront OBJ file. See DecodeOBJ.
func LoadModel(path string) ([]Vertex, error) {
	meshFile, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open model")
	}
	defer meshFile.Close()

	vertices, err := DecodeOBJ(meshFile)
	if err != nil {
		return nil, errors.Wrapf(err, "load model %s", path)
	}
	return vertices, nil
}

// DecodeOBJ triangulates every face of an OBJ mesh and projects it onto the
// XY plane, centred and scaled to fit the unit square around the origin.
// Vertex colours come from the face normals when the mesh has them.
func DecodeOBJ(r io.Reader) ([]Vertex, error) {
	// Materials are not used; an empty library keeps the decoder from
	// looking for the mtllib file next to the mesh.
	decoder, err := obj.DecodeReader(r, strings.NewReader(""))
	if err != nil {
		return nil, errors.Wrap(err, "decode obj")
	}

	var vertices []Vertex
	for _, decodedObj := range decoder.Objects {
		for _, face := range decodedObj.Faces {
			// Fan triangulation.
			for i := 2; i < len(face.Vertices); i++ {
				for _, corner := range []int{0, i - 1, i} {
					v, err := objVertex(decoder, face, corner)
					if err != nil {
						return nil, err
					}
					vertices = append(vertices, v)
				}
			}
		}
	}

	if len(vertices) < 3 {
		return nil, errors.Newf("model has %d vertices, need at least one triangle", len(vertices))
	}

	normalize(vertices)
	return vertices, nil
}

func objVertex(decoder *obj.Decoder, face obj.Face, corner int) (Vertex, error) {
	vertInd := face.Vertices[corner]
	if vertInd < 0 || vertInd*3+2 >= len(decoder.Vertices) {
		return Vertex{}, errors.Newf("face references vertex %d of %d", vertInd, len(decoder.Vertices)/3)
	}

	v := Vertex{
		Position: mgl32.Vec2{decoder.Vertices[vertInd*3], decoder.Vertices[vertInd*3+1]},
		Color:    mgl32.Vec3{1, 1, 1},
	}

	if corner < len(face.Normals) {
		normInd := face.Normals[corner]
		if normInd >= 0 && normInd*3+2 < len(decoder.Normals) {
			v.Color = mgl32.Vec3{
				mgl32.Abs(decoder.Normals[normInd*3]),
				mgl32.Abs(decoder.Normals[normInd*3+1]),
				mgl32.Abs(decoder.Normals[normInd*3+2]),
			}
		}
	}

	return v, nil
}

func normalize(vertices []Vertex) {
	lo := vertices[0].Position
	hi := vertices[0].Position
	for _, v := range vertices[1:] {
		for axis := 0; axis < 2; axis++ {
			lo[axis] = float32(math.Min(float64(lo[axis]), float64(v.Position[axis])))
			hi[axis] = float32(math.Max(float64(hi[axis]), float64(v.Position[axis])))
		}
	}

	center := lo.Add(hi).Mul(0.5)
	size := hi.Sub(lo)
	scale := float32(1)
	if span := math.Max(float64(size[0]), float64(size[1])); span > 0 {
		scale = float32(1 / span)
	}

	for i := range vertices {
		vertices[i].Position = vertices[i].Position.Sub(center).Mul(scale)
	}
}
