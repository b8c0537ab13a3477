package scene

import (
	"bytes"
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
)

const (
	// pushConstantsSize is the std430 size of the shaders' push block.
	pushConstantsSize = 48
	pushStages        = core1_0.StageVertex | core1_0.StageFragment

	drawsPerFrame = 4
	framePeriod   = 100
)

// PushConstants mirrors the push_constant block in simple.vert and
// simple.frag. The blank fields are std430 padding.
type PushConstants struct {
	Transform mgl32.Mat2
	Offset    mgl32.Vec2
	_         [2]float32
	Color     mgl32.Vec3
	_         float32
}

// Bytes encodes p in the layout the shaders read.
func (p PushConstants) Bytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Grow(pushConstantsSize)
	if err := binary.Write(buf, common.ByteOrder, p); err != nil {
		return nil, errors.Wrap(err, "encode push constants")
	}
	return buf.Bytes(), nil
}

// pushConstantsFor is draw i of animation frame. Every draw slides right as
// the frame advances and sits a row lower and bluer than the draw before.
func pushConstantsFor(frame, i int) PushConstants {
	return PushConstants{
		Transform: mgl32.Ident2(),
		Offset:    mgl32.Vec2{-0.4 + float32(frame)*0.02, -0.4 + float32(i)*0.25},
		Color:     mgl32.Vec3{0, 0, 0.1 * float32(i)},
	}
}
