// Package geom holds the static quad and the per-frame uniform data.
package geom

import (
	"time"
	"unsafe"

	mgl32 "github.com/go-gl/mathgl/mgl32"
	"github.com/vulkan-go/vulkan"
)

type Vertex struct {
	Pos   mgl32.Vec3
	Color mgl32.Vec3
}

var QuadVertices = [...]Vertex{
	{Pos: mgl32.Vec3{-0.5, -0.5, 0}, Color: mgl32.Vec3{1, 0, 0}},
	{Pos: mgl32.Vec3{0.5, -0.5, 0}, Color: mgl32.Vec3{0, 1, 0}},
	{Pos: mgl32.Vec3{0.5, 0.5, 0}, Color: mgl32.Vec3{0, 0, 1}},
	{Pos: mgl32.Vec3{-0.5, 0.5, 0}, Color: mgl32.Vec3{1, 1, 1}},
}

var QuadIndices = [...]uint16{0, 1, 2, 2, 3, 0}

const IndexType = vulkan.IndexTypeUint16

func BindingDescription() vulkan.VertexInputBindingDescription {
	return vulkan.VertexInputBindingDescription{
		Binding:   0,
		Stride:    uint32(unsafe.Sizeof(Vertex{})),
		InputRate: vulkan.VertexInputRateVertex,
	}
}

func AttributeDescriptions() []vulkan.VertexInputAttributeDescription {
	return []vulkan.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: vulkan.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(Vertex{}.Pos))},
		{Location: 1, Binding: 0, Format: vulkan.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(Vertex{}.Color))},
	}
}

type UniformBufferObject struct {
	Model mgl32.Mat4
	View  mgl32.Mat4
	Proj  mgl32.Mat4
}

// degreesPerSecond is how fast the quad spins around Z.
const degreesPerSecond = 90

// NewUniform computes the transforms for a frame drawn elapsed after start
// into a target with the given aspect ratio.
func NewUniform(elapsed time.Duration, aspect float32) UniformBufferObject {
	angle := float32(elapsed.Seconds()) * mgl32.DegToRad(degreesPerSecond)
	proj := mgl32.Perspective(mgl32.DegToRad(45), aspect, 0.1, 10.0)
	proj[5] *= -1 // Vulkan clip space has Y pointing down.

	return UniformBufferObject{
		Model: mgl32.HomogRotate3D(angle, mgl32.Vec3{0, 0, 1}),
		View: mgl32.LookAtV(
			mgl32.Vec3{2, 2, 2},
			mgl32.Vec3{0, 0, 0},
			mgl32.Vec3{0, 0, 1},
		),
		Proj: proj,
	}
}

func VertexBytes(verts []Vertex) []byte {
	if len(verts) == 0 {
		return nil
	}
	size := len(verts) * int(unsafe.Sizeof(Vertex{}))
	return unsafe.Slice((*byte)(unsafe.Pointer(&verts[0])), size)
}

func IndexBytes(idxs []uint16) []byte {
	if len(idxs) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&idxs[0])), len(idxs)*2)
}

func UniformBytes(ubo *UniformBufferObject) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(ubo)), unsafe.Sizeof(*ubo))
}
