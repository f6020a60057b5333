package math

// Vec2 represents a 2D vector
type Vec2 struct {
	X, Y float32
}

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 represents a 4D vector
type Vec4 struct {
	X, Y, Z, W float32
}

/**
 * @brief A 4x4 matrix stored column-major, the layout WGSL and the GPU
 * uniform buffers expect. Element (row, col) lives at Data[col*4+row].
 */
type Mat4 struct {
	Data [16]float32
}

/**
 * @brief Represents the extents of a 2d object.
 */
type Extents2D struct {
	/** @brief The minimum extents of the object. */
	Min Vec2
	/** @brief The maximum extents of the object. */
	Max Vec2
}
