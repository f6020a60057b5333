package core

import (
	"errors"
)

var (
	ErrAdapterUnavailable = errors.New("no compatible graphics adapter")
	ErrDeviceUnavailable  = errors.New("graphics device could not be acquired")
	ErrShaderCompilation  = errors.New("shader compilation failed")
	ErrUnsupportedImage   = errors.New("unsupported image format")
	ErrSurfaceLost        = errors.New("presentation surface lost or outdated")
	ErrZeroSizeSurface    = errors.New("surface dimensions must be greater than zero")
	ErrPipelineNotFound   = errors.New("pipeline does not exist")
	ErrBindGroupNotFound  = errors.New("bind group does not exist")
	ErrTextureNotFound    = errors.New("texture does not exist")
	ErrMissingLayout      = errors.New("required layout is missing")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrUnknown            = errors.New("unknown")
)
