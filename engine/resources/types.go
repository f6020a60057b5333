package resources

import (
	"fmt"
	"image"

	"github.com/google/uuid"
)

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	ResourceTypeNone ResourceType = iota
	/** @brief Text resource type. */
	ResourceTypeText
	/** @brief Binary resource type, e.g. precompiled SPIR-V. */
	ResourceTypeBinary
	/** @brief Image resource type. */
	ResourceTypeImage
	/** @brief Shader source resource type (WGSL or GLSL). */
	ResourceTypeShader
	/** @brief Bitmap font resource type. */
	ResourceTypeBitmapFont
	/** @brief Engine configuration. */
	ResourceTypeConfig
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeNone:
		return "none"
	case ResourceTypeText:
		return "text"
	case ResourceTypeBinary:
		return "binary"
	case ResourceTypeImage:
		return "image"
	case ResourceTypeShader:
		return "shader"
	case ResourceTypeBitmapFont:
		return "bitmap-font"
	case ResourceTypeConfig:
		return "config"
	}
	return fmt.Sprintf("ResourceType(%d)", int(t))
}

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	Type ResourceType
	/** @brief The name of the resource. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The size of the resource data in bytes. */
	DataSize uint64
	/** @brief The resource data, one of the *ResourceData types below or []byte. */
	Data interface{}
}

// NewLabel returns a unique debug label of the form "<kind>-<uuid>", used
// when callers create GPU resources without naming them.
func NewLabel(kind string) string {
	return kind + "-" + uuid.NewString()
}

/**
 * @brief A structure to hold image resource data, always RGBA8.
 */
type ImageResourceData struct {
	Width  uint32
	Height uint32
	Image  *image.RGBA
}

// Pixels returns the tightly packed RGBA rows.
func (d *ImageResourceData) Pixels() []byte {
	return d.Image.Pix
}

type ShaderLanguage int

const (
	ShaderLanguageWGSL ShaderLanguage = iota
	ShaderLanguageGLSL
	ShaderLanguageSPIRV
)

type ShaderResourceData struct {
	Language ShaderLanguage
	Source   []byte
}

type FontGlyph struct {
	Codepoint rune
	X, Y      uint16
	Width     uint16
	Height    uint16
	XOffset   int16
	YOffset   int16
	XAdvance  int16
	PageID    uint8
}

type FontKerning struct {
	Codepoint0 rune
	Codepoint1 rune
	Amount     int16
}

type BitmapFontPage struct {
	ID   int
	File string
}

// FontData is a bitmap font laid out for text rendering.
type FontData struct {
	Face       string
	Size       uint32
	LineHeight int32
	Baseline   int32
	AtlasSizeX int32
	AtlasSizeY int32
	Glyphs     map[rune]FontGlyph
	Kernings   map[[2]rune]int16
	Pages      []BitmapFontPage
}

// Kerning returns the horizontal adjustment between two codepoints.
func (f *FontData) Kerning(a, b rune) int16 {
	return f.Kernings[[2]rune{a, b}]
}
