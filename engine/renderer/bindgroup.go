package renderer

// BindGroupProvider describes a bind group layout and materializes the
// entries of one bind group for it. LayoutEntries depends only on the kind
// of resource, BindGroupEntries on its current values.
type BindGroupProvider interface {
	LayoutEntries() []BindGroupLayoutEntry
	BindGroupEntries() []BindGroupEntry
}

var textureLayoutEntries = []BindGroupLayoutEntry{
	{Binding: 0, Visibility: ShaderStageFragment, Type: BindingTypeTexture},
	{Binding: 1, Visibility: ShaderStageFragment, Type: BindingTypeSampler},
}

// TextureBinding binds a sampled texture at binding 0 and its sampler at
// binding 1, both visible to the fragment stage.
type TextureBinding struct {
	View    TextureView
	Sampler Sampler
}

func (TextureBinding) LayoutEntries() []BindGroupLayoutEntry {
	return textureLayoutEntries
}

func (b TextureBinding) BindGroupEntries() []BindGroupEntry {
	return []BindGroupEntry{
		{Binding: 0, TextureView: b.View},
		{Binding: 1, Sampler: b.Sampler},
	}
}

// UniformBinding binds a single uniform buffer at binding 0.
type UniformBinding struct {
	Buffer     Buffer
	Visibility ShaderStage
}

func (b UniformBinding) LayoutEntries() []BindGroupLayoutEntry {
	vis := b.Visibility
	if vis == 0 {
		vis = ShaderStageVertex
	}
	return []BindGroupLayoutEntry{{Binding: 0, Visibility: vis, Type: BindingTypeUniformBuffer}}
}

func (b UniformBinding) BindGroupEntries() []BindGroupEntry {
	return []BindGroupEntry{{Binding: 0, Buffer: b.Buffer}}
}
