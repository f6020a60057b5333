package loaders

import (
	"os"
	"path/filepath"

	"github.com/matms/mat-engine/engine/resources"
)

type ShaderLoader struct{}

func (sl *ShaderLoader) Load(path string, params interface{}) (*resources.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &resources.Resource{
		Type:     resources.ResourceTypeShader,
		Name:     filepath.Base(path),
		FullPath: path,
		DataSize: uint64(len(data)),
		Data: &resources.ShaderResourceData{
			Language: ShaderLanguageFromPath(path),
			Source:   data,
		},
	}, nil
}

func (sl *ShaderLoader) Unload(res *resources.Resource) error {
	res.Data = nil
	return nil
}

// ShaderLanguageFromPath guesses the language from the file extension.
func ShaderLanguageFromPath(path string) resources.ShaderLanguage {
	switch filepath.Ext(path) {
	case ".vert", ".frag", ".glsl":
		return resources.ShaderLanguageGLSL
	case ".spv":
		return resources.ShaderLanguageSPIRV
	}
	return resources.ShaderLanguageWGSL
}
