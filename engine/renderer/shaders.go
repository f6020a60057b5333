package renderer

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gogpu/naga"

	"github.com/matms/mat-engine/engine/assets"
	"github.com/matms/mat-engine/engine/assets/loaders"
	"github.com/matms/mat-engine/engine/core"
	"github.com/matms/mat-engine/engine/resources"
)

const (
	DefaultVertexEntry   = "vs_main"
	DefaultFragmentEntry = "fs_main"
)

// Shader is one programmable stage, either as source or as compiled SPIR-V.
type Shader struct {
	Name       string
	Stage      ShaderStage
	Language   resources.ShaderLanguage
	Source     string
	SPIRV      []byte
	EntryPoint string
}

func NewWGSLShader(name string, stage ShaderStage, source string) *Shader {
	return &Shader{
		Name:       name,
		Stage:      stage,
		Language:   resources.ShaderLanguageWGSL,
		Source:     source,
		EntryPoint: defaultEntry(stage),
	}
}

func NewSPIRVShader(name string, stage ShaderStage, code []byte) *Shader {
	return &Shader{
		Name:       name,
		Stage:      stage,
		Language:   resources.ShaderLanguageSPIRV,
		SPIRV:      code,
		EntryPoint: "main",
	}
}

// LoadShader reads a shader file, picking the language from its extension.
func LoadShader(path string, stage ShaderStage) (*Shader, error) {
	data, err := assets.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	switch loaders.ShaderLanguageFromPath(path) {
	case resources.ShaderLanguageSPIRV:
		if _, err := loaders.BytesToBytecode(data); err != nil {
			return nil, fmt.Errorf("%w: %s: %s", core.ErrShaderCompilation, name, err)
		}
		return NewSPIRVShader(name, stage, data), nil
	case resources.ShaderLanguageGLSL:
		return &Shader{
			Name:       name,
			Stage:      stage,
			Language:   resources.ShaderLanguageGLSL,
			Source:     string(data),
			EntryPoint: "main",
		}, nil
	}
	return NewWGSLShader(name, stage, string(data)), nil
}

func defaultEntry(stage ShaderStage) string {
	if stage == ShaderStageFragment {
		return DefaultFragmentEntry
	}
	return DefaultVertexEntry
}

// ShaderCompiler turns shader source into SPIR-V bytecode.
type ShaderCompiler interface {
	Compile(s *Shader) ([]byte, error)
}

// NagaCompiler compiles WGSL to SPIR-V in process.
type NagaCompiler struct{}

func (NagaCompiler) Compile(s *Shader) ([]byte, error) {
	if s.Language != resources.ShaderLanguageWGSL {
		return nil, fmt.Errorf("%w: %s: naga only compiles WGSL", core.ErrShaderCompilation, s.Name)
	}
	spirv, err := naga.Compile(s.Source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", core.ErrShaderCompilation, s.Name, err)
	}
	return spirv, nil
}

// GLSLCompiler runs the external glslc tool.
type GLSLCompiler struct {
	// Path to glslc, looked up in PATH when empty.
	Path string
}

func (c GLSLCompiler) Compile(s *Shader) ([]byte, error) {
	if s.Language != resources.ShaderLanguageGLSL {
		return nil, fmt.Errorf("%w: %s: glslc only compiles GLSL", core.ErrShaderCompilation, s.Name)
	}
	ext := ".vert"
	if s.Stage == ShaderStageFragment {
		ext = ".frag"
	}
	if e := filepath.Ext(s.Name); e != "" && e != ".glsl" && e != ext {
		core.LogWarn("shader %s has extension %s but is compiled as a %s stage", s.Name, e, ext[1:])
	}

	dir, err := os.MkdirTemp("", "mat-engine-glslc")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	src := filepath.Join(dir, "shader"+ext)
	out := filepath.Join(dir, "shader.spv")
	if err := os.WriteFile(src, []byte(s.Source), 0o600); err != nil {
		return nil, err
	}

	bin := c.Path
	if bin == "" {
		bin = "glslc"
	}
	var b bytes.Buffer
	cmd := exec.Command(bin, src, "-o", out)
	cmd.Stdout = &b
	cmd.Stderr = &b
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", core.ErrShaderCompilation, s.Name, strings.TrimSpace(b.String()))
	}
	return os.ReadFile(out)
}

// NewShaderCompiler returns the GLSL compiler a config names. "none" and the
// empty name yield nil, leaving GLSL shaders unsupported.
func NewShaderCompiler(name, path string) (ShaderCompiler, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return nil, nil
	case "glslc":
		return GLSLCompiler{Path: path}, nil
	}
	return nil, fmt.Errorf("%w: unknown shader compiler %q", core.ErrInvalidConfig, name)
}

// compileForDevice returns the descriptor the device needs for s. WGSL is
// handed to the device as source, after validator has accepted it when one is
// set. GLSL goes through compiler first.
func compileForDevice(s *Shader, compiler, validator ShaderCompiler) (ShaderModuleDescriptor, error) {
	desc := ShaderModuleDescriptor{Label: s.Name}
	switch s.Language {
	case resources.ShaderLanguageWGSL:
		if strings.TrimSpace(s.Source) == "" {
			return desc, fmt.Errorf("%w: %s: empty source", core.ErrShaderCompilation, s.Name)
		}
		if validator != nil {
			if _, err := validator.Compile(s); err != nil {
				return desc, err
			}
		}
		desc.WGSL = s.Source
	case resources.ShaderLanguageSPIRV:
		if len(s.SPIRV) == 0 || len(s.SPIRV)%4 != 0 {
			return desc, fmt.Errorf("%w: %s: malformed SPIR-V", core.ErrShaderCompilation, s.Name)
		}
		desc.SPIRV = s.SPIRV
	case resources.ShaderLanguageGLSL:
		if compiler == nil {
			return desc, fmt.Errorf("%w: %s: no GLSL compiler configured", core.ErrShaderCompilation, s.Name)
		}
		code, err := compiler.Compile(s)
		if err != nil {
			return desc, err
		}
		desc.SPIRV = code
	}
	return desc, nil
}
