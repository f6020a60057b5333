package renderer_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matms/mat-engine/engine/core"
	"github.com/matms/mat-engine/engine/renderer"
	"github.com/matms/mat-engine/engine/resources"
)

// fakeGLSLC writes an executable standing in for glslc. glslc is invoked as
// "glslc <src> -o <out>", so the script sees the output path as $3.
func fakeGLSLC(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(t.TempDir(), "glslc")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func glslShader(name string, stage renderer.ShaderStage) *renderer.Shader {
	return &renderer.Shader{
		Name:       name,
		Stage:      stage,
		Language:   resources.ShaderLanguageGLSL,
		Source:     glslVertex,
		EntryPoint: "main",
	}
}

func TestGLSLCompilerReturnsOutput(t *testing.T) {
	bin := fakeGLSLC(t, `printf 'SPV!' > "$3"`)

	code, err := renderer.GLSLCompiler{Path: bin}.Compile(glslShader("sprite.vert", renderer.ShaderStageVertex))
	require.NoError(t, err)
	assert.Equal(t, []byte("SPV!"), code)
}

func TestGLSLCompilerReportsDiagnostics(t *testing.T) {
	bin := fakeGLSLC(t, `echo "$1:3: error: 'positon' : undeclared identifier" >&2
exit 1
`)

	_, err := renderer.GLSLCompiler{Path: bin}.Compile(glslShader("sprite.vert", renderer.ShaderStageVertex))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrShaderCompilation)
	assert.Contains(t, err.Error(), "sprite.vert")
	assert.Contains(t, err.Error(), "undeclared identifier")
}

func TestGLSLCompilerMissingBinary(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "no-glslc")

	_, err := renderer.GLSLCompiler{Path: bin}.Compile(glslShader("sprite.frag", renderer.ShaderStageFragment))
	assert.ErrorIs(t, err, core.ErrShaderCompilation)
}

func TestGLSLCompilerRejectsWGSL(t *testing.T) {
	vs, _ := testShaders()

	_, err := renderer.GLSLCompiler{}.Compile(vs)
	assert.ErrorIs(t, err, core.ErrShaderCompilation)
}

func TestNewShaderCompiler(t *testing.T) {
	c, err := renderer.NewShaderCompiler("none", "")
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = renderer.NewShaderCompiler("GLSLC", "/usr/bin/glslc")
	require.NoError(t, err)
	assert.Equal(t, renderer.GLSLCompiler{Path: "/usr/bin/glslc"}, c)

	_, err = renderer.NewShaderCompiler("dxc", "")
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestLoadShaderPicksLanguageFromExtension(t *testing.T) {
	dir := t.TempDir()
	vert := filepath.Join(dir, "sprite.vert")
	wgsl := filepath.Join(dir, "sprite.wgsl")
	require.NoError(t, os.WriteFile(vert, []byte(glslVertex), 0o644))
	require.NoError(t, os.WriteFile(wgsl, []byte("@vertex fn vs_main() {}"), 0o644))

	sh, err := renderer.LoadShader(vert, renderer.ShaderStageVertex)
	require.NoError(t, err)
	assert.Equal(t, resources.ShaderLanguageGLSL, sh.Language)
	assert.Equal(t, "main", sh.EntryPoint)

	sh, err = renderer.LoadShader(wgsl, renderer.ShaderStageVertex)
	require.NoError(t, err)
	assert.Equal(t, resources.ShaderLanguageWGSL, sh.Language)
	assert.Equal(t, renderer.DefaultVertexEntry, sh.EntryPoint)
}
