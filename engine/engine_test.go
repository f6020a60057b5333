package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matms/mat-engine/engine/core"
	"github.com/matms/mat-engine/engine/renderer"
	"github.com/matms/mat-engine/engine/renderer/gputest"
	"github.com/matms/mat-engine/engine/resources"
)

type pumpStub struct {
	polls int
	waits []time.Duration
}

func (p *pumpStub) PollEvents() { p.polls++ }

func (p *pumpStub) WaitEvents(timeout time.Duration) { p.waits = append(p.waits, timeout) }

func TestPumpEventsPollsWhileRendering(t *testing.T) {
	w := &pumpStub{}

	pumpEvents(w, false)
	pumpEvents(w, false)
	assert.Equal(t, 2, w.polls)
	assert.Empty(t, w.waits)
}

func TestPumpEventsBlocksWhileSuspended(t *testing.T) {
	w := &pumpStub{}

	pumpEvents(w, true)
	assert.Zero(t, w.polls)
	assert.Equal(t, []time.Duration{suspendedWait}, w.waits)
}

// A zero-size resize suspends rendering, and every later frame must take the
// blocking path until the window has an area again.
func TestSuspendedRenderingSelectsBlockingPump(t *testing.T) {
	b := gputest.NewBackend()
	state, err := renderer.NewStateFromBackend(b, 640, 480, renderer.StateOptions{})
	require.NoError(t, err)
	rendering := renderer.NewRendering(state, renderer.Color{})
	w := &pumpStub{}

	rendering.ReceiveEvent(core.NewWindowResizeEvent(0, 0))
	for i := 0; i < 3; i++ {
		pumpEvents(w, rendering.Suspended())
	}
	assert.Len(t, w.waits, 3)
	assert.Zero(t, w.polls)

	rendering.ReceiveEvent(core.NewWindowResizeEvent(640, 480))
	pumpEvents(w, rendering.Suspended())
	assert.Equal(t, 1, w.polls)
}

func TestApplyStartupSetsLogLevel(t *testing.T) {
	level := core.DebugLevel
	ac := &ApplicationConfig{Name: "sandbox", StartWidth: 800, LogLevel: &level}
	cfg := core.DefaultConfig()

	ac.applyStartup(cfg)
	assert.Equal(t, "sandbox", cfg.Window.Title)
	assert.Equal(t, uint32(800), cfg.Window.Width)
	assert.Equal(t, core.DebugLevel, cfg.LogLevel())
}

func TestApplyOnReloadKeepsConfiguredLogLevel(t *testing.T) {
	level := core.DebugLevel
	ac := &ApplicationConfig{Name: "sandbox", LogLevel: &level}

	reloaded, err := core.ParseConfig([]byte("[log]\nlevel = \"warn\"\n"))
	require.NoError(t, err)
	ac.apply(reloaded)
	assert.Equal(t, "sandbox", reloaded.Window.Title)
	assert.Equal(t, core.WarnLevel, reloaded.LogLevel())
}

func writeSpriteShaders(t *testing.T, ext [2]string) *ApplicationConfig {
	t.Helper()
	dir := t.TempDir()
	vert := filepath.Join(dir, "sprite"+ext[0])
	frag := filepath.Join(dir, "sprite"+ext[1])
	require.NoError(t, os.WriteFile(vert, []byte("#version 450\nvoid main() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(frag, []byte("#version 450\nvoid main() {}\n"), 0o644))
	return &ApplicationConfig{SpriteVertexShader: vert, SpriteFragmentShader: frag}
}

func TestSpriteShadersDefaultToBuiltIn(t *testing.T) {
	vs, fs, err := spriteShaders(&ApplicationConfig{}, nil)
	require.NoError(t, err)
	assert.Nil(t, vs)
	assert.Nil(t, fs)
}

func TestSpriteShadersLoadGLSLWithCompiler(t *testing.T) {
	ac := writeSpriteShaders(t, [2]string{".vert", ".frag"})

	vs, fs, err := spriteShaders(ac, &gputest.Compiler{})
	require.NoError(t, err)
	require.NotNil(t, vs)
	require.NotNil(t, fs)
	assert.Equal(t, resources.ShaderLanguageGLSL, vs.Language)
	assert.Equal(t, renderer.ShaderStageVertex, vs.Stage)
	assert.Equal(t, renderer.ShaderStageFragment, fs.Stage)
}

func TestSpriteShadersGLSLWithoutCompilerFallsBack(t *testing.T) {
	ac := writeSpriteShaders(t, [2]string{".vert", ".frag"})

	vs, fs, err := spriteShaders(ac, nil)
	require.NoError(t, err)
	assert.Nil(t, vs)
	assert.Nil(t, fs)
}

func TestSpriteShadersMissingFile(t *testing.T) {
	ac := &ApplicationConfig{
		SpriteVertexShader:   filepath.Join(t.TempDir(), "missing.vert"),
		SpriteFragmentShader: filepath.Join(t.TempDir(), "missing.frag"),
	}

	_, _, err := spriteShaders(ac, &gputest.Compiler{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// The configured GLSL pair builds the sprite pipeline through the compiler.
func TestGLSLSpriteShadersBuildRenderer2D(t *testing.T) {
	ac := writeSpriteShaders(t, [2]string{".vert", ".frag"})
	compiler := &gputest.Compiler{Code: []byte{0x03, 0x02, 0x23, 0x07}}
	b := gputest.NewBackend()
	state, err := renderer.NewStateFromBackend(b, 640, 480, renderer.StateOptions{ShaderCompiler: compiler})
	require.NoError(t, err)

	vs, fs, err := spriteShaders(ac, compiler)
	require.NoError(t, err)
	_, err = renderer.NewRenderer2D(state, vs, fs)
	require.NoError(t, err)
	assert.Equal(t, []string{"sprite.vert", "sprite.frag"}, compiler.Compiled)
}
