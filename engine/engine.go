package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/matms/mat-engine/engine/assets"
	"github.com/matms/mat-engine/engine/core"
	"github.com/matms/mat-engine/engine/platform"
	"github.com/matms/mat-engine/engine/renderer"
	"github.com/matms/mat-engine/engine/renderer/components"
	"github.com/matms/mat-engine/engine/renderer/vulkan"
	"github.com/matms/mat-engine/engine/renderer/webgpu"
	"github.com/matms/mat-engine/engine/resources"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released everything
	EngineStageShutdown
)

type Engine struct {
	id           uuid.UUID
	currentStage Stage
	gameInstance *Game

	config  *core.Config
	watcher *core.ConfigWatcher

	window    *platform.Window
	backend   *webgpu.Backend
	rendering *renderer.Rendering
	r2d       *renderer.Renderer2D
	camera    *components.Camera2D
	debugUI   *renderer.DebugUI
	// nil unless [renderer] shader_compiler names one
	shaderCompiler renderer.ShaderCompiler

	input     *core.Input
	chrono    *core.Chrono
	metrics   *core.Metrics
	events    *core.EventBus
	sequencer *Sequencer
	assets    *assets.AssetManager
	jobs      *assets.JobSystem

	ctx *Context

	// set from other goroutines, e.g. a signal handler
	quitRequested atomic.Bool
	// true while Run may be blocked in the window's event wait
	running atomic.Bool
}

// suspendedWait bounds each event wait while rendering is suspended, so jobs
// and config reloads still make progress.
const suspendedWait = 100 * time.Millisecond

type eventPump interface {
	PollEvents()
	WaitEvents(timeout time.Duration)
}

// pumpEvents polls for window events. While suspended nothing presents, so
// it blocks instead to keep the loop from spinning.
func pumpEvents(w eventPump, suspended bool) {
	if suspended {
		w.WaitEvents(suspendedWait)
		return
	}
	w.PollEvents()
}

func New(g *Game) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		return nil, fmt.Errorf("%w: game has no application config", core.ErrInvalidConfig)
	}
	return &Engine{
		id:           uuid.New(),
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		input:        core.NewInput(),
		chrono:       core.NewChrono(),
		metrics:      core.NewMetrics(),
		events:       core.NewEventBus(),
		debugUI:      renderer.NewDebugUI(),
	}, nil
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

// Initialize loads the configuration, opens the window, acquires the GPU and
// builds the renderer. It blocks until the device is ready.
func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("engine already initialized")
	}
	e.currentStage = EngineStageInitializing
	ac := e.gameInstance.ApplicationConfig

	cfg := core.DefaultConfig()
	if ac.ConfigPath != "" {
		var err error
		if cfg, err = core.LoadConfig(ac.ConfigPath); err != nil {
			return err
		}
	}
	ac.applyStartup(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.config = cfg
	core.SetLogLevel(cfg.LogLevel())
	core.LogInfo("engine %s starting %q", e.id, cfg.Window.Title)

	if ac.ConfigPath != "" {
		w, err := core.WatchConfig(ac.ConfigPath)
		if err != nil {
			core.LogWarn("config hot reload disabled: %s", err)
		} else {
			e.watcher = w
		}
	}

	window, err := platform.NewWindow(platform.WindowConfig{
		Title:  cfg.Window.Title,
		X:      cfg.Window.X,
		Y:      cfg.Window.Y,
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
	})
	if err != nil {
		return err
	}
	e.window = window

	if err := e.initRenderer(); err != nil {
		return err
	}

	e.assets = assets.NewAssetManager(cfg.Assets.Root)
	if err := e.assets.Initialize(cfg.Assets.Watch); err != nil {
		return err
	}
	if e.jobs, err = assets.NewJobSystem(runtime.NumCPU(), 64); err != nil {
		return err
	}
	if ac.DebugFont != "" {
		if err := e.loadDebugFont(ac.DebugFont); err != nil {
			// the overlay is optional
			core.LogWarn("debug overlay font %s: %s", ac.DebugFont, err)
		}
	}

	e.ctx = &Context{
		config:     cfg,
		window:     e.window,
		rendering:  e.rendering,
		renderer2d: e.r2d,
		camera:     e.camera,
		input:      e.input,
		chrono:     e.chrono,
		metrics:    e.metrics,
		events:     e.events,
		debug:      renderer.NewDebugQueue(),
		assets:     e.assets,
		jobs:       e.jobs,
	}
	e.sequencer = NewSequencer(e.events, e.chrono, SequencerHooks{
		Update:        e.update,
		Render:        e.render,
		RequestRedraw: e.window.RequestRedraw,
	})
	e.registerReceivers()
	e.window.SetCallbacks(platform.Callbacks{
		OnResize:      e.sequencer.WindowResized,
		OnKey:         e.input.ProcessKey,
		OnMouseButton: e.input.ProcessButton,
		OnCursorPos:   e.input.ProcessMouseMove,
		OnCursorEnter: e.input.ProcessCursorEnter,
		OnScroll:      e.input.ProcessMouseWheel,
	})

	if fn := e.gameInstance.FnInitialize; fn != nil {
		if err := fn(e.ctx); err != nil {
			return fmt.Errorf("game initialize: %w", err)
		}
	}
	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) initRenderer() error {
	cfg := e.config
	kind, err := renderer.ParseRendererType(cfg.Renderer.Backend)
	if err != nil {
		return err
	}
	if kind == renderer.Vulkan {
		core.LogWarn("the vulkan backend only probes devices, rendering with webgpu")
	}

	var probed *renderer.AdapterInfo
	if cfg.Renderer.ProbeVulkan || kind == renderer.Vulkan {
		probed = vulkan.LogProbe(cfg.Window.Title)
	}
	backend, err := webgpu.New(e.window.SurfaceDescriptor(), webgpu.Options{Label: cfg.Window.Title})
	if err != nil {
		return err
	}
	e.backend = backend
	if probed != nil && !probed.SameDevice(backend.Adapter()) {
		core.LogWarn("vulkan probe prefers %s, webgpu selected %s", probed, backend.Adapter())
	}

	compiler, err := renderer.NewShaderCompiler(cfg.Renderer.ShaderCompiler, cfg.Renderer.GLSLC)
	if err != nil {
		return err
	}
	e.shaderCompiler = compiler

	mode, err := presentMode(cfg.Renderer)
	if err != nil {
		return err
	}
	width, height := e.window.InnerSize()
	state, err := renderer.NewStateFromBackend(backend, width, height, renderer.StateOptions{
		PresentMode:    mode,
		ShaderCompiler: compiler,
		ValidateWGSL:   true,
	})
	if err != nil {
		return err
	}
	e.rendering = renderer.NewRendering(state, clearColor(cfg.Renderer))

	vs, fs, err := spriteShaders(e.gameInstance.ApplicationConfig, compiler)
	if err != nil {
		return err
	}
	if e.r2d, err = renderer.NewRenderer2D(state, vs, fs); err != nil {
		return err
	}
	if e.camera, err = components.NewCamera2D(state, e.r2d.CameraLayout(), width, height); err != nil {
		return err
	}
	return nil
}

// spriteShaders loads the application's sprite shaders. Both nil selects the
// built-in pair.
func spriteShaders(ac *ApplicationConfig, compiler renderer.ShaderCompiler) (*renderer.Shader, *renderer.Shader, error) {
	if ac.SpriteVertexShader == "" || ac.SpriteFragmentShader == "" {
		return nil, nil, nil
	}
	vs, err := renderer.LoadShader(ac.SpriteVertexShader, renderer.ShaderStageVertex)
	if err != nil {
		return nil, nil, err
	}
	fs, err := renderer.LoadShader(ac.SpriteFragmentShader, renderer.ShaderStageFragment)
	if err != nil {
		return nil, nil, err
	}
	glsl := vs.Language == resources.ShaderLanguageGLSL || fs.Language == resources.ShaderLanguageGLSL
	if glsl && compiler == nil {
		core.LogWarn("sprite shaders %s and %s are GLSL but no shader_compiler is configured, using the built-in ones",
			ac.SpriteVertexShader, ac.SpriteFragmentShader)
		return nil, nil, nil
	}
	return vs, fs, nil
}

func presentMode(rc core.RendererConfig) (renderer.PresentMode, error) {
	if rc.VSync {
		return renderer.PresentModeFifo, nil
	}
	return renderer.ParsePresentMode(rc.PresentMode)
}

func clearColor(rc core.RendererConfig) renderer.Color {
	c := rc.ClearColor
	return renderer.Color{R: c[0], G: c[1], B: c[2], A: c[3]}
}

// loadDebugFont loads a BMFont descriptor and its first page as the overlay
// atlas.
func (e *Engine) loadDebugFont(name string) error {
	res, err := e.assets.LoadAsset(name, nil)
	if err != nil {
		return err
	}
	font, ok := res.Data.(*resources.FontData)
	if !ok || len(font.Pages) == 0 {
		return fmt.Errorf("%s is not a bitmap font with pages", name)
	}
	atlasPath := filepath.Join(filepath.Dir(res.FullPath), font.Pages[0].File)
	atlas, err := assets.LoadImage(atlasPath)
	if err != nil {
		return err
	}
	return e.debugUI.AttachFont(e.r2d, font, atlas)
}

// registerReceivers subscribes the subsystems in the order they must observe
// each event: input first, the GPU side before the camera, the game last.
func (e *Engine) registerReceivers() {
	e.events.Register(e.input)
	e.events.Register(e.rendering)
	e.events.Register(e.r2d)
	e.events.Register(e.camera)
	if fn := e.gameInstance.FnOnEvent; fn != nil {
		e.events.Register(&gameReceiver{ctx: e.ctx, fn: fn})
	}
	if e.config.LogLevel() == core.DebugLevel {
		e.events.Register(core.DebugEventReceiver{})
	}
}

// Run drives frames until the window closes or the game asks to quit.
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine not initialized")
	}
	e.currentStage = EngineStageRunning
	core.LogInfo("engine %s running", e.id)
	e.running.Store(true)
	defer e.running.Store(false)

	for !e.window.ShouldClose() && !e.ctx.quit && !e.quitRequested.Load() {
		frameStart := time.Now()

		e.sequencer.NewEvents()
		pumpEvents(e.window, e.rendering.Suspended())
		e.applyConfigChanges()
		e.checkChangedAssets()

		if err := e.sequencer.MainEventsCleared(); err != nil {
			return err
		}
		if e.ctx.forceQuit {
			break
		}
		if e.window.TakeRedrawRequest() {
			if err := e.sequencer.RedrawRequested(); err != nil {
				return err
			}
		}
		e.metrics.Update(time.Since(frameStart))
	}
	return nil
}

func (e *Engine) update() error {
	e.jobs.Update()
	if fn := e.gameInstance.FnUpdate; fn != nil {
		if err := fn(e.ctx); err != nil {
			return err
		}
	}
	e.camera.Advance(e.chrono.DeltaSeconds())
	return nil
}

func (e *Engine) render() error {
	if e.ctx.forceQuit {
		return nil
	}
	if e.rendering.Suspended() {
		// nothing to draw into, still consume the frame's debug closures
		e.ctx.debug.Run(e.debugUI)
		e.debugUI.Reset()
		return nil
	}
	if err := e.camera.Update(); err != nil {
		return err
	}
	if err := e.rendering.StartRender(); err != nil {
		if errors.Is(err, core.ErrZeroSizeSurface) {
			return nil
		}
		return err
	}

	var renderErr error
	if fn := e.gameInstance.FnRender; fn != nil {
		renderErr = fn(e.ctx)
	}

	fps, ms := e.metrics.Frame()
	e.debugUI.Text("%.0f fps  %.2f ms", fps, ms)
	e.ctx.debug.Run(e.debugUI)
	if err := e.rendering.WithFrame(e.debugUI.Render); err != nil && renderErr == nil {
		renderErr = err
	}

	if err := e.rendering.CompleteRender(); err != nil {
		return err
	}
	return renderErr
}

func (e *Engine) applyConfigChanges() {
	if e.watcher == nil {
		return
	}
	cfg, ok := e.watcher.Poll()
	if !ok {
		return
	}
	e.gameInstance.ApplicationConfig.apply(cfg)
	core.SetLogLevel(cfg.LogLevel())
	e.rendering.SetClearColor(clearColor(cfg.Renderer))
	if mode, err := presentMode(cfg.Renderer); err == nil {
		if err := e.rendering.State().SetPresentMode(mode); err != nil {
			core.LogWarn("present mode %s: %s", mode, err)
		}
	}
	e.config = cfg
	e.ctx.config = cfg
	core.LogInfo("configuration reloaded")
}

// checkChangedAssets compiles shader files saved while running so shader
// errors show up in the log without a restart. GLSL is only checked when a
// compiler is configured.
func (e *Engine) checkChangedAssets() {
	for _, path := range e.assets.TakeChanged() {
		var compiler renderer.ShaderCompiler
		stage := renderer.ShaderStageVertex | renderer.ShaderStageFragment
		switch strings.ToLower(filepath.Ext(path)) {
		case ".wgsl":
			compiler = renderer.NagaCompiler{}
		case ".vert":
			compiler, stage = e.shaderCompiler, renderer.ShaderStageVertex
		case ".frag":
			compiler, stage = e.shaderCompiler, renderer.ShaderStageFragment
		}
		if compiler == nil {
			core.LogDebug("asset changed: %s", path)
			continue
		}
		sh, err := renderer.LoadShader(path, stage)
		if err == nil {
			_, err = compiler.Compile(sh)
		}
		if err != nil {
			core.LogError("shader %s: %s", path, err)
			continue
		}
		core.LogInfo("shader %s compiles", path)
	}
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	var errs []error
	if e.ctx != nil {
		if fn := e.gameInstance.FnShutdown; fn != nil {
			if err := fn(e.ctx); err != nil {
				errs = append(errs, fmt.Errorf("game shutdown: %w", err))
			}
		}
	}
	if e.jobs != nil {
		if err := e.jobs.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}
	if e.watcher != nil {
		if err := e.watcher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if e.assets != nil {
		if err := e.assets.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if e.backend != nil {
		var state *renderer.State
		if e.rendering != nil {
			state = e.rendering.State()
		}
		renderer.ReleaseGPU(state, e.backend)
	}
	if e.window != nil {
		e.window.Destroy()
	}
	e.currentStage = EngineStageShutdown
	core.LogInfo("engine %s shut down", e.id)
	return errors.Join(errs...)
}

// RequestQuit stops Run after the current frame. Safe to call from any
// goroutine.
func (e *Engine) RequestQuit() {
	e.quitRequested.Store(true)
	if e.running.Load() {
		platform.Wake()
	}
}

// GetFramebufferSize reports the window's inner size.
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.window.InnerSize()
}
