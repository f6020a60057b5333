package testbed

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/tanema/gween/ease"

	"github.com/matms/mat-engine/engine"
	"github.com/matms/mat-engine/engine/assets"
	"github.com/matms/mat-engine/engine/core"
	"github.com/matms/mat-engine/engine/math"
	"github.com/matms/mat-engine/engine/renderer"
)

const (
	spriteCount = 200
	panSpeed    = 300 // world units per second
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	texture renderer.BindGroupKey
	ready   bool
	sprites []sprite
	// instances is rebuilt from sprites every frame
	instances []renderer.Instance
}

type sprite struct {
	position math.Vec2
	velocity math.Vec2
	size     float32
}

func NewTestGame() *TestGame {
	logLevel := core.DebugLevel
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: &engine.ApplicationConfig{
				Name:        "mat-engine testbed",
				ConfigPath:  "testbed/engine.toml",
				StartPosX:   100,
				StartPosY:   100,
				StartWidth:  1280,
				StartHeight: 720,
				LogLevel:    &logLevel,
				DebugFont:   "fonts/debug.fnt",
				// used when engine.toml enables glslc, the WGSL pair otherwise
				SpriteVertexShader:   "testbed/shaders/sprite.vert",
				SpriteFragmentShader: "testbed/shaders/sprite.frag",
			},
			State: &gameState{},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnEvent = tg.OnEvent
	tg.FnShutdown = tg.Shutdown
	return tg
}

func (g *TestGame) Initialize(ctx *engine.Context) error {
	core.LogDebug("TestGame Initialize fn....")
	state := g.State.(*gameState)

	// decode off the main thread, upload once the result is back
	path := ctx.Assets().Resolve("textures/sprite.png")
	err := ctx.Jobs().Submit(assets.Job{
		Name: "sprite texture",
		Run: func() (interface{}, error) {
			return spriteImage(path)
		},
		OnComplete: func(res interface{}) {
			key, err := ctx.Renderer2D().CreateTextureBindGroup(res.([]byte), "sprite")
			if err != nil {
				core.LogError("sprite texture: %s", err)
				return
			}
			state.texture = key
			state.ready = true
		},
	})
	if err != nil {
		return err
	}

	// a deterministic spread so runs are comparable
	state.sprites = make([]sprite, spriteCount)
	for i := range state.sprites {
		f := float32(i)
		state.sprites[i] = sprite{
			position: math.Vec2{X: f*37 - 3700, Y: f*23 - 2300},
			velocity: math.Vec2{X: 40 + float32(i%7)*15, Y: 30 + float32(i%5)*20},
			size:     16 + float32(i%4)*8,
		}
	}
	state.instances = make([]renderer.Instance, spriteCount)
	return nil
}

// spriteImage reads path, or draws a checkerboard when the file is missing.
func spriteImage(path string) ([]byte, error) {
	if data, err := os.ReadFile(filepath.Clean(path)); err == nil {
		return data, nil
	}
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			c := color.RGBA{R: 240, G: 120, B: 40, A: 255}
			if (x/4+y/4)%2 == 0 {
				c = color.RGBA{R: 40, G: 160, B: 220, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *TestGame) Update(ctx *engine.Context) error {
	state := g.State.(*gameState)
	in := ctx.Input()
	cam := ctx.Camera()
	dt := ctx.Chrono().DeltaSeconds()

	if in.IsKeyPressed(core.KEY_ESCAPE) {
		ctx.QueueQuit()
		return nil
	}

	var pan math.Vec2
	if in.IsKeyDown(core.KEY_LEFT) {
		pan.X -= 1
	}
	if in.IsKeyDown(core.KEY_RIGHT) {
		pan.X += 1
	}
	if in.IsKeyDown(core.KEY_UP) {
		pan.Y += 1
	}
	if in.IsKeyDown(core.KEY_DOWN) {
		pan.Y -= 1
	}
	if pan.X != 0 || pan.Y != 0 {
		step := panSpeed * dt / cam.Scale()
		cam.TranslatePosition(math.Vec2{X: pan.X * step, Y: pan.Y * step})
	}
	if in.IsKeyPressed(core.KEY_PLUS) || in.IsKeyPressed(core.KEY_ADD) {
		cam.MulScale(1.25)
	}
	if in.IsKeyPressed(core.KEY_MINUS) || in.IsKeyPressed(core.KEY_SUBTRACT) {
		cam.MulScale(0.8)
	}
	if in.IsKeyPressed(core.KEY_SPACE) {
		cam.ScrollTo(math.Vec2{}, 0.75, ease.OutCubic)
	}
	if in.IsButtonPressed(core.BUTTON_LEFT) {
		if x, y, ok := in.CursorPosition(); ok {
			target := cam.ScreenToWorld(math.Vec2{X: float32(x), Y: float32(y)})
			cam.ScrollTo(target, 0.5, ease.InOutQuad)
		}
	}

	for i := range state.sprites {
		s := &state.sprites[i]
		s.position.X += s.velocity.X * dt
		s.position.Y += s.velocity.Y * dt
		if s.position.X > 4000 || s.position.X < -4000 {
			s.velocity.X = -s.velocity.X
		}
		if s.position.Y > 2500 || s.position.Y < -2500 {
			s.velocity.Y = -s.velocity.Y
		}
		state.instances[i] = renderer.Instance{
			Position: s.position,
			Scale:    math.Vec2{X: s.size, Y: s.size},
		}
	}
	return nil
}

func (g *TestGame) Render(ctx *engine.Context) error {
	state := g.State.(*gameState)
	cam := ctx.Camera()
	if !state.ready {
		return nil
	}
	if err := ctx.Renderer2D().DrawSprites(ctx.Frame(), cam.BindGroup(), state.texture, state.instances); err != nil {
		return err
	}

	pos := cam.Position()
	ctx.Debug().Debug(func(ui *renderer.DebugUI) {
		ui.Text("frame %d", ctx.Chrono().FrameNumber())
		ui.Text("camera (%.1f, %.1f) x%.2f", pos.X, pos.Y, cam.Scale())
		ui.Text("sprites %d", len(state.instances))
	})
	return nil
}

func (g *TestGame) OnEvent(ctx *engine.Context, ev core.Event) {
	if ev.Kind == core.EventWindowResize {
		core.LogDebug("testbed sees %s", ev)
	}
}

func (g *TestGame) Shutdown(ctx *engine.Context) error {
	core.LogInfo("testbed ran %d frames", ctx.Rendering().FramesCompleted())
	return nil
}
