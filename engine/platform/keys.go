package platform

import (
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/matms/mat-engine/engine/core"
)

var keyTable = map[glfw.Key]core.KeyCode{
	glfw.KeyBackspace:    core.KEY_BACKSPACE,
	glfw.KeyEnter:        core.KEY_ENTER,
	glfw.KeyTab:          core.KEY_TAB,
	glfw.KeyPause:        core.KEY_PAUSE,
	glfw.KeyCapsLock:     core.KEY_CAPITAL,
	glfw.KeyEscape:       core.KEY_ESCAPE,
	glfw.KeySpace:        core.KEY_SPACE,
	glfw.KeyPageUp:       core.KEY_PRIOR,
	glfw.KeyPageDown:     core.KEY_NEXT,
	glfw.KeyEnd:          core.KEY_END,
	glfw.KeyHome:         core.KEY_HOME,
	glfw.KeyLeft:         core.KEY_LEFT,
	glfw.KeyUp:           core.KEY_UP,
	glfw.KeyRight:        core.KEY_RIGHT,
	glfw.KeyDown:         core.KEY_DOWN,
	glfw.KeyPrintScreen:  core.KEY_SNAPSHOT,
	glfw.KeyInsert:       core.KEY_INSERT,
	glfw.KeyDelete:       core.KEY_DELETE,
	glfw.KeyLeftSuper:    core.KEY_LWIN,
	glfw.KeyRightSuper:   core.KEY_RWIN,
	glfw.KeyMenu:         core.KEY_APPS,
	glfw.KeyKPMultiply:   core.KEY_MULTIPLY,
	glfw.KeyKPAdd:        core.KEY_ADD,
	glfw.KeyKPSubtract:   core.KEY_SUBTRACT,
	glfw.KeyKPDecimal:    core.KEY_DECIMAL,
	glfw.KeyKPDivide:     core.KEY_DIVIDE,
	glfw.KeyKPEqual:      core.KEY_NUMPAD_EQUAL,
	glfw.KeyKPEnter:      core.KEY_ENTER,
	glfw.KeyNumLock:      core.KEY_NUMLOCK,
	glfw.KeyScrollLock:   core.KEY_SCROLL,
	glfw.KeyLeftShift:    core.KEY_LSHIFT,
	glfw.KeyRightShift:   core.KEY_RSHIFT,
	glfw.KeyLeftControl:  core.KEY_LCONTROL,
	glfw.KeyRightControl: core.KEY_RCONTROL,
	glfw.KeyLeftAlt:      core.KEY_LMENU,
	glfw.KeyRightAlt:     core.KEY_RMENU,
	glfw.KeySemicolon:    core.KEY_SEMICOLON,
	glfw.KeyEqual:        core.KEY_PLUS,
	glfw.KeyComma:        core.KEY_COMMA,
	glfw.KeyMinus:        core.KEY_MINUS,
	glfw.KeyPeriod:       core.KEY_PERIOD,
	glfw.KeySlash:        core.KEY_SLASH,
	glfw.KeyGraveAccent:  core.KEY_GRAVE,
}

// translateKey maps a glfw key to the engine key code. Letters, function
// keys and the keypad digits are contiguous in both tables.
func translateKey(key glfw.Key) (core.KeyCode, bool) {
	switch {
	case key >= glfw.KeyA && key <= glfw.KeyZ:
		return core.KEY_A + core.KeyCode(key-glfw.KeyA), true
	case key >= glfw.KeyF1 && key <= glfw.KeyF24:
		return core.KEY_F1 + core.KeyCode(key-glfw.KeyF1), true
	case key >= glfw.KeyKP0 && key <= glfw.KeyKP9:
		return core.KEY_NUMPAD0 + core.KeyCode(key-glfw.KeyKP0), true
	}
	code, ok := keyTable[key]
	return code, ok
}
