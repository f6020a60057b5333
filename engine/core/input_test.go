package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInputKeyPressedOnlyOnChangeFrame(t *testing.T) {
	in := NewInput()
	in.ReceiveEvent(Event{Kind: EventStart})

	assert.False(t, in.IsKeyDown(KEY_A))
	assert.True(t, in.IsKeyUp(KEY_A))

	in.ProcessKey(KEY_A, true, Modifiers{})
	assert.True(t, in.IsKeyDown(KEY_A))
	assert.True(t, in.IsKeyPressed(KEY_A))

	in.ReceiveEvent(Event{Kind: EventStart})
	assert.True(t, in.IsKeyDown(KEY_A))
	assert.False(t, in.IsKeyPressed(KEY_A))

	// repeats do not move the change frame
	in.ProcessKey(KEY_A, true, Modifiers{})
	assert.False(t, in.IsKeyPressed(KEY_A))

	in.ProcessKey(KEY_A, false, Modifiers{})
	assert.True(t, in.IsKeyReleased(KEY_A))
	assert.False(t, in.IsKeyDown(KEY_A))

	in.StartNewFrame()
	assert.False(t, in.IsKeyReleased(KEY_A))
}

func TestInputIgnoresUnknownKeys(t *testing.T) {
	in := NewInput()
	in.ProcessKey(KEYS_MAX_KEYS+1, true, Modifiers{})
	assert.False(t, in.IsKeyDown(KEYS_MAX_KEYS+1))
}

func TestInputReceivesOnlyStart(t *testing.T) {
	in := NewInput()
	assert.True(t, in.ReceivesEvent(EventStart))
	assert.False(t, in.ReceivesEvent(EventWindowResize))

	in.ReceiveEvent(NewWindowResizeEvent(1, 1))
	assert.Equal(t, uint64(0), in.Frame())
}

func TestInputMouse(t *testing.T) {
	in := NewInput()
	in.StartNewFrame()

	_, _, ok := in.CursorPosition()
	assert.False(t, ok)
	assert.Equal(t, CursorUnknown, in.CursorState())

	in.ProcessMouseMove(12.5, 40)
	x, y, ok := in.CursorPosition()
	assert.True(t, ok)
	assert.Equal(t, 12.5, x)
	assert.Equal(t, 40.0, y)

	in.ProcessCursorEnter(false)
	_, _, ok = in.CursorPosition()
	assert.False(t, ok)

	in.ProcessButton(BUTTON_LEFT, true)
	assert.True(t, in.IsButtonDown(BUTTON_LEFT))
	assert.True(t, in.IsButtonPressed(BUTTON_LEFT))
	assert.False(t, in.IsButtonDown(BUTTON_MAX_BUTTONS))

	in.ProcessMouseWheel(0, 1)
	in.ProcessMouseWheel(0, 2)
	_, dy := in.Scroll()
	assert.Equal(t, 3.0, dy)

	in.StartNewFrame()
	_, dy = in.Scroll()
	assert.Zero(t, dy)
	assert.False(t, in.IsButtonPressed(BUTTON_LEFT))
}

func TestInputModifiers(t *testing.T) {
	in := NewInput()
	in.ProcessKey(KEY_S, true, Modifiers{Control: true})
	assert.Equal(t, Modifiers{Control: true}, in.Modifiers())
}
