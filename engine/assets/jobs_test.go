package assets

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobSystemValidation(t *testing.T) {
	_, err := NewJobSystem(0, 4)
	assert.ErrorIs(t, err, ErrNoWorkers)
	_, err = NewJobSystem(2, -1)
	assert.ErrorIs(t, err, ErrNegativeChannelSize)
}

func TestJobSystemCallbacksRunOnCaller(t *testing.T) {
	js, err := NewJobSystem(4, 16)
	require.NoError(t, err)

	var ran atomic.Int32
	sum := 0
	failures := 0
	for i := 1; i <= 10; i++ {
		i := i
		require.NoError(t, js.Submit(Job{
			Name: "add",
			Run: func() (interface{}, error) {
				ran.Add(1)
				if i == 7 {
					return nil, errors.New("seven")
				}
				return i, nil
			},
			// callbacks run inside Wait, so plain ints are safe here
			OnComplete: func(res interface{}) { sum += res.(int) },
			OnFailure:  func(error) { failures++ },
		}))
	}
	assert.Equal(t, 10, js.Pending())

	js.Wait()
	assert.Equal(t, 0, js.Pending())
	assert.Equal(t, int32(10), ran.Load())
	assert.Equal(t, 55-7, sum)
	assert.Equal(t, 1, failures)

	require.NoError(t, js.Shutdown())
	assert.ErrorIs(t, js.Submit(Job{Run: func() (interface{}, error) { return nil, nil }}), ErrJobSystemClosed)
	assert.ErrorIs(t, js.Shutdown(), ErrJobSystemClosed)
}

func TestJobSystemUpdateDoesNotBlock(t *testing.T) {
	js, err := NewJobSystem(1, 1)
	require.NoError(t, err)
	defer js.Shutdown()

	release := make(chan struct{})
	done := false
	require.NoError(t, js.Submit(Job{
		Name: "gated",
		Run: func() (interface{}, error) {
			<-release
			return nil, nil
		},
		OnComplete: func(interface{}) { done = true },
	}))

	assert.Equal(t, 0, js.Update())
	assert.False(t, done)

	close(release)
	js.Wait()
	assert.True(t, done)
}

func TestJobSystemRecoversPanics(t *testing.T) {
	js, err := NewJobSystem(1, 1)
	require.NoError(t, err)
	defer js.Shutdown()

	var got error
	require.NoError(t, js.Submit(Job{
		Name:      "explode",
		Run:       func() (interface{}, error) { panic("boom") },
		OnFailure: func(err error) { got = err },
	}))
	js.Wait()
	require.Error(t, got)
	assert.Contains(t, got.Error(), "boom")
}

func TestLoadImages(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writePNG(t, a)
	writePNG(t, b)

	js, err := NewJobSystem(2, 4)
	require.NoError(t, err)
	defer js.Shutdown()

	imgs, err := LoadImages(js, []string{a, b})
	require.NoError(t, err)
	require.Len(t, imgs, 2)
	assert.Equal(t, 4, imgs[a].Bounds().Dx())

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not a png"), 0o644))
	_, err = LoadImages(js, []string{a, bad})
	assert.Error(t, err)
}
