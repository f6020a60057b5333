//go:build mage

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"

	"github.com/matms/mat-engine/engine/core"
)

// testbedConfig is where targets look up tool paths.
const testbedConfig = "testbed/engine.toml"

// tool is an external program a target shells out to.
type tool struct {
	name string
	path string
	// stream copies output to the terminal even without -v.
	stream bool
}

func goTool() tool {
	return tool{name: "go", path: mg.GoCmd(), stream: true}
}

// glslcTool returns glslc at the path set by [renderer] glslc in the config
// at cfgPath, or the one in PATH.
func glslcTool(cfgPath string) (tool, error) {
	t := tool{name: "glslc", path: "glslc", stream: true}
	cfg, err := core.LoadConfig(cfgPath)
	if err != nil {
		return t, err
	}
	if cfg.Renderer.GLSLC != "" {
		t.path = cfg.Renderer.GLSLC
	}
	return t, nil
}

// run executes the tool and returns its combined output. Without streaming
// the output is only printed when the command fails.
func (t tool) run(args ...string) (string, error) {
	fmt.Printf("Executing: %s %s\n", t.path, strings.Join(args, " "))
	cmd := exec.Command(t.path, args...)

	var b bytes.Buffer
	stream := mg.Verbose() || t.stream
	if stream {
		cmd.Stdout = io.MultiWriter(&b, os.Stdout)
		cmd.Stderr = io.MultiWriter(&b, os.Stderr)
	} else {
		cmd.Stdout = &b
		cmd.Stderr = &b
	}
	if err := cmd.Run(); err != nil {
		if !stream {
			fmt.Printf("... %s failed:\n%s\n", t.name, b.String())
		}
		return b.String(), fmt.Errorf("%s: %w", t.name, err)
	}
	return b.String(), nil
}

// spirvPath maps a GLSL source to its compiled output: sprite.vert becomes
// sprite.vert.spv next to it.
func spirvPath(src string) string {
	return filepath.Clean(src) + ".spv"
}
