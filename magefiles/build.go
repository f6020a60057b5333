//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Compiles every GLSL shader under testbed/shaders to SPIR-V with the glslc
// named in testbed/engine.toml.
func (Build) Shaders() error {
	glslc, err := glslcTool(testbedConfig)
	if err != nil {
		return err
	}
	return buildShaders(glslc, "testbed/shaders")
}

func shaderSources(dir string) ([]string, error) {
	var sources []string
	for _, ext := range []string{"*.vert", "*.frag"} {
		matches, err := filepath.Glob(filepath.Join(dir, ext))
		if err != nil {
			return nil, err
		}
		sources = append(sources, matches...)
	}
	return sources, nil
}

func buildShaders(glslc tool, dir string) error {
	sources, err := shaderSources(dir)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		fmt.Println("no shaders to compile")
		return nil
	}
	for _, src := range sources {
		if _, err := glslc.run(src, "-o", spirvPath(src)); err != nil {
			return err
		}
	}
	return nil
}

// Runs go vet over the module.
func (Build) Vet() error {
	_, err := goTool().run("vet", "./...")
	return err
}
