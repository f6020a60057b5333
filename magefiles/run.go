//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Builds the shaders and runs the testbed.
func (Run) Engine() error {
	mg.Deps(Build.Shaders)
	fmt.Println("Run engine...")
	_, err := goTool().run("run", ".")
	return err
}

type Test mg.Namespace

// Runs every package test.
func (Test) All() error {
	_, err := goTool().run("test", "./...")
	return err
}

// Runs the tests that need no GPU or window: containers, core, math and the
// renderer against its fake device.
func (Test) Core() error {
	_, err := goTool().run("test",
		"./engine/containers/...",
		"./engine/core/...",
		"./engine/math/...",
		"./engine/renderer",
	)
	return err
}

// Runs the tests of the build targets themselves.
func (Test) Mage() error {
	_, err := goTool().run("test", "-tags", "mage", "./magefiles")
	return err
}
