//go:build mage

// Copyright 2021-2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	modulePath = "github.com/penny-vault/pv-advisor"
	binaryName = "pvadvisor"
	coverFile  = "coverage.out"
)

var ldflags = fmt.Sprintf("-X %[1]s/common.commitHash=$COMMIT_HASH -X %[1]s/common.buildDate=$BUILD_DATE", modulePath)

// GOEXE overrides the go executable
var goexe = "go"

func init() {
	if exe := os.Getenv("GOEXE"); exe != "" {
		goexe = exe
	}
}

// Build compiles pvadvisor with the commit hash and build date baked in
func Build() error {
	fmt.Println("Building...")
	return sh.RunWith(buildEnv(), goexe, "build", "-o", binaryName, "-ldflags", ldflags, ".")
}

// Install puts pvadvisor in $GOPATH/bin
func Install() error {
	return sh.RunWith(buildEnv(), goexe, "install", "-ldflags", ldflags, ".")
}

// Clean removes build and coverage output
func Clean() {
	fmt.Println("Cleaning...")
	for _, f := range []string{binaryName, coverFile} {
		if err := os.Remove(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "could not remove %s: %v\n", f, err)
		}
	}
}

// Check formats, vets and runs the race tests
func Check() {
	mg.SerialDeps(Fmt, Vet, TestRace)
}

// Test runs the ginkgo suites
func Test() error {
	fmt.Println("Go Test")
	return quiet(goexe, "test", "./...")
}

// TestRace runs the suites with the race detector
func TestRace() error {
	fmt.Println("Go Test Race")
	return quiet(goexe, "test", "-race", "./...")
}

// Cover writes a coverage profile for every package and opens the HTML report
func Cover() error {
	fmt.Println("Go Cover")
	if err := quiet(goexe, "test", "-coverprofile="+coverFile, "-covermode=count", "./..."); err != nil {
		return err
	}
	return sh.Run(goexe, "tool", "cover", "-html="+coverFile)
}

// Fmt fails when any package has files that are not gofmt'ed
func Fmt() error {
	fmt.Println("Go Format")

	dirs, err := packageDirs()
	if err != nil {
		return err
	}

	// gofmt -l exits 0 even when it lists files
	out, err := sh.Output("gofmt", append([]string{"-l"}, dirs...)...)
	if err != nil {
		return fmt.Errorf("running gofmt: %w", err)
	}
	if out != "" {
		fmt.Println("The following files are not gofmt'ed:")
		fmt.Println(out)
		return errors.New("improperly formatted go files")
	}
	return nil
}

// Vet runs go vet
func Vet() error {
	fmt.Println("Go Vet")
	if err := sh.Run(goexe, "vet", "./..."); err != nil {
		return fmt.Errorf("error running go vet: %w", err)
	}
	return nil
}

func buildEnv() map[string]string {
	hash, _ := sh.Output("git", "rev-parse", "--short", "HEAD")
	return map[string]string{
		"COMMIT_HASH": hash,
		"BUILD_DATE":  time.Now().Format("2006-01-02T15:04:05Z0700"),
	}
}

// quiet only prints the command output when it fails, unless mage runs
// verbose
func quiet(cmd string, args ...string) error {
	if mg.Verbose() {
		return sh.Run(cmd, args...)
	}
	out, err := sh.Output(cmd, args...)
	if err != nil {
		fmt.Fprintln(os.Stderr, out)
	}
	return err
}

var (
	dirs     []string
	dirsErr  error
	dirsOnce sync.Once
)

// packageDirs lists the module packages as relative directories
func packageDirs() ([]string, error) {
	dirsOnce.Do(func() {
		var out string
		if out, dirsErr = sh.Output(goexe, "list", "./..."); dirsErr != nil {
			return
		}
		for _, pkg := range strings.Split(out, "\n") {
			dirs = append(dirs, "."+strings.TrimPrefix(pkg, modulePath))
		}
	})
	return dirs, dirsErr
}
