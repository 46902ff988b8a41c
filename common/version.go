// Copyright 2021-2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
)

const ProgramName = "pvadvisor"

// set through -ldflags by mage build
var (
	commitHash string
	buildDate  string
)

// Version is a SemVer 2.0.0 release number. Pre-release builds carry a
// Suffix and, when known, the commit as build metadata.
type Version struct {
	Major  int
	Minor  int
	Patch  int
	Suffix string
}

func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Suffix == "" {
		return s
	}

	s += "-" + v.Suffix
	if commitHash != "" {
		s += "+" + strings.ToLower(commitHash)
	}
	return s
}

// GetDependencyList returns the module dependencies as sorted path@version
// lines. Replaced modules show their replacement.
func GetDependencyList() []string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}

	deps := make([]string, 0, len(bi.Deps))
	for _, dep := range bi.Deps {
		line := dep.Path + "@" + dep.Version
		if dep.Replace != nil {
			line += " => " + dep.Replace.Path + "@" + dep.Replace.Version
		}
		deps = append(deps, line)
	}

	sort.Strings(deps)
	return deps
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// BuildVersionString is the text printed by "pvadvisor version"; withDeps
// appends the module dependency list
func BuildVersionString(withDeps bool) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s v%s %s/%s\n\n", ProgramName, CurrentVersion, runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(&sb, "Build Date: %s\n", orUnknown(buildDate))
	fmt.Fprintf(&sb, "Commit:     %s\n", orUnknown(commitHash))
	fmt.Fprintf(&sb, "Go:         %s", runtime.Version())

	if withDeps {
		sb.WriteString("\n\nDependencies:\n\n")
		sb.WriteString(strings.Join(GetDependencyList(), "\n"))
	}

	return sb.String()
}
