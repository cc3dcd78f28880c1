//go:build mage

// Package main provides build targets for the traitkit project using Mage.
//
// Usage:
//
//	mage build    Compile traitctl to bin/
//	mage test     Run all tests with the race detector
//	mage cover    Run tests and write coverage.out
//	mage lint     Run golangci-lint
//	mage clean    Remove build artifacts
//	mage install  Install traitctl to GOPATH/bin
//	mage stats    Print file and declaration counts per package
package main

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "traitctl"
	binaryDir  = "bin"
	cmdDir     = "./cmd/traitctl"
	coverFile  = "coverage.out"
)

// version is stamped into the binary; override with TRAITCTL_VERSION.
func version() string {
	if v := os.Getenv("TRAITCTL_VERSION"); v != "" {
		return v
	}
	if v, err := sh.Output("git", "describe", "--tags", "--always", "--dirty"); err == nil && v != "" {
		return v
	}
	return "dev"
}

// Build compiles the traitctl binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	ldflags := "-X main.version=" + version()
	return sh.RunV(binGo, "build", "-v", "-ldflags", ldflags, "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs all tests with the race detector.
func Test() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Cover runs all tests and writes a coverage profile.
func Cover() error {
	if err := sh.RunV(binGo, "test", "-coverprofile="+coverFile, "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func="+coverFile)
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	for _, path := range []string{binaryDir, coverFile} {
		if err := os.RemoveAll(path); err != nil {
			return err
		}
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}

// pkgStats counts the files and declarations of one package directory.
type pkgStats struct {
	files, testFiles, exported, tests int
}

// Stats prints file, exported declaration and test counts per package.
func Stats() error {
	stats := map[string]*pkgStats{}
	fset := token.NewFileSet()

	err := filepath.WalkDir(".", func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			switch d.Name() {
			case "vendor", ".git", binaryDir, "magefiles", "_examples":
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		f, parseErr := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
		if parseErr != nil {
			return nil
		}
		dir := filepath.Dir(path)
		s := stats[dir]
		if s == nil {
			s = &pkgStats{}
			stats[dir] = s
		}
		isTest := strings.HasSuffix(path, "_test.go")
		if isTest {
			s.testFiles++
		} else {
			s.files++
		}
		for _, decl := range f.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			switch {
			case ok && isTest && strings.HasPrefix(fn.Name.Name, "Test"):
				s.tests++
			case ok && !isTest && fn.Name.IsExported():
				s.exported++
			case !ok && !isTest:
				s.exported += exportedSpecs(decl)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	dirs := make([]string, 0, len(stats))
	for dir := range stats {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	fmt.Printf("%-24s %6s %10s %9s %6s\n", "package", "files", "test files", "exported", "tests")
	for _, dir := range dirs {
		s := stats[dir]
		fmt.Printf("%-24s %6d %10d %9d %6d\n", dir, s.files, s.testFiles, s.exported, s.tests)
	}
	return nil
}

func exportedSpecs(decl ast.Decl) int {
	gen, ok := decl.(*ast.GenDecl)
	if !ok {
		return 0
	}
	n := 0
	for _, spec := range gen.Specs {
		switch s := spec.(type) {
		case *ast.TypeSpec:
			if s.Name.IsExported() {
				n++
			}
		case *ast.ValueSpec:
			for _, name := range s.Names {
				if name.IsExported() {
					n++
				}
			}
		}
	}
	return n
}
