package imports_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

const modulePath = "github.com/leeforge/hostbridge"

// forbidden lists, per package directory, module packages it must not import.
var forbidden = map[string][]string{
	"host":        {"commands", "nodetypes", "plugin", "runtime", "http"},
	"host/memory": {"commands", "nodetypes", "plugin", "runtime", "http"},
	"commands":    {"nodetypes", "plugin", "runtime", "http"},
	"nodetypes":   {"commands", "plugin", "runtime", "http"},
	"plugin":      {"runtime", "http", "config"},
	"runtime":     {"http", "config"},
	"errors":      {"host", "commands", "nodetypes", "plugin", "runtime"},
}

func walkImports(t *testing.T, fn func(dir, path, imp string)) {
	t.Helper()
	root := filepath.Clean("../..")
	fset := token.NewFileSet()

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (strings.HasPrefix(d.Name(), "_") || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, filepath.Dir(path))
		for _, spec := range f.Imports {
			imp, _ := strconv.Unquote(spec.Path.Value)
			fn(filepath.ToSlash(rel), path, imp)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestNoFrameworkImports(t *testing.T) {
	var hits []string
	walkImports(t, func(_, path, imp string) {
		if strings.HasPrefix(imp, "github.com/leeforge/framework") {
			hits = append(hits, path+": "+imp)
		}
	})
	if len(hits) > 0 {
		t.Fatalf("imports of the old framework module: %v", hits)
	}
}

func TestPackageLayering(t *testing.T) {
	walkImports(t, func(dir, path, imp string) {
		if strings.HasSuffix(path, "_test.go") || !strings.HasPrefix(imp, modulePath+"/") {
			return
		}
		target := strings.TrimPrefix(imp, modulePath+"/")
		for _, bad := range forbidden[dir] {
			if target == bad || strings.HasPrefix(target, bad+"/") {
				t.Errorf("%s imports %s", path, imp)
			}
		}
	})
}
