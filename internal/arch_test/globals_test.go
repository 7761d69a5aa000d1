package arch_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"testing"
)

// allowedGlobals lists package-level vars that are assigned after init or
// built by a call, with the reason each one is acceptable.
var allowedGlobals = map[string]map[string]string{
	"cmd": {
		"logger":     "process logger, replaced once in PersistentPreRunE",
		"logCleanup": "flushes the process logger, replaced with logger",
	},
	"extract": {
		"emptyObject": "byte form of {}, read-only",
	},
	"ui": {
		"colorPrimary": "lipgloss palette",
		"colorAccent":  "lipgloss palette",
		"colorSuccess": "lipgloss palette",
		"colorDanger":  "lipgloss palette",
		"colorMuted":   "lipgloss palette",
	},
}

// globalVar is one package-level var declaration.
type globalVar struct {
	name string
	val  ast.Expr
	file string
}

// packageGlobals returns every package-level var declared in the non-test
// files of dir.
func packageGlobals(t *testing.T, dir string) []globalVar {
	t.Helper()

	var vars []globalVar
	fset := token.NewFileSet()
	for _, path := range goFilesIn(t, dir) {
		node, err := parser.ParseFile(fset, path, nil, 0)
		if err != nil {
			t.Fatalf("parsing %s: %v", path, err)
		}
		for _, decl := range node.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.VAR {
				continue
			}
			for _, spec := range gd.Specs {
				vs := spec.(*ast.ValueSpec)
				for i, name := range vs.Names {
					v := globalVar{name: name.Name, file: filepath.Base(path)}
					if i < len(vs.Values) {
						v.val = vs.Values[i]
					}
					vars = append(vars, v)
				}
			}
		}
	}
	return vars
}

// constantLike reports whether v is never written after init: error
// sentinels, lookup tables and command definitions.
func constantLike(v globalVar) bool {
	if v.name == "_" {
		return true
	}
	switch val := v.val.(type) {
	case *ast.CompositeLit:
		return true
	case *ast.UnaryExpr:
		// &cobra.Command{...}
		_, ok := val.X.(*ast.CompositeLit)
		return val.Op == token.AND && ok
	case *ast.CallExpr:
		sel, ok := val.Fun.(*ast.SelectorExpr)
		if !ok {
			return false
		}
		pkg, ok := sel.X.(*ast.Ident)
		return ok && pkg.Name == "errors" && sel.Sel.Name == "New"
	}
	return false
}

// globalDirs returns the packages scanned for global state: every internal
// package plus cmd.
func globalDirs(t *testing.T) map[string]string {
	t.Helper()
	dirs := map[string]string{"cmd": filepath.Join(repoRoot(t), "cmd")}
	for _, pkg := range internalPackages(t) {
		dirs[pkg] = filepath.Join(internalDirPath(t), pkg)
	}
	return dirs
}

// TestNoMutableGlobalState flags package-level vars that are neither
// constant-like nor explicitly allowed.
func TestNoMutableGlobalState(t *testing.T) {
	t.Parallel()

	for pkg, dir := range globalDirs(t) {
		t.Run(pkg, func(t *testing.T) {
			t.Parallel()
			for _, v := range packageGlobals(t, dir) {
				if constantLike(v) {
					continue
				}
				if _, ok := allowedGlobals[pkg][v.name]; ok {
					continue
				}
				t.Errorf("mutable global state in %s: var %s; pass it as a dependency or move it into a function",
					v.file, v.name)
			}
		})
	}
}

// TestAllowedGlobalsAreUsed catches allowlist entries whose var was removed
// or renamed.
func TestAllowedGlobalsAreUsed(t *testing.T) {
	t.Parallel()

	dirs := globalDirs(t)
	for pkg, names := range allowedGlobals {
		t.Run(pkg, func(t *testing.T) {
			t.Parallel()
			dir, ok := dirs[pkg]
			if !ok {
				t.Fatalf("allowlisted package %q does not exist", pkg)
			}
			declared := make(map[string]bool)
			for _, v := range packageGlobals(t, dir) {
				declared[v.name] = true
			}
			for name := range names {
				if !declared[name] {
					t.Errorf("allowedGlobals[%q] lists %q but no such var exists", pkg, name)
				}
			}
		})
	}
}

func TestConstantLike(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want bool
	}{
		{"error sentinel", `var ErrNoFins = errors.New("no fins")`, true},
		{"lookup table", `var TopLevelKeys = []string{"id", "rocket"}`, true},
		{"tag map", `var componentTags = map[string]string{"nosecone": "NoseCone"}`, true},
		{"struct table", `var radiusFields = []struct{ tag, field string }{{"radius", "r"}}`, true},
		{"command", `var runsCmd = &cobra.Command{Use: "runs"}`, true},
		{"interface check", `var _ Component = (*part)(nil)`, true},
		{"made map", `var cache = make(map[string]float64)`, false},
		{"logger", `var logger = zap.NewNop()`, false},
		{"counter", `var runs int`, false},
		{"address of value", `var current = &total`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			node, err := parser.ParseFile(token.NewFileSet(), "src.go", "package p\n"+tt.src, 0)
			if err != nil {
				t.Fatalf("parsing: %v", err)
			}
			vs := node.Decls[0].(*ast.GenDecl).Specs[0].(*ast.ValueSpec)
			v := globalVar{name: vs.Names[0].Name}
			if len(vs.Values) > 0 {
				v.val = vs.Values[0]
			}
			if got := constantLike(v); got != tt.want {
				t.Errorf("constantLike(%s) = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}
