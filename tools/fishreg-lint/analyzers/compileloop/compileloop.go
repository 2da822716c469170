// Package compileloop reports matcher construction inside loops: compiled
// regular expressions, replacers and text transformer chains.
package compileloop

import (
	"go/ast"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer reports constructors that should run once at package level.
var Analyzer = &analysis.Analyzer{
	Name:     "compileloop",
	Doc:      "reports regexp, replacer and transformer construction inside loops",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// constructors maps package name to the functions that build reusable matchers.
var constructors = map[string]map[string]bool{
	"regexp": {
		"Compile":          true,
		"MustCompile":      true,
		"CompilePOSIX":     true,
		"MustCompilePOSIX": true,
	},
	"strings":   {"NewReplacer": true},
	"transform": {"Chain": true},
	"runes":     {"Remove": true, "Map": true},
}

func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.RangeStmt)(nil),
		(*ast.ForStmt)(nil),
	}

	inspect.Preorder(nodeFilter, func(n ast.Node) {
		var body *ast.BlockStmt
		switch stmt := n.(type) {
		case *ast.RangeStmt:
			body = stmt.Body
		case *ast.ForStmt:
			body = stmt.Body
		}
		if body == nil {
			return
		}

		ast.Inspect(body, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			pkg, ok := sel.X.(*ast.Ident)
			if !ok {
				return true
			}

			if constructors[pkg.Name][sel.Sel.Name] {
				pass.Reportf(call.Pos(),
					"%s.%s called inside loop - build it once at package level",
					pkg.Name, sel.Sel.Name)
			}
			return true
		})
	})

	return nil, nil
}
