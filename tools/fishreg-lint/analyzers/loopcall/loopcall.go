// Package loopcall reports table scans, single-ID lookups and single-text
// embedding calls made from inside a loop.
package loopcall

import (
	"go/ast"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer reports scans, ID lookups and embeddings repeated per iteration.
// Duplicate detection, merges and index rebuilds load once and work in memory.
var Analyzer = &analysis.Analyzer{
	Name:     "loopcall",
	Doc:      "reports store scans, single-ID lookups and single-text embeddings inside loops",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// loopMethods maps methods to the batch call replacing them; "" means hoist
// the call out of the loop.
var loopMethods = map[string]string{
	"ListContacts":             "",
	"ListContactsByState":      "",
	"ListOrganizations":        "",
	"ListOrganizationsByState": "",
	"ListActions":              "",
	"CountContacts":            "",
	"FindContactByID":          "FindContactsByIDs",
	"FindOrganizationByID":     "FindOrganizationsByIDs",
	"FindActionByID":           "FindActionsByIDs",
	"Embed":                    "EmbedBatch",
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
			// Closures run later, usually outside the loop.
			if _, ok := n.(*ast.FuncLit); ok {
				return false
			}
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}

			name := sel.Sel.Name
			batch, found := loopMethods[name]
			switch {
			case !found:
			case batch != "":
				pass.Reportf(call.Pos(), "%s called inside loop - use %s", name, batch)
			default:
				pass.Reportf(call.Pos(), "%s called inside loop - load once before the loop", name)
			}
			return true
		})
	})

	return nil, nil
}
