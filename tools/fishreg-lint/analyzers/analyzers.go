// Package analyzers lists the fishreg static analyzers.
package analyzers

import (
	"golang.org/x/tools/go/analysis"

	"github.com/ersonp/fishreg/tools/fishreg-lint/analyzers/compileloop"
	"github.com/ersonp/fishreg/tools/fishreg-lint/analyzers/loopcall"
)

// All returns all analyzers to run.
func All() []*analysis.Analyzer {
	return []*analysis.Analyzer{
		loopcall.Analyzer,
		compileloop.Analyzer,
	}
}
