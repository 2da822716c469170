// fishreg-lint flags table scans, single-text embeddings and matcher
// construction repeated per loop iteration.
package main

import (
	"golang.org/x/tools/go/analysis/multichecker"

	"github.com/ersonp/fishreg/tools/fishreg-lint/analyzers"
)

func main() {
	multichecker.Main(analyzers.All()...)
}
