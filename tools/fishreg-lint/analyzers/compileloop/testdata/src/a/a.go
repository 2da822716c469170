package a

import (
	"regexp"
	"strings"
)

func badPhones(phones []string) {
	for _, p := range phones {
		re := regexp.MustCompile(`\D`) // want "regexp.MustCompile called inside loop"
		_ = re.ReplaceAllString(p, "")
	}
}

func badTitles(titles []string) {
	for i := 0; i < len(titles); i++ {
		r := strings.NewReplacer("-", " ") // want "strings.NewReplacer called inside loop"
		titles[i] = r.Replace(titles[i])
	}
}

var nonDigits = regexp.MustCompile(`\D`)

func good(phones []string) {
	for i, p := range phones {
		phones[i] = nonDigits.ReplaceAllString(p, "")
	}
}
