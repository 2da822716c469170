package entities

import (
	"strings"
	"time"
)

// Action is a regulatory action (amendment, framework, regulatory amendment)
// abstracted from free-text titles.
type Action struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	FMP         string    `json:"fmp,omitempty"` // Fishery management plan inferred from the title
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status,omitempty"`
	Phase       string    `json:"phase,omitempty"`
	SourceTag   string    `json:"source_tag,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Slug returns the slugified title used for identity.
func (a *Action) Slug() string {
	return Slugify(a.Title)
}

// ActionCandidate is a raw action record.
type ActionCandidate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Phase       *string `json:"phase,omitempty"`
	Status      *string `json:"status,omitempty"`
	SourceTag   *string `json:"source_tag,omitempty"`
}

// fmpKeywords maps title keywords to fishery management plans.
// Order matters: the first keyword found wins.
var fmpKeywords = []struct {
	keyword string
	fmp     string
}{
	{"snapper grouper", "Snapper Grouper"},
	{"dolphin wahoo", "Dolphin Wahoo"},
	{"coastal migratory pelagic", "Coastal Migratory Pelagics"},
	{"mackerel", "Coastal Migratory Pelagics"},
	{"cobia", "Coastal Migratory Pelagics"},
	{"golden crab", "Golden Crab"},
	{"spiny lobster", "Spiny Lobster"},
	{"shrimp", "Shrimp"},
	{"sargassum", "Sargassum"},
	{"coral", "Coral"},
	{"comprehensive", "Comprehensive"},
}

// InferFMP returns the fishery management plan a title refers to, or "".
func InferFMP(title string) string {
	text := " " + strings.ReplaceAll(Slugify(title), "-", " ") + " "
	for _, kw := range fmpKeywords {
		if strings.Contains(text, " "+kw.keyword) {
			return kw.fmp
		}
	}
	return ""
}

// NumericTokens returns the runs of digits in a title, in order.
// Two titles with different numbers never denote the same action.
func NumericTokens(title string) []string {
	var out []string
	for _, tok := range nameTokens(strings.ReplaceAll(title, "-", " ")) {
		digits := PhoneDigits(tok)
		if digits != "" {
			out = append(out, digits)
		}
	}
	return out
}
