package entities

// DuplicateMatch is one contact believed to duplicate a cluster's primary.
type DuplicateMatch struct {
	Contact *Contact `json:"contact"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// DuplicateCluster groups contacts that likely denote the same person.
// The primary is the earliest-created member.
type DuplicateCluster struct {
	Primary    *Contact         `json:"primary"`
	Duplicates []DuplicateMatch `json:"duplicates"`
}

// DuplicateStatistics summarises how much duplication the contact table holds.
type DuplicateStatistics struct {
	TotalContacts             int `json:"total_contacts"`
	ExactEmailDuplicateGroups int `json:"exact_email_duplicate_groups"`
	NameStateDuplicateGroups  int `json:"name_state_duplicate_groups"`
	EstimatedDuplicateCount   int `json:"estimated_duplicate_count"`
}

// MergeResult reports the outcome of consolidating duplicate contacts.
type MergeResult struct {
	MergedCount       int      `json:"merged_count"`
	ReferencesUpdated int      `json:"references_updated"`
	Primary           *Contact `json:"primary"`
}
