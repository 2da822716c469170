package services

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/ersonp/fishreg/internal/domain/entities"
	"github.com/ersonp/fishreg/internal/domain/ports"
)

// DefaultMinDuplicateScore is used when FindClusters is given no minimum.
const DefaultMinDuplicateScore = 0.8

// Pair score contributions, in hundredths.
const (
	emailWeight        = 50
	nameWeight         = 30
	phoneWeight        = 20
	locationWeight     = 15
	organizationWeight = 10
)

// Field similarity floors on the 0..100 scale.
const (
	emailFloor        = 95
	nameFloor         = 85
	lastNameFloor     = 85
	orgNameFloor      = 80
	phoneSuffixLength = 7
)

// DuplicateDetector scans persisted contacts for likely duplicates.
// It never writes to the store.
type DuplicateDetector struct {
	store ports.EntityStore
	opts  options
}

// NewDuplicateDetector creates a new DuplicateDetector.
func NewDuplicateDetector(store ports.EntityStore, opts ...Option) *DuplicateDetector {
	return &DuplicateDetector{
		store: store,
		opts:  buildOptions(opts),
	}
}

// FindClusters groups contacts that score at least minScore against the
// cluster's primary. Contacts are visited oldest first and belong to at most
// one cluster. Clusters are sorted by duplicate count, largest first.
func (d *DuplicateDetector) FindClusters(ctx context.Context, minScore float64) ([]entities.DuplicateCluster, error) {
	if minScore <= 0 {
		minScore = DefaultMinDuplicateScore
	}
	// A pair needs at least one matching signal however low minScore is.
	threshold := max(int(math.Round(minScore*100)), 1)

	contacts, err := d.store.ListContacts(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}

	var blocks map[int][]int
	if d.opts.blocking {
		blocks = blockPartners(contacts)
	}

	assigned := make([]bool, len(contacts))
	var clusters []entities.DuplicateCluster
	for i, primary := range contacts {
		if assigned[i] {
			continue
		}
		var dups []entities.DuplicateMatch
		for _, j := range d.partners(i, len(contacts), blocks) {
			if assigned[j] {
				continue
			}
			score, reasons := scorePair(primary, contacts[j], threshold)
			if score < threshold {
				continue
			}
			assigned[j] = true
			dups = append(dups, entities.DuplicateMatch{
				Contact: contacts[j],
				Score:   float64(score) / 100,
				Reasons: reasons,
			})
		}
		if len(dups) == 0 {
			continue
		}
		assigned[i] = true
		clusters = append(clusters, entities.DuplicateCluster{Primary: primary, Duplicates: dups})
	}

	sort.SliceStable(clusters, func(a, b int) bool {
		return len(clusters[a].Duplicates) > len(clusters[b].Duplicates)
	})

	d.opts.logger.Info().
		Int("contacts", len(contacts)).
		Int("clusters", len(clusters)).
		Float64("min_score", minScore).
		Bool("blocking", d.opts.blocking).
		Msg("duplicate scan finished")
	return clusters, nil
}

// Statistics reports exact-key duplication counts across all contacts.
func (d *DuplicateDetector) Statistics(ctx context.Context) (*entities.DuplicateStatistics, error) {
	total, err := d.store.CountContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting contacts: %w", err)
	}
	emailGroups, emailSurplus, err := d.store.CountEmailDuplicateGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting email duplicate groups: %w", err)
	}
	nameGroups, nameSurplus, err := d.store.CountNameStateDuplicateGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting name and state duplicate groups: %w", err)
	}
	return &entities.DuplicateStatistics{
		TotalContacts:             total,
		ExactEmailDuplicateGroups: emailGroups,
		NameStateDuplicateGroups:  nameGroups,
		EstimatedDuplicateCount:   emailSurplus + nameSurplus,
	}, nil
}

// partners returns the indexes compared against contact i, ascending.
func (d *DuplicateDetector) partners(i, n int, blocks map[int][]int) []int {
	if blocks != nil {
		return blocks[i]
	}
	out := make([]int, 0, n-i-1)
	for j := i + 1; j < n; j++ {
		out = append(out, j)
	}
	return out
}

// blockPartners maps each contact index to the later contacts that share at
// least one block key with it.
func blockPartners(contacts []*entities.Contact) map[int][]int {
	members := make(map[string][]int)
	for i, c := range contacts {
		for _, key := range blockKeys(c) {
			members[key] = append(members[key], i)
		}
	}
	partners := make(map[int][]int, len(contacts))
	for _, idx := range members {
		for a, i := range idx {
			partners[i] = append(partners[i], idx[a+1:]...)
		}
	}
	for i, js := range partners {
		slices.Sort(js)
		partners[i] = slices.Compact(js)
	}
	return partners
}

// blockKeys returns the keys a contact is grouped under when blocking.
func blockKeys(c *entities.Contact) []string {
	var keys []string
	last := entities.NormalizeName(c.LastName)
	if last == "" {
		if tokens := strings.Fields(c.NormalizedName()); len(tokens) > 0 {
			last = tokens[len(tokens)-1]
		}
	}
	if last != "" {
		keys = append(keys, "last:"+last)
	}
	if email := entities.NormalizeEmail(c.Email); email != "" {
		keys = append(keys, "email:"+email)
	}
	if suffix := phoneSuffix(c.Phone); suffix != "" {
		keys = append(keys, "phone:"+suffix)
	}
	return keys
}

// scorePair adds field contributions until the total reaches threshold.
// The returned reasons name each contribution that was counted.
func scorePair(a, b *entities.Contact, threshold int) (int, []string) {
	total := 0
	var reasons []string
	add := func(weight int, reason string) bool {
		total += weight
		reasons = append(reasons, reason)
		return total >= threshold
	}

	if ea, eb := entities.NormalizeEmail(a.Email), entities.NormalizeEmail(b.Email); ea != "" && eb != "" {
		if s := Similarity(ea, eb); s >= emailFloor {
			if add(emailWeight, fmt.Sprintf("email match (%.2f)", float64(s)/100)) {
				return total, reasons
			}
		}
	}

	nameScore := Similarity(a.NormalizedName(), b.NormalizedName())
	if nameScore >= nameFloor {
		if add(nameWeight, fmt.Sprintf("name similarity (%.2f)", float64(nameScore)/100)) {
			return total, reasons
		}
	}

	if pa := phoneSuffix(a.Phone); pa != "" && pa == phoneSuffix(b.Phone) {
		if add(phoneWeight, "phone match") {
			return total, reasons
		}
	}

	if sameLocation(a, b) && Similarity(entities.NormalizeName(a.LastName), entities.NormalizeName(b.LastName)) >= lastNameFloor {
		if add(locationWeight, "same city and state with similar last name") {
			return total, reasons
		}
	}

	if a.OrganizationID != "" && a.OrganizationID == b.OrganizationID && nameScore >= orgNameFloor {
		add(organizationWeight, "same organization with similar name")
	}
	return total, reasons
}

func sameLocation(a, b *entities.Contact) bool {
	cityA, cityB := strings.TrimSpace(a.City), strings.TrimSpace(b.City)
	stateA, stateB := entities.NormalizeState(a.State), entities.NormalizeState(b.State)
	return cityA != "" && stateA != "" && strings.EqualFold(cityA, cityB) && stateA == stateB
}

// phoneSuffix returns the last seven digits of a phone number, or "".
func phoneSuffix(phone string) string {
	digits := entities.PhoneDigits(phone)
	if len(digits) < phoneSuffixLength {
		return ""
	}
	return digits[len(digits)-phoneSuffixLength:]
}
