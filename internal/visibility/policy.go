// Package visibility decides whether a viewer tier may see a document.
// Tiers nest strictly: public < investors < team < private, so a private-tier
// viewer sees everything and a public-tier viewer sees only public documents.
package visibility

import "startup-dataroom/backend/internal/document/domain"

// Tier is a viewer's privilege level.
type Tier string

const (
	TierPublic    Tier = "public"
	TierInvestors Tier = "investors"
	TierTeam      Tier = "team"
	TierPrivate   Tier = "private"
)

var tierRank = map[string]int{
	"public":    0,
	"investors": 1,
	"team":      2,
	"private":   3,
}

// Rank returns the ordering position of a tier or visibility value.
// Unknown or empty values rank as private (most restrictive).
func Rank(v string) int {
	if r, ok := tierRank[v]; ok {
		return r
	}
	return tierRank["private"]
}

// IsVisible reports whether a viewer of the given tier may see a document with
// the given visibility: rank(visibility) <= rank(tier). Pure, no errors.
func IsVisible(v domain.Visibility, t Tier) bool {
	return Rank(string(v)) <= Rank(string(t))
}
