package scoring

import "strings"

// Brands is the recognition table used by the uniqueness and brand_risk
// components. Keys are lowercase brand names.
type Brands map[string]bool

// DefaultBrands returns the compiled-in list of recognized mass-market
// brands.
func DefaultBrands() Brands {
	return Brands{
		"amazon basics": true,
		"anker":         true,
		"apple":         true,
		"bosch":         true,
		"dyson":         true,
		"lego":          true,
		"logitech":      true,
		"nike":          true,
		"philips":       true,
		"samsung":       true,
		"sony":          true,
	}
}

// Recognized reports whether the brand is a known mass-market brand.
func (b Brands) Recognized(brand string) bool {
	return b[strings.ToLower(strings.TrimSpace(brand))]
}

// riskyClaimTerms are high-risk marketing-claim phrases that drop the
// compliance component.
var riskyClaimTerms = []string{
	"miracle",
	"clinically proven",
	"guaranteed results",
	"cures",
	"no side effects",
	"doctor recommended",
	"fda approved",
}

// popularityClaimTerms mark "bought/popular" style badges that add a
// small demand bonus.
var popularityClaimTerms = []string{
	"bought",
	"popular",
	"best seller",
	"bestseller",
	"trending",
}

// matchesAnyTerm reports whether any term occurs in any of the texts,
// case-insensitively.
func matchesAnyTerm(texts []string, terms []string) (string, bool) {
	for _, t := range texts {
		lower := strings.ToLower(t)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				return term, true
			}
		}
	}
	return "", false
}
