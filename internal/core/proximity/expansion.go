package proximity

import (
	"slices"

	"github.com/localmart/storefront/internal/core/domain"
)

// DefaultExpansionSteps are the radii tried, in order, when a caller asks
// for radius expansion after an empty result.
var DefaultExpansionSteps = []float64{1, 2, 5, 10, 25, 50}

// DefaultMaxRadiusKm is the expansion ceiling.
const DefaultMaxRadiusKm = 50.0

// ExpansionPolicy widens an empty search in fixed steps up to a ceiling.
type ExpansionPolicy struct {
	StepsKm     []float64
	MaxRadiusKm float64
}

// DefaultExpansionPolicy returns the stepped 1–50 km policy.
func DefaultExpansionPolicy() ExpansionPolicy {
	return ExpansionPolicy{StepsKm: slices.Clone(DefaultExpansionSteps), MaxRadiusKm: DefaultMaxRadiusKm}
}

// Validate checks that the policy is usable.
func (p ExpansionPolicy) Validate() error {
	if p.MaxRadiusKm <= 0 {
		return domain.InvalidArgument("expansion ceiling must be positive, got %v", p.MaxRadiusKm)
	}
	for _, s := range p.StepsKm {
		if s <= 0 {
			return domain.InvalidArgument("expansion steps must be positive, got %v", s)
		}
	}
	return nil
}

// Next returns the smallest step strictly larger than currentKm. When every
// step is exhausted the ceiling itself is offered once.
func (p ExpansionPolicy) Next(currentKm float64) (float64, bool) {
	steps := slices.Clone(p.StepsKm)
	slices.Sort(steps)
	for _, s := range steps {
		if s > currentKm && s <= p.MaxRadiusKm {
			return s, true
		}
	}
	if currentKm < p.MaxRadiusKm {
		return p.MaxRadiusKm, true
	}
	return 0, false
}

// Result is the outcome of Search. RadiusKm differs from RequestedRadiusKm
// only when Expanded is true.
type Result[E Entity] struct {
	Matches           []Match[E]
	RequestedRadiusKm float64
	RadiusKm          float64
	Expanded          bool
}

// Search queries idx and ranks the result. When policy is non-nil and the
// requested radius yields nothing, the query is re-issued at each larger
// step until something is found or the ceiling is passed.
func Search[E Entity](idx Index[E], req SearchRequest, policy *ExpansionPolicy) (Result[E], error) {
	if policy != nil {
		if err := policy.Validate(); err != nil {
			return Result[E]{}, err
		}
	}
	res := Result[E]{RequestedRadiusKm: req.RadiusKm, RadiusKm: req.RadiusKm}

	matches, err := idx.Nearby(req)
	if err != nil {
		return Result[E]{}, err
	}
	for len(matches) == 0 && policy != nil {
		next, ok := policy.Next(res.RadiusKm)
		if !ok {
			break
		}
		widened := req
		widened.RadiusKm = next
		if matches, err = idx.Nearby(widened); err != nil {
			return Result[E]{}, err
		}
		res.RadiusKm = next
		res.Expanded = true
	}

	res.Matches = Rank(matches)
	return res, nil
}
