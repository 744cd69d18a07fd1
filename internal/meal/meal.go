// Package meal maps an hour of the day onto one of five fuzzy meal periods.
package meal

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Category is a time-of-day meal period.
type Category string

const (
	LateNight Category = "late_night"
	Morning   Category = "morning"
	Afternoon Category = "afternoon"
	Evening   Category = "evening"
	Night     Category = "night"
)

// Categories lists every category in tie-break order.
var Categories = []Category{LateNight, Morning, Afternoon, Evening, Night}

var (
	ErrHourOutOfRange = errors.New("hour must be between 0 and 23")
	ErrUnknownMeal    = errors.New("unknown meal category")
)

// ParseCategory accepts a category name, case-insensitively, with "-" or " " for "_".
func ParseCategory(s string) (Category, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	for _, c := range Categories {
		if string(c) == norm {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMeal, s)
}

// Label returns a human-readable name, e.g. "Late night".
func (c Category) Label() string {
	s := strings.ReplaceAll(string(c), "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Membership is a Gaussian membership curve.
type Membership struct {
	Category Category
	Center   float64
	Sigma    float64
}

// Degree evaluates the curve at x.
func (m Membership) Degree(x float64) float64 {
	d := x - m.Center
	return math.Exp(-(d * d) / (2 * m.Sigma * m.Sigma))
}

// MembershipSet is an ordered, immutable set of membership curves.
// Order defines tie-breaking.
type MembershipSet struct {
	curves []Membership
}

// NewMembershipSet copies curves so later mutation by the caller has no effect.
// Every curve needs a positive, finite Sigma.
func NewMembershipSet(curves ...Membership) (*MembershipSet, error) {
	cp := make([]Membership, len(curves))
	copy(cp, curves)
	for _, m := range cp {
		if !(m.Sigma > 0) || math.IsInf(m.Sigma, 0) {
			return nil, fmt.Errorf("membership %s: sigma must be positive, got %v", m.Category, m.Sigma)
		}
	}
	return &MembershipSet{curves: cp}, nil
}

func mustMembershipSet(curves ...Membership) *MembershipSet {
	s, err := NewMembershipSet(curves...)
	if err != nil {
		panic(err)
	}
	return s
}

// Curves returns a copy of the curves in order.
func (s *MembershipSet) Curves() []Membership {
	cp := make([]Membership, len(s.curves))
	copy(cp, s.curves)
	return cp
}

// Default is the process-wide meal membership configuration.
var Default = mustMembershipSet(
	Membership{Category: LateNight, Center: 3, Sigma: 3},
	Membership{Category: Morning, Center: 9.5, Sigma: 2},
	Membership{Category: Afternoon, Center: 14.5, Sigma: 1.5},
	Membership{Category: Evening, Center: 17.5, Sigma: 1.5},
	Membership{Category: Night, Center: 21.5, Sigma: 2},
)

// Degree pairs a category with its membership degree.
type Degree struct {
	Category Category `json:"category"`
	Value    float64  `json:"value"`
}

// Classifier fuzzifies hours against a membership set.
type Classifier struct {
	set *MembershipSet
}

// NewClassifier returns a classifier over set; nil means Default.
func NewClassifier(set *MembershipSet) *Classifier {
	if set == nil {
		set = Default
	}
	return &Classifier{set: set}
}

// Degrees returns each category's membership at hour, in set order.
func (c *Classifier) Degrees(hour int) ([]Degree, error) {
	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("%w: %d", ErrHourOutOfRange, hour)
	}
	out := make([]Degree, 0, len(c.set.curves))
	for _, m := range c.set.curves {
		out = append(out, Degree{Category: m.Category, Value: m.Degree(float64(hour))})
	}
	return out, nil
}

// Classify returns the category with the highest degree at hour.
// Ties keep the earlier category.
func (c *Classifier) Classify(hour int) (Category, error) {
	degrees, err := c.Degrees(hour)
	if err != nil {
		return "", err
	}
	if len(degrees) == 0 {
		return "", fmt.Errorf("membership set is empty")
	}

	best := degrees[0]
	for _, d := range degrees[1:] {
		if d.Value > best.Value {
			best = d
		}
	}
	return best.Category, nil
}
