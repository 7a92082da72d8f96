package kernel

import (
	"fmt"

	"workorders/internal/pkg/errs"
)

// Gender is the attribute that pairs clients with workers.
// NoGender means the user did not provide one; it never matches anything.
type Gender string

const (
	NoGender Gender = ""
	Male     Gender = "male"
	Female   Gender = "female"
)

// ParseGender accepts "male", "female" or the empty string.
func ParseGender(s string) (Gender, error) {
	g := Gender(s)
	if err := g.Validate(); err != nil {
		return NoGender, err
	}
	return g, nil
}

func (g Gender) Validate() error {
	switch g {
	case NoGender, Male, Female:
		return nil
	}
	return errs.NewValueIsInvalidErrorWithCause("gender", fmt.Errorf("%q is not a valid gender", string(g)))
}

// IsSet reports whether g carries an actual gender.
func (g Gender) IsSet() bool {
	return g == Male || g == Female
}

// Matches implements the gender-matching rule: both sides must be set and equal.
func (g Gender) Matches(other Gender) bool {
	return g.IsSet() && g == other
}

func (g Gender) String() string {
	return string(g)
}
