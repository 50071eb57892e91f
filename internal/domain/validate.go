package domain

import (
	"net/url"
	"strings"

	"github.com/samber/mo"
)

type check struct {
	field       string
	requirement string
	ok          func() bool
}

// Validation accumulates named predicate checks over candidate field
// values. Checks run in declaration order and stop at the first failure,
// so a reported violation is always a single requirement.
type Validation struct {
	checks []check
}

func Validate() *Validation {
	return &Validation{}
}

// That appends an arbitrary named check.
func (v *Validation) That(field, requirement string, ok func() bool) *Validation {
	v.checks = append(v.checks, check{field: field, requirement: requirement, ok: ok})
	return v
}

func (v *Validation) NotBlank(field, value string) *Validation {
	return v.That(field, "must not be blank", func() bool {
		return strings.TrimSpace(value) != ""
	})
}

func (v *Validation) NonNegative(field string, value int) *Validation {
	return v.That(field, "must not be negative", func() bool {
		return value >= 0
	})
}

func (v *Validation) Positive(field string, value int) *Validation {
	return v.That(field, "must be positive", func() bool {
		return value > 0
	})
}

func (v *Validation) AbsoluteURL(field, value string) *Validation {
	return v.That(field, "must be an absolute URL", func() bool {
		u, err := url.Parse(strings.TrimSpace(value))
		return err == nil && u.Scheme != "" && u.Host != ""
	})
}

// Check evaluates the accumulated checks and returns the first violation
// as an InvariantViolation, or nil when all pass.
func (v *Validation) Check() error {
	for _, c := range v.checks {
		if !c.ok() {
			return InvariantViolation("%s %s", c.field, c.requirement)
		}
	}
	return nil
}

// Create invokes factory only when every check in v passes. Entity
// constructors route through this so no invalid value is ever built.
func Create[T any](v *Validation, factory func() T) mo.Result[T] {
	if err := v.Check(); err != nil {
		return mo.Err[T](err)
	}
	return mo.Ok(factory())
}
