package user

import (
	"fmt"

	"workorders/internal/pkg/errs"
)

// Role is the closed set of actor kinds. Switches over Role are expected to be exhaustive.
type Role int

const (
	UnknownRole Role = iota
	Client
	Worker
	Admin
)

func getRoleStrings() map[Role]string {
	return map[Role]string{
		UnknownRole: "unknown",
		Client:      "client",
		Worker:      "worker",
		Admin:       "admin",
	}
}

// ParseRole maps the wire form ("client", "worker", "admin") to a Role.
func ParseRole(s string) (Role, error) {
	for role, str := range getRoleStrings() {
		if role != UnknownRole && str == s {
			return role, nil
		}
	}
	return UnknownRole, errs.NewValueIsInvalidErrorWithCause("role", fmt.Errorf("%q is not a valid role", s))
}

func (r Role) Validate() error {
	switch r {
	case Client, Worker, Admin:
		return nil
	case UnknownRole:
	}
	return errs.NewValueIsInvalidErrorWithCause("role", fmt.Errorf("%d is not a valid role", r))
}

func (r Role) String() string {
	if s, ok := getRoleStrings()[r]; ok {
		return s
	}
	return "unknown"
}
