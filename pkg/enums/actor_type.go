package enums

import "fmt"

// ActorType identifies who performed a mutating action.
type ActorType string

const (
	ActorTypeStaff   ActorType = "staff"
	ActorTypeTenant  ActorType = "tenant"
	ActorTypeGateway ActorType = "gateway"
	ActorTypeSystem  ActorType = "system"
)

var validActorTypes = []ActorType{
	ActorTypeStaff,
	ActorTypeTenant,
	ActorTypeGateway,
	ActorTypeSystem,
}

// String implements fmt.Stringer.
func (a ActorType) String() string {
	return string(a)
}

// IsValid reports whether the value is known.
func (a ActorType) IsValid() bool {
	for _, candidate := range validActorTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActorType converts raw input into an ActorType.
func ParseActorType(value string) (ActorType, error) {
	for _, candidate := range validActorTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor type %q", value)
}
