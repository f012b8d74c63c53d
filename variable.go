package sharenv

import (
	"errors"
	"fmt"
	"regexp"
)

// Record construction errors.
var (
	// ErrEmptyName is returned when a record is constructed without a name.
	ErrEmptyName = errors.New("name is empty")

	// ErrInvalidName is returned when a name is not a valid shell identifier.
	ErrInvalidName = errors.New("name is not a valid shell identifier")

	// ErrNoValues is returned when a variable has no candidate values.
	ErrNoValues = errors.New("variable has no values")
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidName reports whether name can be used as a shell variable or alias name.
func ValidName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if !identifier.MatchString(name) {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return nil
}

// Variable is a named environment variable with one or more candidate values.
// A Variable is immutable: a changed source produces a new Variable.
type Variable struct {
	name   string
	values []string
}

// NewVariable creates a Variable from a name and its candidate values in
// rotation order. The values slice is copied.
func NewVariable(name string, values ...string) (Variable, error) {
	if err := ValidName(name); err != nil {
		return Variable{}, err
	}
	if len(values) == 0 {
		return Variable{}, fmt.Errorf("%s: %w", name, ErrNoValues)
	}
	return Variable{name: name, values: append([]string(nil), values...)}, nil
}

// MustVariable is like NewVariable but panics on error.
// Intended for tests and static declarations.
func MustVariable(name string, values ...string) Variable {
	v, err := NewVariable(name, values...)
	if err != nil {
		panic(err)
	}
	return v
}

// Name returns the variable name.
func (v Variable) Name() string {
	return v.name
}

// Len returns the number of candidate values.
func (v Variable) Len() int {
	return len(v.values)
}

// Value returns the candidate at index i.
func (v Variable) Value(i int) string {
	return v.values[i]
}

// Values returns a copy of the candidate values.
func (v Variable) Values() []string {
	return append([]string(nil), v.values...)
}

// Equal reports whether two variables have the same name and values.
func (v Variable) Equal(o Variable) bool {
	if v.name != o.name || len(v.values) != len(o.values) {
		return false
	}
	for i := range v.values {
		if v.values[i] != o.values[i] {
			return false
		}
	}
	return true
}
