package sharenv

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidAliasName is returned for alias names that would break the
// alias statement.
var ErrInvalidAliasName = errors.New("name is not a valid alias name")

// aliasNameReserved lists the characters an alias name may not contain.
const aliasNameReserved = " \t\n'\"=$`;&|<>()/\\"

// Alias is a shell alias served alongside the variables. Aliases do not rotate.
type Alias struct {
	Name    string
	Command string
	// Expand marks a command written in double quotes. It is served in
	// double quotes so the shell expands it when the alias is defined.
	Expand bool
}

// ValidAliasName reports whether name can be used as an alias name. Alias
// names are looser than variable names: "..", "g-st" and "k.get" are valid.
func ValidAliasName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if strings.ContainsAny(name, aliasNameReserved) {
		return fmt.Errorf("%q: %w", name, ErrInvalidAliasName)
	}
	return nil
}

// ParseAliases parses an aliases file. Each non-blank line is one alias in
// any of the forms:
//
//	alias ll='ls -la'
//	ll='ls -la'
//	ll="ls -la"
//	ll=ls
//
// Lines that cannot be parsed are returned as errors alongside the aliases
// that could be.
func ParseAliases(data []byte) ([]Alias, []error) {
	var (
		aliases []Alias
		errs    []error
	)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		a, err := parseAlias(line)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", lineNo, err))
			continue
		}
		aliases = append(aliases, a)
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, err)
	}
	return aliases, errs
}

func parseAlias(line string) (Alias, error) {
	line = strings.TrimSpace(strings.TrimPrefix(line, "alias "))
	name, command, ok := strings.Cut(line, "=")
	if !ok {
		return Alias{}, fmt.Errorf("alias %q has no command", line)
	}
	name = strings.TrimSpace(name)
	if err := ValidAliasName(name); err != nil {
		return Alias{}, err
	}
	command, expand := unquote(strings.TrimSpace(command))
	if command == "" {
		return Alias{}, fmt.Errorf("alias %q has no command", name)
	}
	return Alias{Name: name, Command: command, Expand: expand}, nil
}

// unquote strips one pair of surrounding quotes and reports whether they
// were double quotes.
func unquote(s string) (string, bool) {
	if len(s) >= 2 {
		switch {
		case s[0] == '\'' && s[len(s)-1] == '\'':
			return s[1 : len(s)-1], false
		case s[0] == '"' && s[len(s)-1] == '"':
			return s[1 : len(s)-1], true
		}
	}
	return s, false
}
