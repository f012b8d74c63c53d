// Package shell renders sharenv renderings as POSIX shell statements suitable
// for `eval "$(curl -s $SHARENV_ENDPOINT)"`.
package shell

import (
	"io"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/zoobzio/sharenv"
)

var doubleQuoted = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	`$`, `\$`,
	"`", "\\`",
)

// Escape escapes s for use between double quotes.
func Escape(s string) string {
	return doubleQuoted.Replace(s)
}

// Export returns `export NAME="VALUE"`.
func Export(name, value string) string {
	return "export " + name + `="` + Escape(value) + `"`
}

// Alias returns `alias NAME=COMMAND` with the command quoted as a single word.
// Commands written in double quotes are served in double quotes as written,
// leaving expansion to the shell that evaluates the statement.
func Alias(a sharenv.Alias) string {
	if a.Expand {
		return "alias " + a.Name + `="` + a.Command + `"`
	}
	return "alias " + a.Name + "=" + shellquote.Join(a.Command)
}

// Write writes one export statement per assignment followed by one alias
// statement per alias, each terminated by a newline.
func Write(w io.Writer, r sharenv.Rendering) error {
	var b strings.Builder
	for _, a := range r.Assignments {
		b.WriteString(Export(a.Name, a.Value))
		b.WriteByte('\n')
	}
	for _, a := range r.Aliases {
		b.WriteString(Alias(a))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Script returns the statements Write would produce.
func Script(r sharenv.Rendering) string {
	var b strings.Builder
	_ = Write(&b, r) //nolint:errcheck // strings.Builder never fails
	return b.String()
}
