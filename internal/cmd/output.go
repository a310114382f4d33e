package cmd

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	vedicerrors "github.com/felixgeelhaar/vedic/internal/errors"
	"github.com/felixgeelhaar/vedic/internal/ux"
)

func validFormat(f string) bool {
	switch f {
	case ux.FormatText, ux.FormatJSON, ux.FormatYAML:
		return true
	}
	return false
}

func invalidFormat() error {
	return vedicerrors.NewInputInvalidError("--format", "text, json or yaml")
}

// show writes data in the selected format. In text format text renders it;
// a nil text leaves the rendering to the formatter.
func (a *App) show(data any, text func() string) error {
	f, err := ux.NewFormatter(a.format, &ux.FormatterOptions{Writer: a.out})
	if err != nil {
		return invalidFormat()
	}
	if ux.IsStructured(a.format) || text == nil {
		return f.Format(data)
	}
	return f.Format(text())
}

// note prints a progress line. It goes to stderr so structured output on
// stdout stays parseable.
func (a *App) note(format string, args ...any) {
	fmt.Fprintf(a.errOut, format+"\n", args...)
}

// yamlText renders backend data that has no fixed shape.
func yamlText(v any) string {
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimRight(string(out), "\n")
}

// kv renders aligned "key: value" lines, skipping empty values.
func kv(pairs ...string) string {
	width := 0
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" && len(pairs[i]) > width {
			width = len(pairs[i])
		}
	}
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%-*s  %s", width+1, pairs[i]+":", pairs[i+1])
	}
	return b.String()
}
