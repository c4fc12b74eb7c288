package prompt

import (
	"regexp"

	"github.com/nikhilbhutani/promptbench/internal/models"
)

// variablePattern matches {{name}} with optional whitespace inside the braces.
var variablePattern = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// ExtractVariables returns every distinct placeholder name across texts, in
// first-seen order.
func ExtractVariables(texts ...string) []string {
	seen := make(map[string]bool)
	vars := []string{}
	for _, text := range texts {
		for _, m := range variablePattern.FindAllStringSubmatch(text, -1) {
			if !seen[m[1]] {
				vars = append(vars, m[1])
				seen[m[1]] = true
			}
		}
	}
	return vars
}

// ReconcileBindings keeps previously entered values for names that still
// appear and drops the rest. New names start empty.
func ReconcileBindings(names []string, previous map[string]string) map[string]string {
	out := make(map[string]string, len(names))
	for _, name := range names {
		out[name] = previous[name]
	}
	return out
}

// Substitute replaces each placeholder whose name is bound. Values are
// inserted verbatim and never re-scanned; unbound placeholders stay as written.
func Substitute(template string, bindings map[string]string) string {
	return variablePattern.ReplaceAllStringFunc(template, func(match string) string {
		name := variablePattern.FindStringSubmatch(match)[1]
		if val, ok := bindings[name]; ok {
			return val
		}
		return match
	})
}

// Render substitutes bindings into both prompt texts of v.
func Render(v models.PromptVersion, bindings map[string]string) (system, user string) {
	return Substitute(v.SystemPrompt, bindings), Substitute(v.UserPrompt, bindings)
}
