package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nikhilbhutani/promptbench/internal/models"
)

func TestExtractVariables(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ExtractVariables("Hi {{a}}, {{b}} and {{a}}"))
	assert.Equal(t, []string{"tone", "topic", "audience"},
		ExtractVariables("Use a {{ tone }} voice about {{topic}}.", "Write for {{audience}} on {{  topic }}"))
	assert.Empty(t, ExtractVariables("no placeholders", "{single} {{}} {{two words}}"))
}

func TestReconcileBindings(t *testing.T) {
	prev := map[string]string{"a": "1", "gone": "x"}
	got := ReconcileBindings([]string{"a", "b"}, prev)
	assert.Equal(t, map[string]string{"a": "1", "b": ""}, got)
	assert.Equal(t, "x", prev["gone"], "input untouched")
}

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name     string
		template string
		bindings map[string]string
		want     string
	}{
		{"spacing variants", "{{name}} / {{ name }} / {{  name\t}}", map[string]string{"name": "Ada"}, "Ada / Ada / Ada"},
		{"unbound left literal", "Hello {{name}}, {{ missing }}", map[string]string{"name": "Ada"}, "Hello Ada, {{ missing }}"},
		{"no recursion", "{{a}}", map[string]string{"a": "{{b}}", "b": "deep"}, "{{b}}"},
		{"verbatim values", "<{{x}}>", map[string]string{"x": `"&<>$1`}, `<"&<>$1>`},
		{"empty value", "[{{x}}]", map[string]string{"x": ""}, "[]"},
		{"nil bindings", "{{x}}", nil, "{{x}}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Substitute(tt.template, tt.bindings))
		})
	}
}

func TestRender(t *testing.T) {
	v := models.PromptVersion{SystemPrompt: "You are {{role}}.", UserPrompt: "Explain {{topic}} as {{role}}."}
	system, user := Render(v, map[string]string{"role": "a poet", "topic": "tides"})
	assert.Equal(t, "You are a poet.", system)
	assert.Equal(t, "Explain tides as a poet.", user)
}
