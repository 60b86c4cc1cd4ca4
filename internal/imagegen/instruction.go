package imagegen

import "strings"

const promptPlaceholder = "{prompt}"

// BuildInstruction renders the text part of a scene image request. Without a
// reference image the scene prompt is sent verbatim; with one, the prompt is
// embedded in the reference template so the model keeps the character.
func BuildInstruction(referenceTemplate, prompt string, withReference bool) string {
	if !withReference {
		return prompt
	}
	tmpl := strings.TrimSpace(referenceTemplate)
	if !strings.Contains(tmpl, promptPlaceholder) {
		return prompt
	}
	return strings.ReplaceAll(tmpl, promptPlaceholder, prompt)
}
