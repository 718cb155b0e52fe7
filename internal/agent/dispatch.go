package agent

import "strings"

// ShouldDispatch decides whether chain output is handed to the tool-using
// agent. The gate is a plain substring check over the serialized output: a
// report request carries both "title" and "filename", an image request
// carries "image_prompt". Anything else goes straight back to the user.
func ShouldDispatch(text string) bool {
	if strings.Contains(text, "title") && strings.Contains(text, "filename") {
		return true
	}
	return strings.Contains(text, "image_prompt")
}
