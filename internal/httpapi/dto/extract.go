package dto

import "fmt"

// ExtractPrompt resolves a canonical prompt string from a
// ResponsesRequest, trying, in order: instructions+input (string or
// array of parts), messages (OpenAI chat array), prompt (string).
// Parts of shape {type:"text", text} are concatenated. Absence of all
// recognised inputs returns an error.
func (r ResponsesRequest) ExtractPrompt() (string, error) {
	if r.Input != nil {
		text, err := extractInput(r.Input)
		if err != nil {
			return "", err
		}
		if r.Instructions != "" {
			return r.Instructions + "\n\n" + text, nil
		}
		return text, nil
	}
	if len(r.Messages) > 0 {
		var out string
		for i, m := range r.Messages {
			if i > 0 {
				out += "\n"
			}
			out += m.Role + ": " + m.Content
		}
		return out, nil
	}
	if r.Prompt != "" {
		return r.Prompt, nil
	}
	return "", fmt.Errorf("missing input/messages/prompt/instructions")
}

func extractInput(input any) (string, error) {
	switch v := input.(type) {
	case string:
		return v, nil
	case []any:
		var out string
		for i, part := range v {
			text, ok := partText(part)
			if !ok {
				return "", fmt.Errorf("unrecognised input part at index %d", i)
			}
			if i > 0 {
				out += "\n"
			}
			out += text
		}
		return out, nil
	default:
		return "", fmt.Errorf("unrecognised input shape")
	}
}

func partText(part any) (string, bool) {
	m, ok := part.(map[string]any)
	if !ok {
		return "", false
	}
	if t, _ := m["type"].(string); t != "text" {
		return "", false
	}
	text, ok := m["text"].(string)
	return text, ok
}

// ExtractPrompt resolves a canonical prompt string from a
// CompletionRequest's Prompt field, which may be a single string or an
// array of strings on the wire; array prompts are joined with
// newlines.
func (r CompletionRequest) ExtractPrompt() (string, error) {
	switch v := r.Prompt.(type) {
	case string:
		return v, nil
	case []any:
		var out string
		for i, p := range v {
			s, ok := p.(string)
			if !ok {
				return "", fmt.Errorf("prompt array entry at index %d is not a string", i)
			}
			if i > 0 {
				out += "\n"
			}
			out += s
		}
		return out, nil
	default:
		return "", fmt.Errorf("prompt must be a string or an array of strings")
	}
}
