package concept

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// MaxBraceRepairs bounds how many closing braces Extract will append to a
// truncated object.
const MaxBraceRepairs = 4

const maxSnippet = 500

var ErrExtraction = errors.New("could not extract a JSON object")

const fence = "```"

// fenceTagRe matches the language tag and line break after an opening fence.
var fenceTagRe = regexp.MustCompile(`^[A-Za-z0-9_-]*[ \t]*\r?\n?`)

// ExtractionError carries a bounded copy of the text that could not be
// parsed.
type ExtractionError struct {
	Snippet string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s from response: %q", ErrExtraction.Error(), e.Snippet)
}

func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}

func newExtractionError(text string) *ExtractionError {
	runes := []rune(text)
	if len(runes) > maxSnippet {
		return &ExtractionError{Snippet: string(runes[:maxSnippet]) + "..."}
	}

	return &ExtractionError{Snippet: text}
}

// Extract pulls a single JSON object out of untrusted model output. The
// strategies run in order and the first success wins:
//
//  1. the trimmed text as-is
//  2. the body of the wrapping code fence
//  3. the outermost {...} substring of the fence body, then of the text
//  4. the object with up to MaxBraceRepairs closing braces appended, when
//     opening braces outnumber closing ones
func Extract(text string) (map[string]any, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, newExtractionError(text)
	}

	if obj, ok := decodeObject(trimmed); ok {
		return obj, nil
	}

	unfenced := stripFences(trimmed)
	if unfenced != trimmed {
		if obj, ok := decodeObject(unfenced); ok {
			return obj, nil
		}
	}

	braced := outermostObject(unfenced)
	if braced != "" && braced != unfenced {
		if obj, ok := decodeObject(braced); ok {
			return obj, nil
		}
	}
	if unfenced != trimmed {
		if whole := outermostObject(trimmed); whole != "" && whole != braced {
			if obj, ok := decodeObject(whole); ok {
				return obj, nil
			}
		}
	}

	for _, candidate := range repairCandidates(unfenced, braced) {
		missing := unclosedBraces(candidate)
		if missing <= 0 {
			continue
		}

		for n := 1; n <= MaxBraceRepairs; n++ {
			if obj, ok := decodeObject(candidate + strings.Repeat("}", n)); ok {
				return obj, nil
			}
		}
	}

	return nil, newExtractionError(text)
}

func decodeObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}

	return obj, true
}

// stripFences returns the body between the first opening fence and the last
// closing fence. Fences inside the body, such as in string values, are kept.
// A fence that only follows the start of an object is treated as a stray
// closing fence and cut off.
func stripFences(s string) string {
	start := strings.Index(s, fence)
	if start < 0 {
		return s
	}

	if strings.IndexByte(s[:start], '{') >= 0 {
		return strings.TrimSpace(s[:strings.LastIndex(s, fence)])
	}

	body := s[start+len(fence):]
	body = body[len(fenceTagRe.FindString(body)):]
	if end := strings.LastIndex(body, fence); end >= 0 {
		body = body[:end]
	}

	return strings.TrimSpace(body)
}

// outermostObject returns the text between the first '{' and the last '}'.
func outermostObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return ""
	}

	return s[start : end+1]
}

// repairCandidates lists the substrings worth brace-completing: the outermost
// object and everything from the first '{' to the end of the text.
func repairCandidates(unfenced, braced string) []string {
	var out []string
	if start := strings.IndexByte(unfenced, '{'); start >= 0 {
		out = append(out, strings.TrimSpace(unfenced[start:]))
	}
	if braced != "" && (len(out) == 0 || out[0] != braced) {
		out = append(out, braced)
	}

	return out
}

// unclosedBraces counts '{' minus '}' outside of JSON string literals.
func unclosedBraces(s string) int {
	var (
		depth    int
		inString bool
		escaped  bool
	)
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case inString && r == '\\':
			escaped = true
		case r == '"':
			inString = !inString
		case inString:
		case r == '{':
			depth++
		case r == '}':
			depth--
		}
	}

	return depth
}

// ResponseText unwraps the generated text from the response envelopes that
// upstream concept services use. Unknown shapes are stringified.
func ResponseText(payload any) string {
	switch v := payload.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any:
		if s, ok := v["reply"].(string); ok {
			return s
		}
		if choices, ok := v["choices"].([]any); ok && len(choices) > 0 {
			if choice, ok := choices[0].(map[string]any); ok {
				if msg, ok := choice["message"].(map[string]any); ok {
					s, _ := msg["content"].(string)
					return s
				}
				if s, ok := choice["text"].(string); ok {
					return s
				}
			}
		}
		switch text := v["text"].(type) {
		case string:
			return text
		case []any:
			if len(text) > 0 {
				return fmt.Sprint(text[0])
			}
		}
		if outputs, ok := v["outputs"].([]any); ok && len(outputs) > 0 {
			if out, ok := outputs[0].(map[string]any); ok {
				s, _ := out["text"].(string)
				return s
			}
		}
		if s, ok := v["generated_text"].(string); ok {
			return s
		}
		if hasKeys(v, "image_prompt", "caption", "text_position") {
			data, err := json.Marshal(v)
			if err == nil {
				return string(data)
			}
		}
	case []any:
		if len(v) == 0 {
			return ""
		}
		if first, ok := v[0].(map[string]any); ok {
			if s, ok := first["generated_text"].(string); ok {
				return s
			}
		}
		return fmt.Sprint(v[0])
	}

	return fmt.Sprint(payload)
}

func hasKeys(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			return false
		}
	}
	return true
}
