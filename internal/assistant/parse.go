package assistant

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var codeFence = regexp.MustCompile("(?im)^```(?:json)?\\s*|```$")

var errNoObject = errors.New("response does not contain a JSON object")

// Parse stages, in the order they are attempted.
const (
	StageDirect  = "direct"
	StageFence   = "fence"
	StageExtract = "extract"
)

// parseObject decodes text as a JSON object. When the text is not clean JSON
// it retries after stripping Markdown code fences and then on the span from
// the first '{' to the last '}'. The returned stage names the step that
// succeeded.
func parseObject(text string) (map[string]any, string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		text = "{}"
	}
	if obj, err := decodeObject(text); err == nil {
		return obj, StageDirect, nil
	}

	cleaned := strings.TrimSpace(codeFence.ReplaceAllString(text, ""))
	obj, err := decodeObject(cleaned)
	if err == nil {
		return obj, StageFence, nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, "", err
	}
	obj, err = decodeObject(cleaned[start : end+1])
	if err != nil {
		return nil, "", err
	}
	return obj, StageExtract, nil
}

func decodeObject(text string) (map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errNoObject
	}
	return obj, nil
}
