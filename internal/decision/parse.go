package decision

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/address-classifier/internal/model"
)

// reply is the raw structured object returned by the reasoning service.
// Fields are untyped so a wrongly typed value is coerced instead of failing
// the whole reply. Confidence stays raw so an out-of-range number only zeroes
// the confidence.
type reply struct {
	Category   any             `json:"category"`
	Confidence json.RawMessage `json:"confidence"`
	Reason     any             `json:"reason"`
}

// parseReply extracts the JSON object from text and coerces it to a result.
// An error means no object could be decoded at all.
func parseReply(text string) (model.ClassificationResult, error) {
	cleaned := cleanJSON(text)
	if cleaned == "" {
		return model.ClassificationResult{}, eris.New("decision: empty reply")
	}
	if !strings.HasPrefix(cleaned, "{") {
		return model.ClassificationResult{}, eris.New("decision: reply is not an object")
	}

	var r reply
	if err := json.Unmarshal([]byte(cleaned), &r); err != nil {
		return model.ClassificationResult{}, eris.Wrap(err, "decision: decode reply")
	}

	return model.ClassificationResult{
		Category:   coerceCategory(r.Category),
		Confidence: model.ClampConfidence(coerceConfidence(r.Confidence)),
		Reason:     coerceReason(r.Reason),
	}, nil
}

// cleanJSON strips markdown fences and trims to the outermost braces.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

func coerceCategory(v any) model.Category {
	s, ok := v.(string)
	if !ok {
		return model.CategoryUnknown
	}
	return model.ParseCategory(s)
}

// coerceConfidence accepts a JSON number or a numeric string. Anything else,
// including a number outside float64 range, is 0.
func coerceConfidence(raw json.RawMessage) float64 {
	text := strings.TrimSpace(string(raw))
	var s string
	if json.Unmarshal(raw, &s) == nil {
		text = strings.TrimSpace(s)
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0
	}
	return f
}

func coerceReason(v any) string {
	switch r := v.(type) {
	case nil:
		return ""
	case string:
		return r
	default:
		return fmt.Sprint(r)
	}
}
