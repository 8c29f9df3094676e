package decision

import "encoding/json"

// reasoningToMap serializes a ProfessionalReasoning record to a plain
// map[string]any for the jsonb columns (trade_signals.ai_reasoning,
// brain_decisions.professional_reasoning). Round-tripping through
// encoding/json keeps the stored shape identical to the structs' exported
// field names (they carry no json tags, so keys are the Go field names)
// rather than hand-maintaining a parallel field list, satisfying the
// serialization round-trip property: deserializing the blob reproduces the
// setup type, quality, R:R, win probability, and alignment fields exactly.
func reasoningToMap(r *ProfessionalReasoning) map[string]any {
	raw, err := json.Marshal(r)
	if err != nil {
		return map[string]any{"error": "failed to serialize reasoning"}
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{"error": "failed to deserialize reasoning"}
	}
	return out
}
