package models

import "strings"

// NextAction is the routing decision for a turn: which retrieval/generation
// branch answers the rephrased question. Raw router output is parsed into
// this closed set at the classification boundary; raw strings never travel
// past it.
type NextAction int

const (
	// ActionRespond is the default branch: answer without retrieval.
	ActionRespond NextAction = iota
	// ActionFileSearch grounds the answer in uploaded-file chunks.
	ActionFileSearch
	// ActionWebSearch grounds the answer in freshly fetched web pages.
	ActionWebSearch
	// ActionCodeAssistant answers with the coding prompt, no retrieval.
	ActionCodeAssistant
)

var actionNames = map[NextAction]string{
	ActionRespond:       "respond",
	ActionFileSearch:    "file_search",
	ActionWebSearch:     "web_search",
	ActionCodeAssistant: "code_assistant",
}

func (a NextAction) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "respond"
}

// ParseNextAction maps raw classifier output to a NextAction. The model is
// not guaranteed to honor the label contract, so matching is lenient: the
// first known label found in the output wins. Unrecognized output returns
// ActionRespond together with a ClassificationError so callers can record
// the recovery.
func ParseNextAction(raw string) (NextAction, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))

	switch normalized {
	case "file_search", "db_lookup":
		return ActionFileSearch, nil
	case "web_search":
		return ActionWebSearch, nil
	case "code_assistant":
		return ActionCodeAssistant, nil
	case "respond", "none":
		return ActionRespond, nil
	}

	// Verbose models wrap the label in prose. Scan for the first mention.
	for _, candidate := range []struct {
		label  string
		action NextAction
	}{
		{"file_search", ActionFileSearch},
		{"db_lookup", ActionFileSearch},
		{"web_search", ActionWebSearch},
		{"code_assistant", ActionCodeAssistant},
		{"respond", ActionRespond},
	} {
		if strings.Contains(normalized, candidate.label) {
			return candidate.action, nil
		}
	}

	return ActionRespond, &ClassificationError{Raw: raw}
}
