package relay

import "strings"

// Device-action directives are embedded in message content as
//
//	simulate_input:<kind>:<action>
//
// where kind is "pointer" (action: "x,y" coordinates) or "key" (action: a
// key code). The legacy kinds "mouse" and "keyboard" are accepted as
// aliases. The router only extracts the directive; validating the action
// string belongs to the automation collaborator.
const directivePrefix = "simulate_input:"

// parseDirective extracts the first device-action directive from content.
func parseDirective(content string) (kind ActionKind, action string, ok bool) {
	idx := strings.Index(content, directivePrefix)
	if idx < 0 {
		return "", "", false
	}

	rest := content[idx+len(directivePrefix):]
	sep := strings.Index(rest, ":")
	if sep <= 0 {
		return "", "", false
	}

	rawKind := rest[:sep]
	action = rest[sep+1:]
	// The directive ends at the first whitespace.
	if end := strings.IndexFunc(action, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	}); end >= 0 {
		action = action[:end]
	}
	if action == "" {
		return "", "", false
	}

	switch rawKind {
	case "pointer", "mouse":
		kind = ActionPointer
	case "key", "keyboard":
		kind = ActionKey
	default:
		return "", "", false
	}
	return kind, action, true
}
