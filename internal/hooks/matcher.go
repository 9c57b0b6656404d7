package hooks

import "regexp"

// MatchesEvent checks if a matcher pattern matches the given value.
// Empty or "*" matches everything. Matcher is regex-anchored at both ends.
func MatchesEvent(matcher, matchValue string) bool {
	switch matcher {
	case "", "*":
		return true
	default:
		if re, err := regexp.Compile("^(" + matcher + ")$"); err == nil {
			return re.MatchString(matchValue)
		}
		return matcher == matchValue
	}
}

// MatchContext carries the structural fields matchers filter on.
type MatchContext struct {
	ToolName string
}

// MatchValue extracts the value to match against for an event type. Agent
// and session events have no matcher value.
func MatchValue(event EventType, ctx MatchContext) string {
	switch event {
	case BeforeTool, AfterTool:
		return ctx.ToolName
	default:
		return ""
	}
}

// EventSupportsMatcher returns true if the event type supports matcher
// filtering.
func EventSupportsMatcher(event EventType) bool {
	return event == BeforeTool || event == AfterTool
}
