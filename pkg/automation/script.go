package automation

import (
	"fmt"
	"strings"
)

// EscapeText escapes user-supplied text for interpolation into an AppleScript
// string literal. Backslashes are doubled first so that the quote escaping
// cannot be undone by a trailing backslash in the input.
func EscapeText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// Script builders. Application names and element names are escaped the same
// way as prompt text; locators are raw System Events references supplied by
// operator configuration and are interpolated verbatim.

func processExistsScript(app string) string {
	return fmt.Sprintf(`tell application "System Events" to return (name of processes) contains "%s"`, EscapeText(app))
}

func activateScript(app string) string {
	return fmt.Sprintf(`tell application "%s" to activate`, EscapeText(app))
}

func clickElementScript(app, name string, within Locator) string {
	return fmt.Sprintf(`tell application "System Events"
	tell process "%s"
		set frontmost to true
		click button "%s" of %s
	end tell
end tell`, EscapeText(app), EscapeText(name), within)
}

func keystrokesScript(app, text string) string {
	return fmt.Sprintf(`tell application "System Events"
	tell process "%s"
		set frontmost to true
		delay 0.5
		keystroke "%s"
	end tell
end tell`, EscapeText(app), EscapeText(text))
}

func submitScript(app string) string {
	return fmt.Sprintf(`tell application "System Events"
	tell process "%s"
		keystroke return
	end tell
end tell`, EscapeText(app))
}

func readElementTextScript(app string, loc Locator) string {
	return fmt.Sprintf(`tell application "System Events"
	tell process "%s"
		return value of %s
	end tell
end tell`, EscapeText(app), loc)
}

func listElementsScript(app string, loc Locator) string {
	return fmt.Sprintf(`tell application "System Events"
	tell process "%s"
		set out to ""
		repeat with b in (buttons of %s)
			set out to out & (name of b) & tab & (role of b) & linefeed
		end repeat
		return out
	end tell
end tell`, EscapeText(app), loc)
}
