package automation

import "errors"

// Sentinel errors returned by Scripter implementations. Callers use these to
// distinguish soft failures (element missing, text unreadable) from hard
// scripting-bridge failures.
var (
	// ErrElementNotFound indicates the requested UI element does not exist
	// in the target application's current window state.
	ErrElementNotFound = errors.New("ui element not found")

	// ErrTextUnavailable indicates the locator resolved but no readable text
	// could be extracted from it.
	ErrTextUnavailable = errors.New("element text unavailable")
)

// Locator identifies a region of the target application's UI in the scripting
// layer's own addressing scheme (for osascript, a System Events element
// reference such as "group 1 of group 1 of window 1"). Locators are operator
// configuration, never user input.
type Locator string

// Element describes a single UI element returned by ListElements.
type Element struct {
	Name string
	Kind string
}

// Scripter is the OS scripting bridge used to drive an external GUI
// application. Implementations must treat the text passed to SendKeystrokes
// as literal content: any characters with meaning in the underlying scripting
// language are escaped before the command is assembled.
//
// All methods may return an error when the scripting bridge itself fails.
// FindAndClickElement additionally returns ErrElementNotFound, and
// ReadElementText returns ErrTextUnavailable, for the soft-failure cases.
type Scripter interface {
	// ProcessExists reports whether a process with the given name is running.
	ProcessExists(app string) (bool, error)

	// Activate launches the application if needed and brings it to the
	// foreground.
	Activate(app string) error

	// FindAndClickElement clicks the UI element with the given name inside
	// the locator region.
	FindAndClickElement(app, name string, within Locator) error

	// SendKeystrokes types the given text into the frontmost window of the
	// application, verbatim.
	SendKeystrokes(app, text string) error

	// Submit presses the return key in the application.
	Submit(app string) error

	// ReadElementText reads the display text of the element addressed by the
	// locator.
	ReadElementText(app string, loc Locator) (string, error)

	// ListElements enumerates the named elements inside the locator region.
	ListElements(app string, loc Locator) ([]Element, error)
}
