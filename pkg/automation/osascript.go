package automation

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// limitedBuffer wraps bytes.Buffer with a size limit to prevent memory
// exhaustion from a runaway script
type limitedBuffer struct {
	bytes.Buffer
	limit int
}

func (lb *limitedBuffer) Write(p []byte) (n int, err error) {
	if lb.Len()+len(p) > lb.limit {
		remaining := lb.limit - lb.Len()
		if remaining > 0 {
			return lb.Buffer.Write(p[:remaining])
		}
		return len(p), nil // Pretend we wrote it all
	}
	return lb.Buffer.Write(p)
}

// CommandOutput holds the output from a script execution
type CommandOutput struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// CommandRunner defines the interface for executing scripting-bridge commands
type CommandRunner interface {
	RunWithOutputAndContext(ctx context.Context, command []string) (CommandOutput, error)
}

// SystemCommandRunner implements CommandRunner using os/exec. Output is
// captured only, never forwarded: stdout belongs to the protocol transport.
type SystemCommandRunner struct{}

// RunWithOutputAndContext executes a command with context and captures output
func (r *SystemCommandRunner) RunWithOutputAndContext(ctx context.Context, command []string) (CommandOutput, error) {
	if len(command) == 0 {
		return CommandOutput{ExitCode: -1}, fmt.Errorf("empty command")
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)

	// 1MB is generous for osascript output
	const maxBufferSize = 1024 * 1024
	stdoutBuf := &limitedBuffer{limit: maxBufferSize}
	stderrBuf := &limitedBuffer{limit: maxBufferSize}
	cmd.Stdout = stdoutBuf
	cmd.Stderr = stderrBuf

	err := cmd.Run()

	output := CommandOutput{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			output.ExitCode = -1
			return output, context.DeadlineExceeded
		}
		if exitError, ok := err.(*exec.ExitError); ok {
			output.ExitCode = exitError.ExitCode()
			return output, nil
		}
		output.ExitCode = -1
		return output, err
	}

	output.ExitCode = 0
	return output, nil
}

// OsaScripter drives a macOS application through osascript and System Events.
// It implements Scripter by assembling AppleScript sources from the builders
// in script.go and shelling out through a CommandRunner.
type OsaScripter struct {
	Runner  CommandRunner
	Timeout time.Duration
}

// DefaultScriptTimeout bounds a single osascript invocation. UI scripting is
// slow but anything beyond this indicates a wedged System Events session.
const DefaultScriptTimeout = 30 * time.Second

// NewOsaScripter creates an OsaScripter with the system command runner
func NewOsaScripter(timeout time.Duration) *OsaScripter {
	if timeout <= 0 {
		timeout = DefaultScriptTimeout
	}
	return &OsaScripter{
		Runner:  &SystemCommandRunner{},
		Timeout: timeout,
	}
}

// run executes one AppleScript source and returns its trimmed stdout.
func (s *OsaScripter) run(script string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
	defer cancel()

	output, err := s.Runner.RunWithOutputAndContext(ctx, []string{"osascript", "-e", script})
	if err != nil {
		return "", fmt.Errorf("osascript failed: %w", err)
	}
	if output.ExitCode != 0 {
		return "", fmt.Errorf("osascript exited %d: %s", output.ExitCode, strings.TrimSpace(output.Stderr))
	}
	return strings.TrimSpace(output.Stdout), nil
}

// ProcessExists reports whether a process with the given name is running
func (s *OsaScripter) ProcessExists(app string) (bool, error) {
	out, err := s.run(processExistsScript(app))
	if err != nil {
		return false, err
	}
	return out == "true", nil
}

// Activate launches the application if needed and brings it to the foreground
func (s *OsaScripter) Activate(app string) error {
	_, err := s.run(activateScript(app))
	return err
}

// FindAndClickElement clicks the named button inside the locator region.
// A missing element is reported as ErrElementNotFound so callers can treat
// it as a soft failure.
func (s *OsaScripter) FindAndClickElement(app, name string, within Locator) error {
	_, err := s.run(clickElementScript(app, name, within))
	if err != nil {
		// System Events reports a missing element as error -1728
		// ("Can't get button ...").
		if strings.Contains(err.Error(), "-1728") || strings.Contains(err.Error(), "Can't get") {
			return fmt.Errorf("%w: %q", ErrElementNotFound, name)
		}
		return err
	}
	return nil
}

// SendKeystrokes types the given text into the frontmost window
func (s *OsaScripter) SendKeystrokes(app, text string) error {
	_, err := s.run(keystrokesScript(app, text))
	return err
}

// Submit presses the return key in the application
func (s *OsaScripter) Submit(app string) error {
	_, err := s.run(submitScript(app))
	return err
}

// ReadElementText reads the display text of the element addressed by the
// locator. An unresolvable locator or empty value is ErrTextUnavailable.
func (s *OsaScripter) ReadElementText(app string, loc Locator) (string, error) {
	out, err := s.run(readElementTextScript(app, loc))
	if err != nil {
		if strings.Contains(err.Error(), "-1728") || strings.Contains(err.Error(), "Can't get") {
			return "", fmt.Errorf("%w: %s", ErrTextUnavailable, loc)
		}
		return "", err
	}
	if out == "" || out == "missing value" {
		return "", fmt.Errorf("%w: %s", ErrTextUnavailable, loc)
	}
	return out, nil
}

// ListElements enumerates the buttons inside the locator region
func (s *OsaScripter) ListElements(app string, loc Locator) ([]Element, error) {
	out, err := s.run(listElementsScript(app, loc))
	if err != nil {
		return nil, err
	}

	var elements []Element
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		name, kind, _ := strings.Cut(line, "\t")
		elements = append(elements, Element{Name: name, Kind: kind})
	}
	return elements, nil
}
