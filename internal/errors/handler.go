// Package errors routes user-facing messages either to the console or to the
// interactive browser's footer.
package errors

// ErrorHandler is the interface for error handling.
// Commands use a CLIHandler; the interactive browser uses a TUIHandler.
type ErrorHandler interface {
	Error(msg string)
	Warning(msg string)
	Info(msg string)
	Success(msg string)
}

// ColorOutput is the console printer a CLIHandler writes through.
type ColorOutput interface {
	Error(msgs ...string)
	Warning(msgs ...string)
	Info(msgs ...string)
	Success(msgs ...string)
}

// CLIHandler handles messages by printing them with the colors package.
type CLIHandler struct {
	colors ColorOutput
}

func NewCLIHandler(colors ColorOutput) *CLIHandler {
	return &CLIHandler{colors: colors}
}

func (h *CLIHandler) Error(msg string)   { h.colors.Error(msg) }
func (h *CLIHandler) Warning(msg string) { h.colors.Warning(msg) }
func (h *CLIHandler) Info(msg string)    { h.colors.Info(msg) }
func (h *CLIHandler) Success(msg string) { h.colors.Success(msg) }

// Report sends err to h as an error message, prefixed with context when given.
// A nil err is ignored.
func Report(h ErrorHandler, context string, err error) {
	if err == nil || h == nil {
		return
	}
	if context == "" {
		h.Error(err.Error())
		return
	}
	h.Error(context + ": " + err.Error())
}
