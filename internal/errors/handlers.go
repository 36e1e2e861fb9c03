// Package errors/handlers provides interface-specific error handling implementations.
//
// SYSTEM ARCHITECTURE ROLE:
// This module implements the interface layer of the error handling system, providing
// customized error formatting and handling for different user interfaces (CLI, TUI).
//
// KEY RESPONSIBILITIES:
// - Convert structured AppErrors into interface-appropriate error representations
// - Provide consistent error logging across all interfaces
// - Handle error recovery strategies and retry logic
//
// INTEGRATION POINTS:
// - internal/cli/cli.go: CLI.errorHandler (CLIErrorHandler) formats terminal error display
// - internal/ui/model.go: TUI components use TUIErrorHandler for error styling and display
// - <library>/.template-factory/logs/error.log: File logging destination for debugging
// - os.Stderr: Console error output with structured logging format
//
// ERROR FLOW:
// 1. Business logic generates AppError
// 2. Interface-specific handler processes the error
// 3. Handler formats error for display/response
// 4. Handler logs error for debugging/monitoring
// 5. Formatted error is returned to user
//
// USAGE PATTERNS:
// - CLI: Create CLIErrorHandler and use HandleError() method
// - TUI: Use GetErrorStyle() for styling information
// - Global: Use CreateGlobalErrorHandler() for environment detection
//
// FUTURE DEVELOPMENT:
// - Add new interface handlers by implementing ErrorHandler interface
// - Add new error recovery strategies in ErrorRecovery
// - Implement structured logging integration (e.g., structured JSON logs)
package errors

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
)

// ErrorHandler provides interface-specific error handling
type ErrorHandler interface {
	HandleError(err error) error
	FormatError(err error) string
}

// CLIErrorHandler handles errors for CLI interface
type CLIErrorHandler struct {
	Verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler(verbose bool) *CLIErrorHandler {
	return &CLIErrorHandler{
		Verbose: verbose,
	}
}

// HandleError handles errors for CLI interface
func (h *CLIErrorHandler) HandleError(err error) error {
	appErr := GetAppError(err)

	// Log error for debugging
	if h.Verbose {
		log.Printf("[%s] %s: %s", appErr.Severity, appErr.Code, appErr.Error())
		if appErr.Cause != nil {
			log.Printf("Caused by: %v", appErr.Cause)
		}
	}

	// Return formatted error for display
	return fmt.Errorf("%s", h.FormatError(appErr))
}

// FormatError formats an error for CLI display
func (h *CLIErrorHandler) FormatError(err error) string {
	if !IsAppError(err) {
		return fmt.Sprintf("❌ ERROR: %v", err)
	}
	appErr := GetAppError(err)

	message := appErr.Message
	if appErr.Cause != nil {
		message = fmt.Sprintf("%s: %v", message, appErr.Cause)
	}

	// Format based on severity
	switch appErr.Severity {
	case SeverityCritical:
		return fmt.Sprintf("❌ CRITICAL: %s", message)
	case SeverityError:
		return fmt.Sprintf("❌ ERROR: %s", message)
	case SeverityWarning:
		return fmt.Sprintf("⚠️  WARNING: %s", message)
	case SeverityInfo:
		return fmt.Sprintf("ℹ️  INFO: %s", message)
	default:
		return fmt.Sprintf("❌ %s", message)
	}
}

// TUIErrorHandler handles errors for TUI interface
type TUIErrorHandler struct {
	ShowDetails bool
}

// NewTUIErrorHandler creates a new TUI error handler
func NewTUIErrorHandler(showDetails bool) *TUIErrorHandler {
	return &TUIErrorHandler{
		ShowDetails: showDetails,
	}
}

// HandleError handles errors for TUI interface
func (h *TUIErrorHandler) HandleError(err error) error {
	appErr := GetAppError(err)

	// Log error to file for debugging
	logToFile(appErr)

	return appErr
}

// FormatError formats an error for TUI display
func (h *TUIErrorHandler) FormatError(err error) string {
	appErr := GetAppError(err)

	message := appErr.Message
	if h.ShowDetails && appErr.Details != "" {
		message = fmt.Sprintf("%s\nDetails: %s", message, appErr.Details)
	}

	return message
}

// GetErrorStyle returns styling information for TUI based on error severity
func (h *TUIErrorHandler) GetErrorStyle(err error) (string, string) {
	appErr := GetAppError(err)

	switch appErr.Severity {
	case SeverityCritical:
		return "🔥", "#ff0000" // Red
	case SeverityError:
		return "❌", "#ff6b6b" // Light red
	case SeverityWarning:
		return "⚠️", "#feca57" // Yellow
	case SeverityInfo:
		return "ℹ️", "#48cae4" // Blue
	default:
		return "❌", "#ff6b6b"
	}
}

// ErrorRecovery provides error recovery strategies
type ErrorRecovery struct {
	MaxRetries int
	RetryDelay int // seconds
}

// NewErrorRecovery creates a new error recovery instance
func NewErrorRecovery(maxRetries int, retryDelaySeconds int) *ErrorRecovery {
	return &ErrorRecovery{
		MaxRetries: maxRetries,
		RetryDelay: retryDelaySeconds,
	}
}

// ShouldRetry determines if an operation should be retried
func (r *ErrorRecovery) ShouldRetry(err error, attempt int) bool {
	if attempt >= r.MaxRetries {
		return false
	}

	appErr := GetAppError(err)
	return appErr.IsRetryable()
}

// GetRetryDelay returns the delay before next retry
func (r *ErrorRecovery) GetRetryDelay(attempt int) int {
	// Exponential backoff: delay * 2^attempt
	return r.RetryDelay * (1 << attempt)
}

// logToFile logs errors to a file for debugging
func logToFile(appErr *AppError) {
	logDir := os.Getenv("TEMPLATE_FACTORY_DIR")
	if logDir == "" {
		logDir = "."
	}
	logDir += "/.template-factory/logs"

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return // Fail silently if we can't create log directory
	}

	logFile := logDir + "/error.log"
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return // Fail silently if we can't open log file
	}
	defer file.Close()

	logEntry := fmt.Sprintf("[%s] [%s] [%s] %s: %s",
		appErr.Timestamp.Format("2006-01-02 15:04:05"),
		appErr.Severity,
		appErr.Category,
		appErr.Code,
		appErr.Error())

	if appErr.Cause != nil {
		logEntry += fmt.Sprintf(" | Cause: %v", appErr.Cause)
	}

	if appErr.Context != nil {
		contextJSON, _ := json.Marshal(appErr.Context)
		logEntry += fmt.Sprintf(" | Context: %s", string(contextJSON))
	}

	logEntry += "\n"

	file.WriteString(logEntry)
}

// CreateGlobalErrorHandler creates a global error handler based on environment
func CreateGlobalErrorHandler() ErrorHandler {
	if os.Getenv("TUI_MODE") == "true" {
		return NewTUIErrorHandler(os.Getenv("DEBUG") == "true")
	}

	// Default to CLI handler
	return NewCLIErrorHandler(os.Getenv("DEBUG") == "true" || os.Getenv("VERBOSE") == "true")
}
