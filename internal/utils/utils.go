package utils

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	SuccessColor = color.New(color.FgGreen).SprintFunc()
	WarningColor = color.New(color.FgYellow).SprintFunc()
	ErrorColor   = color.New(color.FgRed).SprintFunc()
	BoldRedColor = color.New(color.FgRed, color.Bold).SprintFunc()
	InfoColor    = color.New(color.FgCyan).SprintFunc()
	DimColor     = color.New(color.FgMagenta).SprintFunc()
)

// PrintSuccess formats and prints a success message.
func PrintSuccess(msg string) {
	fmt.Fprintf(os.Stderr, "[%s] %s\n", SuccessColor("SUCCESS"), msg)
}

// PrintWarning formats and prints a warning message.
func PrintWarning(msg string) {
	fmt.Fprintf(os.Stderr, "[%s] %s\n", WarningColor("WARNING"), msg)
}

// PrintError formats and prints an error message.
func PrintError(msg string) {
	fmt.Fprintf(os.Stderr, "[%s] %s\n", ErrorColor("ERROR"), msg)
}

// PrintInfo formats and prints an informational message.
func PrintInfo(msg string) {
	fmt.Fprintf(os.Stderr, "[%s] %s\n", InfoColor("INFO"), msg)
}

// ColorByStatus colors a result line according to its status code so
// hits stand out when scanning terminal output. 2xx is green, 404 is
// magenta, 429 and 5xx are bold red, other 4xx plain red.
func ColorByStatus(statusCode int, line string) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return SuccessColor(line)
	case statusCode == 404:
		return DimColor(line)
	case statusCode == 429:
		return BoldRedColor(line)
	case statusCode >= 400 && statusCode < 500:
		return ErrorColor(line)
	case statusCode >= 500 && statusCode < 600:
		return BoldRedColor(line)
	default:
		return line
	}
}

// GenerateCurlCommand creates a reproducible curl command from a request.
func GenerateCurlCommand(req *http.Request) string {
	var command strings.Builder
	command.WriteString("curl -X ")
	command.WriteString(req.Method)
	command.WriteString(fmt.Sprintf(" '%s'", req.URL.String()))

	for key, values := range req.Header {
		// Host header is added by curl automatically
		if key == "Host" && len(values) > 0 {
			continue
		}
		for _, value := range values {
			command.WriteString(fmt.Sprintf(" -H '%s: %s'", key, value))
		}
	}

	if req.TLS != nil {
		command.WriteString(" -k")
	}

	return command.String()
}

// FormatTimeRemaining renders a second count in a compact human form.
func FormatTimeRemaining(seconds float64) string {
	switch {
	case seconds <= 0:
		return "0s"
	case seconds < 60:
		return fmt.Sprintf("%.0fs", seconds)
	case seconds < 3600:
		minutes := int(seconds) / 60
		rest := int(seconds) % 60
		if rest > 0 {
			return fmt.Sprintf("%dm %ds", minutes, rest)
		}
		return fmt.Sprintf("%dm", minutes)
	default:
		hours := int(seconds) / 3600
		minutes := (int(seconds) % 3600) / 60
		if minutes > 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}
}
