// Package logging provides the leveled, colored console logger used
// across the server. There is no structured-logging library anywhere in
// the example pack this module draws from, so this stays on the
// standard library's log/fmt rather than introducing one unsupported by
// that corpus.
package logging

import (
	"fmt"
	"log"
	"os"
	"time"
)

// ANSI color codes.
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorWhite  = "\033[37m"
	ColorCyan   = "\033[36m"
	ColorGray   = "\033[90m"
)

// Log levels.
const (
	LevelDebug = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelSuccess
)

// Logger is a minimum-level, optionally timestamped colored logger.
type Logger struct {
	level      int
	timeFormat string
	showTime   bool
}

var defaultLogger *Logger

func init() {
	defaultLogger = &Logger{
		level:      LevelInfo,
		timeFormat: "15:04:05",
		showTime:   true,
	}
}

// SetLevel sets the minimum level the default logger emits.
func SetLevel(level int) {
	defaultLogger.level = level
}

// SetTimeFormat sets the timestamp format used by the default logger.
func SetTimeFormat(format string) {
	defaultLogger.timeFormat = format
}

// ShowTime enables or disables the timestamp prefix.
func ShowTime(show bool) {
	defaultLogger.showTime = show
}

func (l *Logger) formatMessage(color, prefix, message string) string {
	timestamp := ""
	if l.showTime {
		timestamp = fmt.Sprintf("%s[%s]%s ", ColorGray, time.Now().Format(l.timeFormat), ColorReset)
	}
	return fmt.Sprintf("%s%s[%s]%s %s", timestamp, color, prefix, ColorReset, message)
}

// Debug logs a debug message (gray).
func Debug(format string, args ...interface{}) {
	if defaultLogger.level <= LevelDebug {
		log.Println(defaultLogger.formatMessage(ColorGray, "DEBUG", fmt.Sprintf(format, args...)))
	}
}

// Info logs an informational message (white).
func Info(format string, args ...interface{}) {
	if defaultLogger.level <= LevelInfo {
		log.Println(defaultLogger.formatMessage(ColorWhite, "INFO", fmt.Sprintf(format, args...)))
	}
}

// Warn logs a warning message (yellow).
func Warn(format string, args ...interface{}) {
	if defaultLogger.level <= LevelWarn {
		log.Println(defaultLogger.formatMessage(ColorYellow, "WARN", fmt.Sprintf(format, args...)))
	}
}

// Error logs an error message (red).
func Error(format string, args ...interface{}) {
	if defaultLogger.level <= LevelError {
		log.Println(defaultLogger.formatMessage(ColorRed, "ERROR", fmt.Sprintf(format, args...)))
	}
}

// Success logs a success message (green).
func Success(format string, args ...interface{}) {
	if defaultLogger.level <= LevelSuccess {
		log.Println(defaultLogger.formatMessage(ColorGreen, "SUCCESS", fmt.Sprintf(format, args...)))
	}
}

// Fatal logs a fatal error and exits the process.
func Fatal(format string, args ...interface{}) {
	log.Println(defaultLogger.formatMessage(ColorRed, "FATAL", fmt.Sprintf(format, args...)))
	os.Exit(1)
}

// Packet logs a protocol-level trace message in cyan, kept separate from
// Debug so packet tracing can be grepped on its own.
func Packet(format string, args ...interface{}) {
	if defaultLogger.level <= LevelDebug {
		log.Println(defaultLogger.formatMessage(ColorCyan, "PACKET", fmt.Sprintf(format, args...)))
	}
}

// Section prints a section header, used to mark boot phases.
func Section(title string) {
	border := "═══════════════════════════════════════════════════════════"
	fmt.Printf("\n%s╔%s╗%s\n", ColorCyan, border, ColorReset)
	fmt.Printf("%s║%s %-57s %s║%s\n", ColorCyan, ColorReset, title, ColorCyan, ColorReset)
	fmt.Printf("%s╚%s╝%s\n\n", ColorCyan, border, ColorReset)
}

// Banner prints the application banner shown at startup.
func Banner(title, version string) {
	banner := `
╔═══════════════════════════════════════════════════════════╗
║                                                           ║
║   ██████╗ ███████╗██████╗ ██████╗  ██████╗  ██████╗██╗  ██╗║
║   ██╔══██╗██╔════╝██╔══██╗██╔══██╗██╔═══██╗██╔════╝██║ ██╔╝║
║   ██████╔╝█████╗  ██║  ██║██████╔╝██║   ██║██║     █████╔╝ ║
║   ██╔══██╗██╔══╝  ██║  ██║██╔══██╗██║   ██║██║     ██╔═██╗ ║
║   ██████╔╝███████╗██████╔╝██║  ██║╚██████╔╝╚██████╗██║  ██╗║
║   ╚═════╝ ╚══════╝╚═════╝ ╚═╝  ╚═╝ ╚═════╝  ╚═════╝╚═╝  ╚═╝║
║                                                           ║
║              %s%-37s%s║
║                    %sVersion %-7s%s                      ║
║                                                           ║
╚═══════════════════════════════════════════════════════════╝
`
	fmt.Printf(banner, ColorCyan, title, ColorReset, ColorGreen, version, ColorReset)
}
