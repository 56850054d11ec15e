package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
)

var Log = logrus.New()

func SetLogLevel(level string) {
	// We are not using logrus' trace and panic levels
	switch strings.ToLower(level) {
	case "debug":
		Log.SetLevel(log.DebugLevel)
	case "info":
		Log.SetLevel(log.InfoLevel)
	case "warning", "warn":
		Log.SetLevel(log.WarnLevel)
	case "error":
		Log.SetLevel(log.ErrorLevel)
	case "fatal":
		Log.SetLevel(log.FatalLevel)
	default:
		log.Fatal("Bad error level string")
	}
}

var (
	unsafeChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	multiUnder  = regexp.MustCompile(`_+`)
)

// SanitizeName makes a platform or game name safe to use as a folder or
// file name: forbidden characters removed, spaces replaced by underscores,
// runs of underscores collapsed.
func SanitizeName(name string) string {
	s := unsafeChars.ReplaceAllString(name, "")
	s = strings.ReplaceAll(s, " ", "_")
	s = multiUnder.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "unknown"
	}
	return s
}

// HumanDate formats a time as "20th December 1991".
func HumanDate(t time.Time) string {
	day := t.Day()
	suffix := "th"
	if day%100 < 11 || day%100 > 13 {
		switch day % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s %s %d", day, suffix, t.Month(), t.Year())
}
