// Package format renders timestamps and counts for display, following the
// viewer's locale.
package format

import (
	"os"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Placeholder is shown for absent values.
const Placeholder = "—"

// Layouts for the short date and short time styles of the supported locales.
var layouts = map[language.Tag]string{
	language.AmericanEnglish: "1/2/06, 3:04 PM",
	language.BritishEnglish:  "02/01/2006, 15:04",
	language.German:          "02.01.06, 15:04",
	language.French:          "02/01/2006 15:04",
	language.Spanish:         "2/1/06, 15:04",
	language.Italian:         "02/01/06, 15:04",
	language.Dutch:           "02-01-2006, 15:04",
	language.Russian:         "02.01.2006, 15:04",
	language.Japanese:        "2006/01/02 15:04",
	language.Chinese:         "2006/1/2 15:04",
}

var supported = []language.Tag{
	language.AmericanEnglish, // first entry is the fallback
	language.BritishEnglish,
	language.German,
	language.French,
	language.Spanish,
	language.Italian,
	language.Dutch,
	language.Russian,
	language.Japanese,
	language.Chinese,
}

var matcher = language.NewMatcher(supported)

// Formatter formats values for one locale and time zone.
type Formatter struct {
	tag      language.Tag
	layout   string
	location *time.Location
	printer  *message.Printer
}

// New returns a formatter for the given locale (BCP 47 or POSIX form such as
// "de_DE.UTF-8"). Unknown or empty locales fall back to en-US. A nil location
// means time.Local.
func New(locale string, location *time.Location) *Formatter {
	if location == nil {
		location = time.Local
	}

	tag := Match(locale)
	return &Formatter{
		tag:      tag,
		layout:   layouts[tag],
		location: location,
		printer:  message.NewPrinter(tag),
	}
}

// FromEnvironment builds a formatter from LC_ALL, LC_TIME or LANG, in that order.
func FromEnvironment() *Formatter {
	return New(EnvironmentLocale(), nil)
}

// EnvironmentLocale returns the first non-empty of LC_ALL, LC_TIME and LANG.
func EnvironmentLocale() string {
	for _, key := range []string{"LC_ALL", "LC_TIME", "LANG"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// Match resolves a locale string to one of the supported tags.
func Match(locale string) language.Tag {
	locale = normalize(locale)
	if locale == "" {
		return supported[0]
	}

	tag, err := language.Parse(locale)
	if err != nil {
		return supported[0]
	}

	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		return supported[0]
	}
	return supported[index]
}

// normalize turns POSIX locale names ("en_GB.UTF-8@euro") into BCP 47.
// The POSIX "C" locale has no language and is treated as empty.
func normalize(locale string) string {
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	if locale == "C" || locale == "POSIX" {
		return ""
	}
	return strings.ReplaceAll(locale, "_", "-")
}

// Tag returns the resolved locale.
func (f *Formatter) Tag() language.Tag {
	return f.tag
}

// Timestamp renders t with the short date and short time style in the
// formatter's time zone. The zero time renders as Placeholder.
func (f *Formatter) Timestamp(t time.Time) string {
	if t.IsZero() {
		return Placeholder
	}
	return t.In(f.location).Format(f.layout)
}

// Count renders n with locale digit grouping.
func (f *Formatter) Count(n int64) string {
	return f.printer.Sprintf("%d", n)
}
