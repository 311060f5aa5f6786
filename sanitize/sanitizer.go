package sanitize

import (
	"strings"

	"github.com/MrEthical07/authflow/identity"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Sanitizer classifies failures and renders the result in one locale.
// A Sanitizer is immutable and safe for concurrent use.
type Sanitizer struct {
	lang    language.Tag
	printer *message.Printer
}

var (
	defaultCatalog, catalogErr = buildCatalog()
	matcher                    = language.NewMatcher(SupportedLanguages)
	english                    = New(language.English)
)

// New returns a Sanitizer for the closest supported match of lang. Unknown
// languages render in English.
func New(lang language.Tag) *Sanitizer {
	_, index, _ := matcher.Match(lang)
	if index < 0 || index >= len(SupportedLanguages) {
		index = 0
	}
	tag := SupportedLanguages[index]

	s := &Sanitizer{lang: tag}
	if catalogErr == nil {
		s.printer = message.NewPrinter(tag, message.Catalog(defaultCatalog))
	}
	return s
}

// ParseLanguage returns a Sanitizer for a BCP 47 tag or Accept-Language
// header value. Unparseable input yields the English sanitizer.
func ParseLanguage(value string) *Sanitizer {
	tags, _, err := language.ParseAcceptLanguage(value)
	if err != nil || len(tags) == 0 {
		return english
	}
	return New(tags[0])
}

// Language reports the locale messages are rendered in.
func (s *Sanitizer) Language() language.Tag {
	if s == nil {
		return language.English
	}
	return s.lang
}

// Sanitize classifies raw for ctx. An empty raw string stands for an absent
// message and yields the generic fallback.
func (s *Sanitizer) Sanitize(ctx Context, raw string) string {
	return s.render(classify(ctx, raw))
}

// SanitizeError classifies err for ctx, preferring its structured code.
func (s *Sanitizer) SanitizeError(ctx Context, err error) string {
	return s.render(Classify(ctx, err))
}

// Classify returns the untranslated message constant SanitizeError would
// render for err.
func Classify(ctx Context, err error) string {
	if err == nil {
		return classify(ctx, "")
	}
	if entry, ok := table[ctx]; ok {
		if msg, found := entry.codes[identity.CodeOf(err)]; found {
			return msg
		}
	}
	return classify(ctx, err.Error())
}

// Render translates one of the package's message constants.
func (s *Sanitizer) Render(msg string) string {
	return s.render(msg)
}

func (s *Sanitizer) render(msg string) string {
	if s == nil || s.printer == nil {
		return msg
	}
	out := s.printer.Sprintf(msg)
	if out == "" {
		return msg
	}
	return out
}

func classify(ctx Context, raw string) string {
	entry, ok := table[ctx]
	if !ok {
		return MsgSignInFailed
	}

	lowered := strings.ToLower(raw)
	if lowered != "" {
		for _, r := range entry.rules {
			for _, needle := range r.needles {
				if strings.Contains(lowered, needle) {
					return r.message
				}
			}
		}
	}
	return entry.fallback
}

// Sanitize classifies raw for ctx in English.
func Sanitize(ctx Context, raw string) string {
	return english.Sanitize(ctx, raw)
}

// SanitizeError classifies err for ctx in English.
func SanitizeError(ctx Context, err error) string {
	return english.SanitizeError(ctx, err)
}
