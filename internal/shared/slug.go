package shared

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
)

// MaxSlugLength matches the slug column width.
const MaxSlugLength = 180

// NormalizeSlug folds s into a lower-case ASCII slug. Diacritics are stripped,
// runs of other characters collapse into a single hyphen.
func NormalizeSlug(s string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		default:
			pendingDash = true
		}
	}
	out := b.String()
	if len(out) > MaxSlugLength {
		out = strings.TrimRight(out[:MaxSlugLength], "-")
	}
	return out
}

// RequireSlug normalizes raw and fails with a field error when nothing is left.
func RequireSlug(field, raw string) (string, error) {
	slug := NormalizeSlug(raw)
	if slug == "" {
		return "", httpx.Invalid(field, "must contain letters or digits")
	}
	return slug, nil
}
