package calsync

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// placeholderSlugBase is used when a feed entry has no usable summary.
const placeholderSlugBase = "arrangement"

// slugTimeLayout is the compact UTC token appended to slugs so distinct
// occurrences of the same recurring series stay distinct.
const slugTimeLayout = "200601021504"

// DeriveSlug maps a title plus identifying tokens to a stable URL-safe key.
//
// The base is the lowercased, diacritic-stripped title with non-alphanumeric
// runs collapsed to single hyphens. A UID contributes its local part (before
// the first "@"); a reference time (recurrence ID, else start) contributes a
// YYYYMMDDHHmm UTC token. An entry with neither UID nor reference time falls
// back to wall-clock milliseconds, which is not stable across runs.
func DeriveSlug(title string, start *time.Time, uid string, recurrenceID *time.Time) string {
	base := slugify(title)
	if base == "" {
		base = placeholderSlugBase
	}

	if uid != "" {
		local := uid
		if i := strings.IndexByte(uid, '@'); i >= 0 {
			local = uid[:i]
		}
		ref := recurrenceID
		if ref == nil {
			ref = start
		}
		if ref != nil {
			return base + "-" + local + "-" + ref.UTC().Format(slugTimeLayout)
		}
		return base + "-" + local
	}

	if start != nil {
		return base + "-" + start.UTC().Format(slugTimeLayout)
	}

	return base + "-" + strconv.FormatInt(time.Now().UnixMilli(), 10)
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func slugify(value string) string {
	value = strings.ToLower(value)
	if stripped, _, err := transform.String(stripMarks, value); err == nil {
		value = stripped
	}

	var b strings.Builder
	b.Grow(len(value))
	pendingHyphen := false
	for _, r := range value {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
