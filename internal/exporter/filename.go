package exporter

import (
	"strings"
	"time"

	"github.com/mozillazg/go-unidecode"
)

// FileName builds an ASCII file name such as
// "kpi-comparacion-20261019-150405.csv" from a free-form title. Agency names
// often carry accents, which some download clients mangle.
func FileName(title, ext string, at time.Time) string {
	return slug(title) + "-" + at.Format("20060102-150405") + "." + strings.TrimPrefix(ext, ".")
}

func slug(title string) string {
	ascii := strings.ToLower(unidecode.Unidecode(title))

	var b strings.Builder
	dash := false
	for _, r := range ascii {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "export"
	}
	return s
}
