// Package slug normaliza identificadores legibles (slugs de tenant, alias de planes y roles).
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	MinLength = 3
	MaxLength = 50
)

var validSlug = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

var folder = cases.Fold()

// stripMarks quita tildes y diacríticos: "Ñandú" -> "Nandu".
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Make genera un slug a partir de un nombre libre: "Finca Los Álamos" -> "finca-los-alamos".
// Puede devolver una cadena que no pase Valid (p.ej. nombre vacío o demasiado corto).
func Make(name string) string {
	s := strings.ToLower(stripMarks(strings.TrimSpace(name)))
	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if b.Len() > 0 && !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if len(out) > MaxLength {
		out = strings.TrimRight(out[:MaxLength], "-")
	}
	return out
}

// Valid informa si s ya es un slug canónico.
func Valid(s string) bool {
	if len(s) < MinLength || len(s) > MaxLength {
		return false
	}
	return validSlug.MatchString(s)
}

// Key devuelve una clave de comparación insensible a mayúsculas y tildes,
// usada para resolver alias ("Básico", "BASICO", "basico" -> "basico").
func Key(s string) string {
	return folder.String(stripMarks(strings.TrimSpace(s)))
}
