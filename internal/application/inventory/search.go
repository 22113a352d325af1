package inventory

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldSearch normaliza texto para búsqueda: sin acentos ni diferencias de mayúsculas.
// "Cámara TUBELESS" → "camara tubeless". Los transformers tienen estado: uno por llamada.
func foldSearch(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(strings.TrimSpace(out))
}

// newSpanishCollator orden alfabético del taller ("ñ" después de "n", sin distinguir mayúsculas).
func newSpanishCollator() *collate.Collator {
	return collate.New(language.Spanish, collate.IgnoreCase)
}
