package contacts

import (
	"regexp"
	"strings"
)

var (
	// "Emergency: Jane 555-1234", "Vet - Dr. Smith (555) 222-3333", "Pet sitter: Tom tom@x.com"
	legacyLineRe = regexp.MustCompile(`(?i)^\s*(secondary\s+emergency|2nd\s+emergency|backup|emergency|vet(?:erinar(?:y|ian))?|care\s*taker|pet\s*sitter|sitter)\s*(?:contact)?\s*[:\-–]\s*(.+)$`)
	phoneRe      = regexp.MustCompile(`\+?\(?\d[\d\s().\-]{5,}\d`)
	emailRe      = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
)

func legacyType(label string) Type {
	l := strings.ToLower(strings.Join(strings.Fields(label), " "))
	switch {
	case strings.HasPrefix(l, "secondary"), strings.HasPrefix(l, "2nd"), l == "backup":
		return TypeSecondaryEmergency
	case l == "emergency":
		return TypeEmergency
	case strings.HasPrefix(l, "vet"):
		return TypeVeterinary
	default:
		return TypeCaretaker
	}
}

// ParseLegacy saca contactos del texto libre de la mascota, una línea por contacto.
// Se queda con la primera línea de cada slot; las líneas sin etiqueta se ignoran.
func ParseLegacy(petID, text string) []Contact {
	found := map[Type]Contact{}
	for _, line := range strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == ';' }) {
		m := legacyLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		t := legacyType(m[1])
		if _, dup := found[t]; dup {
			continue
		}
		rest := m[2]

		c := Contact{PetID: petID, Type: t, Legacy: true}
		if e := emailRe.FindString(rest); e != "" {
			c.Email = strings.ToLower(e)
			rest = strings.Replace(rest, e, " ", 1)
		}
		if p := phoneRe.FindString(rest); p != "" {
			c.Phone = strings.TrimSpace(p)
			rest = strings.Replace(rest, p, " ", 1)
		}
		c.Name = strings.Trim(strings.Join(strings.Fields(rest), " "), " ,-–:")
		if c.Name == "" && c.Phone == "" && c.Email == "" {
			continue
		}
		found[t] = c
	}

	out := make([]Contact, 0, len(found))
	for _, t := range Order {
		if c, ok := found[t]; ok {
			out = append(out, c)
		}
	}
	return out
}
