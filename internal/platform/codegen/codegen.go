package codegen

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// Sin 0/O ni 1/I/L para que se puedan dictar.
const alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// New devuelve n caracteres del alfabeto.
func New(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	max := big.NewInt(int64(len(alphabet)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[idx.Int64()])
	}
	return b.String(), nil
}

// Grouped arma prefix-XXXX-XXXX con groups grupos de size caracteres.
func Grouped(prefix string, groups, size int) (string, error) {
	parts := make([]string, 0, groups+1)
	if prefix != "" {
		parts = append(parts, prefix)
	}
	for i := 0; i < groups; i++ {
		p, err := New(size)
		if err != nil {
			return "", err
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, "-"), nil
}

// Normalize pasa a mayúsculas y quita espacios.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
