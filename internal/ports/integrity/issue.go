package integrity

import "context"

// Issue es una fila que viola un invariante del negocio (gifts, referidos).
type Issue struct {
	Kind   string `json:"kind"`
	Ref    string `json:"ref"`
	Detail string `json:"detail"`
}

// Auditor revisa sus propias tablas y devuelve los problemas encontrados.
type Auditor interface {
	Audit(ctx context.Context) ([]Issue, error)
}
