package postgres

// nullIfEmpty convierte "" en NULL para columnas de texto opcionales (doc, ultimo_doc).
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// derefString lee una columna de texto nullable.
func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
