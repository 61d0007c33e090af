package service

import "fmt"

// NotFoundError indica que la persona o el regalo referenciado no existe.
// Siempre dice qué entidad y qué id.
type NotFoundError struct {
	Entidad string // "persona" | "regalo"
	ID      int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d no encontrada", e.Entidad, e.ID)
}

// ValidationError indica input inválido o faltante.
type ValidationError struct {
	Campo  string
	Motivo string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Campo, e.Motivo)
}

func notFoundPersona(id int) error {
	return &NotFoundError{Entidad: "persona", ID: id}
}

func notFoundRegalo(id int) error {
	return &NotFoundError{Entidad: "regalo", ID: id}
}
