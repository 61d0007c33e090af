// Package store persiste el documento de personas/regalos como un único
// archivo JSON en disco.
//
// Cada operación de la API de recursos hace un ciclo completo
// read-modify-write contra el mismo archivo. Un RWMutex serializa esos
// ciclos dentro del proceso; NO protege contra escritores en otros
// procesos, donde el resultado es last-writer-wins (limitación aceptada
// del diseño, no un bug a esconder).
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/donpapitoskey/lista-de-regalos/internal/metrics"
	"github.com/donpapitoskey/lista-de-regalos/internal/util/atomicwrite"
)

// StorageError indica que el documento no se pudo leer, parsear o escribir.
type StorageError struct {
	Op  string // "read" | "write"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Store es el acceso al documento persistido en un path fijo.
type Store struct {
	path string
	mu   sync.RWMutex
}

// New crea un Store sobre el archivo dado. No toca el disco.
func New(path string) *Store {
	return &Store{path: path}
}

// Path retorna la ubicación del documento.
func (s *Store) Path() string { return s.path }

// Read carga y parsea el documento completo.
// Falla con StorageError si el archivo no existe, no se puede leer o no
// es JSON válido con la forma esperada.
func (s *Store) Read() (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readLocked()
}

func (s *Store) readLocked() (*Document, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &StorageError{Op: "read", Err: err}
	}
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, &StorageError{Op: "read", Err: fmt.Errorf("json inválido: %w", err)}
	}
	normalize(&doc)
	return &doc, nil
}

// Write serializa y sobreescribe el documento completo, de forma atómica
// (write tmp + rename), para que un crash a mitad de escritura no deje el
// archivo corrupto. No hay escritura parcial ni merge.
func (s *Store) Write(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(doc)
}

func (s *Store) writeLocked(doc *Document) error {
	normalize(doc)
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &StorageError{Op: "write", Err: err}
	}
	if err := atomicwrite.AtomicWriteFile(s.path, b, 0o644); err != nil {
		return &StorageError{Op: "write", Err: err}
	}
	metrics.StoreEscriturasTotal.Inc()
	return nil
}

// Update ejecuta un ciclo read-modify-write bajo el lock de escritura:
// lee el documento, aplica fn y persiste el resultado. Si fn retorna
// error no se escribe nada (una mutación fallida no altera el estado).
func (s *Store) Update(fn func(doc *Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readLocked()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return s.writeLocked(doc)
}

// Seed crea el documento vacío ({"personas": []}) si el archivo no existe.
// Read sigue fallando sobre un archivo ausente; Seed es el paso explícito
// de bootstrap en serve/seed.
func (s *Store) Seed() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return &StorageError{Op: "read", Err: err}
	}
	return s.writeLocked(&Document{Personas: []Persona{}})
}

// normalize garantiza los invariantes de forma del documento: la lista de
// personas y cada lista de regalos existen siempre, aunque vacías.
func normalize(doc *Document) {
	if doc.Personas == nil {
		doc.Personas = []Persona{}
	}
	for i := range doc.Personas {
		if doc.Personas[i].Regalos == nil {
			doc.Personas[i].Regalos = []Regalo{}
		}
	}
}
