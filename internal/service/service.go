// Package service implementa la API de recursos (CRUD de personas y
// regalos) sobre el store.
//
// Contrato general de cada operación: leer el store, ubicar la entidad,
// validar el input, aplicar la mutación en memoria y escribir el
// documento completo. Si algo falla antes de escribir, el estado
// persistido no cambia.
package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/donpapitoskey/lista-de-regalos/internal/observability/logger"
	"github.com/donpapitoskey/lista-de-regalos/internal/store"
)

// MaxRegalosDefault es el tope de regalos por persona. La UI original
// solo escondía el botón de agregar; acá además se rechaza server-side
// para no depender de clientes confiables.
const MaxRegalosDefault = 10

// Service expone las operaciones CRUD sobre personas y regalos.
type Service struct {
	st         *store.Store
	maxRegalos int
	log        *zap.Logger
}

// New crea el servicio. maxRegalos <= 0 usa MaxRegalosDefault.
func New(st *store.Store, maxRegalos int) *Service {
	if maxRegalos <= 0 {
		maxRegalos = MaxRegalosDefault
	}
	return &Service{
		st:         st,
		maxRegalos: maxRegalos,
		log:        logger.Named("service"),
	}
}

// ───────────────────── Personas ─────────────────────

// ListPersonas retorna todas las personas en el orden almacenado.
func (s *Service) ListPersonas(ctx context.Context) ([]store.Persona, error) {
	doc, err := s.st.Read()
	if err != nil {
		return nil, err
	}
	return doc.Personas, nil
}

// CreatePersona crea una persona con lista de regalos vacía.
func (s *Service) CreatePersona(ctx context.Context, nombre string) (*store.Persona, error) {
	nombre = strings.TrimSpace(nombre)
	if nombre == "" {
		return nil, &ValidationError{Campo: "nombre", Motivo: "el nombre es requerido"}
	}

	var creada store.Persona
	err := s.st.Update(func(doc *store.Document) error {
		creada = store.Persona{
			ID:      doc.NextPersonaID(),
			Nombre:  nombre,
			Regalos: []store.Regalo{},
		}
		doc.Personas = append(doc.Personas, creada)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("persona creada", logger.PersonaID(creada.ID), zap.String("nombre", creada.Nombre))
	return &creada, nil
}

// GetPersona retorna la persona con el id dado.
func (s *Service) GetPersona(ctx context.Context, id int) (*store.Persona, error) {
	doc, err := s.st.Read()
	if err != nil {
		return nil, err
	}
	p := doc.Buscar(id)
	if p == nil {
		return nil, notFoundPersona(id)
	}
	return p, nil
}

// UpdatePersona renombra una persona. Solo el nombre es mutable.
func (s *Service) UpdatePersona(ctx context.Context, id int, nombre string) (*store.Persona, error) {
	nombre = strings.TrimSpace(nombre)
	if nombre == "" {
		return nil, &ValidationError{Campo: "nombre", Motivo: "el nombre es requerido"}
	}

	var actualizada store.Persona
	err := s.st.Update(func(doc *store.Document) error {
		p := doc.Buscar(id)
		if p == nil {
			return notFoundPersona(id)
		}
		p.Nombre = nombre
		actualizada = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &actualizada, nil
}

// DeletePersona elimina la persona y toda su lista de regalos en una
// sola escritura. Retorna la persona eliminada (con sus regalos) como
// confirmación.
func (s *Service) DeletePersona(ctx context.Context, id int) (*store.Persona, error) {
	var eliminada store.Persona
	err := s.st.Update(func(doc *store.Document) error {
		for i := range doc.Personas {
			if doc.Personas[i].ID == id {
				eliminada = doc.Personas[i]
				doc.Personas = append(doc.Personas[:i], doc.Personas[i+1:]...)
				return nil
			}
		}
		return notFoundPersona(id)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("persona eliminada", logger.PersonaID(id), zap.Int("regalos", len(eliminada.Regalos)))
	return &eliminada, nil
}

// ───────────────────── Regalos ─────────────────────

// RegaloInput es el input de creación de un regalo. Los campos
// opcionales con string vacío se normalizan a "no seteado".
type RegaloInput struct {
	Nombre      string
	URL         string
	URLImagen   string
	LugarCompra string
}

// RegaloPatch es un update parcial: solo los campos presentes (no nil)
// sobreescriben el valor almacenado; los omitidos quedan intactos.
type RegaloPatch struct {
	Nombre      *string
	URL         *string
	URLImagen   *string
	LugarCompra *string
	Tomado      *bool
}

// opcional normaliza un campo opcional: string vacío equivale a no
// seteado y no se almacena.
func opcional(s string) *string {
	if s == "" {
		return nil
	}
	v := s
	return &v
}

// ListRegalos retorna los regalos de la persona dada.
func (s *Service) ListRegalos(ctx context.Context, personaID int) ([]store.Regalo, error) {
	p, err := s.GetPersona(ctx, personaID)
	if err != nil {
		return nil, err
	}
	return p.Regalos, nil
}

// GetRegalo retorna un regalo puntual. Reporta primero la persona
// ausente y después el regalo ausente.
func (s *Service) GetRegalo(ctx context.Context, personaID, regaloID int) (*store.Regalo, error) {
	p, err := s.GetPersona(ctx, personaID)
	if err != nil {
		return nil, err
	}
	r := p.BuscarRegalo(regaloID)
	if r == nil {
		return nil, notFoundRegalo(regaloID)
	}
	return r, nil
}

// CreateRegalo crea un regalo bajo la persona dada. El id se asigna
// con NextID sobre la lista propia de la persona. Tomado siempre
// inicia en false, venga lo que venga en el input.
func (s *Service) CreateRegalo(ctx context.Context, personaID int, in RegaloInput) (*store.Regalo, error) {
	in.Nombre = strings.TrimSpace(in.Nombre)
	if in.Nombre == "" {
		return nil, &ValidationError{Campo: "nombre", Motivo: "el nombre del regalo es requerido"}
	}

	var creado store.Regalo
	err := s.st.Update(func(doc *store.Document) error {
		p := doc.Buscar(personaID)
		if p == nil {
			return notFoundPersona(personaID)
		}
		if len(p.Regalos) >= s.maxRegalos {
			return &ValidationError{
				Campo:  "regalos",
				Motivo: "la persona ya alcanzó el máximo de regalos",
			}
		}
		creado = store.Regalo{
			ID:          p.NextRegaloID(),
			Nombre:      in.Nombre,
			URL:         opcional(in.URL),
			URLImagen:   opcional(in.URLImagen),
			LugarCompra: opcional(in.LugarCompra),
			Tomado:      false,
		}
		p.Regalos = append(p.Regalos, creado)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("regalo creado", logger.PersonaID(personaID), logger.RegaloID(creado.ID))
	return &creado, nil
}

// UpdateRegalo aplica un update parcial tipo PATCH. Los opcionales con
// string vacío se normalizan a "no seteado", espejando la creación.
// Tomado, si viene, se almacena tal cual.
func (s *Service) UpdateRegalo(ctx context.Context, personaID, regaloID int, patch RegaloPatch) (*store.Regalo, error) {
	var actualizado store.Regalo
	err := s.st.Update(func(doc *store.Document) error {
		p := doc.Buscar(personaID)
		if p == nil {
			return notFoundPersona(personaID)
		}
		r := p.BuscarRegalo(regaloID)
		if r == nil {
			return notFoundRegalo(regaloID)
		}
		if patch.Nombre != nil {
			r.Nombre = *patch.Nombre
		}
		if patch.URL != nil {
			r.URL = opcional(*patch.URL)
		}
		if patch.URLImagen != nil {
			r.URLImagen = opcional(*patch.URLImagen)
		}
		if patch.LugarCompra != nil {
			r.LugarCompra = opcional(*patch.LugarCompra)
		}
		if patch.Tomado != nil {
			r.Tomado = *patch.Tomado
		}
		actualizado = *r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &actualizado, nil
}

// DeleteRegalo elimina y retorna el regalo indicado.
func (s *Service) DeleteRegalo(ctx context.Context, personaID, regaloID int) (*store.Regalo, error) {
	var eliminado store.Regalo
	err := s.st.Update(func(doc *store.Document) error {
		p := doc.Buscar(personaID)
		if p == nil {
			return notFoundPersona(personaID)
		}
		for i := range p.Regalos {
			if p.Regalos[i].ID == regaloID {
				eliminado = p.Regalos[i]
				p.Regalos = append(p.Regalos[:i], p.Regalos[i+1:]...)
				return nil
			}
		}
		return notFoundRegalo(regaloID)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("regalo eliminado", logger.PersonaID(personaID), logger.RegaloID(regaloID))
	return &eliminado, nil
}
