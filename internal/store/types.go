package store

// Regalo es una idea de regalo que pertenece a exactamente una Persona.
// Los campos opcionales usan *string: nil significa "no seteado", que es
// distinto de string vacío y se omite del JSON persistido.
type Regalo struct {
	ID          int     `json:"id"`
	Nombre      string  `json:"nombre"`
	URL         *string `json:"url,omitempty"`
	URLImagen   *string `json:"url_imagen,omitempty"`
	LugarCompra *string `json:"lugarCompra,omitempty"`
	Tomado      bool    `json:"tomado"`
}

// Persona es la dueña de una lista de regalos.
// Regalos nunca es nil: una persona siempre tiene su contenedor de lista,
// aunque esté vacío.
type Persona struct {
	ID      int      `json:"id"`
	Nombre  string   `json:"nombre"`
	Regalos []Regalo `json:"regalos"`
}

// Document es el documento completo que el store lee y escribe.
// Es la única fuente de verdad: ninguna copia en memoria es autoritativa
// después de una escritura.
type Document struct {
	Personas []Persona `json:"personas"`
}

// NextID calcula el próximo id de una colección: 1 si está vacía,
// max+1 si no. No es monotónico global: borrar el item de id máximo
// libera ese id para reuso. Es una propiedad aceptada del diseño.
func NextID(ids []int) int {
	max := 0
	for _, id := range ids {
		if id > max {
			max = id
		}
	}
	return max + 1
}

// NextPersonaID retorna el próximo id para una persona nueva.
func (d *Document) NextPersonaID() int {
	ids := make([]int, 0, len(d.Personas))
	for _, p := range d.Personas {
		ids = append(ids, p.ID)
	}
	return NextID(ids)
}

// NextRegaloID retorna el próximo id para un regalo nuevo de esta persona.
// El id es único solo dentro de la lista de la persona, no global.
func (p *Persona) NextRegaloID() int {
	ids := make([]int, 0, len(p.Regalos))
	for _, r := range p.Regalos {
		ids = append(ids, r.ID)
	}
	return NextID(ids)
}

// Buscar retorna la persona con el id dado, o nil si no existe.
func (d *Document) Buscar(id int) *Persona {
	for i := range d.Personas {
		if d.Personas[i].ID == id {
			return &d.Personas[i]
		}
	}
	return nil
}

// BuscarRegalo retorna el regalo con el id dado, o nil si no existe.
func (p *Persona) BuscarRegalo(id int) *Regalo {
	for i := range p.Regalos {
		if p.Regalos[i].ID == id {
			return &p.Regalos[i]
		}
	}
	return nil
}
