package relay

import "encoding/json"

// Tipos de evento: espejan las operaciones mutantes de la API de
// recursos. Los emite el cliente de origen después de que su propia
// mutación fue persistida, nunca el servidor por su cuenta.
const (
	EventoPersonaCreated = "persona:created"
	EventoPersonaUpdated = "persona:updated"
	EventoPersonaDeleted = "persona:deleted"
	EventoRegaloCreated  = "regalo:created"
	EventoRegaloUpdated  = "regalo:updated"
	EventoRegaloDeleted  = "regalo:deleted"
)

// personaEnvelope es el envelope de persona:created|updated.
type personaEnvelope struct {
	Persona json.RawMessage `json:"persona"`
}

// personaDeletedEnvelope es el envelope de persona:deleted.
type personaDeletedEnvelope struct {
	PersonaNombre string `json:"personaNombre"`
}

// regaloEnvelope es el envelope de regalo:created|updated.
type regaloEnvelope struct {
	Regalo        json.RawMessage `json:"regalo"`
	PersonaNombre string          `json:"personaNombre"`
	PersonaID     int             `json:"personaId"`
}

// regaloDeletedEnvelope es el envelope de regalo:deleted.
type regaloDeletedEnvelope struct {
	RegaloNombre  string `json:"regaloNombre"`
	PersonaNombre string `json:"personaNombre"`
	PersonaID     int    `json:"personaId"`
}

// enrich arma el envelope saliente para un evento emitido por un
// cliente. Retorna (nil, false) para tipos desconocidos, que se
// ignoran en silencio: el relay no valida y nunca falla hacia el
// productor.
func enrich(evento string, data json.RawMessage) (json.RawMessage, bool) {
	switch evento {
	case EventoPersonaCreated, EventoPersonaUpdated:
		out, err := json.Marshal(personaEnvelope{Persona: data})
		if err != nil {
			return nil, false
		}
		return out, true

	case EventoPersonaDeleted:
		// el cliente emite la persona completa; al resto solo le
		// interesa el nombre
		var p struct {
			Nombre string `json:"nombre"`
		}
		_ = json.Unmarshal(data, &p)
		out, err := json.Marshal(personaDeletedEnvelope{PersonaNombre: p.Nombre})
		if err != nil {
			return nil, false
		}
		return out, true

	case EventoRegaloCreated, EventoRegaloUpdated:
		var in regaloEnvelope
		_ = json.Unmarshal(data, &in)
		out, err := json.Marshal(in)
		if err != nil {
			return nil, false
		}
		return out, true

	case EventoRegaloDeleted:
		var in regaloDeletedEnvelope
		_ = json.Unmarshal(data, &in)
		out, err := json.Marshal(in)
		if err != nil {
			return nil, false
		}
		return out, true
	}
	return nil, false
}
