package logger

import (
	"time"

	"go.uber.org/zap"
)

// Campos estándar para mantener nombres consistentes en todos los logs.

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path crea un campo para la ruta HTTP.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status crea un campo para el status HTTP.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// Duration crea un campo para la duración en milisegundos.
func Duration(v time.Duration) zap.Field {
	return zap.Int64("duration_ms", v.Milliseconds())
}

// PersonaID crea un campo para el id de una persona.
func PersonaID(v int) zap.Field {
	return zap.Int("persona_id", v)
}

// RegaloID crea un campo para el id de un regalo.
func RegaloID(v int) zap.Field {
	return zap.Int("regalo_id", v)
}

// Evento crea un campo para el tipo de evento realtime.
func Evento(v string) zap.Field {
	return zap.String("evento", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}
