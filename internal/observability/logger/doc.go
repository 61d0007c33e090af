// Package logger provee un logger Zap singleton con scoping por contexto.
//
// # Uso
//
// Inicialización (una vez en main.go):
//
//	logger.Init(logger.Config{
//	    Env:   os.Getenv("APP_ENV"),   // "dev" o "prod"
//	    Level: os.Getenv("LOG_LEVEL"), // "debug", "info", "warn", "error"
//	})
//	defer logger.Sync()
//
// En handlers/services (con contexto):
//
//	log := logger.From(ctx)
//	log.Info("persona creada", logger.PersonaID(id))
//
// Sin contexto (fallback a singleton):
//
//	logger.L().Info("servidor iniciado")
package logger
