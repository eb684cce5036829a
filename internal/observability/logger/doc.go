// Package logger provee logging estructurado basado en zap.
//
// Uso:
//
//	logger.Init(logger.Config{Env: "prod", Level: "info", ServiceName: "socialgate"})
//	defer logger.Sync()
//
//	log := logger.From(ctx).With(logger.Component("oauth.google"))
//	log.Info("token exchanged", logger.String("provider", "google"))
//
// Los campos sensibles (passwords, tokens, secrets) se redactan con
// logger.Context(map) antes de emitirse.
package logger
