// Package logger expone un logger zap global con scoping por contexto.
//
// Se inicializa una vez desde main:
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "idgate"})
//	defer logger.Sync()
//
// Los middlewares HTTP inyectan un logger con request_id/method/path; services y
// stores lo recuperan con From(ctx) y agregan layer/component/op:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth.login"))
package logger
