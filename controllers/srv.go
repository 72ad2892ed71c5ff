// controllers/srv.go
package controllers

import (
	"Gin_postgres_redis_robe_tracker/app"
	"Gin_postgres_redis_robe_tracker/export"
	"Gin_postgres_redis_robe_tracker/reconciler"
	"Gin_postgres_redis_robe_tracker/session"

	"go.uber.org/zap"
)

type Srv struct {
	Rec      *reconciler.Reconciler
	Sessions session.Store
	Export   export.Formatter
	Log      *zap.Logger
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Rec:      a.Reconciler,
		Sessions: a.Sessions,
		Export:   export.NewFormatter(a.Config.ExportLocation),
		Log:      a.Log.Named("http"),
	}
}
