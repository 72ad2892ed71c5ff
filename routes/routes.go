package routes

import (
	"net/http"

	"Gin_postgres_redis_robe_tracker/app"
	"Gin_postgres_redis_robe_tracker/controllers"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	// 控制器与依赖
	s := controllers.GetSrv(a)
	scanCtl := controllers.NewScanController(s)
	recordCtl := controllers.NewRecordController(s)

	r.GET("/healthz", func(c *app.Ctx) { c.JSON(http.StatusOK, app.H{"ok": true}) })
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})))

	// ------------------------------
	// 扫码：会话 + 借出/归还
	// ------------------------------
	scans := r.Group("/api/scans")
	{
		scans.POST("/sessions", scanCtl.StartSession)
		scans.DELETE("/sessions/:id", scanCtl.CloseSession)
	}
	scanned := scans.Group("", app.ScanSession(a.Sessions))
	{
		scanned.POST("/borrow", scanCtl.Borrow)
		scanned.POST("/return", scanCtl.Return)
	}

	// ------------------------------
	// 记录、统计、导出
	// ------------------------------
	api := r.Group("/api")
	{
		api.GET("/records", recordCtl.ListRecords) // ?code=
		api.GET("/stats", recordCtl.Stats)
		api.GET("/export/csv", recordCtl.ExportCSV)
		api.GET("/export/txt", recordCtl.ExportText)
		api.GET("/export/xlsx", recordCtl.ExportXLSX)
	}
}
