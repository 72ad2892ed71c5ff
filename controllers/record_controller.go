// controllers/record_controller.go
package controllers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"Gin_postgres_redis_robe_tracker/app"
	"Gin_postgres_redis_robe_tracker/export"
	"Gin_postgres_redis_robe_tracker/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RecordController struct{ *Srv }

func NewRecordController(s *Srv) *RecordController { return &RecordController{Srv: s} }

// 借还历史（插入顺序），?code= 只看某件
func (rc *RecordController) ListRecords(c *gin.Context) {
	if !rc.sync(c) {
		return
	}
	rs := rc.Rec.History(c.Query("code"))
	c.JSON(http.StatusOK, app.H{"items": rs, "total": len(rs)})
}

func (rc *RecordController) Stats(c *gin.Context) {
	if !rc.sync(c) {
		return
	}
	c.JSON(http.StatusOK, rc.Rec.Stats())
}

func (rc *RecordController) ExportCSV(c *gin.Context) {
	rc.export(c, export.CSVFileName, "text/csv; charset=utf-8", rc.Export.WriteCSV)
}

func (rc *RecordController) ExportText(c *gin.Context) {
	rc.export(c, export.TextFileName, "text/plain; charset=utf-8", rc.Export.WriteText)
}

func (rc *RecordController) ExportXLSX(c *gin.Context) {
	rc.export(c, export.XLSXFileName,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rc.Export.WriteXLSX)
}

func (rc *RecordController) export(c *gin.Context, name, contentType string, write func(io.Writer, []models.Record) error) {
	if !rc.sync(c) {
		return
	}
	var buf bytes.Buffer
	if err := write(&buf, rc.Rec.Snapshot()); err != nil {
		rc.Log.Error("export", zap.String("file", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// 多实例时先按存储刷新，单实例直接读内存集合
func (rc *RecordController) sync(c *gin.Context) bool {
	if err := rc.Rec.Sync(c.Request.Context()); err != nil {
		rc.Log.Error("sync records", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, app.H{"error": err.Error()})
		return false
	}
	return true
}
