// controllers/scan_controller.go
package controllers

import (
	"context"
	"errors"
	"net/http"

	"Gin_postgres_redis_robe_tracker/app"
	"Gin_postgres_redis_robe_tracker/models"
	"Gin_postgres_redis_robe_tracker/reconciler"
	"Gin_postgres_redis_robe_tracker/session"
	"Gin_postgres_redis_robe_tracker/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ScanController struct{ *Srv }

func NewScanController(s *Srv) *ScanController { return &ScanController{Srv: s} }

type scanResponse struct {
	Outcome  reconciler.Kind `json:"outcome"`
	Message  string          `json:"message"`
	StopScan bool            `json:"stopScan"`
	Code     string          `json:"code"`
	Record   *models.Record  `json:"record,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// 打开扫码器会话
func (sc *ScanController) StartSession(c *gin.Context) {
	var in struct {
		Mode session.Mode `json:"mode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	ss, err := sc.Sessions.Start(c.Request.Context(), uuid.NewString(), in.Mode)
	if errors.Is(err, session.ErrInvalidMode) {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, ss)
}

func (sc *ScanController) CloseSession(c *gin.Context) {
	err := sc.Sessions.Close(c.Request.Context(), c.Param("id"))
	if errors.Is(err, session.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, app.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

func (sc *ScanController) Borrow(c *gin.Context) {
	sc.scan(c, session.ModeBorrow, sc.Rec.HandleBorrowScan)
}

func (sc *ScanController) Return(c *gin.Context) {
	sc.scan(c, session.ModeReturn, sc.Rec.HandleReturnScan)
}

func (sc *ScanController) scan(c *gin.Context, mode session.Mode, handle func(context.Context, string) reconciler.Outcome) {
	var in struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	ss, hasSession := app.CurrentScanSession(c)
	if hasSession && ss.Mode != mode {
		c.JSON(http.StatusBadRequest, app.H{"error": "scan session is for " + string(ss.Mode)})
		return
	}

	o := handle(c.Request.Context(), in.Code)

	// 成功或被拒绝后关闭扫码器，下一次扫描需要重新打开
	if o.StopScan() && hasSession {
		if err := sc.Sessions.Close(c.Request.Context(), ss.ID); err != nil && !errors.Is(err, session.ErrSessionNotFound) {
			sc.Log.Warn("close scan session", zap.String("session", ss.ID), zap.Error(err))
		}
	}

	resp := scanResponse{
		Outcome:  o.Kind,
		Message:  o.Message(),
		StopScan: o.StopScan(),
		Code:     o.Code,
		Record:   o.Record,
	}
	if o.Err != nil {
		resp.Error = o.Err.Error()
	}
	c.JSON(statusFor(o), resp)
}

func statusFor(o reconciler.Outcome) int {
	switch o.Kind {
	case reconciler.KindBorrowed:
		return http.StatusCreated
	case reconciler.KindReturned:
		return http.StatusOK
	case reconciler.KindRejectedAlreadyBorrowed, reconciler.KindRejectedNotBorrowed, reconciler.KindRejectedAlreadyReturned:
		return http.StatusConflict
	}
	switch {
	case errors.Is(o.Err, reconciler.ErrEmptyCode):
		return http.StatusBadRequest
	case errors.Is(o.Err, store.ErrStoreUnavailable), errors.Is(o.Err, session.ErrCodeBusy):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
