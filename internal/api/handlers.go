package api

import (
	"context"
	"net/http"
	"time"

	"github.com/BTreeMap/GoalForge/internal/models"
	"github.com/gin-gonic/gin"
)

// RequestDeadline is the per-inbound-request cancellation deadline: an
// inbound request carries a deadline, default 30s.
const RequestDeadline = 30 * time.Second

// processRequest is the inbound shape of POST /process.
type processRequest struct {
	UserID  string         `json:"user_id" binding:"required"`
	Message string         `json:"message" binding:"required"`
	Context map[string]any `json:"context,omitempty"`
}

// callbackRequest is the inbound shape of POST /callback.
type callbackRequest struct {
	UserID       string `json:"user_id" binding:"required"`
	CallbackData string `json:"callback_data" binding:"required"`
}

func (s *Server) handleProcess(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Response{
			Success: false, ResponseType: models.ResponseFinalText,
			Text: "Некорректный запрос.", Error: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), RequestDeadline)
	defer cancel()

	resp := s.dispatcher.HandleMessage(ctx, req.UserID, req.Message, time.Now().UTC())
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCallback(c *gin.Context) {
	var req callbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Response{
			Success: false, ResponseType: models.ResponseFinalText,
			Text: "Некорректный запрос.", Error: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), RequestDeadline)
	defer cancel()

	resp := s.dispatcher.HandleCallback(ctx, req.UserID, req.CallbackData, time.Now().UTC())
	c.JSON(http.StatusOK, resp)
}
