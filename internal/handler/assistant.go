package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/notaryops/travel-permits/internal/assistant"
)

// AssistantHandler fronts the keyword query assistant.
type AssistantHandler struct {
	A *assistant.Assistant
}

func NewAssistantHandler(a *assistant.Assistant) *AssistantHandler {
	return &AssistantHandler{A: a}
}

type assistantReq struct {
	Question string `json:"question"`
}

// Query answers a free-text question about the registry.
func (h *AssistantHandler) Query(c echo.Context) error {
	var req assistantReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "question required"})
	}
	uid, _ := getUserID(c)
	answer, err := h.A.Answer(c.Request().Context(), uid, req.Question)
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"question": req.Question, "answer": answer})
}
