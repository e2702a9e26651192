package api

import (
	"net/http"

	"github.com/Domenick1991/servicebooking/internal/service/professionals"
	"github.com/gin-gonic/gin"
)

type ProfessionalHandler struct {
	service professionals.ProfessionalUseCase
}

func NewProfessionalHandler(service professionals.ProfessionalUseCase) *ProfessionalHandler {
	return &ProfessionalHandler{service: service}
}

func (h *ProfessionalHandler) Register(router *gin.RouterGroup) {
	router.GET("/:id", h.get)
}

func (h *ProfessionalHandler) get(c *gin.Context) {
	pro, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pro)
}
