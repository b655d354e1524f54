package contract

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts contract operations under the provided router group.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}

	contracts := group.Group("/contracts")
	contracts.Use(noCache())
	contracts.GET("", handler.listContracts)
	contracts.POST("", handler.createContract)
	contracts.DELETE("", handler.deleteContract)
	contracts.GET("/:id", handler.getContract)
	contracts.GET("/:id/download", handler.downloadContract)
}

type httpHandler struct {
	service *Service
}

type deleteRequest struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

func noCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
		c.Next()
	}
}

func (h *httpHandler) listContracts(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err, "Failed to fetch contracts")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *httpHandler) createContract(c *gin.Context) {
	result, err := h.service.Create(c.Request.Context(), UploadInput{
		Filename:    c.Query("filename"),
		ContentType: c.ContentType(),
		Size:        c.Request.ContentLength,
		Body:        c.Request.Body,
	})
	if err != nil {
		c.Set("outcome", result.Outcome.String())
		writeError(c, err, "Failed to upload contract")
		return
	}
	c.JSON(http.StatusCreated, result.Contract)
}

func (h *httpHandler) deleteContract(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.Error(err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	result, err := h.service.Delete(c.Request.Context(), req.ID, req.URL)
	if err != nil {
		c.Set("outcome", result.Outcome.String())
		writeError(c, err, "Failed to delete contract")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *httpHandler) getContract(c *gin.Context) {
	contract, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "Failed to fetch contract")
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *httpHandler) downloadContract(c *gin.Context) {
	contract, reader, err := h.service.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "Failed to download contract")
		return
	}
	defer reader.Close()

	c.Header("Content-Type", defaultContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", contract.Name))
	c.Header("Content-Length", fmt.Sprintf("%d", contract.Size))
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, reader); err != nil {
		c.Error(err)
	}
}

// writeError maps service errors onto status codes. Upstream failures share
// one generic message and carry the upstream text in details.
func writeError(c *gin.Context, err error, upstreamMessage string) {
	c.Error(err)

	status := http.StatusInternalServerError
	message := upstreamMessage
	switch {
	case IsValidation(err):
		status = http.StatusBadRequest
		message = "Missing required field"
	case errors.Is(err, ErrFileTooLarge):
		status = http.StatusRequestEntityTooLarge
		message = "File too large"
	case errors.Is(err, ErrContractNotFound):
		status = http.StatusNotFound
		message = "Contract not found"
	}

	c.JSON(status, ErrorResponse{Error: message, Details: err.Error()})
}
