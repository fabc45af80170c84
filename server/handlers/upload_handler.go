package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"penacms-backend/uploads"
)

type UploadHandler struct {
	svc *uploads.Service
}

func NewUploadHandler(svc *uploads.Service) *UploadHandler {
	return &UploadHandler{svc: svc}
}

const maxUploadSize = 10 << 20 // 10 MB

// POST /api/uploads
// @Summary Upload a file
// @Description Upload a file to object storage and return its object name and a temporary URL
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "File to upload"
// @Success 201 {object} map[string]string "Object name and presigned URL"
// @Failure 400 {object} map[string]string "Missing or oversized file"
// @Router /uploads [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	if fileHeader.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File exceeds the 10 MB upload limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	objectName, err := h.svc.Upload(c.Request.Context(), fileHeader.Filename, file, fileHeader.Size, contentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store uploaded file"})
		return
	}

	url, err := h.svc.PresignedURL(c.Request.Context(), objectName, 24*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate download URL"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"object": objectName,
		"url":    url,
	})
}

// DELETE /api/uploads/:object
// @Summary Delete an uploaded file
// @Tags uploads
// @Produce json
// @Security BearerAuth
// @Param object path string true "Object name"
// @Success 200 {object} map[string]string "Object deleted"
// @Router /uploads/{object} [delete]
func (h *UploadHandler) Delete(c *gin.Context) {
	objectName := c.Param("object")
	if objectName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing object name"})
		return
	}

	if err := h.svc.Delete(c.Request.Context(), objectName); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete object"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Object deleted successfully"})
}
