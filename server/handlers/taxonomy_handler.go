package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"penacms-backend/shared/database/models"
)

// TaxonomyHandler serves categories, tags and languages. They share the
// same list/create/delete shape so they live together.
type TaxonomyHandler struct {
	db *gorm.DB
}

func NewTaxonomyHandler(db *gorm.DB) *TaxonomyHandler {
	return &TaxonomyHandler{db: db}
}

// CreateCategoryRequest represents request body for creating a category
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug" binding:"required"`
	Description string `json:"description"`
}

// CreateTagRequest represents request body for creating a tag
type CreateTagRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

// CreateLanguageRequest represents request body for creating a language
type CreateLanguageRequest struct {
	Name string `json:"name" binding:"required"`
	Code string `json:"code" binding:"required,min=2,max=5"`
}

// GET /api/categories
// @Summary List categories
// @Tags taxonomy
// @Produce json
// @Success 200 {array} models.Category
// @Router /categories [get]
func (h *TaxonomyHandler) GetCategories(c *gin.Context) {
	var categories []models.Category
	if err := h.db.WithContext(c.Request.Context()).Order("name").Find(&categories).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve categories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// POST /api/categories
// @Summary Create category
// @Tags taxonomy
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param category body CreateCategoryRequest true "Category data"
// @Success 201 {object} models.Category
// @Failure 409 {object} map[string]string "Slug already exists"
// @Router /categories [post]
func (h *TaxonomyHandler) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var existing models.Category
	if err := db.Where("slug = ?", req.Slug).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "A category with that slug already exists"})
		return
	}

	category := models.Category{Name: req.Name, Slug: req.Slug, Description: req.Description}
	if err := db.Create(&category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}

	c.JSON(http.StatusCreated, category)
}

// DELETE /api/categories/:id
// @Summary Delete category
// @Description Delete a category. Blocked while articles still reference it.
// @Tags taxonomy
// @Produce json
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Success 200 {object} map[string]string "Category deleted"
// @Failure 404 {object} map[string]string "Category not found"
// @Failure 409 {object} map[string]string "Category still referenced by articles"
// @Router /categories/{id} [delete]
func (h *TaxonomyHandler) DeleteCategory(c *gin.Context) {
	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category ID format"})
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var category models.Category
	if err := db.Where("id = ?", categoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve category"})
		return
	}

	var inUse int64
	if err := db.Model(&models.Article{}).Where("category_id = ?", categoryID).Count(&inUse).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check category usage"})
		return
	}
	if inUse > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Cannot delete category while articles still reference it"})
		return
	}

	if err := db.Delete(&category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

// GET /api/tags
// @Summary List tags
// @Tags taxonomy
// @Produce json
// @Success 200 {array} models.Tag
// @Router /tags [get]
func (h *TaxonomyHandler) GetTags(c *gin.Context) {
	var tags []models.Tag
	if err := h.db.WithContext(c.Request.Context()).Order("name").Find(&tags).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tags"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// POST /api/tags
// @Summary Create tag
// @Tags taxonomy
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param tag body CreateTagRequest true "Tag data"
// @Success 201 {object} models.Tag
// @Failure 409 {object} map[string]string "Slug already exists"
// @Router /tags [post]
func (h *TaxonomyHandler) CreateTag(c *gin.Context) {
	var req CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var existing models.Tag
	if err := db.Where("slug = ?", req.Slug).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "A tag with that slug already exists"})
		return
	}

	tag := models.Tag{Name: req.Name, Slug: req.Slug}
	if err := db.Create(&tag).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create tag"})
		return
	}

	c.JSON(http.StatusCreated, tag)
}

// DELETE /api/tags/:id
// @Summary Delete tag
// @Tags taxonomy
// @Produce json
// @Security BearerAuth
// @Param id path string true "Tag ID"
// @Success 200 {object} map[string]string "Tag deleted"
// @Failure 404 {object} map[string]string "Tag not found"
// @Router /tags/{id} [delete]
func (h *TaxonomyHandler) DeleteTag(c *gin.Context) {
	tagID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tag ID format"})
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var tag models.Tag
	if err := db.Where("id = ?", tagID).First(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tag"})
		return
	}

	// Clearing the join rows first keeps article_tags consistent.
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&tag).Association("Articles").Clear(); err != nil {
			return err
		}
		return tx.Delete(&tag).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete tag"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Tag deleted successfully"})
}

// GET /api/languages
// @Summary List languages
// @Tags taxonomy
// @Produce json
// @Success 200 {array} models.Language
// @Router /languages [get]
func (h *TaxonomyHandler) GetLanguages(c *gin.Context) {
	var languages []models.Language
	if err := h.db.WithContext(c.Request.Context()).Order("name").Find(&languages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve languages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"languages": languages})
}

// POST /api/languages
// @Summary Create language
// @Tags taxonomy
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param language body CreateLanguageRequest true "Language data"
// @Success 201 {object} models.Language
// @Failure 409 {object} map[string]string "Code already exists"
// @Router /languages [post]
func (h *TaxonomyHandler) CreateLanguage(c *gin.Context) {
	var req CreateLanguageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var existing models.Language
	if err := db.Where("code = ?", req.Code).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "A language with that code already exists"})
		return
	}

	language := models.Language{Name: req.Name, Code: req.Code}
	if err := db.Create(&language).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create language"})
		return
	}

	c.JSON(http.StatusCreated, language)
}

// DELETE /api/languages/:id
// @Summary Delete language
// @Tags taxonomy
// @Produce json
// @Security BearerAuth
// @Param id path string true "Language ID"
// @Success 200 {object} map[string]string "Language deleted"
// @Failure 404 {object} map[string]string "Language not found"
// @Failure 409 {object} map[string]string "Language still referenced by articles"
// @Router /languages/{id} [delete]
func (h *TaxonomyHandler) DeleteLanguage(c *gin.Context) {
	languageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid language ID format"})
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var language models.Language
	if err := db.Where("id = ?", languageID).First(&language).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Language not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve language"})
		return
	}

	var inUse int64
	if err := db.Model(&models.Article{}).Where("language_id = ?", languageID).Count(&inUse).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check language usage"})
		return
	}
	if inUse > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Cannot delete language while articles still reference it"})
		return
	}

	if err := db.Delete(&language).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete language"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Language deleted successfully"})
}
