package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"penacms-backend/auth"
	"penacms-backend/server/middleware"
	"penacms-backend/shared/database/models"
)

type ArticleHandler struct {
	db *gorm.DB
}

func NewArticleHandler(db *gorm.DB) *ArticleHandler {
	return &ArticleHandler{db: db}
}

// CreateArticleRequest represents request body for creating an article
type CreateArticleRequest struct {
	Title      string      `json:"title" binding:"required"`
	Slug       string      `json:"slug" binding:"required"`
	Excerpt    string      `json:"excerpt"`
	Content    string      `json:"content" binding:"required"`
	CategoryID *uuid.UUID  `json:"category_id"`
	LanguageID *uuid.UUID  `json:"language_id"`
	TagIDs     []uuid.UUID `json:"tag_ids"`
}

// UpdateArticleRequest represents request body for updating an article
type UpdateArticleRequest struct {
	Title      *string     `json:"title"`
	Slug       *string     `json:"slug"`
	Excerpt    *string     `json:"excerpt"`
	Content    *string     `json:"content"`
	CategoryID *uuid.UUID  `json:"category_id"`
	LanguageID *uuid.UUID  `json:"language_id"`
	TagIDs     []uuid.UUID `json:"tag_ids"`
}

// UpdateArticleStatusRequest represents request body for moderating an article
type UpdateArticleStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=draft published suspended"`
}

// GET /api/articles
// @Summary List articles
// @Tags articles
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Items per page (default: 10)"
// @Param search query string false "Search term across title, excerpt and content"
// @Param category query string false "Filter by category ID"
// @Param author query string false "Filter by author ID"
// @Success 200 {array} models.Article
// @Router /articles [get]
func (h *ArticleHandler) ListArticles(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 100 {
		limit = 10
	}

	db := h.db.WithContext(c.Request.Context()).Model(&models.Article{})

	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		db = db.Where("title LIKE ? OR excerpt LIKE ? OR content LIKE ?", pattern, pattern, pattern)
	}
	if category := c.Query("category"); category != "" {
		db = db.Where("category_id = ?", category)
	}
	if author := c.Query("author"); author != "" {
		db = db.Where("author_id = ?", author)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count articles"})
		return
	}

	var articles []models.Article
	err := db.Preload("Author", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "name", "username")
	}).
		Preload("Category").
		Preload("Tags").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&articles).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve articles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": articles,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

// GET /api/articles/:id
// @Summary Get article by ID
// @Tags articles
// @Produce json
// @Param id path string true "Article ID"
// @Success 200 {object} models.Article
// @Failure 404 {object} map[string]string "Article not found"
// @Router /articles/{id} [get]
func (h *ArticleHandler) GetArticle(c *gin.Context) {
	articleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid article ID format"})
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var article models.Article
	err = db.Preload("Author", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "name", "username")
	}).
		Preload("Category").
		Preload("Language").
		Preload("Tags").
		Where("id = ?", articleID).
		First(&article).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve article"})
		return
	}

	// Best-effort view counter; losing an increment is acceptable.
	db.Model(&models.Article{}).Where("id = ?", articleID).
		UpdateColumn("views", gorm.Expr("views + 1"))

	c.JSON(http.StatusOK, article)
}

// POST /api/articles
// @Summary Create article
// @Tags articles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param article body CreateArticleRequest true "Article data"
// @Success 201 {object} models.Article
// @Failure 409 {object} map[string]string "Slug already exists"
// @Router /articles [post]
func (h *ArticleHandler) CreateArticle(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	var req CreateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var existing models.Article
	if err := db.Where("slug = ?", req.Slug).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "An article with that slug already exists"})
		return
	}

	article := models.Article{
		Title:      req.Title,
		Slug:       req.Slug,
		Excerpt:    req.Excerpt,
		Content:    req.Content,
		AuthorID:   userID,
		CategoryID: req.CategoryID,
		LanguageID: req.LanguageID,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&article).Error; err != nil {
			return err
		}
		if len(req.TagIDs) > 0 {
			var tags []models.Tag
			if err := tx.Where("id IN ?", req.TagIDs).Find(&tags).Error; err != nil {
				return err
			}
			return tx.Model(&article).Association("Tags").Replace(tags)
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create article"})
		return
	}

	c.JSON(http.StatusCreated, article)
}

// PUT /api/articles/:id
// @Summary Update article
// @Description Update an article. Only the author or an admin may update.
// @Tags articles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Article ID"
// @Param article body UpdateArticleRequest true "Article data"
// @Success 200 {object} models.Article
// @Failure 403 {object} map[string]string "Not the author"
// @Failure 404 {object} map[string]string "Article not found"
// @Router /articles/{id} [put]
func (h *ArticleHandler) UpdateArticle(c *gin.Context) {
	article, ok := h.loadOwnedArticle(c)
	if !ok {
		return
	}

	var req UpdateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db := h.db.WithContext(c.Request.Context())

	if req.Title != nil {
		article.Title = *req.Title
	}
	if req.Slug != nil && *req.Slug != article.Slug {
		var existing models.Article
		if err := db.Where("slug = ? AND id != ?", *req.Slug, article.ID).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "An article with that slug already exists"})
			return
		}
		article.Slug = *req.Slug
	}
	if req.Excerpt != nil {
		article.Excerpt = *req.Excerpt
	}
	if req.Content != nil {
		article.Content = *req.Content
	}
	if req.CategoryID != nil {
		article.CategoryID = req.CategoryID
	}
	if req.LanguageID != nil {
		article.LanguageID = req.LanguageID
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(article).Error; err != nil {
			return err
		}
		if req.TagIDs != nil {
			var tags []models.Tag
			if err := tx.Where("id IN ?", req.TagIDs).Find(&tags).Error; err != nil {
				return err
			}
			return tx.Model(article).Association("Tags").Replace(tags)
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update article"})
		return
	}

	c.JSON(http.StatusOK, article)
}

// DELETE /api/articles/:id
// @Summary Delete article
// @Description Delete an article. Only the author or an admin may delete.
// @Tags articles
// @Produce json
// @Security BearerAuth
// @Param id path string true "Article ID"
// @Success 200 {object} map[string]string "Article deleted"
// @Failure 403 {object} map[string]string "Not the author"
// @Failure 404 {object} map[string]string "Article not found"
// @Router /articles/{id} [delete]
func (h *ArticleHandler) DeleteArticle(c *gin.Context) {
	article, ok := h.loadOwnedArticle(c)
	if !ok {
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Select("Tags").Delete(article).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete article"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Article deleted successfully"})
}

// PATCH /api/articles/:id/status
// @Summary Moderate article status
// @Description Publish or suspend an article. Admin tier required.
// @Tags articles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Article ID"
// @Param status body UpdateArticleStatusRequest true "New status"
// @Success 200 {object} models.Article
// @Failure 403 {object} map[string]string "Insufficient role"
// @Failure 404 {object} map[string]string "Article not found"
// @Router /articles/{id}/status [patch]
func (h *ArticleHandler) UpdateArticleStatus(c *gin.Context) {
	articleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid article ID format"})
		return
	}

	var req UpdateArticleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var article models.Article
	if err := db.Where("id = ?", articleID).First(&article).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve article"})
		return
	}

	article.Status = req.Status
	if err := db.Save(&article).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update article"})
		return
	}

	c.JSON(http.StatusOK, article)
}

// loadOwnedArticle fetches the addressed article and enforces that the caller
// is its author or holds at least the admin tier.
func (h *ArticleHandler) loadOwnedArticle(c *gin.Context) (*models.Article, bool) {
	articleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid article ID format"})
		return nil, false
	}

	var article models.Article
	if err := h.db.WithContext(c.Request.Context()).Where("id = ?", articleID).First(&article).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve article"})
		return nil, false
	}

	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	role := c.GetString(middleware.ContextUserRole)
	if article.AuthorID != userID && !auth.TierAtLeast(role, auth.RoleAdmin) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized to modify this article"})
		return nil, false
	}

	return &article, true
}
