package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"newsagg/internal/auth"
	"newsagg/internal/cache"
	"newsagg/internal/ingest"
	"newsagg/internal/models"
	"newsagg/internal/query"
	"newsagg/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

type registerRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type preferenceRequest struct {
	PreferredSources    []string `json:"preferred_sources" binding:"omitempty,dive,newssource"`
	PreferredCategories []string `json:"preferred_categories" binding:"omitempty,dive,min=1,max=100"`
	PreferredAuthors    []string `json:"preferred_authors" binding:"omitempty,dive,min=1,max=100"`
	Keywords            []string `json:"keywords" binding:"omitempty,dive,min=1,max=100"`
}

type ingestRequest struct {
	Source string `json:"source" binding:"omitempty,newssource"`
	Limit  int    `json:"limit" binding:"omitempty,min=1,max=500"`
}

type cleanupRequest struct {
	Days int `json:"days" binding:"omitempty,min=1"`
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"service":          "news-aggregator",
		"scheduler_active": s.scheduler.IsRunning(),
	})
}

func (s *Server) listArticles(c *gin.Context) {
	criteria, err := s.parseFilterCriteria(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// A stored preference only matters for authenticated callers with
	// no explicit filters; a failed lookup degrades to anonymous.
	var pref *models.UserPreference
	if userID, ok := auth.UserID(c); ok {
		stored, err := s.storage.GetPreference(userID)
		switch {
		case err == nil:
			pref = stored
		case errors.Is(err, storage.ErrNotFound):
			// No stored bundle.
		default:
			log.Printf("Failed to load preferences for %s: %v", userID, err)
		}
	}

	page, err := s.storage.QueryArticles(query.Resolve(criteria, pref), criteria.Page, criteria.PerPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query articles"})
		return
	}

	c.JSON(http.StatusOK, page)
}

func (s *Server) parseFilterCriteria(c *gin.Context) (models.FilterCriteria, error) {
	criteria := models.FilterCriteria{
		Keyword:    c.Query("q"),
		Sources:    query.SplitList(c.Query("source")),
		Categories: query.SplitList(c.Query("category")),
		Authors:    query.SplitList(c.Query("author")),
		Page:       1,
		PerPage:    s.cfg.DefaultPageSize,
	}

	for _, source := range criteria.Sources {
		if _, known := models.ParseSource(source); !known {
			return criteria, errors.New("unknown source: " + source)
		}
	}

	if from := c.Query("from"); from != "" {
		parsed, err := time.Parse(dateLayout, from)
		if err != nil {
			return criteria, errors.New("invalid from date: expected YYYY-MM-DD")
		}
		criteria.DateFrom = &parsed
	}
	if to := c.Query("to"); to != "" {
		parsed, err := time.Parse(dateLayout, to)
		if err != nil {
			return criteria, errors.New("invalid to date: expected YYYY-MM-DD")
		}
		// The to bound covers the whole day.
		end := parsed.AddDate(0, 0, 1).Add(-time.Second)
		criteria.DateTo = &end
	}

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && page > 0 {
		criteria.Page = page
	}
	if perPage, err := strconv.Atoi(c.DefaultQuery("per_page", "0")); err == nil && perPage > 0 {
		if perPage > s.cfg.MaxPageSize {
			perPage = s.cfg.MaxPageSize
		}
		criteria.PerPage = perPage
	}

	if ignore, err := strconv.ParseBool(c.DefaultQuery("ignore_preferences", "false")); err == nil {
		criteria.IgnorePreferences = ignore
	}

	return criteria, nil
}

func (s *Server) getArticle(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid article id"})
		return
	}

	article, err := s.storage.GetArticle(id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load article"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": article})
}

func (s *Server) getSources(c *gin.Context) {
	sources := s.aggregator.SourceInfos()
	c.JSON(http.StatusOK, gin.H{
		"data":  sources,
		"count": len(sources),
	})
}

func (s *Server) getCategories(c *gin.Context) {
	value, err := s.cacheManager.Remember(cache.KeyCategories, func() (interface{}, error) {
		return s.storage.ListCategories()
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list categories"})
		return
	}

	categories := value.([]string)
	c.JSON(http.StatusOK, gin.H{
		"data":  categories,
		"count": len(categories),
	})
}

func (s *Server) getAuthors(c *gin.Context) {
	value, err := s.cacheManager.Remember(cache.KeyAuthors, func() (interface{}, error) {
		return s.storage.ListAuthors()
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list authors"})
		return
	}

	authors := value.([]string)
	c.JSON(http.StatusOK, gin.H{
		"data":  authors,
		"count": len(authors),
	})
}

func (s *Server) getStats(c *gin.Context) {
	value, err := s.cacheManager.Remember(cache.KeySourceStat, func() (interface{}, error) {
		return s.storage.CountBySource()
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	counts := value.(map[models.Source]int64)
	var total int64
	for _, count := range counts {
		total += count
	}
	c.JSON(http.StatusOK, gin.H{
		"articles_by_source": counts,
		"total_articles":     total,
	})
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	user, token, err := s.authService.Register(req.Name, req.Email, req.Password)
	if errors.Is(err, auth.ErrEmailTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	user, token, err := s.authService.Login(req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

func (s *Server) getPreferences(c *gin.Context) {
	userID, _ := auth.UserID(c)

	pref, err := s.storage.GetPreference(userID)
	if errors.Is(err, storage.ErrNotFound) {
		pref = &models.UserPreference{
			PreferredSources:    []string{},
			PreferredCategories: []string{},
			PreferredAuthors:    []string{},
			Keywords:            []string{},
		}
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load preferences"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": pref})
}

func (s *Server) savePreferences(c *gin.Context) {
	userID, _ := auth.UserID(c)

	var req preferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	pref := &models.UserPreference{
		UserID:              userID,
		PreferredSources:    req.PreferredSources,
		PreferredCategories: req.PreferredCategories,
		PreferredAuthors:    req.PreferredAuthors,
		Keywords:            req.Keywords,
	}
	if err := s.storage.SavePreference(pref); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save preferences"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": pref})
}

func (s *Server) deletePreferences(c *gin.Context) {
	userID, _ := auth.UserID(c)

	deleted, err := s.storage.DeletePreference(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete preferences"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (s *Server) triggerIngest(c *gin.Context) {
	var req ingestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
	}

	opts := ingest.Options{Limit: req.Limit}
	if req.Source != "" {
		source, _ := models.ParseSource(req.Source)
		opts.Source = &source
	}

	report, err := s.ingestService.Run(c.Request.Context(), opts)
	if errors.Is(err, ingest.ErrRunInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": "An ingestion run is already in progress"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ingestion run failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Ingestion completed successfully",
		"report":  report,
	})
}

func (s *Server) triggerCleanup(c *gin.Context) {
	var req cleanupRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
	}

	days := req.Days
	if days == 0 {
		days = s.cfg.RetentionDays
	}

	deleted, err := s.ingestService.Cleanup(days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cleanup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cleanup completed successfully",
		"deleted": deleted,
		"days":    days,
	})
}

func (s *Server) getSchedulerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.scheduler.Status())
}

// respondValidationError renders binding failures as a field error
// list when the validator produced one, and a generic 400 otherwise.
func respondValidationError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]gin.H, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			fields = append(fields, gin.H{
				"field": fieldErr.Field(),
				"rule":  fieldErr.Tag(),
			})
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "Validation failed",
			"fields": fields,
		})
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
}
