package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"coin-dashboard/src/classifier"
	"coin-dashboard/src/helpers"
	"coin-dashboard/src/models"
	"coin-dashboard/src/query"
	"coin-dashboard/src/theme"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Request parsing
// -----------------------------------------------------------------------------

// parseState builds a query state from ?q=&sort=&dir=&page=&category=.
func parseState(c *gin.Context) (query.State, error) {
	state := query.NewState()

	key, err := query.ParseSortKey(c.Query("sort"))
	if err != nil {
		return state, err
	}
	dir, err := query.ParseDirection(c.Query("dir"))
	if err != nil {
		return state, err
	}
	state = state.WithSort(key, dir)

	if raw := c.Query("category"); raw != "" {
		state = state.WithCategory(raw)
	}
	state = state.WithSearch(c.Query("q"))

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return state, helpers.NewValidationError("invalid page %q", raw)
		}
		state = state.WithPage(page)
	}
	return state, nil
}

// -----------------------------------------------------------------------------

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// statusFor mirrors a failed view as an HTTP status. Views that still carry
// data are served with 200.
func statusFor(e *models.MErrorView, hasData bool) int {
	if e == nil || hasData {
		return http.StatusOK
	}
	return (&classifier.Classification{Kind: classifier.Kind(e.Kind)}).HTTPStatus()
}

// -----------------------------------------------------------------------------
// Listing
// -----------------------------------------------------------------------------

func (s *FastAPIServer) getCoins(c *gin.Context) {
	state, err := parseState(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	view := s.Store.Table(c.Request.Context(), state)
	c.JSON(statusFor(view.Error, len(view.Rows) > 0), view)
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getSearch(c *gin.Context) {
	state, err := parseState(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	view := s.Store.Search(c.Request.Context(), state)
	c.JSON(statusFor(view.Error, len(view.Rows) > 0), view)
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getGlobal(c *gin.Context) {
	view := s.Store.Global(c.Request.Context())
	c.JSON(statusFor(view.Error, len(view.Stats) > 0), view)
}

// -----------------------------------------------------------------------------
// Detail
// -----------------------------------------------------------------------------

func (s *FastAPIServer) getCoinMissingID(c *gin.Context) {
	badRequest(c, helpers.NewValidationError("coin id is required"))
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getCoin(c *gin.Context) {
	days := 0
	if raw := c.Query("days"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, helpers.NewValidationError("invalid days %q", raw))
			return
		}
		days = d
	}

	view, merged, err := s.Store.Detail(c.Request.Context(), c.Param("id"), days)
	if err != nil {
		badRequest(c, err)
		return
	}
	status := http.StatusOK
	if merged != nil {
		status = merged.HTTPStatus()
	}
	c.JSON(status, view)
}

// -----------------------------------------------------------------------------
// Refresh
// -----------------------------------------------------------------------------

type refreshRequest struct {
	IDs []string `json:"ids"`
}

func (s *FastAPIServer) postRefresh(c *gin.Context) {
	var req refreshRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	ids := make([]string, 0, len(req.IDs))
	for _, id := range req.IDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	if err := s.Store.Invalidate(c.Request.Context(), ids...); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.Broadcast(&models.MPushMessage{Type: models.PushRefresh})
	c.JSON(http.StatusOK, gin.H{"status": "ok", "ids": ids})
}

// -----------------------------------------------------------------------------
// Theme
// -----------------------------------------------------------------------------

type themeRequest struct {
	Theme string `json:"theme" binding:"required"`
}

func (s *FastAPIServer) getTheme(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"theme": s.Theme.Current()})
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) putTheme(c *gin.Context) {
	var req themeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, err := theme.ParseTheme(req.Theme)
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := s.Theme.Set(c.Request.Context(), t); err != nil {
		var verr *helpers.ValidationError
		if errors.As(err, &verr) {
			badRequest(c, err)
			return
		}
		s.Logger.Error("Failed to save theme: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": t})
}

// -----------------------------------------------------------------------------
// Health
// -----------------------------------------------------------------------------

func (s *FastAPIServer) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": s.Connections(),
		"upstream":    s.Breaker.GetState().String(),
		"error_count": s.Store.Errors.ErrorCount(),
	})
}
