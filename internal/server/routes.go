package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/linebid/linebid/internal/activity"
	"github.com/linebid/linebid/internal/broadcast"
	"github.com/linebid/linebid/internal/claim"
	"github.com/linebid/linebid/internal/config"
	"github.com/linebid/linebid/internal/errs"
	"github.com/linebid/linebid/internal/holiday"
	"github.com/linebid/linebid/internal/metrics"
	"github.com/linebid/linebid/internal/models"
	"github.com/linebid/linebid/internal/notify"
	"github.com/linebid/linebid/internal/period"
	"github.com/linebid/linebid/internal/rank"
	"gorm.io/gorm"
)

// userHeader carries the authenticated caller's ID, set by the external
// auth layer in front of this server.
const userHeader = "X-User-ID"

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config,
	machine *claim.StateMachine, resolver holiday.Resolver, hub *broadcast.Hub) {

	api := router.Group("/api")

	api.GET("/lines", handleLineList(db))
	api.POST("/lines/:id/claim", handleClaim(machine))
	api.POST("/lines/:id/admin", handleAdminTransition(machine))
	api.GET("/lines/:id/metrics", handleLineMetrics(db, cfg, resolver))

	api.POST("/favorites/toggle", handleToggleFavorite(db))
	api.GET("/favorites", handleFavoriteList(db))
	api.PUT("/favorites/:id/notes", handleFavoriteNotes(db))

	api.GET("/activity", handleActivityFeed(db))

	api.GET("/notifications", handleNotifications(db))
	api.POST("/notifications/:id/read", handleNotificationRead(db))

	api.GET("/events", handleSSE(hub))
}

// actor extracts the caller identity, rejecting anonymous requests.
func actor(c *gin.Context) (string, bool) {
	id := c.GetHeader(userHeader)
	if id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing " + userHeader + " header"})
		return "", false
	}
	return id, true
}

// lineID parses the :id path parameter.
func lineID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad line id"})
		return 0, false
	}
	return uint(id), true
}

// writeError maps the domain error taxonomy onto HTTP responses. A
// conflict carries the line's authoritative state so the UI can show
// "already taken by X" and refresh without another round-trip.
func writeError(c *gin.Context, err error) {
	var verr *errs.ValidationError
	var nf *errs.NotFoundError
	var conflict *errs.ConflictError
	var policy *errs.PolicyError
	var external *errs.ExternalServiceError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{"error": nf.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":   conflict.Error(),
			"status":  conflict.Status,
			"takenBy": conflict.TakenBy,
		})
	case errors.As(err, &policy):
		c.JSON(http.StatusForbidden, gin.H{"error": policy.Error()})
	case errors.As(err, &external):
		c.JSON(http.StatusBadGateway, gin.H{"error": external.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func handleLineList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var lines []models.BidLine
		query := db.Preload("Operation").Order("line_number ASC")
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}
		if err := query.Find(&lines).Error; err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, lines)
	}
}

func handleClaim(machine *claim.StateMachine) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := lineID(c)
		if !ok {
			return
		}
		actorID, ok := actor(c)
		if !ok {
			return
		}

		line, err := machine.Claim(id, actorID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, line)
	}
}

// adminRequest is the body of an administrative transition.
type adminRequest struct {
	Action   string `json:"action" binding:"required"`
	AssignTo string `json:"assignTo"`
	Details  string `json:"details"`
}

func handleAdminTransition(machine *claim.StateMachine) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := lineID(c)
		if !ok {
			return
		}
		actorID, ok := actor(c)
		if !ok {
			return
		}

		var req adminRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		line, err := machine.AdminTransition(id, claim.Action(req.Action), claim.Payload{
			ActorID:  actorID,
			AssignTo: req.AssignTo,
			Details:  req.Details,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, line)
	}
}

func handleLineMetrics(db *gorm.DB, cfg *config.Config, resolver holiday.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := lineID(c)
		if !ok {
			return
		}

		var line models.BidLine
		err := db.Preload("Schedule.Days.ShiftCode").Where("id = ?", id).First(&line).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				writeError(c, &errs.NotFoundError{Kind: "bid line", ID: c.Param("id")})
				return
			}
			writeError(c, err)
			return
		}
		if line.Schedule == nil {
			writeError(c, errs.Validationf("line %d has no linked schedule", id))
			return
		}

		active, err := period.Active(db)
		if err != nil {
			writeError(c, err)
			return
		}

		end := active.StartDate.AddDate(0, 0, len(line.Schedule.Days)*active.NumCycles-1)
		holidays, err := resolver.GetHolidays(active.StartDate, end)
		if err != nil {
			writeError(c, err)
			return
		}

		filters := metrics.SelectionFilters{
			DaysOff: c.QueryArray("daysOff"),
			Codes:   c.QueryArray("codes"),
		}

		result, err := metrics.Compute(line.Schedule, *active, holidays, filters, cfg.Weights, cfg.ShiftCategories)
		if err != nil {
			writeError(c, err)
			return
		}
		result.BidLineID = line.ID
		c.JSON(http.StatusOK, result)
	}
}

// toggleRequest is the body of a favorite toggle.
type toggleRequest struct {
	BidLineID uint `json:"bidLineId" binding:"required"`
}

func handleToggleFavorite(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := actor(c)
		if !ok {
			return
		}
		var req toggleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := rank.Toggle(db, userID, req.BidLineID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func handleFavoriteList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := actor(c)
		if !ok {
			return
		}
		favorites, err := rank.List(db, userID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, favorites)
	}
}

// notesRequest updates a favorite's annotations.
type notesRequest struct {
	Notes string `json:"notes"`
	Tags  string `json:"tags"`
}

func handleFavoriteNotes(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := lineID(c)
		if !ok {
			return
		}
		userID, ok := actor(c)
		if !ok {
			return
		}
		var req notesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := rank.UpdateNotes(db, userID, id, req.Notes, req.Tags); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleActivityFeed(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

		var since time.Time
		if raw := c.Query("since"); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC3339"})
				return
			}
			since = parsed
		}

		entries, err := activity.Feed(db, limit, since)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, entries)
	}
}

func handleNotifications(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := actor(c)
		if !ok {
			return
		}
		notices, err := notify.Unread(db, userID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, notices)
	}
}

func handleNotificationRead(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := lineID(c)
		if !ok {
			return
		}
		if err := notify.MarkRead(db, id); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
