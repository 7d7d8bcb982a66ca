package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-accommodation/internal/repository"
)

// PersonHandler imports attendee rosters and exposes person lookups.
type PersonHandler struct {
	Events *repository.EventRepo
	People *repository.PersonRepo
}

// NewPersonHandler constructs a PersonHandler.  All repositories must
// be non-nil.
func NewPersonHandler(events *repository.EventRepo, people *repository.PersonRepo) *PersonHandler {
	if events == nil || people == nil {
		panic("nil repository passed to NewPersonHandler")
	}
	return &PersonHandler{Events: events, People: people}
}

// SyncRoster handles POST /v1/events/:id/people/sync.  The whole batch
// is applied in one transaction; re-running the same payload is
// idempotent because people are keyed by their external roster id.
func (h *PersonHandler) SyncRoster(c echo.Context) error {
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var body struct {
		People []repository.RosterEntry `json:"people"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	for i, e := range body.People {
		if e.RosterID == "" || e.Email == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "roster_id and email are required",
				"index": i,
			})
		}
	}

	ctx := c.Request().Context()
	if _, err := h.Events.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	tx, err := h.People.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	n, err := h.People.SyncRosterTx(ctx, tx, eventID, body.People)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to sync roster"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"synced": n})
}

// GetPerson handles GET /v1/people/:id.
func (h *PersonHandler) GetPerson(c echo.Context) error {
	personID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid person id"})
	}
	p, d, err := h.People.GetByID(c.Request().Context(), personID)
	if err != nil {
		if errors.Is(err, repository.ErrPersonNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "person not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":              p.ID,
		"roster_id":       p.RosterID,
		"first_name":      p.FirstName,
		"last_name":       p.LastName,
		"email":           p.Email,
		"group_id":        d.GroupID,
		"company":         d.Company,
		"will_not_attend": d.WillNotAttend,
		"notes":           d.Notes,
	})
}
