package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/cinescout/cinescout/internal/catalog"
	"github.com/cinescout/cinescout/internal/discovery"
)

type tokenRequest struct {
	Token string `json:"token"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type toggleRequest struct {
	Item catalog.MovieItem `json:"item"`
}

// lookupSession resolves the :id path parameter to a live session. A nil
// session means the error response has already been written.
func (s *Server) lookupSession(c echo.Context) (*discovery.Session, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid session id"})
	}

	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	}
	return session, nil
}

func (s *Server) createSession(c echo.Context) error {
	session := s.sessions.Create()
	return c.JSON(http.StatusCreated, map[string]string{"id": session.ID().String()})
}

func (s *Server) getSession(c echo.Context) error {
	session, err := s.lookupSession(c)
	if session == nil {
		return err
	}
	return c.JSON(http.StatusOK, session.Snapshot())
}

func (s *Server) deleteSession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid session id"})
	}

	s.sessions.Remove(id)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) addToken(c echo.Context) error {
	session, err := s.lookupSession(c)
	if session == nil {
		return err
	}

	var req tokenRequest
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "token is required"})
	}

	added := session.AddToken(req.Token)
	return c.JSON(http.StatusOK, map[string]interface{}{"added": added})
}

func (s *Server) removeToken(c echo.Context) error {
	session, err := s.lookupSession(c)
	if session == nil {
		return err
	}

	var req tokenRequest
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "token is required"})
	}

	removed := session.RemoveToken(req.Token)
	return c.JSON(http.StatusOK, map[string]interface{}{"removed": removed})
}

func (s *Server) clearTokens(c echo.Context) error {
	session, err := s.lookupSession(c)
	if session == nil {
		return err
	}

	session.ClearTokens()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) runSearch(c echo.Context) error {
	session, err := s.lookupSession(c)
	if session == nil {
		return err
	}

	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if err := session.Search(c.Request().Context(), req.Query); err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, session.Snapshot())
}

func (s *Server) loadMore(c echo.Context) error {
	session, err := s.lookupSession(c)
	if session == nil {
		return err
	}

	if err := session.LoadMore(c.Request().Context()); err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, session.Snapshot())
}

func (s *Server) toggleSelection(c echo.Context) error {
	session, err := s.lookupSession(c)
	if session == nil {
		return err
	}

	var req toggleRequest
	if err := c.Bind(&req); err != nil || req.Item.Title == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "item is required"})
	}

	if !session.ToggleSelection(req.Item) {
		return c.JSON(http.StatusConflict, map[string]interface{}{
			"error":    "selection is full",
			"capacity": discovery.SelectionCapacity,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"selection": session.Selection()})
}

func (s *Server) clearSelection(c echo.Context) error {
	session, err := s.lookupSession(c)
	if session == nil {
		return err
	}

	session.ClearSelection()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) recommend(c echo.Context) error {
	session, err := s.lookupSession(c)
	if session == nil {
		return err
	}

	if err := session.Recommend(c.Request().Context()); err != nil {
		if errors.Is(err, discovery.ErrAllLookupsFailed) {
			return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, session.Snapshot())
}
