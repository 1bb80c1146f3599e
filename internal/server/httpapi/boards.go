package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/quickcollab/internal/server/models"
	"github.com/labstack/echo/v4"
)

func (s *Server) listBoards(c echo.Context) error {
	list, err := s.svc.Boards.List(c.Request().Context(), principal(c).UserID)
	if err != nil {
		return err
	}
	if list == nil {
		list = []models.BoardView{}
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) createBoard(c echo.Context) error {
	var in struct {
		Title string `json:"title"`
	}
	if err := bindBody(c, &in); err != nil {
		return err
	}
	b, err := s.svc.Boards.Create(c.Request().Context(), principal(c).UserID, in.Title)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, b)
}

func (s *Server) getBoard(c echo.Context) error {
	b, err := s.svc.Boards.Get(c.Request().Context(), principal(c).UserID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

func (s *Server) listCollaborators(c echo.Context) error {
	list, err := s.svc.Boards.Collaborators(c.Request().Context(), principal(c).UserID, c.Param("id"))
	if err != nil {
		return err
	}
	if list == nil {
		list = []models.Collaborator{}
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) invite(c echo.Context) error {
	var in struct {
		Email string `json:"email"`
	}
	if err := bindBody(c, &in); err != nil {
		return err
	}
	collab, err := s.svc.Boards.Invite(c.Request().Context(), principal(c).UserID, c.Param("id"), in.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, collab)
}
