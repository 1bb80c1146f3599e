package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/quickcollab/internal/server/models"
	"github.com/labstack/echo/v4"
)

func (s *Server) listTasks(c echo.Context) error {
	list, err := s.svc.Tasks.List(c.Request().Context(), principal(c).UserID, c.QueryParam("boardId"))
	if err != nil {
		return err
	}
	if list == nil {
		list = []models.Task{}
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) createTask(c echo.Context) error {
	var in models.NewTask
	if err := bindBody(c, &in); err != nil {
		return err
	}
	t, err := s.svc.Tasks.Create(c.Request().Context(), principal(c).UserID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, t)
}

func (s *Server) updateTask(c echo.Context) error {
	var patch models.TaskPatch
	if err := bindBody(c, &patch); err != nil {
		return err
	}
	t, err := s.svc.Tasks.Update(c.Request().Context(), principal(c).UserID, c.Param("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) assignTask(c echo.Context) error {
	var in struct {
		AssignedTo string `json:"assignedTo"`
	}
	if err := bindBody(c, &in); err != nil {
		return err
	}
	t, err := s.svc.Tasks.Assign(c.Request().Context(), principal(c).UserID, c.Param("id"), in.AssignedTo)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) deleteTask(c echo.Context) error {
	if err := s.svc.Tasks.Delete(c.Request().Context(), principal(c).UserID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
