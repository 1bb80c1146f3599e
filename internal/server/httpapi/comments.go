package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/quickcollab/internal/server/models"
	"github.com/labstack/echo/v4"
)

func (s *Server) listComments(c echo.Context) error {
	list, err := s.svc.Comments.List(c.Request().Context(), principal(c).UserID, c.QueryParam("taskId"))
	if err != nil {
		return err
	}
	if list == nil {
		list = []models.CommentView{}
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) addComment(c echo.Context) error {
	var in struct {
		Content string `json:"content"`
		TaskID  string `json:"taskId"`
	}
	if err := bindBody(c, &in); err != nil {
		return err
	}
	cm, err := s.svc.Comments.Add(c.Request().Context(), principal(c).UserID, in.TaskID, in.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cm)
}
