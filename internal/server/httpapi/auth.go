package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func bindBody(c echo.Context, v any) error {
	return (&echo.DefaultBinder{}).BindBody(c, v)
}

func (s *Server) register(c echo.Context) error {
	var in credentials
	if err := bindBody(c, &in); err != nil {
		return err
	}
	res, err := s.svc.Users.Register(c.Request().Context(), in.Name, in.Email, in.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

func (s *Server) login(c echo.Context) error {
	var in credentials
	if err := bindBody(c, &in); err != nil {
		return err
	}
	res, err := s.svc.Users.Login(c.Request().Context(), in.Email, in.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// refresh takes the bearer token directly: it may already be expired.
func (s *Server) refresh(c echo.Context) error {
	res, err := s.svc.Users.Refresh(c.Request().Context(), bearerToken(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) logout(c echo.Context) error {
	if err := s.svc.Users.Logout(c.Request().Context(), bearerToken(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
