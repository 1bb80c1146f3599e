// Package httpapi exposes the board services over REST with echo and
// upgrades /ws to the realtime hub.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/quickcollab/internal/logging"
	"github.com/dmitrijs2005/quickcollab/internal/server/realtime"
	"github.com/dmitrijs2005/quickcollab/internal/server/services"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const shutdownTimeout = 5 * time.Second

// Services bundles the business logic the handlers call.
type Services struct {
	Users    *services.UserService
	Boards   *services.BoardService
	Tasks    *services.TaskService
	Comments *services.CommentService
}

type Server struct {
	address string
	echo    *echo.Echo
	svc     Services
	hub     *realtime.Hub
	logger  logging.Logger
}

// NewServer builds the echo instance with middleware and routes.
func NewServer(address string, allowOrigins []string, svc Services, hub *realtime.Hub, l logging.Logger) *Server {
	s := &Server{
		address: address,
		echo:    echo.New(),
		svc:     svc,
		hub:     hub,
		logger:  l.With("module", "http_server"),
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = sonicSerializer{}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: requestID}))
	e.Use(tagRequest)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(s.requestLogger())

	s.routes()
	return s
}

func (s *Server) routes() {
	e := s.echo

	a := e.Group("/auth")
	a.POST("/register", s.register)
	a.POST("/login", s.login)
	a.POST("/refresh", s.refresh)
	a.POST("/logout", s.logout)

	e.GET("/ws", s.serveWS)

	authed := s.authenticate
	e.GET("/boards", s.listBoards, authed)
	e.POST("/boards", s.createBoard, authed)
	e.GET("/boards/:id", s.getBoard, authed)
	e.GET("/boards/:id/collaborators", s.listCollaborators, authed)
	e.POST("/boards/:id/invite", s.invite, authed)

	e.GET("/tasks", s.listTasks, authed)
	e.POST("/tasks", s.createTask, authed)
	e.PUT("/tasks/:id", s.updateTask, authed)
	e.PUT("/tasks/:id/assign", s.assignTask, authed)
	e.DELETE("/tasks/:id", s.deleteTask, authed)

	e.GET("/comments", s.listComments, authed)
	e.POST("/comments", s.addComment, authed)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is done and then shuts the server down.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
	if err := s.echo.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
