package httpapi

import (
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/dmitrijs2005/quickcollab/internal/common"
	"github.com/dmitrijs2005/quickcollab/internal/logging"
	"github.com/dmitrijs2005/quickcollab/internal/server/services"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const principalKey = "principal"

// sonicSerializer replaces echo's encoding/json serializer.
type sonicSerializer struct{}

func (sonicSerializer) Serialize(c echo.Context, i any, indent string) error {
	enc := sonic.ConfigStd.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (sonicSerializer) Deserialize(c echo.Context, i any) error {
	if err := sonic.ConfigStd.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed JSON body").SetInternal(err)
	}
	return nil
}

// bearerToken returns the credential of an Authorization header, or "".
func bearerToken(c echo.Context) string {
	h := strings.TrimSpace(c.Request().Header.Get(common.AuthorizationHeaderName))
	if !strings.HasPrefix(h, common.BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(h[len(common.BearerPrefix):])
}

// authenticate resolves the bearer token to a principal or answers 401.
func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := s.svc.Users.Authenticate(c.Request().Context(), bearerToken(c))
		if err != nil {
			return err
		}
		c.Set(principalKey, p)
		return next(c)
	}
}

func principal(c echo.Context) services.Principal {
	p, _ := c.Get(principalKey).(services.Principal)
	return p
}

func requestID() string {
	id, err := common.MakeRandHexString(8)
	if err != nil {
		return ""
	}
	return id
}

// tagRequest attaches the request id to the request context so every
// record logged while serving it carries the id.
func tagRequest(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
			req := c.Request()
			c.SetRequest(req.WithContext(logging.ContextWith(req.Context(), "request_id", id)))
		}
		return next(c)
	}
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ctx := c.Request().Context()
			args := []any{"method", v.Method, "path", v.URIPath, "status", v.Status, "latency", v.Latency}
			switch {
			case v.Status >= http.StatusInternalServerError:
				s.logger.Error(ctx, "request", append(args, "error", v.Error)...)
			case v.Error != nil:
				s.logger.Info(ctx, "request", append(args, "error", v.Error.Error())...)
			default:
				s.logger.Debug(ctx, "request", args...)
			}
			return nil
		},
	})
}
