// Package throttle limits the rate of API calls made by each client address.
package throttle

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cyverse/pdfa/internal/model"
	"github.com/cyverse/pdfa/logging"
	"github.com/cyverse/pdfa/utils"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

var log = logging.GetLogger().WithFields(logrus.Fields{"package": "throttle"})

// Limiter decides whether a call identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Limit() int
}

// Middleware rejects calls from clients that have exceeded the limiter's rate with 429 Too Many Requests. If the
// limiter itself fails the call is allowed through and the failure is logged.
func Middleware(limiter Limiter) echo.MiddlewareFunc {
	log := log.WithFields(logrus.Fields{"context": "throttle middleware"})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := utils.NormalizeIdentity(c.RealIP())
			allowed, err := limiter.Allow(c.Request().Context(), key)
			if err != nil {
				log.Errorf("unable to check the call rate for %s: %s", key, err)
				return next(c)
			}

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
			if !allowed {
				c.Response().Header().Set("Retry-After", "60")
				msg := fmt.Sprintf("too many requests: at most %d calls per minute are allowed", limiter.Limit())
				return model.Error(c, msg, http.StatusTooManyRequests)
			}
			return next(c)
		}
	}
}
