package http

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/jhoicas/seedor-api/internal/application/dto"
	"github.com/jhoicas/seedor-api/pkg/logger"
)

// visitorTTL tiempo sin peticiones tras el cual se descarta el limitador de una IP.
const visitorTTL = 3 * time.Minute

// RateLimiter limitador por IP (token bucket) para las rutas públicas.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	log      *logger.Logger
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter perMinute peticiones sostenidas por minuto y IP, con ráfaga burst.
// perMinute <= 0 deshabilita el límite.
func NewRateLimiter(perMinute, burst int, log *logger.Logger) *RateLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(float64(perMinute) / 60)
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
		log:      log,
		now:      time.Now,
	}
}

func (rl *RateLimiter) getVisitor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	// limpieza perezosa, sin goroutine de fondo
	for k, v := range rl.visitors {
		if now.Sub(v.lastSeen) > visitorTTL {
			delete(rl.visitors, k)
		}
	}
	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Middleware responde 429 cuando la IP agota su cupo.
func (rl *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rl.limit == rate.Inf {
			return c.Next()
		}
		ip := c.IP()
		if !rl.getVisitor(ip).Allow() {
			rl.log.Warn().Str("ip", ip).Str("path", c.Path()).Msg("límite de peticiones excedido")
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(1/float64(rl.limit)))))
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Error: "Demasiadas solicitudes, intente de nuevo en unos minutos",
				Code:  "RATE_LIMITED",
			})
		}
		return c.Next()
	}
}
