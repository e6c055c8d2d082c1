package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

// ============================================================
// Logger Middleware
// ============================================================

// PlanLocal — ключ c.Locals, под которым обработчики кладут id плана.
const PlanLocal = "plan"

// Logger пишет строку на запрос; для запросов к плану добавляет его id.
func Logger() fiber.Handler {
	return logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path} | plan: ${locals:" + PlanLocal + "}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	})
}
