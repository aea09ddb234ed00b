package controller

import (
	"fmt"

	"multilingual-rag-be/internal/config"
	"multilingual-rag-be/internal/dto"
	"multilingual-rag-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
	Ready(ctx *fiber.Ctx) error
	Live(ctx *fiber.Ctx) error
}

type healthController struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewHealthController(db *gorm.DB, cfg *config.Config) IHealthController {
	return &healthController{
		db:  db,
		cfg: cfg,
	}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/health/v1")
	h.Get("", c.Health)
	h.Get("ready", c.Ready)
	h.Get("live", c.Live)
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	services := map[string]string{}
	healthy := true

	if err := c.pingDatabase(ctx); err != nil {
		services["database"] = fmt.Sprintf("down: %v", err)
		healthy = false
	} else {
		services["database"] = "up"
	}

	services["embedding"] = c.embeddingStatus(&healthy)
	services["llm"] = c.llmStatus(&healthy)

	status := "healthy"
	if !healthy {
		status = "degraded"
	}

	return ctx.JSON(serverutils.SuccessResponse("Success health check", &dto.HealthResponse{
		Status:   status,
		Services: services,
	}))
}

// Ready gates traffic on the database only. The model endpoints are checked
// lazily per request; a cold LLM should not keep the whole service out of
// the load balancer.
func (c *healthController) Ready(ctx *fiber.Ctx) error {
	if err := c.pingDatabase(ctx); err != nil {
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(serverutils.ErrorResponse(fiber.StatusServiceUnavailable, fmt.Sprintf("database not ready: %v", err)))
	}
	return ctx.JSON(serverutils.SuccessResponse("Ready", &dto.HealthResponse{Status: "ready"}))
}

func (c *healthController) Live(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Alive", &dto.HealthResponse{Status: "alive"}))
}

func (c *healthController) pingDatabase(ctx *fiber.Ctx) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx.Context())
}

func (c *healthController) embeddingStatus(healthy *bool) string {
	switch c.cfg.Ai.EmbeddingProvider {
	case "gemini":
		if c.cfg.Keys.GoogleGemini == "" {
			*healthy = false
			return "missing GOOGLE_GEMINI_API_KEY"
		}
	case "jina":
		if c.cfg.Keys.Jina == "" {
			*healthy = false
			return "missing JINA_API_KEY"
		}
	case "ollama":
		if c.cfg.Ai.OllamaBaseURL == "" {
			*healthy = false
			return "missing OLLAMA_BASE_URL"
		}
	default:
		*healthy = false
		return fmt.Sprintf("unknown provider '%s'", c.cfg.Ai.EmbeddingProvider)
	}
	return fmt.Sprintf("configured (%s)", c.cfg.Ai.EmbeddingProvider)
}

func (c *healthController) llmStatus(healthy *bool) string {
	switch c.cfg.Ai.LLMProvider {
	case "openrouter":
		if c.cfg.Keys.OpenRouter == "" {
			*healthy = false
			return "missing OPENROUTER_API_KEY"
		}
	case "ollama":
		if c.cfg.Ai.OllamaBaseURL == "" {
			*healthy = false
			return "missing OLLAMA_BASE_URL"
		}
	default:
		*healthy = false
		return fmt.Sprintf("unknown provider '%s'", c.cfg.Ai.LLMProvider)
	}
	return fmt.Sprintf("configured (%s)", c.cfg.Ai.LLMProvider)
}
