package controller

import (
	"multilingual-rag-be/internal/dto"
	"multilingual-rag-be/internal/pkg/serverutils"
	"multilingual-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IQueryController interface {
	RegisterRoutes(r fiber.Router)
	Process(ctx *fiber.Ctx) error
	SupportedLanguages(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
	ResetStats(ctx *fiber.Ctx) error
}

type queryController struct {
	queryService service.IQueryService
}

func NewQueryController(queryService service.IQueryService) IQueryController {
	return &queryController{
		queryService: queryService,
	}
}

func (c *queryController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/query/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("languages", c.SupportedLanguages)
	h.Get("stats", c.Stats)
	h.Post("stats/reset", c.ResetStats)
	h.Post("", c.Process)
}

func (c *queryController) Process(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.ProcessQueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.queryService.ProcessQuery(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success process query", res))
}

func (c *queryController) SupportedLanguages(ctx *fiber.Ctx) error {
	res := c.queryService.SupportedLanguages()
	return ctx.JSON(serverutils.SuccessResponse("Success list supported languages", res))
}

func (c *queryController) Stats(ctx *fiber.Ctx) error {
	res := c.queryService.Stats()
	return ctx.JSON(serverutils.SuccessResponse("Success show agent stats", res))
}

func (c *queryController) ResetStats(ctx *fiber.Ctx) error {
	c.queryService.ResetStats()
	return ctx.JSON(serverutils.SuccessResponse[any]("Success reset agent stats", nil))
}
