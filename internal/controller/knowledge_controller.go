package controller

import (
	"io"

	"oraculo-be/internal/dto"
	"oraculo-be/internal/pkg/serverutils"
	"oraculo-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IKnowledgeController interface {
	RegisterRoutes(r fiber.Router)
	CreateStore(ctx *fiber.Ctx) error
	ListStores(ctx *fiber.Ctx) error
	GetStore(ctx *fiber.Ctx) error
	DeleteStore(ctx *fiber.Ctx) error
	UploadDocument(ctx *fiber.Ctx) error
	ListDocuments(ctx *fiber.Ctx) error
	DeleteDocument(ctx *fiber.Ctx) error
	SearchChunks(ctx *fiber.Ctx) error
}

type knowledgeController struct {
	service service.IKnowledgeService
}

func NewKnowledgeController(service service.IKnowledgeService) IKnowledgeController {
	return &knowledgeController{service: service}
}

func (c *knowledgeController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/vector-stores")
	h.Use(serverutils.JwtMiddleware, serverutils.AdminMiddleware)
	h.Post("/", c.CreateStore)
	h.Get("/", c.ListStores)
	h.Get("/:id", c.GetStore)
	h.Delete("/:id", c.DeleteStore)
	h.Post("/:id/documents", c.UploadDocument)
	h.Get("/:id/documents", c.ListDocuments)
	h.Delete("/:id/documents/:docId", c.DeleteDocument)
	h.Post("/:id/search", c.SearchChunks)
}

func storeIDParam(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid store id")
	}
	return id, nil
}

func (c *knowledgeController) CreateStore(ctx *fiber.Ctx) error {
	var req dto.CreateVectorStoreRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	res, err := c.service.CreateStore(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"code":    201,
		"message": "Vector store created",
		"data":    res,
	})
}

func (c *knowledgeController) ListStores(ctx *fiber.Ctx) error {
	res, err := c.service.ListStores(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Vector stores fetched",
		"data":    res,
	})
}

func (c *knowledgeController) GetStore(ctx *fiber.Ctx) error {
	id, err := storeIDParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetStore(ctx.Context(), id)
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"code":    404,
			"message": err.Error(),
		})
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Vector store fetched",
		"data":    res,
	})
}

func (c *knowledgeController) DeleteStore(ctx *fiber.Ctx) error {
	id, err := storeIDParam(ctx)
	if err != nil {
		return err
	}

	if err := c.service.DeleteStore(ctx.Context(), id); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"code":    400,
			"message": err.Error(),
		})
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Vector store deleted",
		"data":    nil,
	})
}

func (c *knowledgeController) UploadDocument(ctx *fiber.Ctx) error {
	id, err := storeIDParam(ctx)
	if err != nil {
		return err
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "missing 'file' form field")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	res, err := c.service.UploadDocument(ctx.Context(), id, fileHeader.Filename, content)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"code":    400,
			"message": err.Error(),
		})
	}
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"code":    201,
		"message": "Document uploaded",
		"data":    res,
	})
}

func (c *knowledgeController) ListDocuments(ctx *fiber.Ctx) error {
	id, err := storeIDParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.ListDocuments(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Documents fetched",
		"data":    res,
	})
}

func (c *knowledgeController) DeleteDocument(ctx *fiber.Ctx) error {
	id, err := storeIDParam(ctx)
	if err != nil {
		return err
	}
	docId, err := uuid.Parse(ctx.Params("docId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid document id")
	}

	if err := c.service.DeleteDocument(ctx.Context(), id, docId); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"code":    400,
			"message": err.Error(),
		})
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Document deleted",
		"data":    nil,
	})
}

func (c *knowledgeController) SearchChunks(ctx *fiber.Ctx) error {
	id, err := storeIDParam(ctx)
	if err != nil {
		return err
	}

	var req dto.SearchChunksRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	res, err := c.service.SearchChunks(ctx.Context(), id, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Search completed",
		"data":    res,
	})
}
