package verification

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/admin_console/internal/document"
	"github.com/congo-pay/admin_console/internal/provider"
)

// Handler exposes the verification endpoints of the console.
type Handler struct {
	service *Service
}

// NewHandler constructs a verification handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type documentTypeView struct {
	Code                 string     `json:"code"`
	Label                string     `json:"label"`
	Placeholder          string     `json:"placeholder"`
	MaxLength            int        `json:"maxLength"`
	RequiresPersonalInfo bool       `json:"requiresPersonalInfo"`
	Categories           []Category `json:"categories"`
}

// DocumentTypes lists the supported documents with their input hints.
func (h *Handler) DocumentTypes(c *fiber.Ctx) error {
	types := document.Types()
	out := make([]documentTypeView, 0, len(types))
	for _, t := range types {
		info := document.Lookup(t)
		out = append(out, documentTypeView{
			Code:                 info.Code,
			Label:                info.Label,
			Placeholder:          info.Placeholder,
			MaxLength:            info.MaxLength,
			RequiresPersonalInfo: info.RequiresPersonalInfo,
			Categories:           Categories(t),
		})
	}
	return c.JSON(fiber.Map{"documentTypes": out})
}

// Format canonicalises a number the way the entry form does while typing.
func (h *Handler) Format(c *fiber.Ctx) error {
	var req struct {
		DocumentType string `json:"documentType"`
		Number       string `json:"number"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	t, err := document.ParseType(req.DocumentType)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(fiber.Map{
		"documentType": t,
		"number":       document.Canonicalize(t, req.Number),
	})
}

// Validate checks a form without submitting it.
func (h *Handler) Validate(c *fiber.Ctx) error {
	var in document.Input
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.Validate(in); err != nil {
		return writeFailure(c, err)
	}
	return c.JSON(fiber.Map{"valid": true})
}

// Submit verifies a document for the subject named in the path.
func (h *Handler) Submit(c *fiber.Ctx) error {
	operatorID, err := operatorFrom(c)
	if err != nil {
		return err
	}
	subjectID := strings.TrimSpace(c.Params("subjectId"))
	if subjectID == "" {
		return fiber.NewError(http.StatusBadRequest, "subject id is required")
	}
	var in document.Input
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.Submit(c.UserContext(), operatorID, subjectID, in)
	if err != nil {
		return writeFailure(c, err)
	}
	return c.Status(http.StatusOK).JSON(result)
}

// Session reports where the operator's form currently is.
func (h *Handler) Session(c *fiber.Ctx) error {
	operatorID, err := operatorFrom(c)
	if err != nil {
		return err
	}
	snap := h.service.Session(operatorID)
	body := fiber.Map{
		"state":     snap.State,
		"updatedAt": snap.UpdatedAt,
	}
	if snap.Result != nil {
		body["result"] = snap.Result
	}
	if snap.Err != nil {
		body["message"] = UserMessage(snap.Err)
		body["errorKind"] = ErrorKind(snap.Err)
	}
	return c.JSON(body)
}

// Reset closes the result view.
func (h *Handler) Reset(c *fiber.Ctx) error {
	operatorID, err := operatorFrom(c)
	if err != nil {
		return err
	}
	if err := h.service.Reset(operatorID); err != nil {
		return writeFailure(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// Export downloads the raw data of the current result as a JSON file.
func (h *Handler) Export(c *fiber.Ctx) error {
	operatorID, err := operatorFrom(c)
	if err != nil {
		return err
	}
	artifact, err := h.service.ExportCurrent(operatorID)
	if err != nil {
		if errors.Is(err, ErrNoResult) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	c.Set(fiber.HeaderContentType, artifact.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	return c.Send(artifact.Content)
}

// History lists the operator's recent attempts.
func (h *Handler) History(c *fiber.Ctx) error {
	operatorID, err := operatorFrom(c)
	if err != nil {
		return err
	}
	attempts, err := h.service.History(c.UserContext(), operatorID, c.QueryInt("limit", defaultHistoryLimit))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"attempts": attempts})
}

func operatorFrom(c *fiber.Ctx) (string, error) {
	id, _ := c.Locals("operator_id").(string)
	if id == "" {
		return "", fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	return id, nil
}

// writeFailure renders err as the single message the operator sees.
func writeFailure(c *fiber.Ctx, err error) error {
	body := fiber.Map{
		"success":   false,
		"message":   UserMessage(err),
		"errorKind": ErrorKind(err),
	}
	var verr *document.ValidationError
	if errors.As(err, &verr) {
		body["fields"] = verr.Fields
	}
	return c.Status(failureStatus(err)).JSON(body)
}

func failureStatus(err error) int {
	var verr *document.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrSubmissionInFlight):
		return http.StatusConflict
	case errors.Is(err, document.ErrUnknownType):
		return http.StatusBadRequest
	}
	switch provider.CategoryOf(err) {
	case provider.CategoryUnauthorized:
		return http.StatusUnauthorized
	case provider.CategoryRateLimited:
		return http.StatusTooManyRequests
	case provider.CategoryTimeout:
		return http.StatusGatewayTimeout
	case provider.CategoryTransport, provider.CategoryBadData, provider.CategoryProviderFailure:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
