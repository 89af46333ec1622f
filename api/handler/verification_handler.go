package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"servimarket/api/middleware"
	"servimarket/internal/dto"
	"servimarket/internal/entity"
	"servimarket/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type VerificationService interface {
	SubmitDocuments(ctx context.Context, actor *service.Actor, input service.SubmitDocumentsInput) (*service.SubmitDocumentsResult, error)
	GetVerificationStatus(ctx context.Context, actor *service.Actor) (*service.VerificationStatusView, error)
	UpdateVerificationStatus(ctx context.Context, actor *service.Actor, input service.UpdateStatusInput) (*service.UpdateStatusResult, error)
	GetPendingVerifications(ctx context.Context, actor *service.Actor) ([]service.PendingVerification, error)
}

type VerificationHandler struct {
	Service  VerificationService
	Validate *validator.Validate
	Logger   *logrus.Logger
}

func NewVerificationHandler(svc VerificationService, validate *validator.Validate, logger *logrus.Logger) *VerificationHandler {
	if validate != nil {
		validate.RegisterTagNameFunc(jsonFieldName)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &VerificationHandler{
		Service:  svc,
		Validate: validate,
		Logger:   logger,
	}
}

func (h *VerificationHandler) SubmitDocuments(c echo.Context) error {
	actor := middleware.ActorFromContext(c)
	if actor == nil {
		return writeError(c, http.StatusUnauthorized, codeUnauthenticated, "unauthorized")
	}
	var req dto.SubmitDocumentsRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, codeInvalidArgument, err.Error())
	}
	if err := h.validate(req); err != nil {
		return writeValidationError(c, err)
	}

	frontID, err := uuid.Parse(strings.TrimSpace(req.DocumentFrontFileID))
	if err != nil {
		return writeServiceError(c, h.Logger, "submit_documents", service.ErrInvalidFrontDocument)
	}
	input := service.SubmitDocumentsInput{
		DocumentType: req.DocumentType,
		FrontFileID:  frontID,
		Notes:        req.Notes,
	}
	if req.DocumentBackFileID != nil && strings.TrimSpace(*req.DocumentBackFileID) != "" {
		backID, err := uuid.Parse(strings.TrimSpace(*req.DocumentBackFileID))
		if err != nil {
			return writeServiceError(c, h.Logger, "submit_documents", service.ErrInvalidBackDocument)
		}
		input.BackFileID = &backID
	}

	result, err := h.Service.SubmitDocuments(c.Request().Context(), actor, input)
	if err != nil {
		return writeServiceError(c, h.Logger, "submit_documents", err)
	}
	return writeSuccess(c, dto.SubmitDocumentsResponseFromResult(result), "documents submitted for verification")
}

func (h *VerificationHandler) GetStatus(c echo.Context) error {
	actor := middleware.ActorFromContext(c)
	if actor == nil {
		return writeError(c, http.StatusUnauthorized, codeUnauthenticated, "unauthorized")
	}
	view, err := h.Service.GetVerificationStatus(c.Request().Context(), actor)
	if err != nil {
		return writeServiceError(c, h.Logger, "get_verification_status", err)
	}
	return writeSuccess(c, dto.VerificationStatusResponseFromView(view), "")
}

func (h *VerificationHandler) UpdateStatus(c echo.Context) error {
	actor := middleware.ActorFromContext(c)
	if actor == nil {
		return writeError(c, http.StatusUnauthorized, codeUnauthenticated, "unauthorized")
	}
	if !actor.IsAdmin() {
		return writeServiceError(c, h.Logger, "update_verification_status", service.ErrPermissionDenied)
	}
	var req dto.UpdateStatusRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, codeInvalidArgument, err.Error())
	}
	if err := h.validate(req); err != nil {
		return writeValidationError(c, err)
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return writeError(c, http.StatusBadRequest, codeInvalidArgument, "user_id must be a valid uuid")
	}

	result, err := h.Service.UpdateVerificationStatus(c.Request().Context(), actor, service.UpdateStatusInput{
		UserID:          userID,
		Status:          entity.VerificationStatus(req.Status),
		Notes:           req.Notes,
		RejectionReason: req.RejectionReason,
	})
	if err != nil {
		return writeServiceError(c, h.Logger, "update_verification_status", err)
	}
	response := dto.UpdateStatusResponse{UserID: result.UserID.String(), Status: string(result.Status)}
	return writeSuccess(c, response, fmt.Sprintf("verification status updated to %s", result.Status))
}

func (h *VerificationHandler) GetPending(c echo.Context) error {
	actor := middleware.ActorFromContext(c)
	if actor == nil {
		return writeError(c, http.StatusUnauthorized, codeUnauthenticated, "unauthorized")
	}
	pending, err := h.Service.GetPendingVerifications(c.Request().Context(), actor)
	if err != nil {
		return writeServiceError(c, h.Logger, "get_pending_verifications", err)
	}
	return writeSuccess(c, dto.PendingVerificationResponses(pending), "")
}

func (h *VerificationHandler) validate(payload any) error {
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(payload)
}

func writeValidationError(c echo.Context, err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return writeError(c, http.StatusBadRequest, codeInvalidArgument, err.Error())
	}
	fields := make(map[string]string, len(validationErrs))
	for _, fieldErr := range validationErrs {
		fields[fieldErr.Field()] = describeValidation(fieldErr)
	}
	return writeError(c, http.StatusBadRequest, codeInvalidArgument, clientMessage(&service.FieldError{Fields: fields}))
}

func describeValidation(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "uuid":
		return "must be a valid uuid"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fieldErr.Param(), " ", ", ")
	case "max":
		return "must be at most " + fieldErr.Param() + " characters"
	}
	return "is invalid"
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

func decodeJSON(c echo.Context, target any) error {
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return errors.New("invalid request body")
	}
	return nil
}
