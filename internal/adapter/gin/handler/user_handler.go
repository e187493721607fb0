package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rest-user-service/internal/usecase/user"
	apperrors "rest-user-service/pkg/errors"
	"rest-user-service/pkg/logger"
)

// invalidIDMessage is reported when the :id path parameter is not an integer.
const invalidIDMessage = "id must be a number string"

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc  user.UserUsecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.UserUsecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// ErrorResponse is the body of every non-2xx response. Message is either a
// string or a list of strings.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    any    `json:"message"`
	Error      string `json:"error,omitempty"`
}

// BadRequest builds a 400 body.
func BadRequest(message any) ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusBadRequest,
		Message:    message,
		Error:      http.StatusText(http.StatusBadRequest),
	}
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(c *gin.Context) {
	ctx := c.Request.Context()
	logger.WithContext(ctx, h.log).Debug("Gin ListUsers request")

	users, err := h.uc.ListUsers(ctx)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// GetUser handles GET /users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.uc.GetUser(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(c *gin.Context) {
	in, ok := h.bindInput(c)
	if !ok {
		return
	}

	resp, err := h.uc.CreateUser(c.Request.Context(), in)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// UpdateUser handles PUT /users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	in, ok := h.bindInput(c)
	if !ok {
		return
	}

	resp, err := h.uc.UpdateUser(c.Request.Context(), id, in)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteUser handles DELETE /users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.uc.DeleteUser(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) parseID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		logger.WithContext(c.Request.Context(), h.log).Warn("Invalid user ID", zap.String("id", idStr))
		c.JSON(http.StatusBadRequest, BadRequest([]string{invalidIDMessage}))
		return 0, false
	}
	return id, true
}

// bindInput decodes the JSON body. An empty body decodes as an empty payload so
// that validation reports the missing fields.
func (h *UserHandler) bindInput(c *gin.Context) (user.UserInput, bool) {
	var in user.UserInput
	if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
		logger.WithContext(c.Request.Context(), h.log).Warn("Malformed request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, BadRequest(err.Error()))
		return user.UserInput{}, false
	}
	return in, true
}

// handleError converts usecase errors to HTTP responses
func (h *UserHandler) handleError(c *gin.Context, err error) {
	log := logger.WithContext(c.Request.Context(), h.log)

	var (
		validationErr *apperrors.ValidationError
		existsErr     *apperrors.AlreadyExistsError
		notFoundErr   *apperrors.NotFoundError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, BadRequest(validationErr.Messages))
	case errors.As(err, &existsErr):
		c.JSON(http.StatusBadRequest, BadRequest([]string{existsErr.Error()}))
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, ErrorResponse{
			StatusCode: http.StatusNotFound,
			Message:    http.StatusText(http.StatusNotFound),
		})
	default:
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
		})
	}
}
