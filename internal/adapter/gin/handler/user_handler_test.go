package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "rest-user-service/internal/domain/user"
	usecase "rest-user-service/internal/usecase/user"
	apperrors "rest-user-service/pkg/errors"
)

// MockUserUsecase is a mock implementation of user.UserUsecase
type MockUserUsecase struct {
	mock.Mock
}

func (m *MockUserUsecase) ListUsers(ctx context.Context) ([]domain.Projection, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Projection), args.Error(1)
}

func (m *MockUserUsecase) GetUser(ctx context.Context, id int64) (*domain.Projection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Projection), args.Error(1)
}

func (m *MockUserUsecase) CreateUser(ctx context.Context, in usecase.UserInput) (*domain.Projection, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Projection), args.Error(1)
}

func (m *MockUserUsecase) UpdateUser(ctx context.Context, id int64, in usecase.UserInput) (*domain.Projection, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Projection), args.Error(1)
}

func (m *MockUserUsecase) DeleteUser(ctx context.Context, id int64) (*domain.Projection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Projection), args.Error(1)
}

func setupTest(t *testing.T) (*gin.Engine, *MockUserUsecase) {
	gin.SetMode(gin.TestMode)
	mockUsecase := new(MockUserUsecase)
	h := NewUserHandler(mockUsecase, zaptest.NewLogger(t))

	r := gin.New()
	r.GET("/users", h.ListUsers)
	r.GET("/users/:id", h.GetUser)
	r.POST("/users", h.CreateUser)
	r.PUT("/users/:id", h.UpdateUser)
	r.DELETE("/users/:id", h.DeleteUser)
	return r, mockUsecase
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

var john = &domain.Projection{
	ID:        1,
	Email:     "john@example.com",
	FirstName: "John",
	LastName:  "Doe",
	CreatedAt: "2024-01-01T00:00:00.000Z",
	UpdatedAt: "2024-01-01T00:00:00.000Z",
}

func TestListUsers(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("ListUsers", mock.Anything).Return([]domain.Projection{*john}, nil)

		w := do(r, http.MethodGet, "/users", "")

		assert.Equal(t, http.StatusOK, w.Code)
		var got []domain.Projection
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, []domain.Projection{*john}, got)
	})

	t.Run("Empty", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("ListUsers", mock.Anything).Return([]domain.Projection{}, nil)

		w := do(r, http.MethodGet, "/users", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("Internal Error", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("ListUsers", mock.Anything).
			Return(nil, apperrors.NewInternalError("failed to list users", errors.New("db down")))

		w := do(r, http.MethodGet, "/users", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"statusCode":500,"message":"Internal server error"}`, w.Body.String())
	})
}

func TestGetUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("GetUser", mock.Anything, int64(1)).Return(john, nil)

		w := do(r, http.MethodGet, "/users/1", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{
			"id": 1,
			"email": "john@example.com",
			"firstName": "John",
			"lastName": "Doe",
			"createdAt": "2024-01-01T00:00:00.000Z",
			"updatedAt": "2024-01-01T00:00:00.000Z"
		}`, w.Body.String())
	})

	t.Run("Not Found", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("GetUser", mock.Anything, int64(99)).Return(nil, apperrors.ErrUserNotFound)

		w := do(r, http.MethodGet, "/users/99", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"statusCode":404,"message":"Not Found"}`, w.Body.String())
	})

	t.Run("Invalid ID", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		for _, id := range []string{"abc", "1.5", "99999999999999999999"} {
			w := do(r, http.MethodGet, "/users/"+id, "")

			assert.Equal(t, http.StatusBadRequest, w.Code, id)
			assert.JSONEq(t,
				`{"statusCode":400,"message":["id must be a number string"],"error":"Bad Request"}`,
				w.Body.String())
		}
		mockUsecase.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
	})
}

func TestCreateUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		in := usecase.UserInput{Email: "john@example.com", FirstName: "John", LastName: "Doe"}
		mockUsecase.On("CreateUser", mock.Anything, in).Return(john, nil)

		w := do(r, http.MethodPost, "/users", `{"email":"john@example.com","firstName":"John","lastName":"Doe"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, float64(1), decode(t, w)["id"])
	})

	t.Run("Validation Error", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		messages := []string{
			"email must be an email",
			"firstName should not be empty",
			"lastName should not be empty",
		}
		mockUsecase.On("CreateUser", mock.Anything, usecase.UserInput{}).
			Return(nil, apperrors.NewValidationError(messages...))

		w := do(r, http.MethodPost, "/users", `{}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{
			"statusCode": 400,
			"message": ["email must be an email", "firstName should not be empty", "lastName should not be empty"],
			"error": "Bad Request"
		}`, w.Body.String())
	})

	t.Run("Empty Body", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("CreateUser", mock.Anything, usecase.UserInput{}).
			Return(nil, apperrors.NewValidationError("email must be an email"))

		w := do(r, http.MethodPost, "/users", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockUsecase.AssertExpectations(t)
	})

	t.Run("Duplicate Email", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("CreateUser", mock.Anything, mock.Anything).Return(nil, apperrors.ErrDuplicateEmail)

		w := do(r, http.MethodPost, "/users", `{"email":"john@example.com","firstName":"John","lastName":"Doe"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t,
			`{"statusCode":400,"message":["email must be unique"],"error":"Bad Request"}`,
			w.Body.String())
	})

	t.Run("Malformed JSON", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		w := do(r, http.MethodPost, "/users", `{"email":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.Equal(t, float64(400), body["statusCode"])
		assert.Equal(t, "Bad Request", body["error"])
		assert.IsType(t, "", body["message"])
		mockUsecase.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("Wrong Field Type", func(t *testing.T) {
		r, _ := setupTest(t)

		w := do(r, http.MethodPost, "/users", `{"email":42}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUpdateUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		in := usecase.UserInput{Email: "john@example.com", FirstName: "Johnny", LastName: "Doe"}
		updated := *john
		updated.FirstName = "Johnny"
		mockUsecase.On("UpdateUser", mock.Anything, int64(1), in).Return(&updated, nil)

		w := do(r, http.MethodPut, "/users/1", `{"email":"john@example.com","firstName":"Johnny","lastName":"Doe"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Johnny", decode(t, w)["firstName"])
	})

	t.Run("Not Found", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("UpdateUser", mock.Anything, int64(7), mock.Anything).Return(nil, apperrors.ErrUserNotFound)

		w := do(r, http.MethodPut, "/users/7", `{"email":"a@b.co","firstName":"A","lastName":"B"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Invalid ID Checked First", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		w := do(r, http.MethodPut, "/users/x", `{"email":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, []any{"id must be a number string"}, decode(t, w)["message"])
		mockUsecase.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDeleteUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("DeleteUser", mock.Anything, int64(1)).Return(john, nil)

		w := do(r, http.MethodDelete, "/users/1", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "john@example.com", decode(t, w)["email"])
	})

	t.Run("Not Found", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("DeleteUser", mock.Anything, int64(1)).Return(nil, apperrors.ErrUserNotFound)

		w := do(r, http.MethodDelete, "/users/1", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Unexpected Error", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("DeleteUser", mock.Anything, int64(1)).Return(nil, errors.New("boom"))

		w := do(r, http.MethodDelete, "/users/1", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Internal server error", decode(t, w)["message"])
	})
}
