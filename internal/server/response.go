package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trainhubhq/trainhub-backend/internal/platform/storeerr"
)

type APIError struct {
	Kind    string `json:"kind"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondStoreError maps the error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is a plain 500.
func RespondStoreError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch storeerr.KindOf(err) {
	case storeerr.KindNotFound:
		status = http.StatusNotFound
	case storeerr.KindConstraintViolation:
		status = http.StatusConflict
	case storeerr.KindInvalidTransition:
		status = http.StatusUnprocessableEntity
	case storeerr.KindBackendUnavailable:
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Kind:    string(storeerr.KindOf(err)),
			Code:    storeerr.CodeOf(err),
			Message: err.Error(),
		},
	})
}

func RespondBadRequest(c *gin.Context, err error) {
	msg := "bad request"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(http.StatusBadRequest, ErrorEnvelope{
		Error: APIError{Kind: "bad_request", Message: msg},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
