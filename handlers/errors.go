package handlers

import (
	"errors"
	"net/http"

	"mikhailche/lurelog/repository"
	"mikhailche/lurelog/services"
)

// StatusOf maps service and repository errors to HTTP status codes.
func StatusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, services.ErrContentRejected), errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides internal errors from clients.
func publicMessage(err error, status int) string {
	var rejected *services.ContentRejectedError
	switch {
	case errors.As(err, &rejected):
		return rejected.Error()
	case errors.Is(err, services.ErrInvalidCredentials):
		return services.ErrInvalidCredentials.Error()
	case status == http.StatusInternalServerError:
		return http.StatusText(status)
	case status == http.StatusNotFound:
		return "not found"
	default:
		return err.Error()
	}
}
