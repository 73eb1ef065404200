package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/repairdesk/internal/domain"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
	}{
		{ValidationError("bad"), http.StatusBadRequest},
		{newError(TypeNotFound, "missing", nil), http.StatusNotFound},
		{newError(TypeConflict, "dup", nil), http.StatusConflict},
		{UnauthorizedError("who"), http.StatusUnauthorized},
		{newError(TypeForbidden, "no", nil), http.StatusForbidden},
		{RateLimitedError("slow down"), http.StatusTooManyRequests},
		{newError(TypeTimeout, "slow", nil), http.StatusGatewayTimeout},
		{newError(TypeExternal, "rabbitmq", errors.New("down")), http.StatusBadGateway},
		{InternalError("boom", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Type), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.HTTPStatus())
		})
	}
}

func TestAsStructuredError_Domain(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"validation", &domain.ValidationError{Field: "cedula", Message: "bad"}, TypeValidation},
		{"not found", fmt.Errorf("customer: %w", domain.ErrNotFound), TypeNotFound},
		{"duplicate cedula", domain.ErrDuplicateCedula, TypeConflict},
		{"transition", domain.ErrInvalidStatusTransition, TypeValidation},
		{"credentials", domain.ErrInvalidCredentials, TypeUnauthorized},
		{"forbidden", domain.ErrForbidden, TypeForbidden},
		{"expired invite", domain.ErrInviteExpired, TypeValidation},
		{"deadline", context.DeadlineExceeded, TypeTimeout},
		{"unknown", errors.New("boom"), TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AsStructuredError(tt.err).Type)
		})
	}

	assert.Nil(t, AsStructuredError(nil))
}

func TestAsStructuredError_KeepsField(t *testing.T) {
	structured := AsStructuredError(&domain.ValidationError{Field: "phone", Message: "too short"})

	assert.Equal(t, "phone", structured.Context["field"])
	assert.Equal(t, "too short", structured.Message)
}

func TestClassifyText(t *testing.T) {
	tests := []struct {
		message string
		want    Kind
	}{
		{"dial tcp 10.0.0.1:5432: connect: connection refused", KindNetwork},
		{"read tcp: i/o timeout", KindTimeout},
		{"JWT expired", KindAuth},
		{"ERROR: duplicate key value violates unique constraint \"customers_cedula_key\" (SQLSTATE 23505)", KindConflict},
		{"no rows in result set", KindNotFound},
		{"cedula is required", KindValidation},
		{"429 Too Many Requests", KindRateLimit},
		{"something odd", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyText(tt.message))
		})
	}
}

func TestUserMessage(t *testing.T) {
	err := fmt.Errorf("failed to create customer: %w", domain.ErrDuplicateCedula)

	assert.Equal(t, err.Error(), UserMessage(err, false))
	assert.Equal(t, "Ya existe un registro con estos datos.", UserMessage(err, true))
	assert.Equal(t, MessageFor(KindUnknown), UserMessage(errors.New("boom"), true))
	assert.Equal(t, MessageFor(KindTimeout), UserMessage(context.DeadlineExceeded, true))
	assert.Empty(t, UserMessage(nil, true))
}

func TestToResponse(t *testing.T) {
	status, resp := ToResponse(domain.ErrNotFound, true)

	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, TypeNotFound, resp.Type)
	assert.Equal(t, "El recurso solicitado no existe.", resp.Message)
}

func TestUserMessage_InvalidTransition(t *testing.T) {
	err := fmt.Errorf("order OS-20260314-000001: %w", domain.ErrInvalidStatusTransition)

	status, resp := ToResponse(err, true)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, MessageFor(KindValidation), resp.Message)
}

func TestToResponse_ProductionHidesDomainText(t *testing.T) {
	err := fmt.Errorf("cedula 1712345678 belongs to Ana Pérez: %w", domain.ErrDuplicateCedula)

	status, resp := ToResponse(err, true)
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Conflict", resp.Error)
	assert.NotContains(t, resp.Error+resp.Message, "Ana Pérez")

	_, resp = ToResponse(err, false)
	assert.Contains(t, resp.Error, "Ana Pérez")
}
