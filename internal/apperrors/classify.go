package apperrors

import (
	"context"
	"errors"
	"strings"
)

type Kind string

const (
	KindNetwork    Kind = "network"
	KindTimeout    Kind = "timeout"
	KindAuth       Kind = "auth"
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindRateLimit  Kind = "rate_limit"
	KindUnknown    Kind = "unknown"
)

var userMessages = map[Kind]string{
	KindNetwork:    "Error de conexión. Verifica tu conexión a internet e inténtalo de nuevo.",
	KindTimeout:    "La operación tardó demasiado. Inténtalo de nuevo.",
	KindAuth:       "Tu sesión ha expirado o no tienes permisos. Inicia sesión nuevamente.",
	KindValidation: "Los datos ingresados no son válidos. Revisa el formulario.",
	KindNotFound:   "El recurso solicitado no existe.",
	KindConflict:   "Ya existe un registro con estos datos.",
	KindRateLimit:  "Demasiadas solicitudes. Espera un momento e inténtalo de nuevo.",
	KindUnknown:    "Ocurrió un error inesperado. Inténtalo de nuevo.",
}

// Checked in order; earlier kinds win when several keywords match.
var kindKeywords = []struct {
	kind     Kind
	keywords []string
}{
	{KindRateLimit, []string{"rate limit", "too many requests", "429"}},
	{KindTimeout, []string{"timeout", "timed out", "deadline exceeded"}},
	{KindNetwork, []string{"network", "connection refused", "connection reset", "no such host", "failed to fetch", "dial tcp", "broken pipe"}},
	{KindAuth, []string{"unauthorized", "forbidden", "credentials", "session", "jwt", "permission denied", "not authenticated", "inactive"}},
	{KindConflict, []string{"duplicate", "already exists", "already registered", "unique", "23505", "conflict"}},
	{KindNotFound, []string{"not found", "no rows"}},
	{KindValidation, []string{"validation", "invalid", "required", "must be", "violates"}},
}

var typeKinds = map[ErrorType]Kind{
	TypeValidation:   KindValidation,
	TypeNotFound:     KindNotFound,
	TypeConflict:     KindConflict,
	TypeUnauthorized: KindAuth,
	TypeForbidden:    KindAuth,
	TypeRateLimited:  KindRateLimit,
	TypeTimeout:      KindTimeout,
	TypeExternal:     KindNetwork,
}

// Classify picks the message category for err: structured type first,
// then keyword matching on the error text.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	if structured := AsStructuredError(err); structured.Type != TypeInternal {
		if kind, ok := typeKinds[structured.Type]; ok {
			return kind
		}
	}

	return ClassifyText(err.Error())
}

// ClassifyText matches a raw error message against the keyword table.
func ClassifyText(message string) Kind {
	lower := strings.ToLower(message)
	for _, entry := range kindKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.kind
			}
		}
	}
	return KindUnknown
}

// UserMessage returns the text shown to the user: the raw error message in
// development, the classified Spanish message in production.
func UserMessage(err error, production bool) string {
	if err == nil {
		return ""
	}
	if !production {
		return err.Error()
	}
	return userMessages[Classify(err)]
}

// MessageFor returns the Spanish message for a category.
func MessageFor(kind Kind) string {
	if msg, ok := userMessages[kind]; ok {
		return msg
	}
	return userMessages[KindUnknown]
}
