package backend

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned for any 401 answer.
var ErrUnauthorized = errors.New("требуется авторизация")

// APIError is a non-2xx answer other than 401.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("Сервер вернул ошибку %d", e.Status)
}

// NetworkError wraps a transport failure: refused connection, timeout, reset.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "Ошибка сети: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Message returns the text shown to the operator for err.
func Message(err error) string {
	var (
		apiErr *APIError
		netErr *NetworkError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &netErr):
		return netErr.Error()
	case errors.As(err, &apiErr):
		return apiErr.Error()
	case errors.Is(err, ErrUnauthorized):
		return "Требуется вход в систему"
	default:
		return err.Error()
	}
}
