package ui

import (
	"errors"
	"net/http"

	"idrecon/internal/backend"
	"idrecon/internal/domain"
)

// errorText is the operator-facing message of err. Network failures carry
// their own prefix.
func errorText(err error) string {
	var netErr *backend.NetworkError
	if errors.As(err, &netErr) {
		return netErr.Error()
	}
	return "Ошибка: " + backend.Message(err)
}

func (h *Handler) renderServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	title := "Ошибка"
	message := "Не удалось загрузить страницу."

	var notFound *domain.NotFoundError
	var accessDenied *domain.AccessDeniedError
	var validation *domain.ValidationError
	var conflict *domain.ConflictError
	var apiErr *backend.APIError
	var netErr *backend.NetworkError
	switch {
	case errors.As(err, &notFound):
		status = http.StatusNotFound
		title = "Не найдено"
		message = notFound.Error()
	case errors.As(err, &accessDenied):
		status = http.StatusForbidden
		title = "Доступ запрещён"
		message = accessDenied.Error()
	case errors.As(err, &validation):
		status = http.StatusBadRequest
		title = "Некорректный запрос"
		message = validation.Error()
	case errors.As(err, &conflict):
		status = http.StatusConflict
		title = "Конфликт"
		message = conflict.Error()
	case errors.As(err, &apiErr):
		status = http.StatusBadGateway
		message = apiErr.Error()
	case errors.As(err, &netErr):
		status = http.StatusBadGateway
		title = "Сервер недоступен"
		message = netErr.Error()
	}

	renderHTML(w, status, errorPage(r, title, message))
}
