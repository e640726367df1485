package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/m04kA/SMC-ShuttleService/internal/api/handlers"
)

const msgTooManyRequests = "слишком много запросов, повторите позже"

// RateLimit ограничивает число запросов сотрудника за окно window (скользящее окно httprate)
// Должен стоять после Auth: ключом служит ID сотрудника из контекста, без него IP клиента
func RateLimit(requestLimit int, window time.Duration) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(max(int(window.Seconds()), 1))

	return httprate.Limit(
		requestLimit,
		window,
		httprate.WithKeyFuncs(employeeKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", retryAfter)
			handlers.RespondTooManyRequests(w, msgTooManyRequests)
		}),
	)
}

func employeeKey(r *http.Request) (string, error) {
	if employeeID, ok := GetEmployeeID(r.Context()); ok {
		return "employee:" + employeeID, nil
	}
	return httprate.KeyByIP(r)
}
