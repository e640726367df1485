package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/m04kA/SMC-ShuttleService/internal/api/handlers"
)

// HeaderEmployeeID заголовок с идентификатором сотрудника, проставляется шлюзом
const HeaderEmployeeID = "X-Employee-ID"

const msgMissingEmployeeID = "отсутствует ID сотрудника"

type employeeIDKey struct{}

// Auth кладет ID сотрудника из заголовка в контекст; без заголовка отвечает 401
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		employeeID := strings.TrimSpace(r.Header.Get(HeaderEmployeeID))
		if employeeID == "" {
			handlers.RespondUnauthorized(w, msgMissingEmployeeID)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithEmployeeID(r.Context(), employeeID)))
	})
}

// WithEmployeeID кладет ID сотрудника в контекст
func WithEmployeeID(ctx context.Context, employeeID string) context.Context {
	return context.WithValue(ctx, employeeIDKey{}, employeeID)
}

// GetEmployeeID достает ID сотрудника из контекста
func GetEmployeeID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(employeeIDKey{}).(string)
	return id, ok && id != ""
}
