package middlewarectx

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/billing-backoffice/internal/access"
	"github.com/magabrotheeeer/billing-backoffice/internal/http/response"
)

// AccessMiddleware сверяет битовую маску вызывающего с требуемой маской
// маршрута. Маска вызывающего выводится из роли, положенной в контекст
// JWTMiddleware; маршрут без правила требует аутентификации.
func AccessMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.AccessMiddleware"

			role, _ := r.Context().Value(Role).(string)
			callerMask := access.MaskForRole(role)
			// Правила доступа описаны без префикса версии API.
			path := strings.TrimPrefix(r.URL.Path, "/api/v1")
			requiredMask := access.RequiredMask(path, r.Method)

			if !access.HasPermission(callerMask, requiredMask) {
				log.Error("access denied",
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("path", r.URL.Path),
					slog.String("role", role),
					slog.Int("caller_mask", callerMask),
					slog.Int("required_mask", requiredMask),
				)
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error("access denied"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
