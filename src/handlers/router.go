package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mediajenny/the-oracle/src/utils"
)

// Router bundles the handlers and the outer middleware for NewRouter.
type Router struct {
	Users   *UserHandler
	Uploads *UploadHandler
	Reports *ReportHandler

	// Applied outermost, in order (CORS, rate limiting).
	Middlewares []func(http.Handler) http.Handler
}

func NewRouter(rt Router) http.Handler {
	r := chi.NewRouter()
	for _, mw := range rt.Middlewares {
		r.Use(mw)
	}
	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(RecoverMiddleware)
	r.Use(LoggingMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		utils.SendJSON(w, map[string]string{"message": "The Oracle backend is running"}, http.StatusOK)
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.SendJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", rt.Users.RegisterUserHandler)
		r.Post("/auth/login", rt.Users.LoginUserHandler)
		r.Post("/auth/refresh", rt.Users.RefreshTokenHandler)

		r.Group(func(r chi.Router) {
			r.Use(rt.Users.AuthMiddleware)

			r.Post("/auth/logout", rt.Users.LogoutUserHandler)
			r.Get("/users/me", rt.Users.HandleGetCurrentUser)
			r.Patch("/users/me/password", rt.Users.HandleChangePassword)

			r.Post("/upload", rt.Uploads.HandleUpload)
			r.Get("/files", rt.Uploads.HandleListFiles)
			r.Get("/files/{id}", rt.Uploads.HandleGetFile)
			r.Get("/files/{id}/download", rt.Uploads.HandleDownloadFile)
			r.Delete("/files/{id}", rt.Uploads.HandleDeleteFile)

			r.Post("/process", rt.Reports.HandleProcess)

			r.Post("/reports", rt.Reports.HandleCreateReport)
			r.Get("/reports", rt.Reports.HandleListReports)
			r.Get("/reports/{id}", rt.Reports.HandleGetReport)
			r.Delete("/reports/{id}", rt.Reports.HandleDeleteReport)
			r.Get("/reports/{id}/export", rt.Reports.HandleExportReport)
			r.Get("/reports/{id}/rankings", rt.Reports.HandleGetRankings)
			r.Post("/reports/{id}/share", rt.Reports.HandleShareReport)
			r.Delete("/reports/{id}/share", rt.Reports.HandleRevokeShare)

			r.Get("/share/report", rt.Reports.HandleGetSharedReport)
		})
	})

	return r
}
