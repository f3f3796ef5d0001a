package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

func (app *application) routes() http.Handler {
	router := chi.NewRouter()

	router.NotFound(app.routeNotFoundErrorResponse)
	router.MethodNotAllowed(app.methodNotAllowedErrorResponse)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.config.TrustedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	router.Get("/v1/healthcheck", app.healthCheckHandler)

	// user service
	router.Post("/v1/auth/register", app.registerUserHandler)
	router.Post("/v1/auth/login", app.loginUserHandler)

	// blog service, all routes require an authenticated caller
	router.Route("/v1/blog", func(r chi.Router) {
		r.Use(app.authenticate)

		r.Get("/", app.listBlogsHandler)
		r.Post("/", app.createBlogHandler)
		r.Get("/ghost", app.ghostBlogsHandler)
		r.Get("/{id}", app.getBlogHandler)
		r.Patch("/{id}", app.updateBlogHandler)
		r.Delete("/{id}", app.deleteBlogHandler)
		r.Post("/like/{id}", app.likeBlogHandler)
		r.Post("/comment/{id}", app.commentBlogHandler)
	})

	return app.recoverPanic(app.logRequest(app.rateLimit(router)))
}
