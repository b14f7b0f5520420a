package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/taskboard/api/handler"
)

type Handlers struct {
	Auth    *apiHandler.AuthHandler
	Profile *apiHandler.ProfileHandler
	Metrics *apiHandler.MetricsHandler
	Task    *apiHandler.TaskHandler
	Health  *apiHandler.HealthHandler
}

func New(handlers Handlers, auth func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	api := r.Group("/api")

	api.POST("/auth/register", handlers.Auth.Register)
	api.POST("/auth/login", handlers.Auth.Login)
	api.POST("/auth/logout", auth(handlers.Auth.Logout))

	r.GET(apiHandler.ProfilePath, auth(handlers.Profile.GetProfile))
	r.PUT(apiHandler.ProfilePath, auth(handlers.Profile.UpdateProfile))
	api.GET("/users/metrics", auth(handlers.Metrics.GetMetrics))

	api.GET("/todos", auth(handlers.Task.GetTasks))
	api.POST("/todos", auth(handlers.Task.CreateTask))
	api.GET("/todos/{id}", auth(handlers.Task.GetTask))
	api.PUT("/todos/{id}", auth(handlers.Task.UpdateTask))
	api.DELETE("/todos/{id}", auth(handlers.Task.DeleteTask))

	return r
}
