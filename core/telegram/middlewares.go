package telegram

import (
	"github.com/m3rciful/prodbot/core/telegram/middleware"
)

// DefaultMiddlewares builds the global middleware chain shared by all routes.
func DefaultMiddlewares() []Middleware {
	return []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
	}
}
