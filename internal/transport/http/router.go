package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/vinald/bookapi/internal/handlers"
	authmw "github.com/vinald/bookapi/internal/middleware/auth"
	"github.com/vinald/bookapi/internal/models"
)

type Deps struct {
	DB            *gorm.DB
	Redis         *redis.Client
	Auth          *authmw.Middleware
	AuthHandler   *handlers.AuthHandler
	UserHandler   *handlers.UserHandler
	AdminHandler  *handlers.AdminHandler
	BookHandler   *handlers.BookHandler
	ReviewHandler *handlers.ReviewHandler
	SearchHandler *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", d.ready)

	v1 := e.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/verify-email", d.AuthHandler.VerifyEmail)
	auth.GET("/verify-email", d.AuthHandler.VerifyEmail)
	auth.POST("/resend-verification", d.AuthHandler.ResendVerification)
	auth.POST("/forgot-password", d.AuthHandler.ForgotPassword)
	auth.POST("/reset-password", d.AuthHandler.ResetPassword)
	auth.POST("/logout", d.AuthHandler.Logout, d.Auth.RequireLogin)
	auth.POST("/logout-all", d.AuthHandler.LogoutAll, d.Auth.RequireLogin)

	users := v1.Group("/users", d.Auth.RequireLogin)
	users.GET("/me", d.UserHandler.Me)
	users.PATCH("/me", d.UserHandler.UpdateMe)
	users.DELETE("/me", d.UserHandler.DeleteMe)
	users.GET("", d.UserHandler.List, d.Auth.RequireRole(models.RoleAdmin))
	users.GET("/:uuid", d.UserHandler.GetByUUID)
	users.GET("/email/:email", d.UserHandler.GetByEmail, d.Auth.RequireRole(models.RoleAdmin))
	users.GET("/:uuid/reviews", d.UserHandler.ListUserReviews)

	admin := v1.Group("/admin", d.Auth.RequireLogin, d.Auth.RequireRole(models.RoleAdmin))
	admin.POST("/users", d.AdminHandler.CreateUser)
	admin.PATCH("/users/:uuid", d.AdminHandler.UpdateUser)
	admin.DELETE("/users/:uuid", d.AdminHandler.DeleteUser)

	books := v1.Group("/books")
	books.GET("", d.BookHandler.List)
	books.GET("/:uuid", d.BookHandler.Get)
	books.GET("/:uuid/reviews", d.ReviewHandler.ListByBook)
	books.POST("", d.BookHandler.Create, d.Auth.RequireLogin, d.Auth.RequireRole(models.RoleModerator))
	books.PATCH("/:uuid", d.BookHandler.Update, d.Auth.RequireLogin, d.Auth.RequireRole(models.RoleModerator))
	books.DELETE("/:uuid", d.BookHandler.Delete, d.Auth.RequireLogin, d.Auth.RequireRole(models.RoleModerator))
	books.POST("/:uuid/reviews", d.ReviewHandler.Create, d.Auth.RequireLogin)

	reviews := v1.Group("/reviews")
	reviews.GET("", d.ReviewHandler.List)
	reviews.GET("/me", d.ReviewHandler.ListMine, d.Auth.RequireLogin)
	reviews.GET("/:uuid", d.ReviewHandler.Get)
	reviews.PATCH("/:uuid", d.ReviewHandler.Update, d.Auth.RequireLogin)
	reviews.DELETE("/:uuid", d.ReviewHandler.Delete, d.Auth.RequireLogin)

	v1.GET("/search", d.SearchHandler.Search)
}

// ready reports whether the two stores every request path depends on are
// reachable. Redis is optional at startup, so a nil client counts as ready.
func (d *Deps) ready(c echo.Context) error {
	ctx := c.Request().Context()

	sqlDB, err := d.DB.DB()
	if err != nil || sqlDB.PingContext(ctx) != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "component": "database"})
	}
	if d.Redis != nil {
		if err := d.Redis.Ping(ctx).Err(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "component": "redis"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
