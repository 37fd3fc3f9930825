package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore/library/internal/errs"
	"github.com/Astemirdum/bookstore/pkg/auth"
	md "github.com/Astemirdum/bookstore/pkg/middleware"
	"github.com/Astemirdum/bookstore/pkg/validate"
	_ "github.com/Astemirdum/bookstore/swagger"
)

type Handler struct {
	librarySvc LibraryService
	images     ImageStore
	tokens     md.TokenParser
	log        *zap.Logger
}

func New(librarySvc LibraryService, images ImageStore, tokens md.TokenParser, log *zap.Logger) *Handler {
	return &Handler{
		librarySvc: librarySvc,
		images:     images,
		tokens:     tokens,
		log:        log.Named("handler"),
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))
	e.Validator = validate.NewCustomValidator()

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/health", h.Health)
	base.GET("/manage/health", h.Health)
	base.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)
	api.POST("/signup", h.Signup)
	api.POST("/login", h.Login)
	api.GET("/books/images/:filename", h.GetImage)

	api = api.Group("", md.JwtAuthentication(h.tokens))

	api.GET("/books", h.ListBooks)
	api.POST("/books", h.CreateBook)
	api.GET("/books/recommendations", h.Recommendations)
	api.GET("/books/by_tag", h.BooksByTag)
	api.GET("/books/:id", h.GetBook)
	api.PUT("/books/:id", h.UpdateBook)
	api.DELETE("/books/:id", h.DeleteBook)
	api.GET("/books/:id/history", h.BookHistory)
	api.POST("/books/:id/tags", h.SetTags)

	api.POST("/books/:id/reviews", h.AddReview)
	api.GET("/books/:id/reviews", h.ListReviews)
	api.GET("/books/:id/rating", h.Rating)

	api.POST("/books/:id/borrow", h.Borrow)
	api.POST("/books/:id/return", h.Return)
	api.GET("/books/:id/borrowers", h.Borrowers)

	api.GET("/notifications", h.Notifications)
	api.POST("/notifications/mark_read", h.MarkNotificationRead)

	api.GET("/analytics/most_borrowed", h.MostBorrowed)
	api.GET("/analytics/top_rated", h.TopRated)
	api.GET("/analytics/active_users", h.ActiveUsers)

	api.GET("/users/:email/profile", h.GetProfile)
	api.PUT("/users/:email/profile", h.UpdateProfile)
	api.GET("/users/:email/history", h.UserHistory)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "up"})
}

// toHTTPError maps domain kinds to status codes. Anything unknown is logged and hidden.
func (h *Handler) toHTTPError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrConflict),
		errors.Is(err, errs.ErrUnauthorized),
		errors.Is(err, errs.ErrInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		h.log.Error("internal",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func bookID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid book id")
	}
	return id, nil
}

func actor(c echo.Context) (string, error) {
	email, err := auth.GetUserEmail(c.Request().Context())
	if err != nil {
		return "", echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	return email, nil
}

// emailOrActor falls back to the token subject when the request names no user.
func emailOrActor(c echo.Context, email string) (string, error) {
	if email != "" {
		return email, nil
	}
	return actor(c)
}

func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
