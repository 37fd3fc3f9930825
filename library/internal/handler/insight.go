package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/bookstore/library/internal/service"
)

func (h *Handler) Recommendations(c echo.Context) error {
	email, err := emailOrActor(c, c.QueryParam("user_email"))
	if err != nil {
		return err
	}
	limit := service.DefaultRecommendLimit
	if raw := c.QueryParam("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 1 || limit > service.MaxRecommendLimit {
			return echo.NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("limit must be between 1 and %d", service.MaxRecommendLimit))
		}
	}
	books, err := h.librarySvc.Recommend(c.Request().Context(), email, limit)
	if err != nil {
		return h.toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) MostBorrowed(c echo.Context) error {
	books, err := h.librarySvc.MostBorrowed(c.Request().Context())
	if err != nil {
		return h.toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) TopRated(c echo.Context) error {
	books, err := h.librarySvc.TopRated(c.Request().Context())
	if err != nil {
		return h.toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) ActiveUsers(c echo.Context) error {
	users, err := h.librarySvc.ActiveUsers(c.Request().Context())
	if err != nil {
		return h.toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}
