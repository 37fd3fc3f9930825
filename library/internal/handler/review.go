package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/bookstore/library/internal/model"
)

func (h *Handler) AddReview(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	var req model.CreateReviewRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	req.BookID = id
	if req.UserEmail, err = emailOrActor(c, req.UserEmail); err != nil {
		return err
	}

	review, err := h.librarySvc.AddReview(c.Request().Context(), req)
	if err != nil {
		return h.toHTTPError(c, err)
	}
	return c.JSON(http.StatusCreated, review)
}

func (h *Handler) ListReviews(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	reviews, err := h.librarySvc.ListReviews(c.Request().Context(), id)
	if err != nil {
		return h.toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, reviews)
}

func (h *Handler) Rating(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	summary, err := h.librarySvc.RatingSummary(c.Request().Context(), id)
	if err != nil {
		return h.toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}
