package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type ledgerRequest struct {
	UserEmail string `json:"user_email" form:"user_email" validate:"omitempty,email"`
}

func (h *Handler) Borrow(c echo.Context) error {
	id, email, err := h.ledgerInput(c)
	if err != nil {
		return err
	}
	rec, err := h.librarySvc.Borrow(c.Request().Context(), id, email)
	if err != nil {
		return h.toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) Return(c echo.Context) error {
	id, email, err := h.ledgerInput(c)
	if err != nil {
		return err
	}
	rec, err := h.librarySvc.Return(c.Request().Context(), id, email)
	if err != nil {
		return h.toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) Borrowers(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	recs, err := h.librarySvc.ListBorrowers(c.Request().Context(), id)
	if err != nil {
		return h.toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, recs)
}

func (h *Handler) ledgerInput(c echo.Context) (int, string, error) {
	id, err := bookID(c)
	if err != nil {
		return 0, "", err
	}
	var req ledgerRequest
	if err := bindValid(c, &req); err != nil {
		return 0, "", err
	}
	email, err := emailOrActor(c, req.UserEmail)
	if err != nil {
		return 0, "", err
	}
	return id, email, nil
}
