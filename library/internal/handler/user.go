package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/bookstore/library/internal/model"
)

func (h *Handler) Signup(c echo.Context) error {
	var cred model.Credentials
	if err := bindValid(c, &cred); err != nil {
		return err
	}
	if _, err := h.librarySvc.Signup(c.Request().Context(), cred); err != nil {
		return h.toHTTPError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"message": "User created successfully"})
}

func (h *Handler) Login(c echo.Context) error {
	var cred model.Credentials
	if err := bindValid(c, &cred); err != nil {
		return err
	}
	resp, err := h.librarySvc.Login(c.Request().Context(), cred)
	if err != nil {
		return h.toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetProfile(c echo.Context) error {
	user, err := h.librarySvc.Profile(c.Request().Context(), c.Param("email"))
	if err != nil {
		return h.toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfile only lets a user change their own password.
func (h *Handler) UpdateProfile(c echo.Context) error {
	email, err := actor(c)
	if err != nil {
		return err
	}
	if c.Param("email") != email {
		return echo.NewHTTPError(http.StatusForbidden, "cannot update another user's profile")
	}
	var req model.UpdateProfileRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	user, err := h.librarySvc.UpdateProfile(c.Request().Context(), email, req)
	if err != nil {
		return h.toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *Handler) UserHistory(c echo.Context) error {
	history, err := h.librarySvc.UserHistory(c.Request().Context(), c.Param("email"))
	if err != nil {
		return h.toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, history)
}

func (h *Handler) Notifications(c echo.Context) error {
	email, err := emailOrActor(c, c.QueryParam("user_email"))
	if err != nil {
		return err
	}
	list, err := h.librarySvc.ListNotifications(c.Request().Context(), email)
	if err != nil {
		return h.toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *Handler) MarkNotificationRead(c echo.Context) error {
	raw := c.QueryParam("notification_id")
	if raw == "" {
		raw = c.FormValue("notification_id")
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid notification id")
	}
	if err := h.librarySvc.MarkNotificationRead(c.Request().Context(), id); err != nil {
		return h.toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
