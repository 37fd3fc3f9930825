package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore/library/internal/model"
)

const coverImageField = "cover_image"

func (h *Handler) ListBooks(c echo.Context) error {
	filter := model.BookFilter{
		Author: c.QueryParam("author"),
		Q:      c.QueryParam("q"),
	}
	var err error
	if filter.YearMin, err = optionalInt(c, "year_min"); err != nil {
		return err
	}
	if filter.YearMax, err = optionalInt(c, "year_max"); err != nil {
		return err
	}
	books, err := h.librarySvc.ListBooks(c.Request().Context(), filter)
	if err != nil {
		return h.toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) CreateBook(c echo.Context) error {
	email, err := actor(c)
	if err != nil {
		return err
	}
	var req model.CreateBookRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	if isMultipart(c) {
		ref, err := h.storeCover(c)
		if err != nil {
			return err
		}
		req.CoverImageURL = ref
	}

	book, err := h.librarySvc.CreateBook(c.Request().Context(), req, email)
	if err != nil {
		if req.CoverImageURL != nil {
			if rmErr := h.images.Remove(*req.CoverImageURL); rmErr != nil {
				h.log.Warn("remove orphaned cover", zap.String("ref", *req.CoverImageURL), zap.Error(rmErr))
			}
		}
		return h.toHTTPError(c, err)
	}
	return c.JSON(http.StatusCreated, book)
}

func (h *Handler) GetBook(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	book, err := h.librarySvc.GetBook(c.Request().Context(), id)
	if err != nil {
		return h.toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) UpdateBook(c echo.Context) error {
	email, err := actor(c)
	if err != nil {
		return err
	}
	id, err := bookID(c)
	if err != nil {
		return err
	}

	var req model.UpdateBookRequest
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
	} else if req, err = updateFromForm(c); err != nil {
		return err
	}

	book, err := h.librarySvc.UpdateBook(c.Request().Context(), id, req, email)
	if err != nil {
		return h.toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) DeleteBook(c echo.Context) error {
	email, err := actor(c)
	if err != nil {
		return err
	}
	id, err := bookID(c)
	if err != nil {
		return err
	}
	if err := h.librarySvc.DeleteBook(c.Request().Context(), id, email); err != nil {
		return h.toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Book deleted successfully"})
}

func (h *Handler) BookHistory(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	logs, err := h.librarySvc.BookHistory(c.Request().Context(), id)
	if err != nil {
		return h.toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, logs)
}

func (h *Handler) SetTags(c echo.Context) error {
	email, err := actor(c)
	if err != nil {
		return err
	}
	id, err := bookID(c)
	if err != nil {
		return err
	}
	var req struct {
		Tags string `json:"tags" form:"tags" validate:"required"`
	}
	if err := bindValid(c, &req); err != nil {
		return err
	}
	book, err := h.librarySvc.SetTags(c.Request().Context(), id, req.Tags, email)
	if err != nil {
		return h.toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) BooksByTag(c echo.Context) error {
	tag := strings.TrimSpace(c.QueryParam("tag"))
	if tag == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "tag is required")
	}
	books, err := h.librarySvc.ListBooksByTag(c.Request().Context(), tag)
	if err != nil {
		return h.toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) GetImage(c echo.Context) error {
	path, err := h.images.Path(c.Param("filename"))
	if err != nil {
		return h.toHTTPError(c, err)
	}
	return c.File(path)
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// storeCover saves the optional cover_image part and returns its reference.
func (h *Handler) storeCover(c echo.Context) (*string, error) {
	file, err := c.FormFile(coverImageField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, "image upload failed")
	}
	if file.Filename == "" {
		return nil, nil
	}
	src, err := file.Open()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "image upload failed")
	}
	defer src.Close()

	ref, err := h.images.Store(file.Filename, src)
	if err != nil {
		return nil, h.toHTTPError(c, err)
	}
	return &ref, nil
}

func updateFromForm(c echo.Context) (model.UpdateBookRequest, error) {
	var req model.UpdateBookRequest
	form, err := c.FormParams()
	if err != nil {
		return req, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	str := func(key string) *string {
		if v, ok := form[key]; ok && len(v) > 0 {
			s := v[0]
			return &s
		}
		return nil
	}
	req.Name = str("name")
	req.Author = str("author")
	req.BookSummary = str("book_summary")
	req.CoverImageURL = str("cover_image_url")
	req.Tags = str("tags")
	if year := str("published_year"); year != nil {
		n, err := strconv.Atoi(*year)
		if err != nil {
			return req, echo.NewHTTPError(http.StatusBadRequest, "published_year is invalid")
		}
		req.PublishedYear = &n
	}
	return req, nil
}

func optionalInt(c echo.Context, name string) (*int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, name+" is invalid")
	}
	return &n, nil
}
