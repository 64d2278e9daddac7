package controllers

import (
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cherrydine/cherrydine/app/models"
	"github.com/cherrydine/cherrydine/app/repositories"
	"github.com/cherrydine/cherrydine/app/services"
	"github.com/cherrydine/cherrydine/config"
	"github.com/cherrydine/cherrydine/pkg/ctx"
)

type MenuController struct {
	catalog *services.CatalogService
}

func NewMenuController(catalog *services.CatalogService) *MenuController {
	return &MenuController{catalog: catalog}
}

// Index lists the menu. Query: category, min_price, max_price, q, sort,
// page, per_page.
func (m *MenuController) Index(c *ctx.Context) {
	f := repositories.MenuFilter{
		Category: models.Category(c.Query("category")),
		Search:   strings.TrimSpace(c.Query("q")),
		Sort:     c.Query("sort"),
		Page:     c.QueryInt("page", 1),
		PerPage:  c.QueryInt("per_page", 0),
	}
	for key, dst := range map[string]**decimal.Decimal{"min_price": &f.MinPrice, "max_price": &f.MaxPrice} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			c.ValidationError(map[string]string{key: key + " must be a number"})
			return
		}
		*dst = &d
	}

	items, page, err := m.catalog.List(c.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	c.Paginated(items, page)
}

func (m *MenuController) Show(c *ctx.Context) {
	id, ok := idParam(c, "itemId")
	if !ok {
		return
	}
	item, err := m.catalog.Get(c.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success("", item)
}

func (m *MenuController) Store(c *ctx.Context) {
	var in services.MenuItemInput
	if !c.BindJSON(&in) {
		return
	}
	item, err := m.catalog.Create(c.Context(), actor(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created("Menu item created", item)
}

func (m *MenuController) Update(c *ctx.Context) {
	id, ok := idParam(c, "itemId")
	if !ok {
		return
	}
	var in services.MenuItemInput
	if !c.BindJSON(&in) {
		return
	}
	item, err := m.catalog.Update(c.Context(), actor(c), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success("Menu item updated", item)
}

func (m *MenuController) Destroy(c *ctx.Context) {
	id, ok := idParam(c, "itemId")
	if !ok {
		return
	}
	if err := m.catalog.Delete(c.Context(), actor(c), id); err != nil {
		fail(c, err)
		return
	}
	c.Success("Menu item deleted", nil)
}

// UploadImage accepts either a multipart form with an "image" file or the
// raw image as the request body.
func (m *MenuController) UploadImage(c *ctx.Context) {
	id, ok := idParam(c, "itemId")
	if !ok {
		return
	}
	c.R.Body = http.MaxBytesReader(c.W, c.R.Body, config.MaxBodyBytes())

	var (
		body        io.Reader = c.R.Body
		contentType           = c.R.Header.Get("Content-Type")
	)
	if mt, _, _ := mime.ParseMediaType(contentType); mt == "multipart/form-data" {
		file, header, err := c.R.FormFile("image")
		if err != nil {
			c.ValidationError(map[string]string{"image": "image file is required"})
			return
		}
		defer file.Close()
		body, contentType = file, header.Header.Get("Content-Type")
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mt
	}

	item, err := m.catalog.SetImage(c.Context(), actor(c), id, body, contentType)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success("Image uploaded", item)
}
