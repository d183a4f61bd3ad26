// handlers/catalog_routes.go
package handlers

import (
	"errors"

	"nadin-revendedoras/catalog"
	"nadin-revendedoras/models"
	"nadin-revendedoras/services"

	"github.com/gofiber/fiber/v2"
)

var validSexes = map[string]bool{
	string(models.SexMujer):  true,
	string(models.SexHombre): true,
	string(models.SexNinos):  true,
	string(models.SexUnisex): true,
}

func SetupCatalogRoutes(app *fiber.App, cache *services.CatalogCache) {
	group := app.Group("/catalog")

	group.Get("/", func(c *fiber.Ctx) error {
		filters, err := filtersFromQuery(c)
		if err != nil {
			return badRequest(c, err.Error())
		}
		products, err := cache.GetCachedProducts(c.UserContext(), filters)
		if err != nil {
			return respondError(c, err)
		}
		if products == nil {
			products = []models.NormalizedProduct{}
		}
		return c.JSON(products)
	})

	group.Get("/filters", func(c *fiber.Ctx) error {
		filters, err := filtersFromQuery(c)
		if err != nil {
			return badRequest(c, err.Error())
		}
		options, err := cache.FilterOptions(c.UserContext(), filters)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(options)
	})

	group.Get("/categories", func(c *fiber.Ctx) error {
		tree, err := cache.CategoryTree(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		if tree == nil {
			tree = []*catalog.CategoryNode{}
		}
		return c.JSON(tree)
	})

	group.Get("/brands", func(c *fiber.Ctx) error {
		brands, err := cache.Brands(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		if brands == nil {
			brands = []services.BrandCount{}
		}
		return c.JSON(brands)
	})

	group.Get("/products/:id", func(c *fiber.Ctx) error {
		product, err := cache.GetProduct(c.UserContext(), c.Params("id"))
		if err != nil {
			if errors.Is(err, services.ErrProductNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
			}
			return respondError(c, err)
		}
		return c.JSON(product)
	})
}

type invalidParamError string

func (e invalidParamError) Error() string { return string(e) }

// filtersFromQuery reads brand, category/subcategory/productType, sex, talle, color and search.
func filtersFromQuery(c *fiber.Ctx) (catalog.Filters, error) {
	sex := c.Query("sex")
	if sex != "" && !validSexes[sex] {
		return catalog.Filters{}, invalidParamError("invalid sex filter: " + sex)
	}
	return catalog.Filters{
		Brand:    c.Query("brand"),
		Category: catalog.CategoryFilter(c.Query("category"), c.Query("subcategory"), c.Query("productType")),
		Sex:      sex,
		Search:   c.Query("search"),
		Talle:    c.Query("talle"),
		Color:    c.Query("color"),
	}, nil
}
