package httpserver

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

const (
	defaultLimit = 20
	maxLimit     = 500
)

func websiteHandler(c *gin.Context) {
	c.JSON(http.StatusOK, toWebsiteView(*websiteFrom(c)))
}

// productQuery narrows the product listing. Category matches a key listed in
// the product's "categories" attribute.
type productQuery struct {
	Text     string
	Category string
	Limit    int
	Offset   int
}

func parseProductQuery(c *gin.Context) productQuery {
	return productQuery{
		Text:     strings.TrimSpace(c.Query("q")),
		Category: strings.TrimSpace(c.Query("category")),
		Limit:    queryInt(c, "limit", defaultLimit, 1, maxLimit),
		Offset:   queryInt(c, "offset", 0, 0, 1<<20),
	}
}

func listProductsHandler(svc ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := svc.List(c.Request.Context(), websiteFrom(c).ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, errorBody("failed to list products"))
			return
		}
		q := parseProductQuery(c)
		matched := filterProducts(products, q)
		sortProducts(matched)

		views := make([]productView, 0, len(matched))
		for _, p := range matched {
			views = append(views, toProductView(p))
		}
		c.JSON(http.StatusOK, paginate(views, q.Limit, q.Offset))
	}
}

func getProductHandler(svc ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.Get(c.Request.Context(), websiteFrom(c).ID, c.Param("id"))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.JSON(http.StatusNotFound, errorBody("product not found"))
				return
			}
			c.JSON(http.StatusInternalServerError, errorBody("failed to load product"))
			return
		}
		c.JSON(http.StatusOK, toProductView(*p))
	}
}

func listCategoriesHandler(svc CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cats, err := svc.List(c.Request.Context(), websiteFrom(c).ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, errorBody("failed to list categories"))
			return
		}
		if cats == nil {
			cats = []domain.Category{}
		}
		c.JSON(http.StatusOK, paginate(cats, queryInt(c, "limit", maxLimit, 1, maxLimit), queryInt(c, "offset", 0, 0, 1<<20)))
	}
}

func listPaymentMethodsHandler(svc PaymentMethodService) gin.HandlerFunc {
	return func(c *gin.Context) {
		methods, err := svc.ListEnabled(c.Request.Context(), websiteFrom(c).ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, errorBody("failed to list payment methods"))
			return
		}
		views := make([]paymentMethodView, 0, len(methods))
		for _, m := range methods {
			views = append(views, paymentMethodView{Name: m.Name, Type: m.Type, DisplayOrder: m.DisplayOrder})
		}
		c.JSON(http.StatusOK, gin.H{"results": views})
	}
}

func filterProducts(products []domain.Product, q productQuery) []domain.Product {
	text := strings.ToLower(q.Text)
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if text != "" && !strings.Contains(strings.ToLower(p.Name), text) && !strings.Contains(strings.ToLower(p.SKU), text) {
			continue
		}
		if q.Category != "" && !p.InCategory(q.Category) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func sortProducts(products []domain.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		return strings.ToLower(products[i].Name) < strings.ToLower(products[j].Name)
	})
}

func queryInt(c *gin.Context, key string, def, min, max int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min {
		return def
	}
	if n > max {
		return max
	}
	return n
}
