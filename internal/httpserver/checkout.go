package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/checkout"
	"storefront/internal/domain"
)

const (
	pageHeader        = "X-Checkout-Page"
	idempotencyHeader = "Idempotency-Key"
)

// checkoutHandler submits the checkout form. Online payments run inside the
// request: the response is written once the shopper has settled the vendor
// UI on the connected page.
func checkoutHandler(svc CheckoutService, pages PageHub, timeout time.Duration, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form checkout.Form
		if err := c.ShouldBindJSON(&form); err != nil {
			c.JSON(http.StatusBadRequest, errorBody("invalid checkout payload"))
			return
		}

		website := websiteFrom(c)
		id := identityFrom(c)
		req := checkout.Request{
			WebsiteID:      website.ID,
			StoreName:      website.Name,
			Owner:          id.owner(),
			Form:           form,
			IdempotencyKey: strings.TrimSpace(c.GetHeader(idempotencyHeader)),
		}
		if id.Customer != nil {
			req.AccessToken = id.Token
		}
		if pageID := strings.TrimSpace(c.GetHeader(pageHeader)); pageID != "" && pages != nil {
			if p, ok := pages.Lookup(website.ID, pageID); ok {
				req.Page = p
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		out, err := svc.Submit(ctx, req)
		if err != nil {
			writeCheckoutError(c, err, logger)
			return
		}
		resp := gin.H{
			"state":    out.State,
			"orderId":  out.OrderID,
			"redirect": out.Redirect,
		}
		if out.Order != nil {
			resp["order"] = toOrderView(*out.Order)
		}
		c.JSON(http.StatusOK, resp)
	}
}

func writeCheckoutError(c *gin.Context, err error, logger *log.Logger) {
	var formErr *checkout.FormError
	var procErr *checkout.ProcessingError
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		c.JSON(http.StatusConflict, gin.H{"message": "Your cart is empty", "redirect": "/cart"})
	case errors.As(err, &formErr):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please fill in all required fields", "fields": formErr.Fields})
	case errors.Is(err, checkout.ErrPageRequired):
		c.JSON(http.StatusPreconditionRequired, errorBody("Connect the checkout page before paying online"))
	case errors.As(err, &procErr):
		body := gin.H{"message": checkout.ErrProcessingFailed.Error()}
		if procErr.OrderID != "" {
			body["orderId"] = procErr.OrderID
		}
		c.JSON(http.StatusBadGateway, body)
	default:
		logger.Printf("checkout: unexpected error=%v", err)
		c.JSON(http.StatusInternalServerError, errorBody(checkout.ErrProcessingFailed.Error()))
	}
}

// checkoutPageHandler upgrades to the websocket that drives vendor UI on the
// shopper's page.
func checkoutPageHandler(pages PageHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		pages.Accept(c.Writer, c.Request, websiteFrom(c).ID)
	}
}

func getOrderHandler(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.Get(c.Request.Context(), websiteFrom(c).ID, identityFrom(c).owner(), c.Param("id"))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.JSON(http.StatusNotFound, errorBody("order not found"))
				return
			}
			c.JSON(http.StatusInternalServerError, errorBody("failed to load order"))
			return
		}
		c.JSON(http.StatusOK, toOrderView(*o))
	}
}

func orderHistoryHandler(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := svc.History(c.Request.Context(), websiteFrom(c).ID, identityFrom(c).Customer.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, errorBody("failed to load orders"))
			return
		}
		views := make([]orderView, 0, len(orders))
		for _, o := range orders {
			views = append(views, toOrderView(o))
		}
		c.JSON(http.StatusOK, gin.H{"results": views})
	}
}
