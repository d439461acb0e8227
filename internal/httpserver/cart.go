package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	cartsvc "storefront/internal/service/cart"
)

func createCartHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in cartsvc.CreateInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, errorBody("invalid cart payload"))
			return
		}
		cart, err := svc.Create(c.Request.Context(), websiteFrom(c).ID, identityFrom(c).owner(), in)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		c.JSON(http.StatusCreated, toCartView(*cart))
	}
}

func activeCartHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, err := svc.Active(c.Request.Context(), websiteFrom(c).ID, identityFrom(c).owner())
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.JSON(http.StatusNotFound, errorBody("no active cart"))
				return
			}
			c.JSON(http.StatusInternalServerError, errorBody("failed to load cart"))
			return
		}
		c.JSON(http.StatusOK, toCartView(*cart))
	}
}

func updateCartHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in cartsvc.UpdateInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, errorBody("invalid update payload"))
			return
		}
		cart, err := svc.Update(c.Request.Context(), websiteFrom(c).ID, identityFrom(c).owner(), c.Param("id"), in)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.JSON(http.StatusNotFound, errorBody("cart not found"))
				return
			}
			c.JSON(http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		c.JSON(http.StatusOK, toCartView(*cart))
	}
}
