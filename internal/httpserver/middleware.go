package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

type ctxKey string

const (
	websiteCtxKey  ctxKey = "website"
	identityCtxKey ctxKey = "identity"
)

// identity is who sent the request. Token is the bearer credential as sent.
type identity struct {
	Customer    *domain.Customer
	AnonymousID string
	Token       string
}

func (id identity) owner() domain.Owner {
	if id.Customer != nil {
		return domain.Owner{CustomerID: id.Customer.ID}
	}
	return domain.Owner{AnonymousID: id.AnonymousID}
}

// identities resolves bearer tokens to customers or guest sessions.
type identities struct {
	customers CustomerService
	anonymous AnonymousService
}

var errUnknownToken = errors.New("unknown token")

func (r identities) resolve(ctx context.Context, websiteID, token string) (identity, error) {
	c, err := r.customers.LookupByToken(ctx, websiteID, token)
	if err == nil {
		return identity{Customer: c, Token: token}, nil
	}
	if r.anonymous != nil {
		if anonID, aerr := r.anonymous.LookupByToken(ctx, websiteID, token); aerr == nil {
			return identity{AnonymousID: anonID, Token: token}, nil
		}
	}
	return identity{}, errUnknownToken
}

// websiteMiddleware resolves :websiteKey and stores the website in the
// request context.
func websiteMiddleware(repo WebsiteRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.Param("websiteKey"))
		if key == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, errorBody("website key is required"))
			return
		}

		w, err := repo.GetByKey(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, errorBody("website not found"))
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody("failed to load website"))
			return
		}

		ctx := context.WithValue(c.Request.Context(), websiteCtxKey, w)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// identityMiddleware attaches the caller's identity when a bearer token is
// present. An unknown token is rejected; a missing one is not.
func identityMiddleware(ids identities) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.Next()
			return
		}
		id, err := ids.resolve(c.Request.Context(), websiteFrom(c).ID, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody("invalid token"))
			return
		}
		ctx := context.WithValue(c.Request.Context(), identityCtxKey, id)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func requireCustomer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if identityFrom(c).Customer == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody("customer token required"))
			return
		}
		c.Next()
	}
}

// requireOwner admits customers and guest sessions.
func requireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		if identityFrom(c).owner().IsZero() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody("token required"))
			return
		}
		c.Next()
	}
}

func websiteFrom(c *gin.Context) *domain.Website {
	w, _ := c.Request.Context().Value(websiteCtxKey).(*domain.Website)
	return w
}

func identityFrom(c *gin.Context) identity {
	id, _ := c.Request.Context().Value(identityCtxKey).(identity)
	return id
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func errorBody(msg string) gin.H {
	return gin.H{"message": msg}
}
