package httpserver

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	customersvc "storefront/internal/service/customer"
)

type tokenRequest struct {
	GrantType string `form:"grant_type" binding:"required"`
	Username  string `form:"username" binding:"required"`
	Password  string `form:"password" binding:"required"`
	Scope     string `form:"scope"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`
}

func signupHandler(svc CustomerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in customersvc.SignupInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, errorBody("invalid signup payload"))
			return
		}
		customer, err := svc.Signup(c.Request.Context(), websiteFrom(c).ID, in)
		if err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				c.JSON(http.StatusConflict, errorBody("a customer with this email already exists"))
				return
			}
			c.JSON(http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		c.JSON(http.StatusCreated, gin.H{"customer": customer})
	}
}

// customerTokenHandler implements the password grant. A guest bearer token
// sent along has its cart handed over to the customer.
func customerTokenHandler(svc CustomerService, carts CartService, ids identities, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req tokenRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorBody("grant_type, username and password are required"))
			return
		}
		if req.GrantType != "password" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported_grant_type"})
			return
		}

		website := websiteFrom(c)
		session, err := svc.Login(c.Request.Context(), website.ID, req.Username, req.Password)
		if err != nil {
			if errors.Is(err, customersvc.ErrInvalidCredentials) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_customer_account_credentials", "message": "Customer account with the given credentials not found."})
				return
			}
			c.JSON(http.StatusInternalServerError, errorBody("failed to sign in"))
			return
		}

		if guest := bearerToken(c.GetHeader("Authorization")); guest != "" && ids.anonymous != nil {
			if anonID, err := ids.anonymous.LookupByToken(c.Request.Context(), website.ID, guest); err == nil {
				if _, err := carts.MergeAnonymous(c.Request.Context(), website.ID, anonID, session.Customer.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
					logger.Printf("merge guest cart website_id=%s customer_id=%s error=%v", website.ID, session.Customer.ID, err)
				}
			}
		}

		c.JSON(http.StatusOK, tokenResponse{
			AccessToken:  session.AccessToken,
			RefreshToken: session.RefreshToken,
			TokenType:    "Bearer",
			ExpiresIn:    svc.AccessTTLSeconds(),
			Scope:        strings.TrimSpace(req.Scope),
		})
	}
}

func anonymousTokenHandler(svc AnonymousService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := svc.Issue(c.Request.Context(), websiteFrom(c).ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, errorBody("failed to issue token"))
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"access_token":  session.AccessToken,
			"refresh_token": session.RefreshToken,
			"token_type":    "Bearer",
			"expires_in":    svc.AccessTTLSeconds(),
			"anonymous_id":  session.AnonymousID,
		})
	}
}

func meHandler(c *gin.Context) {
	c.JSON(http.StatusOK, identityFrom(c).Customer)
}

func logoutHandler(svc CustomerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		customer := identityFrom(c).Customer
		if err := svc.Logout(c.Request.Context(), websiteFrom(c).ID, customer.ID); err != nil {
			c.JSON(http.StatusInternalServerError, errorBody("failed to sign out"))
			return
		}
		c.Status(http.StatusNoContent)
	}
}
