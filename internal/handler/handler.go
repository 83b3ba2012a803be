// Package handler wires HTTP routes to services and translates typed service
// errors into the standard response envelope.
package handler

import (
	"log"

	"ppda-backend/internal/apperror"
	"ppda-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// abortWithError maps a service error to its HTTP status. Internal causes are
// logged server-side and never echoed to the client.
func abortWithError(c *gin.Context, err error) {
	appErr := apperror.As(err)
	if appErr.Kind == apperror.KindInternal {
		log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, appErr)
		c.JSON(appErr.HTTPStatus(), response.Error("internal server error"))
		return
	}
	c.JSON(appErr.HTTPStatus(), response.Error(appErr.Message))
}

// callerID returns the authenticated user's id placed in the context by the
// auth middleware.
func callerID(c *gin.Context) string {
	id, _ := c.Get("userID")
	s, _ := id.(string)
	return s
}

func callerAgencyID(c *gin.Context) string {
	id, _ := c.Get("agencyID")
	s, _ := id.(string)
	return s
}

func callerIsAdmin(c *gin.Context) bool {
	v, _ := c.Get("isAdmin")
	b, _ := v.(bool)
	return b
}
