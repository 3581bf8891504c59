package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Authenticator reports whether the local session currently holds a token.
type Authenticator interface {
	IsAuthenticated() bool
}

type errorBody struct {
	Status  string `json:"Status"`
	Message string `json:"Message"`
}

// RequireSession rejects requests with 401 while the session is anonymous.
func RequireSession(session Authenticator, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !session.IsAuthenticated() {
			log.Warnf("Middleware: Anonymous request to protected path %s", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Status: "Fail", Message: "authentication required"})
			return
		}
		c.Next()
	}
}
