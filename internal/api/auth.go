package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Veraticus/mindspend/internal/history"
	"github.com/Veraticus/mindspend/internal/identity"
)

const userKey = "mindspend.user"

// authenticate resolves the bearer id token to a verified account.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		user, err := s.identity.Lookup(c.Request.Context(), token)
		if err != nil {
			kind := identity.KindOf(err)
			status := http.StatusUnauthorized
			if kind == identity.KindUnknown || kind == identity.KindNetworkBlocked {
				status = http.StatusBadGateway
				s.logger.Warn("Token lookup failed", "error", err)
			}
			c.AbortWithStatusJSON(status, gin.H{"error": kind.Message(), "kind": kind.String()})
			return
		}
		if user.NeedsVerification() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "email address is not verified yet"})
			return
		}

		c.Set(userKey, *user)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func currentUser(c *gin.Context) identity.User {
	user, _ := c.MustGet(userKey).(identity.User)
	return user
}

// records returns the history store of the request's user.
func (s *Server) records(c *gin.Context) history.Store {
	return history.NewCloudStore(s.store, currentUser(c).UID)
}

// profiles returns the profile store of the request's user.
func (s *Server) profiles(c *gin.Context) history.ProfileStore {
	user := currentUser(c)
	return history.NewCloudProfileStore(s.store, s.cache, history.Owner{
		UID:         user.UID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		PhotoURL:    user.PhotoURL,
	})
}
