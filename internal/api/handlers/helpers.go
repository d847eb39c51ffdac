package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/pinball/internal/element"
	"github.com/playmatatu/pinball/internal/player"
	"github.com/playmatatu/pinball/internal/session"
	"github.com/playmatatu/pinball/internal/store"
)

// errorStatus maps domain errors to HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, player.ErrUnknownElement),
		errors.Is(err, player.ErrNoBall),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, element.ErrUnknownProperty),
		errors.Is(err, element.ErrUnknownCommand):
		return http.StatusNotFound
	case errors.Is(err, element.ErrReadOnly),
		errors.Is(err, element.ErrInvalidArgument),
		errors.Is(err, element.ErrInvalidCommand):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrTooManySessions):
		return http.StatusServiceUnavailable
	case errors.Is(err, player.ErrNoValueStore):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(errorStatus(err), gin.H{"error": err.Error()})
}

// lookupSession resolves the :id path parameter
func lookupSession(c *gin.Context, mgr *session.Manager) (*session.Session, bool) {
	s, err := mgr.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return s, true
}

func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be an integer"})
		return 0, false
	}
	return v, true
}

// sortedKeys gives request maps a stable apply order
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
