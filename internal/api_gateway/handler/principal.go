package handler

import (
	"github.com/flash-wallet-ledger/internal/api_gateway/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// callerID returns the authenticated account id, answering 401 when there is none.
func callerID(c *gin.Context) (uuid.UUID, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		RespondUnauthorized(c, "")
		return uuid.Nil, false
	}
	return p.AccountID, true
}

// pathID parses a uuid path parameter, answering 400 when malformed.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondBadRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
