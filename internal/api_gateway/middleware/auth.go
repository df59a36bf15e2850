package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/flash-wallet-ledger/internal/domain/account"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// PrincipalKey stores the authenticated Principal in the gin context
const PrincipalKey = "principal"

// Principal is the caller identified by a bearer token.
type Principal struct {
	AccountID uuid.UUID
	Role      account.Role
}

// Claims issued by the identity provider. The subject is the account id.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Auth verifies HS256 bearer tokens. Tokens without a role claim are treated as users.
func Auth(secret []byte, issuer string, logger *slog.Logger) gin.HandlerFunc {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing bearer token")
			return
		}

		claims := &Claims{}
		_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return secret, nil
		})
		if err != nil {
			logger.Warn("Rejected bearer token", "error", err, "correlation_id", GetCorrelationID(c))
			message := "Invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				message = "Token expired"
			}
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
			return
		}

		principal, err := claims.principal()
		if err != nil {
			logger.Warn("Rejected bearer token claims", "error", err, "correlation_id", GetCorrelationID(c))
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
			return
		}

		c.Set(PrincipalKey, principal)
		c.Next()
	}
}

func (cl *Claims) principal() (Principal, error) {
	id, err := uuid.Parse(cl.Subject)
	if err != nil {
		return Principal{}, errors.New("subject is not an account id")
	}
	role := account.RoleUser
	if cl.Role != "" {
		role = account.Role(strings.ToLower(cl.Role))
		if !role.Valid() {
			return Principal{}, errors.New("unknown role " + cl.Role)
		}
	}
	return Principal{AccountID: id, Role: role}, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// AccountLookup loads the caller's stored account. service.AccountService satisfies it.
type AccountLookup interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*account.Account, error)
}

// RequireRole lets through principals holding one of roles. It must run after Auth.
// With a non-nil lookup the stored account role must also match, so a demoted agent or
// admin loses access before the token expires; the principal then carries the stored role.
func RequireRole(accounts AccountLookup, roles ...account.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
			return
		}
		if !slices.Contains(roles, p.Role) {
			abortWithError(c, http.StatusForbidden, "FORBIDDEN", "Insufficient role")
			return
		}
		if accounts == nil {
			c.Next()
			return
		}

		acc, err := accounts.GetProfile(c.Request.Context(), p.AccountID)
		switch {
		case errors.Is(err, account.ErrAccountNotFound{}):
			abortWithError(c, http.StatusForbidden, "FORBIDDEN", "Insufficient role")
			return
		case err != nil:
			abortWithError(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "The ledger store is temporarily unavailable")
			return
		case !slices.Contains(roles, acc.Role):
			abortWithError(c, http.StatusForbidden, "FORBIDDEN", "Insufficient role")
			return
		}

		p.Role = acc.Role
		c.Set(PrincipalKey, p)
		c.Next()
	}
}

// GetPrincipal returns the authenticated caller if Auth has run.
func GetPrincipal(c *gin.Context) (Principal, bool) {
	v, exists := c.Get(PrincipalKey)
	if !exists {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}
