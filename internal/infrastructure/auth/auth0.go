package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/evolvia/student-lab-backend/pkg/config"
	"github.com/evolvia/student-lab-backend/pkg/errors"
	"github.com/evolvia/student-lab-backend/pkg/logger"
)

const (
	// JWKCacheDuration is how long to cache the key set before refetching
	JWKCacheDuration = 1 * time.Hour
	// JWKFetchTimeout is the timeout for fetching the key set
	JWKFetchTimeout = 10 * time.Second

	claimsContextKey = "auth_claims"
)

// Required capability strings per operation
const (
	PermissionCreateLab = "create:lab"
	PermissionNotifyLab = "notify:lab"
	PermissionVerifyLab = "verify:lab"
)

// Claims is the decoded claim set of a verified bearer token. The
// permissions claim is Auth0's capability list for the calling client.
type Claims struct {
	jwt.RegisteredClaims
	Permissions []string `json:"permissions"`
}

// HasPermission reports whether the claim set carries the required
// capability string
func (c *Claims) HasPermission(required string) bool {
	for _, p := range c.Permissions {
		if p == required {
			return true
		}
	}
	return false
}

// Verifier validates bearer tokens against the identity provider's
// published key set
type Verifier struct {
	jwksURL    string
	audience   string
	issuer     string
	algorithms []string
	jwkSet     jwk.Set
	jwkMutex   sync.RWMutex
	lastFetch  time.Time
	log        logger.Logger
}

// NewVerifier creates a bearer token verifier for the configured tenant
func NewVerifier(cfg config.Auth0Config, log logger.Logger) (*Verifier, error) {
	if cfg.Domain == "" {
		return nil, fmt.Errorf("auth0 domain is required")
	}
	if cfg.Audience == "" {
		return nil, fmt.Errorf("auth0 audience is required")
	}

	return &Verifier{
		jwksURL:    cfg.JWKSURL(),
		audience:   cfg.Audience,
		issuer:     cfg.Issuer(),
		algorithms: cfg.Algorithms,
		log:        log,
	}, nil
}

// fetchJWKS fetches the JSON Web Key Set from the tenant's JWKS endpoint
func (v *Verifier) fetchJWKS() (jwk.Set, error) {
	ctx, cancel := context.WithTimeout(context.Background(), JWKFetchTimeout)
	defer cancel()

	set, err := jwk.Fetch(ctx, v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS from %s: %w", v.jwksURL, err)
	}

	return set, nil
}

// getJWKSet retrieves the JWK set, refetching when the cache is stale
func (v *Verifier) getJWKSet() (jwk.Set, error) {
	// Fast path: check if cache is fresh
	v.jwkMutex.RLock()
	if v.jwkSet != nil && time.Since(v.lastFetch) <= JWKCacheDuration {
		defer v.jwkMutex.RUnlock()
		return v.jwkSet, nil
	}
	v.jwkMutex.RUnlock()

	// Slow path: fetch new keys
	v.jwkMutex.Lock()
	defer v.jwkMutex.Unlock()

	// Double-check after acquiring write lock
	if v.jwkSet != nil && time.Since(v.lastFetch) <= JWKCacheDuration {
		return v.jwkSet, nil
	}

	set, err := v.fetchJWKS()
	if err != nil {
		return nil, err
	}

	v.jwkSet = set
	v.lastFetch = time.Now()
	v.log.Debug("JWK set refreshed", logger.String("url", v.jwksURL))

	return v.jwkSet, nil
}

// resolveKey is the jwt keyfunc: it matches the token's key identifier
// against the cached key set and extracts the raw public key
func (v *Verifier) resolveKey(token *jwt.Token) (interface{}, error) {
	kid, ok := token.Header["kid"].(string)
	if !ok {
		return nil, fmt.Errorf("token missing 'kid' in header")
	}

	keySet, err := v.getJWKSet()
	if err != nil {
		return nil, fmt.Errorf("failed to get JWK set: %w", err)
	}

	key, found := keySet.LookupKeyID(kid)
	if !found {
		return nil, fmt.Errorf("signing key %q not found in JWKS", kid)
	}

	var publicKey interface{}
	if err := key.Raw(&publicKey); err != nil {
		return nil, fmt.Errorf("failed to extract public key: %w", err)
	}

	return publicKey, nil
}

// VerifyToken verifies a bearer token's signature, audience, and issuer,
// and returns the decoded claim set
func (v *Verifier) VerifyToken(tokenString string) (*Claims, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")
	tokenString = strings.TrimSpace(tokenString)

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.resolveKey,
		jwt.WithValidMethods(v.algorithms),
		jwt.WithAudience(v.audience),
		jwt.WithIssuer(v.issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is invalid")
	}

	return claims, nil
}

// Middleware creates a Gin middleware for bearer authentication
func (v *Verifier) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			v.log.Warn("Request missing Authorization header",
				logger.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := v.VerifyToken(authHeader)
		if err != nil {
			v.log.Error("Token verification failed",
				logger.Error(err),
				logger.String("ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// RequirePermission creates a Gin middleware that rejects requests whose
// claim set lacks the required capability. Must run after Middleware.
func RequirePermission(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := GetClaims(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		if !claims.HasPermission(required) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": fmt.Sprintf("Missing required permission: %s", required),
			})
			return
		}

		c.Next()
	}
}

// GetClaims retrieves the verified claim set from the Gin context
func GetClaims(c *gin.Context) (*Claims, error) {
	value, exists := c.Get(claimsContextKey)
	if !exists {
		return nil, errors.NewUnauthorized("Request not authenticated")
	}

	claims, ok := value.(*Claims)
	if !ok {
		return nil, errors.NewInternal("Invalid claims in context")
	}

	return claims, nil
}

// SetClaims stores a claim set in the Gin context. Exposed for handler
// tests that bypass the verification middleware.
func SetClaims(c *gin.Context, claims *Claims) {
	c.Set(claimsContextKey, claims)
}
