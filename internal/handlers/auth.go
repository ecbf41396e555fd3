package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"puja-service/internal/config"
	"puja-service/internal/services"
	"puja-service/pkg/common"
)

const (
	RoleAdmin = "admin"
	RoleAgent = "agent"

	claimsKey = "claims"
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AgentID is the agent behind an agent token, 0 otherwise.
func (c *Claims) AgentID() uint {
	if c.Role != RoleAgent {
		return 0
	}
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

type Auth struct {
	secret     []byte
	ttl        time.Duration
	adminEmail string
	adminHash  string
	agents     *services.AgentService
	now        func() time.Time
}

func NewAuth(cfg *config.Config, agents *services.AgentService) *Auth {
	return &Auth{
		secret:     []byte(cfg.JWTSecret),
		ttl:        cfg.JWTTTL,
		adminEmail: strings.ToLower(cfg.AdminEmail),
		adminHash:  cfg.AdminPasswordHash,
		agents:     agents,
		now:        time.Now,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (a *Auth) IssueToken(subject, role string) (string, time.Time, error) {
	now := a.now()
	expires := now.Add(a.ttl)
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	return token, expires, err
}

func (a *Auth) ParseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, err
	}
	if claims.Role != RoleAdmin && claims.Role != RoleAgent {
		return nil, fmt.Errorf("unknown role %q", claims.Role)
	}
	return claims, nil
}

func (a *Auth) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if a.adminHash == "" || email != a.adminEmail ||
		bcrypt.CompareHashAndPassword([]byte(a.adminHash), []byte(req.Password)) != nil {
		log.WithField("email", email).Warn("Admin login failed")
		respondError(c, fmt.Errorf("invalid email or password: %w", services.ErrUnauthorized))
		return
	}

	a.respondToken(c, a.adminEmail, RoleAdmin, gin.H{"email": a.adminEmail})
}

func (a *Auth) AgentLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	agent, err := a.agents.Authenticate(req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	a.respondToken(c, strconv.FormatUint(uint64(agent.ID), 10), RoleAgent, agent)
}

func (a *Auth) respondToken(c *gin.Context, subject, role string, profile interface{}) {
	token, expires, err := a.IssueToken(subject, role)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{
		"token":      token,
		"role":       role,
		"expires_at": expires,
		"profile":    profile,
	}, "Login successful")
}

// RequireAuth accepts a bearer token carrying one of roles. Agent tokens also
// need the agent to still exist and not be deleted.
func (a *Auth) RequireAuth(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				common.NewErrorResponse("Missing bearer token", nil, http.StatusUnauthorized))
			return
		}

		claims, err := a.ParseToken(strings.TrimSpace(raw))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				common.NewErrorResponse("Invalid or expired token", nil, http.StatusUnauthorized))
			return
		}

		if !hasRole(claims.Role, roles) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				common.NewErrorResponse("Forbidden", nil, http.StatusForbidden))
			return
		}

		if claims.Role == RoleAgent {
			if _, err := a.agents.Get(claims.AgentID()); err != nil {
				if !errors.Is(err, services.ErrNotFound) {
					respondError(c, err)
					return
				}
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					common.NewErrorResponse("Agent account no longer active", nil, http.StatusUnauthorized))
				return
			}
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

func hasRole(role string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

func currentClaims(c *gin.Context) *Claims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*Claims); ok {
			return claims
		}
	}
	return &Claims{}
}
