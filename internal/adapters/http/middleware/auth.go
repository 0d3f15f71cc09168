package middleware

import (
	"fmt"
	"slices"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/classquotes/internal/adapters/http/dto"
	"github.com/jsamuelsen/classquotes/internal/domain"
	"github.com/jsamuelsen/classquotes/internal/platform/config"
)

const (
	contextKeyClaims = "claims"

	defaultSubjectHeader = "X-User-ID"
	defaultRolesHeader   = "X-User-Roles"
	defaultAdminRole     = "admin"

	// RoleAnonymous is held by every caller, with or without headers.
	RoleAnonymous = "anonymous"
)

// Resources and actions known to the authorizer.
const (
	ResourceQuotes = "quotes"
	ActionRead     = "read"
	ActionWrite    = "write"
)

// The role graph makes the admin role inherit everything anonymous callers
// may do.
const policyModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// Claims are the caller attributes forwarded by the gateway. They are
// trusted as given; this service does not authenticate.
type Claims struct {
	Subject string
	Roles   []string
}

// HasRole checks if the caller presented role.
func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// ExtractClaims reads the subject and the comma-separated roles header.
func ExtractClaims(c *gin.Context, cfg *config.AuthConfig) *Claims {
	subjectHeader, rolesHeader := defaultSubjectHeader, defaultRolesHeader
	if cfg != nil {
		if cfg.SubjectHeader != "" {
			subjectHeader = cfg.SubjectHeader
		}
		if cfg.RolesHeader != "" {
			rolesHeader = cfg.RolesHeader
		}
	}

	return &Claims{
		Subject: c.GetHeader(subjectHeader),
		Roles:   parseCommaSeparated(c.GetHeader(rolesHeader)),
	}
}

// GetClaims returns the claims stored by Authorize, or nil.
func GetClaims(c *gin.Context) *Claims {
	if v, ok := c.Get(contextKeyClaims); ok {
		if claims, ok := v.(*Claims); ok {
			return claims
		}
	}

	return nil
}

// Authorizer decides capabilities with a casbin enforcer. Anonymous callers
// may read quotes; only the admin role may write them.
type Authorizer struct {
	enforcer  *casbin.Enforcer
	adminRole string
}

// NewAuthorizer builds the enforcer with the built-in policy. An empty
// adminRole means "admin".
func NewAuthorizer(adminRole string) (*Authorizer, error) {
	if adminRole == "" {
		adminRole = defaultAdminRole
	}

	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, fmt.Errorf("parsing policy model: %w", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("creating enforcer: %w", err)
	}

	policies := [][]string{
		{RoleAnonymous, ResourceQuotes, ActionRead},
		{adminRole, ResourceQuotes, ActionWrite},
	}
	if _, err := e.AddPolicies(policies); err != nil {
		return nil, fmt.Errorf("adding policies: %w", err)
	}

	if _, err := e.AddGroupingPolicy(adminRole, RoleAnonymous); err != nil {
		return nil, fmt.Errorf("adding role link: %w", err)
	}

	return &Authorizer{enforcer: e, adminRole: adminRole}, nil
}

// AdminRole returns the role that grants write access.
func (a *Authorizer) AdminRole() string {
	return a.adminRole
}

// Allowed reports whether any of roles, or the anonymous role, grants act
// on obj.
func (a *Authorizer) Allowed(roles []string, obj, act string) (bool, error) {
	for _, role := range append([]string{RoleAnonymous}, roles...) {
		ok, err := a.enforcer.Enforce(role, obj, act)
		if err != nil {
			return false, fmt.Errorf("enforcing %s/%s for %q: %w", obj, act, role, err)
		}
		if ok {
			return true, nil
		}
	}

	return false, nil
}

// Authorize guards a route with the obj/act capability. When cfg is nil or
// auth is disabled every request passes.
func Authorize(authz *Authorizer, cfg *config.AuthConfig, obj, act string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authz == nil || cfg == nil || !cfg.Enabled {
			c.Next()
			return
		}

		claims := ExtractClaims(c, cfg)
		c.Set(contextKeyClaims, claims)

		ok, err := authz.Allowed(claims.Roles, obj, act)
		if err != nil {
			dto.AbortWithError(c, err)
			return
		}

		if !ok {
			dto.AbortWithError(c, domain.NewForbiddenError(act+" "+obj,
				fmt.Sprintf("the %s role is required", authz.adminRole)))
			return
		}

		c.Next()
	}
}

func parseCommaSeparated(s string) []string {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
