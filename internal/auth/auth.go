package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrUnauthenticated = errors.New("invalid or expired token")
	ErrForbidden       = errors.New("insufficient role")
)

type Role string

const (
	RoleViewer     Role = "viewer"
	RoleOperator   Role = "operator"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// ReadRoles may view admin surfaces; OrderWriteRoles may mutate orders.
var (
	ReadRoles       = []Role{RoleViewer, RoleOperator, RoleAdmin, RoleSuperAdmin}
	OrderWriteRoles = []Role{RoleOperator, RoleAdmin, RoleSuperAdmin}
)

type AdminIdentity struct {
	UID  string
	Role Role
}

// IdentityResolver turns a caller credential into an owner id.
type IdentityResolver interface {
	Verify(ctx context.Context, token string) (string, error)
}

// AdminGate resolves a credential and checks it against an allowed role
// set; it fails with ErrForbidden when the role is insufficient.
type AdminGate interface {
	RequireRole(ctx context.Context, token string, allowed ...Role) (AdminIdentity, error)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrUnauthenticated
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrUnauthenticated
	}
	return strings.TrimSpace(token), nil
}

// JWTResolver verifies HMAC-signed tokens. It implements both
// IdentityResolver and AdminGate.
type JWTResolver struct {
	secret []byte
}

func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret)}
}

func (r *JWTResolver) Verify(ctx context.Context, token string) (string, error) {
	claims, err := r.parse(token)
	if err != nil {
		return "", err
	}

	uid := subject(claims)
	if uid == "" {
		return "", ErrUnauthenticated
	}
	return uid, nil
}

func (r *JWTResolver) RequireRole(ctx context.Context, token string, allowed ...Role) (AdminIdentity, error) {
	claims, err := r.parse(token)
	if err != nil {
		return AdminIdentity{}, err
	}

	uid := subject(claims)
	if uid == "" {
		return AdminIdentity{}, ErrUnauthenticated
	}

	role := claimsRole(claims)
	if role == "" {
		return AdminIdentity{}, ErrForbidden
	}
	for _, a := range allowed {
		if role == a {
			return AdminIdentity{UID: uid, Role: role}, nil
		}
	}
	return AdminIdentity{}, ErrForbidden
}

func (r *JWTResolver) parse(token string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnauthenticated
		}
		return r.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrUnauthenticated
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return claims, nil
}

// subject tries the claim names the identity providers have used over
// time, in order.
func subject(claims jwt.MapClaims) string {
	for _, key := range []string{"uid", "user_id", "sub"} {
		if v, ok := claims[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func claimsRole(claims jwt.MapClaims) Role {
	if r := normalizeRole(claims["role"]); r != "" {
		return r
	}
	if list, ok := claims["roles"].([]any); ok {
		for _, raw := range list {
			if r := normalizeRole(raw); r != "" {
				return r
			}
		}
	}
	if b, ok := claims["is_admin"].(bool); ok && b {
		return RoleAdmin
	}
	if b, ok := claims["admin"].(bool); ok && b {
		return RoleAdmin
	}
	return ""
}

func normalizeRole(v any) Role {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	switch role := Role(strings.ToLower(strings.TrimSpace(s))); role {
	case RoleViewer, RoleOperator, RoleAdmin, RoleSuperAdmin:
		return role
	default:
		return ""
	}
}
