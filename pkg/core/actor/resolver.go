// Package actor turns the caller's session cookie into an Actor.
//
// Resolution never fails loudly: every malformed credential, unknown
// email, lookup error or missing configuration yields a nil Actor, and
// the reason is logged at debug level only.
package actor

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/JiggerF/worship-ministry-app-sub000/internal/config"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/model"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/db"
)

// MemberLookup finds a member by email. It returns nil, nil when no member matches.
type MemberLookup interface {
	GetMemberByEmail(ctx context.Context, email string) (*db.Member, error)
}

// Resolver resolves actors from requests
type Resolver struct {
	members      MemberLookup
	cookieName   string
	bypassCookie string
	devMode      bool
	secret       []byte
	logger       *zap.Logger
}

// NewResolver creates a Resolver. members may be nil when no datastore is
// configured, in which case every non-bypass request resolves to nil.
func NewResolver(cfg *config.Config, members MemberLookup, logger *zap.Logger) *Resolver {
	r := &Resolver{
		members:      members,
		cookieName:   cfg.Session.CookieName,
		bypassCookie: cfg.Session.DevBypassCookie,
		devMode:      cfg.IsDevelopment(),
		logger:       logger,
	}
	if cfg.Session.Secret != "" {
		r.secret = []byte(cfg.Session.Secret)
	}
	if !cfg.HasDatabase() {
		r.members = nil
	}
	return r
}

// Resolve returns the calling actor or nil
func (r *Resolver) Resolve(req *http.Request) *model.Actor {
	if r.devMode && r.bypassCookie != "" {
		if c, err := req.Cookie(r.bypassCookie); err == nil && c.Value != "" && c.Value != "0" && c.Value != "false" {
			return model.DevAdmin()
		}
	}

	c, err := req.Cookie(r.cookieName)
	if err != nil {
		return nil
	}
	return r.ResolveCredential(req.Context(), c.Value)
}

// ResolveCredential resolves a raw session credential
func (r *Resolver) ResolveCredential(ctx context.Context, credential string) *model.Actor {
	if r.members == nil {
		return nil
	}

	email, ok := emailFromCredential(credential)
	if !ok {
		r.logger.Debug("Rejected malformed session credential")
		return nil
	}

	if r.secret != nil && !r.signatureValid(credential) {
		r.logger.Debug("Rejected session credential with bad signature")
		return nil
	}

	member, err := r.members.GetMemberByEmail(ctx, email)
	if err != nil {
		r.logger.Debug("Member lookup failed during actor resolution", zap.Error(err))
		return nil
	}
	if member == nil {
		r.logger.Debug("No member for session email")
		return nil
	}

	role := model.Role(member.Role)
	if !role.IsValid() {
		r.logger.Warn("Member has unknown role", zap.String("member_id", member.ID), zap.String("role", member.Role))
		return nil
	}

	id := member.ID
	return &model.Actor{ID: &id, Name: member.Name, Role: role}
}

// emailFromCredential extracts the email claim from a three-segment token
// without verifying it
func emailFromCredential(credential string) (string, bool) {
	parts := strings.Split(credential, ".")
	if len(parts) != 3 {
		return "", false
	}

	payload, err := decodeSegment(parts[1])
	if err != nil {
		return "", false
	}

	var claims struct {
		Email *string `json:"email"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", false
	}
	if claims.Email == nil || strings.TrimSpace(*claims.Email) == "" {
		return "", false
	}
	return strings.TrimSpace(*claims.Email), true
}

// decodeSegment accepts both base64url (JWT style) and standard base64, padded or not
func decodeSegment(seg string) ([]byte, error) {
	trimmed := strings.TrimRight(seg, "=")
	if b, err := base64.RawURLEncoding.DecodeString(trimmed); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(trimmed)
}

func (r *Resolver) signatureValid(credential string) bool {
	_, err := jwt.Parse(credential, func(t *jwt.Token) (any, error) {
		return r.secret, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	return err == nil
}

type contextKey struct{}

// WithActor stores actor in ctx
func WithActor(ctx context.Context, a *model.Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

// FromContext returns the actor stored in ctx, or nil
func FromContext(ctx context.Context) *model.Actor {
	a, _ := ctx.Value(contextKey{}).(*model.Actor)
	return a
}
