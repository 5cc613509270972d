// Package auth resolves who is calling and what they are allowed to do.
//
// A Caller carries a capability set derived from a role. Admin sessions and
// API users are both turned into a Caller by the host middleware and stored on
// the Echo context, where handlers pick them up with FromContext.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// Capabilities checked by handlers and meta auth predicates.
const (
	ManageOptions = "manage_options"
	EditPosts     = "edit_posts"
)

// Roles understood by the role table.
const (
	RoleAdministrator = "administrator"
	RoleEditor        = "editor"
	RoleSubscriber    = "subscriber"
)

var roleCaps = map[string][]string{
	RoleAdministrator: {ManageOptions, EditPosts},
	RoleEditor:        {EditPosts},
	RoleSubscriber:    nil,
}

// ErrInvalidCredentials is returned when a name/password pair does not match.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Caller is the identity behind a request.
type Caller interface {
	Can(capability string) bool
	Authenticated() bool
	Name() string
}

type user struct {
	name string
	role string
}

func (u user) Can(capability string) bool {
	for _, c := range roleCaps[u.role] {
		if c == capability {
			return true
		}
	}
	return false
}

func (u user) Authenticated() bool { return u.name != "" }
func (u user) Name() string        { return u.name }

// Anonymous is the caller of an unauthenticated request.
var Anonymous Caller = user{}

// NewCaller returns an authenticated caller holding the capabilities of role.
// Unknown roles get no capabilities.
func NewCaller(name, role string) Caller {
	return user{name: name, role: strings.ToLower(role)}
}

// ValidRole reports whether role is in the role table.
func ValidRole(role string) bool {
	_, ok := roleCaps[strings.ToLower(role)]
	return ok
}

// APIUser is a configured REST client. PasswordHash is a bcrypt hash.
type APIUser struct {
	Name         string `yaml:"name"`
	PasswordHash string `yaml:"password_hash"`
	Role         string `yaml:"role"`
}

// Users authenticates API users by name.
type Users struct {
	byName map[string]APIUser
}

// NewUsers indexes the configured API users. Entries with an unknown role
// or a missing hash are rejected.
func NewUsers(list []APIUser) (*Users, error) {
	u := &Users{byName: make(map[string]APIUser, len(list))}
	for _, au := range list {
		if au.Name == "" {
			return nil, fmt.Errorf("auth: api user without a name")
		}
		if !ValidRole(au.Role) {
			return nil, fmt.Errorf("auth: api user %q: unknown role %q", au.Name, au.Role)
		}
		if au.PasswordHash == "" {
			return nil, fmt.Errorf("auth: api user %q: password_hash is required", au.Name)
		}
		u.byName[au.Name] = au
	}
	return u, nil
}

// Authenticate checks the password against the stored bcrypt hash.
func (u *Users) Authenticate(name, password string) (Caller, error) {
	if u == nil {
		return Anonymous, ErrInvalidCredentials
	}
	au, ok := u.byName[name]
	if !ok {
		return Anonymous, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(au.PasswordHash), []byte(password)); err != nil {
		return Anonymous, ErrInvalidCredentials
	}
	return NewCaller(au.Name, au.Role), nil
}

// HashPassword returns a bcrypt hash suitable for APIUser.PasswordHash.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(b), nil
}

const contextKey = "textbulker.caller"

// WithCaller stores the caller on the Echo context.
func WithCaller(c echo.Context, caller Caller) {
	c.Set(contextKey, caller)
}

// FromContext returns the caller stored on the Echo context, or Anonymous.
func FromContext(c echo.Context) Caller {
	if caller, ok := c.Get(contextKey).(Caller); ok && caller != nil {
		return caller
	}
	return Anonymous
}
