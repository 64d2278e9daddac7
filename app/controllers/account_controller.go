package controllers

import (
	"github.com/cherrydine/cherrydine/app/services"
	"github.com/cherrydine/cherrydine/pkg/ctx"
	"github.com/cherrydine/cherrydine/pkg/middleware"
)

type AccountController struct {
	accounts *services.AccountService
}

func NewAccountController(accounts *services.AccountService) *AccountController {
	return &AccountController{accounts: accounts}
}

func (a *AccountController) Register(c *ctx.Context) {
	var in services.RegisterInput
	if !c.BindJSON(&in) {
		return
	}
	user, err := a.accounts.Register(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	if err := a.startSession(c, user.ID); err != nil {
		fail(c, err)
		return
	}
	c.Created("Registration successful", user)
}

// Login starts a cookie session.
func (a *AccountController) Login(c *ctx.Context) {
	var in services.LoginInput
	if !c.BindJSON(&in) {
		return
	}
	user, err := a.accounts.Authenticate(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	if err := a.startSession(c, user.ID); err != nil {
		fail(c, err)
		return
	}
	c.Success("Logged in", user)
}

func (a *AccountController) startSession(c *ctx.Context, userID uint) error {
	sess := c.Session()
	if err := sess.Regenerate(); err != nil {
		return err
	}
	return sess.Set(middleware.SessionUserKey, userID)
}

// Logout drops the whole session, cart included.
func (a *AccountController) Logout(c *ctx.Context) {
	if err := c.Session().Invalidate(); err != nil {
		fail(c, err)
		return
	}
	c.Success("Logged out", nil)
}

// Token is the API login: it returns a bearer token instead of a cookie.
func (a *AccountController) Token(c *ctx.Context) {
	var in services.LoginInput
	if !c.BindJSON(&in) {
		return
	}
	token, user, err := a.accounts.IssueToken(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success("Token issued", map[string]any{"token": token, "token_type": "Bearer", "user": user})
}

func (a *AccountController) Profile(c *ctx.Context) {
	user, err := a.accounts.Profile(c.Context(), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success("", user)
}

func (a *AccountController) UpdateProfile(c *ctx.Context) {
	var in services.ProfileInput
	if !c.BindJSON(&in) {
		return
	}
	user, err := a.accounts.UpdateProfile(c.Context(), actor(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success("Profile updated", user)
}
