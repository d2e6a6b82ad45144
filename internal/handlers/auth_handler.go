package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nabhajit/bhujal/internal/auth"
	"github.com/nabhajit/bhujal/internal/notifier"
	"github.com/nabhajit/bhujal/internal/repository"
)

const (
	loginPage  = "login.html"
	signupPage = "signup.html"
)

type LoginRequest struct {
	Email    string `form:"email" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type SignupRequest struct {
	Name            string `form:"name" binding:"required,max=100"`
	Email           string `form:"email" binding:"required,email,max=254"`
	Phone           string `form:"phone" binding:"required,e164"`
	Address         string `form:"address" binding:"required,max=200"`
	Password        string `form:"password" binding:"required"`
	ConfirmPassword string `form:"confirm-password" binding:"required"`
}

// GET /login/
func (h *Handler) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, loginPage, nil)
}

// POST /login/
//
// An unknown email is sent to the signup page and a wrong password back to the
// login page. The two outcomes differ, so the response reveals whether an
// email is registered.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.metrics.Login("invalid")
		h.failPage(c, loginPage, err)
		return
	}

	customer, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrUnknownEmail):
		h.metrics.Login("unknown_email")
		c.Redirect(http.StatusFound, "/signup/")
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.metrics.Login("wrong_password")
		c.Redirect(http.StatusFound, "/login/")
		return
	case err != nil:
		h.metrics.Login("error")
		h.failPage(c, loginPage, err)
		return
	}

	if err := h.sessions.Start(c, customer.ID); err != nil {
		h.metrics.Login("error")
		h.failPage(c, loginPage, err)
		return
	}

	h.metrics.Login("ok")
	h.log.Info("customer logged in", zap.Uint("customer_id", customer.ID))
	c.Redirect(http.StatusFound, mainPath(customer.ID))
}

// GET /signup/
func (h *Handler) SignupPage(c *gin.Context) {
	c.HTML(http.StatusOK, signupPage, nil)
}

// POST /signup/
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBind(&req); err != nil {
		h.metrics.Signup("invalid")
		h.failPage(c, signupPage, err)
		return
	}

	customer, err := h.auth.Signup(c.Request.Context(), auth.SignupInput{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Address:         req.Address,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrPasswordMismatch):
			h.metrics.Signup("password_mismatch")
			if !auth.WantsJSON(c) {
				// Browsers get a blank form back with nothing said about why.
				c.HTML(http.StatusBadRequest, signupPage, nil)
				return
			}
		case errors.Is(err, repository.ErrConflict):
			h.metrics.Signup("conflict")
		default:
			h.metrics.Signup("error")
		}
		h.failPage(c, signupPage, err)
		return
	}

	if err := h.sessions.Start(c, customer.ID); err != nil {
		h.metrics.Signup("error")
		h.failPage(c, signupPage, err)
		return
	}

	h.metrics.Signup("ok")
	welcome := *customer
	notifier.Dispatch(h.log, "customer_registered", func(ctx context.Context) error {
		return h.notify.CustomerRegistered(ctx, welcome)
	})

	c.Redirect(http.StatusFound, mainPath(customer.ID))
}

// GET /logout/
func (h *Handler) Logout(c *gin.Context) {
	if err := h.sessions.End(c); err != nil {
		h.log.Error("logout failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Redirect(http.StatusFound, "/login/")
}

func mainPath(id uint) string {
	return fmt.Sprintf("/main/%d", id)
}
