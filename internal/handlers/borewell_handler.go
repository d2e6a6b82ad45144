package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nabhajit/bhujal/internal/borewell"
	"github.com/nabhajit/bhujal/internal/notifier"
)

// POST /borewellRegister/
//
// The owner is the form's cid when given, otherwise the signed-in customer.
// A signed-in customer may only register for themselves, and only registrations
// made with a session notify the owner.
func (h *Handler) RegisterBorewell(c *gin.Context) {
	var form borewell.RegistrationForm
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, err)
		return
	}

	customerID, signedIn, ok := h.ownerOf(c, form.CustomerID)
	if !ok {
		return
	}

	reg, err := h.borewells.Register(c.Request.Context(), customerID, form)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.metrics.BorewellRegistered()
	if signedIn {
		created := *reg
		notifier.Dispatch(h.log, "borewell_registered", func(ctx context.Context) error {
			return h.notify.BorewellRegistered(ctx, created.Customer, created.Borewell)
		})
	}

	c.JSON(http.StatusOK, gin.H{"borewell": reg.Confirmation()})
}

// ownerOf resolves the borewell owner. ok is false once a response has been written.
func (h *Handler) ownerOf(c *gin.Context, rawID string) (customerID uint, signedIn, ok bool) {
	current, signedIn, err := h.sessions.Current(c)
	if err != nil {
		h.fail(c, err)
		return 0, false, false
	}

	rawID = strings.TrimSpace(rawID)
	if rawID == "" {
		if !signedIn {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return 0, false, false
		}
		return current, true, true
	}

	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "cid is not valid"})
		return 0, false, false
	}
	if signedIn && uint(id) != current {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "cannot register a borewell for another customer"})
		return 0, false, false
	}
	return uint(id), signedIn, true
}

// GET /api/get_borewells/
func (h *Handler) GetBorewells(c *gin.Context) {
	list, err := h.borewells.ListBorewells(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"borewells": list})
}

// GET /api/get_borewell_owners/
func (h *Handler) GetBorewellOwners(c *gin.Context) {
	list, err := h.borewells.ListOwners(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
