package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nabhajit/bhujal/internal/auth"
	"github.com/nabhajit/bhujal/internal/repository"
)

// GET / and /home/
func (h *Handler) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", nil)
}

// GET /main/:customerId
func (h *Handler) Main(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("customerId"), 10, 64)
	if err != nil {
		c.HTML(http.StatusNotFound, "main.html", gin.H{"Error": "customer not found"})
		return
	}

	// A signed-in customer only ever sees their own dashboard.
	if current := c.GetUint(auth.CustomerIDKey); current != 0 && uint64(current) != id {
		c.Redirect(http.StatusFound, mainPath(current))
		return
	}

	customer, err := h.auth.Customer(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.HTML(http.StatusNotFound, "main.html", gin.H{"Error": "customer not found"})
			return
		}
		h.fail(c, err)
		return
	}

	wells, err := h.borewells.ListForCustomer(c.Request.Context(), customer.ID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.HTML(http.StatusOK, "main.html", gin.H{"Customer": customer, "Borewells": wells})
}
