package controllers

import (
	"net/http"

	"github.com/blogem/registros/userctx"
)

// DashboardController handles dashboard-related requests
type DashboardController struct{}

// NewDashboardController creates a new dashboard controller
func NewDashboardController() *DashboardController {
	return &DashboardController{}
}

// Index handles GET /
func (c *DashboardController) Index(w http.ResponseWriter, r *http.Request) {
	user, _ := userctx.GetUser(r.Context())
	renderTemplate(w, "index.html", pageData(user, "Registros", "dashboard"))
}
