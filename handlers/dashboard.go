package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type DashboardTile struct {
	Title string `json:"title"`
	Path  string `json:"path"`
	Icon  string `json:"icon"`
}

// DashboardTiles is the owner dashboard, in display order.
var DashboardTiles = []DashboardTile{
	{Title: "Add Products", Path: "/add-products", Icon: "package-plus"},
	{Title: "Add Stockist", Path: "/add-stockist", Icon: "users"},
	{Title: "Manage Orders", Path: "/manage-orders", Icon: "clipboard-list"},
	{Title: "Manage Products", Path: "/manage-products", Icon: "box"},
	{Title: "Add Advertisements", Path: "/add-ads", Icon: "megaphone"},
}

func GetDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"home":  "/",
		"tiles": DashboardTiles,
	})
}
