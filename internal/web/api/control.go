package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"devicehub/internal/models"
)

// RegisterControlRoutes mounts the direct command path, the complex
// command library and the actuation audit trail.
func RegisterControlRoutes(r *gin.Engine, deps Dependencies) {
	g := r.Group("/v1/accounts/:accountId")
	{
		g.POST("/control", func(c *gin.Context) {
			var req struct {
				Commands        []models.ComponentCommand `json:"commands"`
				ComplexCommands []string                  `json:"complexCommands"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
			if err := deps.Dispatcher.Command(c.Request.Context(), c.Param("accountId"),
				req.Commands, req.ComplexCommands); err != nil {
				respondError(c, err)
				return
			}
			c.Status(http.StatusNoContent)
		})

		g.GET("/control/actuations", func(c *gin.Context) {
			limit, _ := strconv.Atoi(c.Query("limit"))
			list, err := deps.Dispatcher.History(c.Request.Context(), c.Param("accountId"),
				c.Query("deviceId"), limit)
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, list)
		})

		g.GET("/commands", func(c *gin.Context) {
			list, err := deps.Commands.List(c.Request.Context(), c.Param("accountId"))
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, list)
		})

		g.POST("/commands", func(c *gin.Context) {
			var req struct {
				Name     string                    `json:"name"`
				Commands []models.ComponentCommand `json:"commands"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
			cc, err := deps.Commands.Add(c.Request.Context(), c.Param("accountId"), req.Name, req.Commands)
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusCreated, cc)
		})

		g.PUT("/commands/:name", func(c *gin.Context) {
			var req struct {
				Commands []models.ComponentCommand `json:"commands"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
			if err := deps.Commands.Update(c.Request.Context(), c.Param("accountId"),
				c.Param("name"), req.Commands); err != nil {
				respondError(c, err)
				return
			}
			c.Status(http.StatusNoContent)
		})

		g.DELETE("/commands/:name", func(c *gin.Context) {
			if err := deps.Commands.Delete(c.Request.Context(), c.Param("accountId"), c.Param("name")); err != nil {
				respondError(c, err)
				return
			}
			c.Status(http.StatusNoContent)
		})
	}
}
