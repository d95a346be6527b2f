package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"devicehub/internal/alerts"
	"devicehub/internal/models"
)

// RegisterAlertRoutes mounts the alert trigger and lifecycle endpoints.
func RegisterAlertRoutes(r *gin.Engine, deps Dependencies) {
	// The trigger ingress is called by the external evaluation service
	// with items possibly spanning accounts, so it sits outside the
	// account-scoped group.
	r.POST("/v1/alerts/trigger", func(c *gin.Context) {
		var items []alerts.TriggerItem
		if err := c.ShouldBindJSON(&items); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		results := deps.Alerts.Trigger(c.Request.Context(), items)

		type itemResult struct {
			RuleID   string `json:"ruleId"`
			DeviceID string `json:"deviceId"`
			AlertID  string `json:"alertId,omitempty"`
			Error    string `json:"error,omitempty"`
		}
		out := make([]itemResult, len(results))
		for i, res := range results {
			out[i] = itemResult{
				RuleID:   res.RuleID,
				DeviceID: res.DeviceID,
				AlertID:  res.AlertID,
				Error:    errString(res.Err),
			}
		}
		c.JSON(http.StatusOK, out)
	})

	g := r.Group("/v1/accounts/:accountId/alerts")
	{
		g.GET("", func(c *gin.Context) {
			list, err := deps.Alerts.List(c.Request.Context(), c.Param("accountId"))
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, list)
		})

		g.GET("/:alertId", func(c *gin.Context) {
			alert, err := deps.Alerts.Get(c.Request.Context(), c.Param("accountId"), c.Param("alertId"))
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, alert)
		})

		g.PUT("/:alertId/reset", func(c *gin.Context) {
			if err := deps.Alerts.Reset(c.Request.Context(), c.Param("accountId"), c.Param("alertId")); err != nil {
				respondError(c, err)
				return
			}
			c.Status(http.StatusNoContent)
		})

		g.POST("/reset", func(c *gin.Context) {
			var req struct {
				AlertIDs []string `json:"alertIds"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
			results := deps.Alerts.BulkReset(c.Request.Context(), c.Param("accountId"), req.AlertIDs)

			type itemResult struct {
				AlertID string `json:"alertId"`
				Error   string `json:"error,omitempty"`
			}
			out := make([]itemResult, len(results))
			for i, res := range results {
				out[i] = itemResult{AlertID: res.AlertID, Error: errString(res.Err)}
			}
			c.JSON(http.StatusOK, out)
		})

		g.PUT("/:alertId/status", func(c *gin.Context) {
			var req struct {
				Status models.AlertStatus `json:"status"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
			if err := deps.Alerts.ChangeStatus(c.Request.Context(), c.Param("accountId"), c.Param("alertId"), req.Status); err != nil {
				respondError(c, err)
				return
			}
			c.Status(http.StatusNoContent)
		})

		g.POST("/:alertId/comments", func(c *gin.Context) {
			var comments []models.AlertComment
			if err := c.ShouldBindJSON(&comments); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
			if err := deps.Alerts.AddComments(c.Request.Context(), c.Param("accountId"), c.Param("alertId"), comments); err != nil {
				respondError(c, err)
				return
			}
			c.Status(http.StatusNoContent)
		})
	}
}
