package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"devicehub/internal/models"
)

// ruleRequest is the write payload for rule endpoints. Derived fields
// (sequence numbers, natural language) are ignored on input and
// regenerated by the compiler.
type ruleRequest struct {
	Rule   models.Rule       `json:"rule"`
	Owner  string            `json:"owner"`
	Status models.RuleStatus `json:"status"`
}

// RegisterRuleRoutes mounts the rule lifecycle endpoints.
func RegisterRuleRoutes(r *gin.Engine, deps Dependencies) {
	g := r.Group("/v1/accounts/:accountId/rules")
	{
		g.GET("", func(c *gin.Context) {
			list, err := deps.Rules.List(c.Request.Context(), c.Param("accountId"))
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, list)
		})

		g.GET("/:ruleId", func(c *gin.Context) {
			rule, err := deps.Rules.Get(c.Request.Context(), c.Param("accountId"), c.Param("ruleId"))
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, rule)
		})

		g.POST("", func(c *gin.Context) {
			var req ruleRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
			rule, err := deps.Rules.Add(c.Request.Context(), c.Param("accountId"), req.Owner, req.Rule, req.Status)
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusCreated, rule)
		})

		g.POST("/draft", func(c *gin.Context) {
			var req ruleRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
			rule, err := deps.Rules.AddAsDraft(c.Request.Context(), c.Param("accountId"), req.Owner, req.Rule)
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusCreated, rule)
		})

		g.PUT("/:ruleId", func(c *gin.Context) {
			var req ruleRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
			rule, err := deps.Rules.Update(c.Request.Context(), c.Param("accountId"), req.Owner,
				c.Param("ruleId"), req.Rule, req.Status)
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, rule)
		})

		g.PUT("/:ruleId/status", func(c *gin.Context) {
			var req struct {
				Status models.RuleStatus `json:"status"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
			if err := deps.Rules.UpdateStatus(c.Request.Context(), c.Param("accountId"), c.Param("ruleId"), req.Status); err != nil {
				respondError(c, err)
				return
			}
			c.Status(http.StatusNoContent)
		})

		g.POST("/:ruleId/clone", func(c *gin.Context) {
			var req struct {
				Owner  string            `json:"owner"`
				Status models.RuleStatus `json:"status"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
			rule, err := deps.Rules.Clone(c.Request.Context(), c.Param("accountId"), req.Owner,
				c.Param("ruleId"), req.Status)
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusCreated, rule)
		})

		g.DELETE("/:ruleId", func(c *gin.Context) {
			if err := deps.Rules.Delete(c.Request.Context(), c.Param("accountId"), c.Param("ruleId")); err != nil {
				respondError(c, err)
				return
			}
			c.Status(http.StatusNoContent)
		})

		g.DELETE("/draft/:ruleId", func(c *gin.Context) {
			if err := deps.Rules.DeleteDraft(c.Request.Context(), c.Param("accountId"), c.Param("ruleId")); err != nil {
				respondError(c, err)
				return
			}
			c.Status(http.StatusNoContent)
		})
	}
}
