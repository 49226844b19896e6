package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/debtflow/debtflow-api/internal/services"
)

type StatsHandler struct {
	statsService *services.StatsService
	orgService   *services.OrganizationService
}

func NewStatsHandler(statsService *services.StatsService, orgService *services.OrganizationService) *StatsHandler {
	return &StatsHandler{statsService: statsService, orgService: orgService}
}

// @Summary Collection Stats
// @Description Get the dashboard summary for the current organization
// @Tags Stats
// @Produce json
// @Success 200 {object} services.StatsOverview
// @Security BearerAuth
// @Router /stats/overview [get]
func (h *StatsHandler) Overview(c *gin.Context) {
	orgID, ok := currentOrg(c, h.orgService)
	if !ok {
		return
	}

	overview, err := h.statsService.Overview(c.Request.Context(), orgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, overview)
}

type JobHandler struct {
	jobService *services.JobService
}

func NewJobHandler(jobService *services.JobService) *JobHandler {
	return &JobHandler{jobService: jobService}
}

// @Summary Worker Status
// @Description Get background worker statistics
// @Tags Jobs
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /jobs/status [get]
func (h *JobHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.jobService.GetStatus())
}
