package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-healthwatch/db"
	"go-healthwatch/processor"
	"go-healthwatch/types"
)

// CreateReportRequest is the ingestion payload. Validation happens here, at
// the boundary; the detection core assumes well-formed input.
type CreateReportRequest struct {
	DiseaseType string `json:"diseaseType"`
	HealthIssue string `json:"healthIssue" binding:"required"`
	Severity    string `json:"severity" binding:"required"`
	Description string `json:"description"`
	Country     string `json:"country"`
	State       string `json:"state" binding:"required"`
	City        string `json:"city" binding:"required"`
	Area        string `json:"area" binding:"required"`
	Pincode     string `json:"pincode" binding:"required"`
}

var validSeverities = map[types.Severity]bool{
	types.Mild:     true,
	types.Moderate: true,
	types.Severe:   true,
	types.Critical: true,
}

// CreateReport ingests a citizen report. The write itself is the only thing
// that can fail the request; detection steps are best-effort.
func CreateReport(c *gin.Context, p *processor.Processor) {
	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}
	if !validSeverities[types.Severity(req.Severity)] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid severity"})
		return
	}

	report, err := p.CreateReport(c.Request.Context(), processor.NewReportInput{
		DiseaseType: req.DiseaseType,
		HealthIssue: req.HealthIssue,
		Description: req.Description,
		Severity:    types.Severity(req.Severity),
		Country:     req.Country,
		State:       req.State,
		City:        req.City,
		Area:        req.Area,
		Pincode:     req.Pincode,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, report)
}

// ListReports returns reports filtered by disease type, lifecycle status and
// creation range.
func ListReports(c *gin.Context, repo *db.ReportRepo) {
	filter := db.ListFilter{
		DiseaseType: c.Query("diseaseType"),
		Status:      types.ReportStatus(c.Query("status")),
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'from' timestamp"})
			return
		}
		filter.From = t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'to' timestamp"})
			return
		}
		filter.To = t
	}

	reports, err := repo.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, reports)
}

// UpdateApproval flips the moderation state of a report.
func UpdateApproval(c *gin.Context, repo *db.ReportRepo) {
	var req struct {
		Approval types.ApprovalStatus `json:"approval" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing approval field"})
		return
	}
	if req.Approval != types.ApprovalApproved && req.Approval != types.ApprovalRejected {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid approval status"})
		return
	}

	id := c.Param("id")
	report, err := repo.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
		return
	}

	if err := repo.UpdateApproval(c.Request.Context(), id, req.Approval); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	report.Approval = req.Approval
	c.JSON(http.StatusOK, report)
}
