package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"portfolio-api/internal/audit"
	"portfolio-api/internal/auth"
	"portfolio-api/internal/errorsx"
	"portfolio-api/internal/extraction"
	"portfolio-api/internal/inquiry"
	"portfolio-api/internal/reporting"
	"portfolio-api/internal/transcript"
	"portfolio-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Inquiries *inquiry.Service
	Reports   *reporting.Service
	Voice     VoiceClientConfig

	Now func() time.Time
}

// defaultReportWindow applies when the admin gives no from/to.
const defaultReportWindow = 30 * 24 * time.Hour

// VoiceClientConfig is what the browser needs to initialize the voice SDK.
type VoiceClientConfig struct {
	PublicKey          string `json:"publicKey"`
	AssistantID        string `json:"assistantId"`
	MaxDurationSeconds int    `json:"maxDurationSeconds"`
}

// --- Identity ---

func (h Handlers) Me(c *gin.Context) {
	id, err := auth.IdentityFrom(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":      id.UserID,
		"display_name": auth.DisplayName(c.Request.Context()),
		"role":         id.Role,
		"voice":        h.Voice,
	})
}

// --- Inquiries (visitor) ---

type bootstrapRequest struct {
	VisitorName     string                 `json:"visitorName"`
	Transcript      []transcript.Utterance `json:"transcript"`
	SourceSessionID string                 `json:"sourceSessionId"`
}

// BootstrapInquiry extracts a draft from a raw transcript and stores it.
func (h Handlers) BootstrapInquiry(c *gin.Context) {
	if h.Inquiries == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "inquiries not configured"})
		return
	}
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}
	var req bootstrapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := strings.TrimSpace(req.VisitorName)
	if name == "" {
		name = auth.DisplayName(c.Request.Context())
	}
	utterances := make([]transcript.Utterance, 0, len(req.Transcript))
	for _, u := range req.Transcript {
		utterances = append(utterances, transcript.Utterance{
			Role:    transcript.NormalizeRole(string(u.Role)),
			Content: strings.TrimSpace(u.Content),
		})
	}

	rec, err := h.Inquiries.Bootstrap(c.Request.Context(), inquiry.BootstrapRequest{
		UserID:          userID,
		VisitorName:     name,
		Transcript:      utterances,
		SourceSessionID: req.SourceSessionID,
	})
	if err != nil {
		writeInquiryError(c, "inquiry bootstrap failed", err)
		return
	}
	if rec.UserID != userID {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// UpdateInquiry saves the reviewed draft under the id in the path.
func (h Handlers) UpdateInquiry(c *gin.Context) {
	if h.Inquiries == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "inquiries not configured"})
		return
	}
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}
	var d extraction.Draft
	if err := c.ShouldBindJSON(&d); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	d.ID = c.Param("id")

	res, err := h.Inquiries.UpdateInquiry(c.Request.Context(), userID, d)
	if err != nil {
		writeInquiryError(c, "inquiry update failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// --- Inquiries (admin) ---

func (h Handlers) AdminListInquiries(c *gin.Context) {
	if h.Inquiries == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "inquiries not configured"})
		return
	}
	f := inquiry.Filter{Status: inquiry.Status(c.Query("status"))}
	if f.Status != "" && !f.Status.Valid() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}
	var err error
	if f.Limit, err = intQuery(c, "limit"); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
		return
	}
	if f.Offset, err = intQuery(c, "offset"); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "offset must be an integer"})
		return
	}

	items, err := h.Inquiries.List(c.Request.Context(), f)
	if err != nil {
		writeInquiryError(c, "inquiry list failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h Handlers) AdminGetInquiry(c *gin.Context) {
	if h.Inquiries == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "inquiries not configured"})
		return
	}
	rec, err := h.Inquiries.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeInquiryError(c, "inquiry lookup failed", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// AdminDeleteInquiry removes an inquiry. RBAC: admin.
func (h Handlers) AdminDeleteInquiry(c *gin.Context) {
	if h.Inquiries == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "inquiries not configured"})
		return
	}
	adminUserID, _ := auth.UserID(c.Request.Context())
	adminRole, _ := auth.Role(c.Request.Context())
	actor := audit.Actor{UserID: adminUserID, Role: adminRole, IP: c.ClientIP()}

	if err := h.Inquiries.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		writeInquiryError(c, "inquiry delete failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AdminInquirySummary aggregates inquiries in [from, to). Both are RFC 3339.
func (h Handlers) AdminInquirySummary(c *gin.Context) {
	if h.Reports == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}

	to := now().UTC()
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC 3339"})
			return
		}
		to = t
	}
	from := to.Add(-defaultReportWindow)
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC 3339"})
			return
		}
		from = t
	}

	out, err := h.Reports.InquirySummary(c.Request.Context(), reporting.InquirySummaryRequest{
		Range: reporting.TimeRange{From: from, To: to},
	})
	if errors.Is(err, reporting.ErrInvalidRequest) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be before to"})
		return
	}
	if err != nil {
		logger.FromGin(c).Error("inquiry summary failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func writeInquiryError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, inquiry.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, inquiry.ErrInvalidDraft):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "visitorName and summary are required", "reason": errorsx.ReasonInvalidDraft})
	case errors.Is(err, extraction.ErrEmptyTranscript), errors.Is(err, extraction.ErrNoData):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "transcript has no inquiry content", "reason": errorsx.Reason(err)})
	case errorsx.HasReason(err, errorsx.ReasonExtractionModel), errorsx.HasReason(err, errorsx.ReasonExtractionMalformed):
		logger.FromGin(c).Warn(msg, "reason", errorsx.Reason(err), "err", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "could not process the conversation", "reason": errorsx.Reason(err)})
	default:
		logger.FromGin(c).Error(msg, "reason", errorsx.Reason(err), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
