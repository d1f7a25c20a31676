package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/planner-suite/backend/internal/events"
	"github.com/planner-suite/backend/internal/models"
	"github.com/planner-suite/backend/internal/schedules"
	"github.com/planner-suite/backend/pkg/response"
	"github.com/planner-suite/backend/pkg/storage"
)

// Handler serves schedule PDF exports.
type Handler struct {
	events    *events.Repository
	schedules *schedules.Repository
	s3        *storage.S3
	company   string
	logger    *zap.Logger
}

// NewHandler creates an export handler. s3 may be nil, in which case the
// ?link=1 archive mode responds 503.
func NewHandler(ev *events.Repository, sch *schedules.Repository, s3 *storage.S3, company string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{events: ev, schedules: sch, s3: s3, company: company, logger: logger}
}

// SchedulePDF handles GET /events/:id/export/pdf.
//
// Query parameters:
//
//	groups=artistes,techniques  restrict to the given target groups
//	details=1                   include descriptions and required skills
//	link=1                      archive to S3 and return a download URL
//	filename=...                override the download filename
func (h *Handler) SchedulePDF(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	event, err := h.events.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	list, err := h.schedules.ListByEvent(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("load schedules failed", zap.Error(err), zap.String("event_id", id.String()))
		response.Internal(c, "failed to load schedules")
		return
	}

	opts := Options{
		IncludeDetails: c.Query("details") == "1",
		CompanyName:    h.company,
	}
	if raw := c.Query("groups"); raw != "" {
		for _, g := range strings.Split(raw, ",") {
			switch tg := models.TargetGroup(strings.TrimSpace(g)); tg {
			case models.GroupArtistes, models.GroupTechniques, models.GroupBoth:
				opts.TargetGroups = append(opts.TargetGroups, tg)
			default:
				response.BadRequest(c, "invalid group: "+g)
				return
			}
		}
	}

	data, err := Generate(event, list, opts)
	if err != nil {
		h.logger.Error("generate pdf failed", zap.Error(err), zap.String("event_id", id.String()))
		response.Internal(c, "failed to generate pdf")
		return
	}

	filename := c.Query("filename")
	if filename == "" {
		filename = DefaultFilename
	} else if !strings.HasSuffix(filename, ".pdf") {
		filename += ".pdf"
	}

	if c.Query("link") == "1" {
		h.archive(c, id, filename, data)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(200, "application/pdf", data)
}

// archive stores the document in the exports bucket and returns a
// pre-signed download URL instead of the bytes.
func (h *Handler) archive(c *gin.Context, eventID uuid.UUID, filename string, data []byte) {
	if h.s3 == nil {
		response.ServiceUnavailable(c, "export archive is not configured")
		return
	}
	// Unique key per generation so archived copies are never overwritten.
	key := storage.ExportKey(eventID.String(), fmt.Sprintf("%d-%s", time.Now().Unix(), filename))
	if _, err := h.s3.UploadExport(c.Request.Context(), key, "application/pdf", data); err != nil {
		h.logger.Error("archive export failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "failed to archive export")
		return
	}
	url, err := h.s3.PresignedDownloadURL(c.Request.Context(), key)
	if err != nil {
		h.logger.Error("presign export failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "failed to sign download url")
		return
	}
	response.OK(c, gin.H{
		"key":        key,
		"url":        url,
		"filename":   filename,
		"expires_in": int(h.s3.PresignExpire().Seconds()),
	})
}
