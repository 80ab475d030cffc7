package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/bureau-roster-api/internal/dto"
	"github.com/noah-isme/bureau-roster-api/internal/models"
	appErrors "github.com/noah-isme/bureau-roster-api/pkg/errors"
	"github.com/noah-isme/bureau-roster-api/pkg/export"
)

type auditStore interface {
	Create(ctx context.Context, entry *models.AuditLogEntry) error
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLogEntry, int, error)
}

type datasetRenderer interface {
	ContentType() string
	Render(data export.Dataset, title string) ([]byte, error)
}

// Audit export formats.
const (
	AuditFormatCSV = "csv"
	AuditFormatPDF = "pdf"
)

const auditExportLimit = 5000

// AuditExport is a rendered audit log file.
type AuditExport struct {
	Filename    string
	ContentType string
	Data        []byte
}

// AuditService appends and reads the audit log.
type AuditService struct {
	store     auditStore
	members   memberReader
	renderers map[string]datasetRenderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuditService constructs the service with CSV and PDF exporters.
func NewAuditService(store auditStore, members memberReader, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		store:   store,
		members: members,
		renderers: map[string]datasetRenderer{
			AuditFormatCSV: export.NewCSVExporter(),
			AuditFormatPDF: export.NewPDFExporter(),
		},
		logger: logger,
		now:    time.Now,
	}
}

// Record appends exactly one entry. It joins the transaction carried by ctx so
// the entry commits or rolls back with the action it describes.
func (s *AuditService) Record(ctx context.Context, actor *models.Member, action, details string) error {
	nickname := ""
	if actor != nil {
		nickname = actor.Nickname
	}
	entry := &models.AuditLogEntry{
		ActorNickname: nickname,
		Action:        action,
		Details:       details,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.store.Create(ctx, entry); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record audit entry")
	}
	return nil
}

// List returns entries newest first. Leadership only.
func (s *AuditService) List(ctx context.Context, actorID string, query dto.AuditQuery) ([]models.AuditLogEntry, *models.Pagination, error) {
	actor, err := loadActor(ctx, s.members, actorID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireLeadership(actor); err != nil {
		return nil, nil, err
	}
	page, size := normalizePage(query.Page, query.PageSize)
	entries, total, err := s.store.List(ctx, models.AuditFilter{
		Search: strings.TrimSpace(query.Search),
		Limit:  size,
		Offset: (page - 1) * size,
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit log")
	}
	return entries, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Export renders the matching entries as CSV or PDF. Leadership only.
func (s *AuditService) Export(ctx context.Context, actorID, format, search string) (*AuditExport, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = AuditFormatCSV
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	actor, err := loadActor(ctx, s.members, actorID)
	if err != nil {
		return nil, err
	}
	if err := requireLeadership(actor); err != nil {
		return nil, err
	}
	entries, _, err := s.store.List(ctx, models.AuditFilter{Search: strings.TrimSpace(search), Limit: auditExportLimit})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load audit log")
	}
	data, err := renderer.Render(auditDataset(entries), "Audit log")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render audit log")
	}
	s.logger.Info("audit log exported", zap.String("actor", actor.Nickname), zap.String("format", format), zap.Int("entries", len(entries)))
	return &AuditExport{
		Filename:    fmt.Sprintf("audit-log-%s.%s", s.now().UTC().Format("20060102-150405"), format),
		ContentType: renderer.ContentType(),
		Data:        data,
	}, nil
}

func auditDataset(entries []models.AuditLogEntry) export.Dataset {
	rows := make([]map[string]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, map[string]string{
			"Time":    e.CreatedAt.UTC().Format(time.RFC3339),
			"Actor":   e.ActorNickname,
			"Action":  e.Action,
			"Details": e.Details,
		})
	}
	return export.Dataset{Headers: []string{"Time", "Actor", "Action", "Details"}, Rows: rows}
}
