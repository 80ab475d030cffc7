package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/noah-isme/bureau-roster-api/internal/models"
)

func cloneMember(m *models.Member) *models.Member {
	c := *m
	c.Penalties = append([]models.Penalty(nil), m.Penalties...)
	c.DepartmentHistory = append([]string(nil), m.DepartmentHistory...)
	return &c
}

type memberStoreStub struct {
	mu      sync.Mutex
	members map[string]*models.Member
	seq     int
}

func newMemberStoreStub(members ...*models.Member) *memberStoreStub {
	s := &memberStoreStub{members: make(map[string]*models.Member)}
	for _, m := range members {
		s.members[m.ID] = cloneMember(m)
	}
	return s
}

func (s *memberStoreStub) Create(ctx context.Context, member *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if member.ID == "" {
		s.seq++
		member.ID = fmt.Sprintf("new-%d", s.seq)
	}
	s.members[member.ID] = cloneMember(member)
	return nil
}

func (s *memberStoreStub) GetByID(ctx context.Context, id string) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.members[id]; ok {
		return cloneMember(m), nil
	}
	return nil, sql.ErrNoRows
}

func (s *memberStoreStub) GetForUpdate(ctx context.Context, id string) (*models.Member, error) {
	return s.GetByID(ctx, id)
}

func (s *memberStoreStub) GetByNickname(ctx context.Context, nickname string) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if strings.EqualFold(m.Nickname, nickname) {
			return cloneMember(m), nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *memberStoreStub) FindDirector(ctx context.Context) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.Rank == models.RankDirector && !m.IsAdmin {
			return cloneMember(m), nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *memberStoreStub) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	_, err := s.GetByNickname(ctx, nickname)
	return err == nil, nil
}

func (s *memberStoreStub) List(ctx context.Context, filter models.MemberFilter) ([]models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]models.Member, 0, len(s.members))
	for _, m := range s.members {
		if filter.Department != "" && m.Department != filter.Department {
			continue
		}
		if filter.Leadership && !m.IsLeadership() {
			continue
		}
		result = append(result, *cloneMember(m))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *memberStoreStub) Save(ctx context.Context, member *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[member.ID]; !ok {
		return sql.ErrNoRows
	}
	s.members[member.ID] = cloneMember(member)
	return nil
}

func (s *memberStoreStub) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.members, id)
	return nil
}

func (s *memberStoreStub) AddPenalty(ctx context.Context, penalty *models.Penalty) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[penalty.MemberID]
	if !ok {
		return sql.ErrNoRows
	}
	if penalty.ID == "" {
		s.seq++
		penalty.ID = fmt.Sprintf("p-%d", s.seq)
	}
	m.Penalties = append(m.Penalties, *penalty)
	return nil
}

func (s *memberStoreStub) get(t *testing.T, id string) *models.Member {
	t.Helper()
	m, err := s.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("member %s: %v", id, err)
	}
	return m
}

type requestStoreStub struct {
	mu        sync.Mutex
	requests  map[string]*models.Request
	seq       int
	createErr error
}

func newRequestStoreStub(requests ...*models.Request) *requestStoreStub {
	s := &requestStoreStub{requests: make(map[string]*models.Request)}
	for _, r := range requests {
		c := *r
		if c.Status == "" {
			c.Status = models.RequestStatusPending
		}
		s.requests[r.ID] = &c
	}
	return s
}

func (s *requestStoreStub) Create(ctx context.Context, request *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if request.ID == "" {
		s.seq++
		request.ID = fmt.Sprintf("req-%d", s.seq)
	}
	c := *request
	s.requests[request.ID] = &c
	return nil
}

func (s *requestStoreStub) GetByID(ctx context.Context, id string) (*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.requests[id]; ok {
		c := *r
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (s *requestStoreStub) GetByArchiveID(ctx context.Context, archiveID string) (*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.requests {
		if r.ArchiveID != nil && *r.ArchiveID == archiveID {
			c := *r
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *requestStoreStub) ExistsPending(ctx context.Context, authorID string, kind models.RequestKind) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.requests {
		if r.AuthorID == authorID && r.Kind == kind && r.Status == models.RequestStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (s *requestStoreStub) ListPending(ctx context.Context) ([]models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.Request
	for _, r := range s.requests {
		if r.Status == models.RequestStatusPending {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SubmittedAt.Before(result[j].SubmittedAt) })
	return result, nil
}

func (s *requestStoreStub) ListByAuthor(ctx context.Context, authorID string) ([]models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.Request
	for _, r := range s.requests {
		if r.AuthorID == authorID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (s *requestStoreStub) ListArchived(ctx context.Context, filter models.RequestFilter) ([]models.Request, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.Request
	for _, r := range s.requests {
		if r.ArchiveID == nil {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(r.AuthorNickname), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.AuthorID != "" && r.AuthorID != filter.AuthorID {
			continue
		}
		if filter.Kind != "" && r.Kind != filter.Kind {
			continue
		}
		if len(filter.Status) > 0 && !containsStatus(filter.Status, r.Status) {
			continue
		}
		result = append(result, *r)
	}
	return result, len(result), nil
}

func (s *requestStoreStub) DeleteArchived(ctx context.Context, archiveID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.requests {
		if r.ArchiveID != nil && *r.ArchiveID == archiveID {
			delete(s.requests, id)
			return nil
		}
	}
	return sql.ErrNoRows
}

func containsStatus(statuses []models.RequestStatus, status models.RequestStatus) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}

func (s *requestStoreStub) Archive(ctx context.Context, decision models.ArchiveDecision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[decision.RequestID]
	if !ok || r.Status != models.RequestStatusPending {
		return sql.ErrNoRows
	}
	r.Status = decision.Status
	r.ReviewerNickname = &decision.ReviewerNickname
	decidedAt := decision.DecidedAt
	r.DecidedAt = &decidedAt
	archiveID := decision.ArchiveID
	r.ArchiveID = &archiveID
	return nil
}

type notificationStoreStub struct {
	mu            sync.Mutex
	notifications []models.Notification
	seq           int
}

func (s *notificationStoreStub) CreateBatch(ctx context.Context, notifications []*models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range notifications {
		if n.ID == "" {
			s.seq++
			n.ID = fmt.Sprintf("n-%d", s.seq)
		}
		s.notifications = append(s.notifications, *n)
	}
	return nil
}

func (s *notificationStoreStub) ListFor(ctx context.Context, memberID string, limit int) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.Notification
	for i := len(s.notifications) - 1; i >= 0; i-- {
		if s.notifications[i].RelevantTo(memberID) {
			result = append(result, s.notifications[i])
		}
	}
	return result, nil
}

func (s *notificationStoreStub) MarkAllRead(ctx context.Context, memberID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].RelevantTo(memberID) {
			s.notifications[i].Read = true
		}
	}
	return nil
}

func (s *notificationStoreStub) sentTo(recipientID string) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.Notification
	for _, n := range s.notifications {
		if n.RecipientID != nil && *n.RecipientID == recipientID {
			result = append(result, n)
		}
	}
	return result
}

type publisherStub struct {
	mu        sync.Mutex
	published []*models.Notification
}

func (p *publisherStub) Publish(notifications ...*models.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, notifications...)
}

type auditLogStub struct {
	mu      sync.Mutex
	entries []models.AuditLogEntry
}

func (s *auditLogStub) Create(ctx context.Context, entry *models.AuditLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *auditLogStub) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLogEntry, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]models.AuditLogEntry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		result = append(result, s.entries[i])
	}
	return result, len(result), nil
}

type settingsStoreStub struct {
	records []models.SettingRecord
}

func (s *settingsStoreStub) List(ctx context.Context) ([]models.SettingRecord, error) {
	return append([]models.SettingRecord(nil), s.records...), nil
}

func (s *settingsStoreStub) Upsert(ctx context.Context, record *models.SettingRecord) error {
	for i := range s.records {
		if s.records[i].Key == record.Key {
			s.records[i] = *record
			return nil
		}
	}
	s.records = append(s.records, *record)
	return nil
}

type newsStoreStub struct {
	items    []models.NewsItem
	comments []models.ContentComment
}

func (s *newsStoreStub) Create(ctx context.Context, item *models.NewsItem) error {
	if item.ID == "" {
		item.ID = fmt.Sprintf("n-%d", len(s.items)+1)
	}
	if item.Kind == "" {
		item.Kind = models.ContentKindNews
	}
	s.items = append(s.items, *item)
	return nil
}

func (s *newsStoreStub) GetByID(ctx context.Context, id string) (*models.NewsItem, error) {
	for _, item := range s.items {
		if item.ID == id {
			c := item
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *newsStoreStub) List(ctx context.Context, filter models.ContentFilter) ([]models.NewsItem, error) {
	var result []models.NewsItem
	for _, item := range s.items {
		if item.Kind == filter.Kind && item.Archived == filter.Archived {
			result = append(result, item)
		}
	}
	return result, nil
}

func (s *newsStoreStub) Update(ctx context.Context, item *models.NewsItem) error {
	for i := range s.items {
		if s.items[i].ID == item.ID {
			s.items[i] = *item
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *newsStoreStub) Delete(ctx context.Context, id string) error {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *newsStoreStub) AddComment(ctx context.Context, comment *models.ContentComment) error {
	s.comments = append(s.comments, *comment)
	return nil
}

func (s *newsStoreStub) ListComments(ctx context.Context, itemID string) ([]models.ContentComment, error) {
	var result []models.ContentComment
	for _, comment := range s.comments {
		if comment.ItemID == itemID {
			result = append(result, comment)
		}
	}
	return result, nil
}

type staticSettings struct {
	settings models.Settings
}

func (s staticSettings) Current(ctx context.Context) (*models.Settings, error) {
	c := s.settings
	return &c, nil
}

// governance bundles services wired to in-memory stores.
type governance struct {
	members       *memberStoreStub
	requests      *requestStoreStub
	notifications *notificationStoreStub
	publisher     *publisherStub
	audit         *auditLogStub
	settings      staticSettings
	auditSvc      *AuditService
	notifySvc     *NotificationService
	now           time.Time
}

func newGovernance(members ...*models.Member) *governance {
	g := &governance{
		members:       newMemberStoreStub(members...),
		requests:      newRequestStoreStub(),
		notifications: &notificationStoreStub{},
		publisher:     &publisherStub{},
		audit:         &auditLogStub{},
		settings:      staticSettings{settings: models.DefaultSettings()},
		now:           time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	g.auditSvc = NewAuditService(g.audit, g.members, nil)
	g.auditSvc.now = func() time.Time { return g.now }
	g.notifySvc = NewNotificationService(g.notifications, g.publisher, nil, nil)
	return g
}

func (g *governance) decisions() *DecisionService {
	return NewDecisionService(g.requests, g.members, g.settings, nil, nil, g.auditSvc, g.notifySvc, nil, nil,
		WithClock(func() time.Time { return g.now }))
}

func (g *governance) management() *ManagementService {
	svc := NewManagementService(g.members, nil, g.settings, nil, g.auditSvc, g.notifySvc, nil)
	svc.now = func() time.Time { return g.now }
	return svc
}

func (g *governance) requestService() *RequestService {
	svc := NewRequestService(g.requests, g.members, g.settings, nil, g.auditSvc, nil, nil, nil)
	svc.now = func() time.Time { return g.now }
	return svc
}
