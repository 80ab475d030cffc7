package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/noah-isme/bureau-roster-api/internal/models"
	appErrors "github.com/noah-isme/bureau-roster-api/pkg/errors"
)

const settingsCacheKey = "bureau:settings"

type settingsStore interface {
	List(ctx context.Context) ([]models.SettingRecord, error)
	Upsert(ctx context.Context, record *models.SettingRecord) error
}

type newsWriter interface {
	Create(ctx context.Context, item *models.NewsItem) error
}

// systemUpdate describes how a saved rule table is announced.
type systemUpdate struct {
	key   string
	title string
	link  string
}

var (
	updatePromotionRules = systemUpdate{key: models.SettingPromotionSystem, title: "Promotion rules", link: models.LinkPromotions}
	updatePenaltyRules   = systemUpdate{key: models.SettingPenaltySystem, title: "Penalty rules", link: models.LinkPenalties}
	updateCharter        = systemUpdate{key: models.SettingCharter, title: "Charter", link: models.LinkCharter}
)

// SettingsService reads and saves rule tables and name tables.
type SettingsService struct {
	store         settingsStore
	news          newsWriter
	members       memberReader
	tx            txRunner
	audit         *AuditService
	notifications *NotificationService
	cache         *CacheService
	logger        *zap.Logger
	now           func() time.Time
}

// NewSettingsService constructs the service. cache may be nil.
func NewSettingsService(store settingsStore, news newsWriter, members memberReader, tx txRunner, audit *AuditService, notifications *NotificationService, cache *CacheService, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{
		store:         store,
		news:          news,
		members:       members,
		tx:            runnerOrDirect(tx),
		audit:         audit,
		notifications: notifications,
		cache:         cache,
		logger:        logger,
		now:           time.Now,
	}
}

// Current returns stored settings merged over the defaults.
func (s *SettingsService) Current(ctx context.Context) (*models.Settings, error) {
	var cached models.Settings
	if hit, _ := s.cache.Get(ctx, settingsCacheKey, &cached); hit {
		return &cached, nil
	}
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}
	settings, err := mergeSettings(records)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode settings")
	}
	_ = s.cache.Set(ctx, settingsCacheKey, settings, 0)
	return settings, nil
}

func mergeSettings(records []models.SettingRecord) (*models.Settings, error) {
	settings := models.DefaultSettings()
	for _, record := range records {
		var target interface{}
		switch record.Key {
		case models.SettingRankNames:
			target = &settings.RankNames
		case models.SettingDepartments:
			settings.Departments = nil
			target = &settings.Departments
		case models.SettingPromotionSystem:
			target = &settings.PromotionSystem
		case models.SettingPenaltySystem:
			target = &settings.PenaltySystem
		case models.SettingCharter:
			target = &settings.Charter
		default:
			continue
		}
		if err := json.Unmarshal(record.Value, target); err != nil {
			return nil, fmt.Errorf("decode setting %s: %w", record.Key, err)
		}
	}
	return &settings, nil
}

// UpdatePromotionSystem replaces the promotion rules. Every non-empty
// probation string must carry a parsable hour token.
func (s *SettingsService) UpdatePromotionSystem(ctx context.Context, actorID string, system models.PromotionSystem) (*models.Settings, error) {
	for i, rule := range system.AgentPromotions {
		if rule.Probation == nil || strings.TrimSpace(*rule.Probation) == "" {
			continue
		}
		_, exceeds, ok := parseProbation(*rule.Probation)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("probation of rule %d must contain an hour count such as [24 hours]", i+1))
		}
		if exceeds {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("probation of rule %d must not exceed %d hours", i+1, MaxProbationHours))
		}
	}
	return s.saveSystem(ctx, actorID, updatePromotionRules, system, promotionDetails(system))
}

// UpdatePenaltySystem replaces the penalty removal rules.
func (s *SettingsService) UpdatePenaltySystem(ctx context.Context, actorID string, system models.PenaltySystem) (*models.Settings, error) {
	return s.saveSystem(ctx, actorID, updatePenaltyRules, system, fmt.Sprintf("Title: %s; Requirements: %d", system.Title, len(system.Requirements)))
}

// UpdateCharter replaces the charter text.
func (s *SettingsService) UpdateCharter(ctx context.Context, actorID, text string) (*models.Settings, error) {
	if strings.TrimSpace(text) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "charter text is required")
	}
	sum := sha256.Sum256([]byte(text))
	details := fmt.Sprintf("Length: %d; SHA-256: %s", utf8.RuneCountInString(text), hex.EncodeToString(sum[:])[:12])
	return s.saveSystem(ctx, actorID, updateCharter, text, details)
}

// saveSystem stores a rule table and announces it with one news item, one
// global notification and one audit entry.
func (s *SettingsService) saveSystem(ctx context.Context, actorID string, update systemUpdate, value interface{}, details string) (*models.Settings, error) {
	actor, err := loadActor(ctx, s.members, actorID)
	if err != nil {
		return nil, err
	}
	if err := requireLeadership(actor); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid settings payload")
	}

	var notification *models.Notification
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.Upsert(ctx, &models.SettingRecord{Key: update.key, Value: raw, UpdatedBy: &actor.Nickname, UpdatedAt: s.now().UTC()}); err != nil {
			return internalError(err, "failed to save settings")
		}
		item := &models.NewsItem{
			Kind:    models.ContentKindNews,
			Title:   "Update: " + update.title,
			Content: fmt.Sprintf("%s updated the %s. Please review the changes.", actor.Nickname, strings.ToLower(update.title)),
			Author:  actor.Nickname,
		}
		if err := s.news.Create(ctx, item); err != nil {
			return internalError(err, "failed to create news item")
		}
		notification = GlobalNotification(fmt.Sprintf("%s updated the %s.", actor.Nickname, strings.ToLower(update.title)), update.link)
		if err := s.notifications.Create(ctx, notification); err != nil {
			return err
		}
		return s.audit.Record(ctx, actor, models.AuditActionSystemUpdate+": "+update.title, details)
	})
	if err != nil {
		return nil, err
	}
	s.afterSave(ctx, notification)
	return s.Current(ctx)
}

// UpdateRankNames replaces the rank display names. Administrator only.
func (s *SettingsService) UpdateRankNames(ctx context.Context, actorID string, names []string) (*models.Settings, error) {
	actor, err := loadActor(ctx, s.members, actorID)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if len(names) != models.RankDirector+1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("exactly %d rank names are required", models.RankDirector+1))
	}
	cleaned := make([]string, len(names))
	for i, name := range names {
		cleaned[i] = strings.TrimSpace(name)
		if cleaned[i] == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("rank name %d is empty", i))
		}
	}
	current, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	details := fmt.Sprintf("Old: %s; New: %s", strings.Join(current.RankNames, ", "), strings.Join(cleaned, ", "))
	if err := s.saveTable(ctx, actor, models.SettingRankNames, cleaned, models.AuditActionRankNamesEdit, details); err != nil {
		return nil, err
	}
	return s.Current(ctx)
}

// UpdateDepartments replaces the department display names. Administrator
// only. The academy and management departments cannot be removed.
func (s *SettingsService) UpdateDepartments(ctx context.Context, actorID string, departments map[string]string) (*models.Settings, error) {
	actor, err := loadActor(ctx, s.members, actorID)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	cleaned := make(map[string]string, len(departments))
	for key, name := range departments {
		key = strings.ToUpper(strings.TrimSpace(key))
		name = strings.TrimSpace(name)
		if key == "" || name == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "department keys and names must not be empty")
		}
		cleaned[key] = name
	}
	for _, required := range []string{models.DepartmentAcademy, models.DepartmentManagement} {
		if _, ok := cleaned[required]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("department %s cannot be removed", required))
		}
	}
	current, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	details := fmt.Sprintf("Old: %s; New: %s", formatDepartments(current.Departments), formatDepartments(cleaned))
	if err := s.saveTable(ctx, actor, models.SettingDepartments, cleaned, models.AuditActionDepartmentsEdit, details); err != nil {
		return nil, err
	}
	return s.Current(ctx)
}

func (s *SettingsService) saveTable(ctx context.Context, actor *models.Member, key string, value interface{}, action, details string) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid settings payload")
	}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.Upsert(ctx, &models.SettingRecord{Key: key, Value: raw, UpdatedBy: &actor.Nickname, UpdatedAt: s.now().UTC()}); err != nil {
			return internalError(err, "failed to save settings")
		}
		return s.audit.Record(ctx, actor, action, details)
	})
	if err != nil {
		return err
	}
	s.afterSave(ctx, nil)
	return nil
}

func (s *SettingsService) afterSave(ctx context.Context, notification *models.Notification) {
	if err := s.cache.Invalidate(ctx, settingsCacheKey+"*"); err != nil {
		s.logger.Warn("settings cache not invalidated", zap.Error(err))
	}
	if notification != nil {
		s.notifications.Publish(notification)
	}
}

// promotionDetails summarises a promotion table as its rule count and the
// probation of each tier.
func promotionDetails(system models.PromotionSystem) string {
	probations := make([]string, len(system.AgentPromotions))
	for i, rule := range system.AgentPromotions {
		probations[i] = "none"
		if rule.Probation != nil && strings.TrimSpace(*rule.Probation) != "" {
			probations[i] = strings.TrimSpace(*rule.Probation)
		}
	}
	return fmt.Sprintf("Academy stages: %d; Rules: %d; Probation: %s", len(system.Academy), len(system.AgentPromotions), strings.Join(probations, ", "))
}

func formatDepartments(departments map[string]string) string {
	keys := make([]string, 0, len(departments))
	for key := range departments {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+departments[key])
	}
	return strings.Join(parts, ", ")
}
