package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bureau-roster-api/internal/models"
	appErrors "github.com/noah-isme/bureau-roster-api/pkg/errors"
)

type memoryCache struct {
	mu          sync.Mutex
	values      map[string][]byte
	invalidated []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = raw
	return nil
}

func (c *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.values {
		if strings.HasPrefix(key, prefix) {
			delete(c.values, key)
		}
	}
	return nil
}

type settingsFixture struct {
	*governance
	store *settingsStoreStub
	news  *newsStoreStub
	cache *memoryCache
	svc   *SettingsService
}

func newSettingsFixture(members ...*models.Member) *settingsFixture {
	g := newGovernance(members...)
	f := &settingsFixture{governance: g, store: &settingsStoreStub{}, news: &newsStoreStub{}, cache: newMemoryCache()}
	cache := NewCacheService(f.cache, nil, time.Minute, nil, true)
	f.svc = NewSettingsService(f.store, f.news, g.members, nil, g.auditSvc, g.notifySvc, cache, nil)
	f.svc.now = func() time.Time { return g.now }
	return f
}

func TestSettingsCurrentFallsBackToDefaults(t *testing.T) {
	f := newSettingsFixture()
	settings, err := f.svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings().RankNames, settings.RankNames)
	assert.Contains(t, f.cache.values, settingsCacheKey)
}

func TestSettingsCurrentMergesStoredRecords(t *testing.T) {
	f := newSettingsFixture()
	f.store.records = []models.SettingRecord{{Key: models.SettingCharter, Value: []byte(`"Serve and protect"`)}}

	settings, err := f.svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Serve and protect", settings.Charter)
	assert.Equal(t, models.DefaultSettings().Departments, settings.Departments)
}

func TestUpdateCharterAnnouncesChange(t *testing.T) {
	f := newSettingsFixture(member("boss", 9))
	_, err := f.svc.Current(context.Background())
	require.NoError(t, err)

	settings, err := f.svc.UpdateCharter(context.Background(), "boss", "New charter text")
	require.NoError(t, err)
	assert.Equal(t, "New charter text", settings.Charter)

	require.Len(t, f.news.items, 1)
	assert.Equal(t, "Update: Charter", f.news.items[0].Title)
	require.Len(t, f.notifications.notifications, 1)
	global := f.notifications.notifications[0]
	assert.Equal(t, models.NotificationGlobal, global.Kind)
	assert.Equal(t, "boss updated the charter.", global.Text)
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, models.AuditActionSystemUpdate+": Charter", f.audit.entries[0].Action)
	sum := sha256.Sum256([]byte("New charter text"))
	assert.Equal(t, "Length: 16; SHA-256: "+hex.EncodeToString(sum[:])[:12], f.audit.entries[0].Details)
	assert.Equal(t, []string{settingsCacheKey + "*"}, f.cache.invalidated)
	assert.Len(t, f.publisher.published, 1)
}

func TestUpdateCharterValidation(t *testing.T) {
	f := newSettingsFixture(member("boss", 9), member("agent", 4))

	_, err := f.svc.UpdateCharter(context.Background(), "boss", "  ")
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.svc.UpdateCharter(context.Background(), "agent", "text")
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	assert.Empty(t, f.news.items)
	assert.Empty(t, f.audit.entries)
}

func TestUpdatePromotionSystemRejectsUnparsableProbation(t *testing.T) {
	f := newSettingsFixture(member("boss", 9))
	system := models.DefaultSettings().PromotionSystem
	system.AgentPromotions[0].Probation = ptr("a couple of days")

	_, err := f.svc.UpdatePromotionSystem(context.Background(), "boss", system)
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, f.store.records)

	system.AgentPromotions[0].Probation = ptr("[3000000 hours]")
	_, err = f.svc.UpdatePromotionSystem(context.Background(), "boss", system)
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, f.store.records)

	system.AgentPromotions[0].Probation = ptr("[12 hours]")
	system.AgentPromotions[1].Probation = nil
	settings, err := f.svc.UpdatePromotionSystem(context.Background(), "boss", system)
	require.NoError(t, err)
	assert.Equal(t, "[12 hours]", *settings.PromotionSystem.AgentPromotions[0].Probation)
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, "Academy stages: 3; Rules: 5; Probation: [12 hours], none, [72 hours], [96 hours], [120 hours]", f.audit.entries[0].Details)
}

func TestUpdatePenaltySystemRecordsSummary(t *testing.T) {
	f := newSettingsFixture(member("boss", 9))
	_, err := f.svc.UpdatePenaltySystem(context.Background(), "boss", models.PenaltySystem{
		Title:        "Penalty removal",
		Requirements: []string{"Apologise in public"},
	})
	require.NoError(t, err)
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, models.AuditActionSystemUpdate+": Penalty rules", f.audit.entries[0].Action)
	assert.Equal(t, "Title: Penalty removal; Requirements: 1", f.audit.entries[0].Details)
}

func TestUpdateRankNames(t *testing.T) {
	f := newSettingsFixture(admin("root"), member("boss", 9))
	names := append([]string(nil), models.DefaultSettings().RankNames...)
	names[0] = "Recruit"

	_, err := f.svc.UpdateRankNames(context.Background(), "boss", names)
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = f.svc.UpdateRankNames(context.Background(), "root", names[:5])
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.svc.UpdateRankNames(context.Background(), "root", append(append([]string(nil), names...), "Chief"))
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, f.store.records)

	settings, err := f.svc.UpdateRankNames(context.Background(), "root", names)
	require.NoError(t, err)
	assert.Equal(t, "Recruit", settings.RankName(0))
	require.Len(t, f.audit.entries, 1)
	assert.True(t, strings.HasPrefix(f.audit.entries[0].Details, "Old: Cadet,"))
	assert.Contains(t, f.audit.entries[0].Details, "New: Recruit,")
	assert.Empty(t, f.notifications.notifications)
}

func TestUpdateDepartmentsKeepsRequiredKeys(t *testing.T) {
	f := newSettingsFixture(admin("root"))

	_, err := f.svc.UpdateDepartments(context.Background(), "root", map[string]string{"CID": "Investigations"})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	settings, err := f.svc.UpdateDepartments(context.Background(), "root", map[string]string{
		"academy":    "Academy",
		"MANAGEMENT": "Management",
		"cid":        "Investigations",
	})
	require.NoError(t, err)
	assert.Equal(t, "Investigations", settings.DepartmentName("CID"))
	_, stillThere := settings.Departments["SWAT"]
	assert.False(t, stillThere)
}
