package services

import (
	"errors"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/chhinhsovath/plp-telegram-manager/internal/models"
)

func TestEnsureGroup(t *testing.T) {
	api := &fakeAPI{memberCount: 12}
	s := newTestStack(t, api, nil)

	chat := telego.Chat{ID: -100500, Type: telego.ChatTypeSupergroup, Title: "Grade 4 Khmer", Username: "grade4"}

	group, err := s.registry.EnsureGroup(chat)
	require.NoError(t, err)
	assert.Equal(t, int64(-100500), group.TelegramID)
	assert.Equal(t, "Grade 4 Khmer", group.Title)
	assert.Equal(t, 12, group.MemberCount)
	assert.True(t, group.IsActive)

	t.Run("idempotent", func(t *testing.T) {
		again, err := s.registry.EnsureGroup(chat)
		require.NoError(t, err)
		assert.Equal(t, group.ID, again.ID)

		count, err := s.groups.Count()
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("existing row does not refresh title", func(t *testing.T) {
		renamed := chat
		renamed.Title = "Renamed"
		got, err := s.registry.EnsureGroup(renamed)
		require.NoError(t, err)
		assert.Equal(t, "Grade 4 Khmer", got.Title)
	})
}

func TestEnsureGroupMemberCountFailure(t *testing.T) {
	api := &fakeAPI{countErr: errors.New("chat not found")}
	s := newTestStack(t, api, nil)

	group, err := s.registry.EnsureGroup(telego.Chat{ID: -1, Type: telego.ChatTypeGroup, Title: "G"})
	require.NoError(t, err)
	assert.Equal(t, 0, group.MemberCount)
}

func TestEnsureUser(t *testing.T) {
	s := newTestStack(t, &fakeAPI{}, nil)

	from := &telego.User{ID: 999, FirstName: "Sok", LastName: "Dara", Username: "sokdara"}

	user, err := s.registry.EnsureUser(from)
	require.NoError(t, err)
	assert.Equal(t, int64(999), user.TelegramID)
	assert.Equal(t, "Sok Dara", user.Name)
	assert.Equal(t, "sokdara", user.Username)
	assert.Equal(t, "telegram_999@plp.local", user.Email)

	t.Run("idempotent", func(t *testing.T) {
		again, err := s.registry.EnsureUser(from)
		require.NoError(t, err)
		assert.Equal(t, user.ID, again.ID)

		count, err := s.users.Count()
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("first name only", func(t *testing.T) {
		solo, err := s.registry.EnsureUser(&telego.User{ID: 1000, FirstName: "Mony"})
		require.NoError(t, err)
		assert.Equal(t, "Mony", solo.Name)
	})
}

// TestEnsureUserCreateRace loses the first-contact race on purpose: a rival
// row lands on a second connection between the lookup miss and the create,
// and the caller must resolve to that row instead of erroring out.
func TestEnsureUserCreateRace(t *testing.T) {
	s := newTestStack(t, nil, nil)
	rivalDB := secondConnection(t)

	var rivalID uint
	injected := false
	err := s.db.Callback().Create().Before("gorm:create").Register("rival_user", func(tx *gorm.DB) {
		if injected {
			return
		}
		if _, ok := tx.Statement.Dest.(*models.User); !ok {
			return
		}
		injected = true
		rival := &models.User{TelegramID: 777, Name: "First Caller", Email: "telegram_777@plp.local"}
		require.NoError(t, rivalDB.Create(rival).Error)
		rivalID = rival.ID
	})
	require.NoError(t, err)
	defer s.db.Callback().Create().Remove("rival_user")

	user, err := s.registry.EnsureUser(&telego.User{ID: 777, FirstName: "Second", LastName: "Caller"})
	require.NoError(t, err)
	require.True(t, injected)
	assert.Equal(t, rivalID, user.ID)
	assert.Equal(t, "First Caller", user.Name)

	count, err := s.users.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestEnsureGroupCreateRace(t *testing.T) {
	s := newTestStack(t, nil, nil)
	rivalDB := secondConnection(t)

	var rivalID uint
	injected := false
	err := s.db.Callback().Create().Before("gorm:create").Register("rival_group", func(tx *gorm.DB) {
		if injected {
			return
		}
		if _, ok := tx.Statement.Dest.(*models.Group); !ok {
			return
		}
		injected = true
		rival := &models.Group{TelegramID: -42, Title: "First Delivery", IsActive: true}
		require.NoError(t, rivalDB.Create(rival).Error)
		rivalID = rival.ID
	})
	require.NoError(t, err)
	defer s.db.Callback().Create().Remove("rival_group")

	group, err := s.registry.EnsureGroup(telego.Chat{ID: -42, Type: telego.ChatTypeGroup, Title: "Second Delivery"})
	require.NoError(t, err)
	require.True(t, injected)
	assert.Equal(t, rivalID, group.ID)
	assert.Equal(t, "First Delivery", group.Title)

	count, err := s.groups.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Sok Dara", DisplayName(&telego.User{FirstName: "Sok", LastName: "Dara"}))
	assert.Equal(t, "Sok", DisplayName(&telego.User{FirstName: "Sok"}))
	assert.Equal(t, "Dara", DisplayName(&telego.User{LastName: "Dara"}))
	assert.Equal(t, "", DisplayName(&telego.User{}))
}

func TestPlaceholderEmail(t *testing.T) {
	s := newTestStack(t, nil, nil)
	assert.Equal(t, "telegram_42@plp.local", s.registry.PlaceholderEmail(42))
	assert.Equal(t, "telegram_-100@plp.local", s.registry.PlaceholderEmail(-100))
}

func TestFetchMemberCountWithoutClient(t *testing.T) {
	s := newTestStack(t, nil, nil)
	assert.Equal(t, 0, s.registry.FetchMemberCount(-1))
}
