package services

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/chhinhsovath/plp-telegram-manager/internal/filestore"
	"github.com/chhinhsovath/plp-telegram-manager/internal/repositories"
	"github.com/chhinhsovath/plp-telegram-manager/internal/storage"
	"github.com/chhinhsovath/plp-telegram-manager/internal/telegram"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, storage.Migrate(db))
	return db
}

// secondConnection opens another handle on the same shared-cache database,
// so a test can commit rows independently of the stack's connection.
func secondConnection(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db
}

// fakeAPI is an in-memory stand-in for the Bot API.
type fakeAPI struct {
	me          *telego.User
	memberCount int
	countErr    error
	filePaths   map[string]string
	fileErr     error
	baseURL     string
}

func (f *fakeAPI) GetMe() (*telego.User, error) {
	if f.me == nil {
		return nil, errors.New("no bot identity")
	}
	return f.me, nil
}

func (f *fakeAPI) GetChatMemberCount(_ *telego.GetChatMemberCountParams) (*int, error) {
	if f.countErr != nil {
		return nil, f.countErr
	}
	count := f.memberCount
	return &count, nil
}

func (f *fakeAPI) GetFile(params *telego.GetFileParams) (*telego.File, error) {
	if f.fileErr != nil {
		return nil, f.fileErr
	}
	filePath, ok := f.filePaths[params.FileID]
	if !ok {
		return nil, errors.New("file not found")
	}
	return &telego.File{FileID: params.FileID, FilePath: filePath}, nil
}

func (f *fakeAPI) FileDownloadURL(filepath string) string {
	return f.baseURL + "/" + filepath
}

// fakeStore keeps saved objects in memory.
type fakeStore struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{files: map[string][]byte{}}
}

func (s *fakeStore) Save(name string, r io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = data
	return "mem://" + name, nil
}

func (s *fakeStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// testStack bundles one fully wired service set over a fresh database.
type testStack struct {
	db          *gorm.DB
	api         *fakeAPI
	groups      *repositories.GroupRepository
	users       *repositories.UserRepository
	memberships *repositories.MembershipRepository
	messages    *repositories.MessageRepository
	attachments *repositories.AttachmentRepository
	analytics   *repositories.AnalyticsRepository
	registry    *RegistryService
	ingest      *IngestService
}

func newTestStack(t *testing.T, api *fakeAPI, store *fakeStore) *testStack {
	t.Helper()
	db := testDB(t)
	logger := zap.NewNop()

	s := &testStack{
		db:          db,
		api:         api,
		groups:      repositories.NewGroupRepository(db),
		users:       repositories.NewUserRepository(db),
		memberships: repositories.NewMembershipRepository(db),
		messages:    repositories.NewMessageRepository(db),
		attachments: repositories.NewAttachmentRepository(db),
		analytics:   repositories.NewAnalyticsRepository(db),
	}

	apiIface := apiOrNil(api)
	s.registry = NewRegistryService(s.groups, s.users, apiIface, "plp.local", logger)

	attachmentService := NewAttachmentService(s.attachments, apiIface, storeOrNil(store), nil, logger)
	analyticsService := NewAnalyticsService(s.analytics, logger)

	s.ingest = NewIngestService(
		db, s.registry, s.users, s.groups, s.memberships, s.messages,
		attachmentService, analyticsService, apiIface, 0, logger,
	)
	return s
}

// apiOrNil avoids handing a typed-nil pointer to the API interface.
func apiOrNil(api *fakeAPI) telegram.API {
	if api == nil {
		return nil
	}
	return api
}

func storeOrNil(store *fakeStore) filestore.Store {
	if store == nil {
		return nil
	}
	return store
}
