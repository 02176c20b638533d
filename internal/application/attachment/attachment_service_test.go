package attachment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yunmao/backend/internal/domain/attachment"
	"github.com/yunmao/backend/internal/domain/shared"
)

// MockAttachmentRepository is a mock implementation of attachment.Repository
type MockAttachmentRepository struct {
	mock.Mock
}

func (m *MockAttachmentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*attachment.Attachment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*attachment.Attachment), args.Error(1)
}

func (m *MockAttachmentRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]attachment.Attachment, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]attachment.Attachment), args.Error(1)
}

func (m *MockAttachmentRepository) ExistsByStorageKey(ctx context.Context, tenantID uuid.UUID, storageKey string) (bool, error) {
	args := m.Called(ctx, tenantID, storageKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttachmentRepository) Save(ctx context.Context, a *attachment.Attachment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

// MockObjectStorage is a mock implementation of ObjectStorage
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	args := m.Called(ctx, storageKey)
	return args.Bool(0), args.Error(1)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func validRequest() RegisterAttachmentRequest {
	return RegisterAttachmentRequest{
		FileName:    "invoice.pdf",
		FileSize:    2048,
		ContentType: "application/pdf",
		StorageKey:  "tenant/invoices/invoice.pdf",
		Description: "  scanned copy ",
	}
}

func TestAttachmentService_Register(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	userID := uuid.New()
	req := validRequest()

	repo := new(MockAttachmentRepository)
	storage := new(MockObjectStorage)
	publisher := new(MockEventPublisher)

	repo.On("ExistsByStorageKey", mock.Anything, tenantID, req.StorageKey).Return(false, nil)
	storage.On("ObjectExists", mock.Anything, req.StorageKey).Return(true, nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*attachment.Attachment")).Return(nil)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(events []shared.DomainEvent) bool {
		return len(events) == 1 && events[0].EventType() == attachment.EventTypeAttachmentRegistered
	})).Return(nil)

	svc := NewAttachmentService(repo, storage, publisher, nil)
	resp, err := svc.Register(ctx, tenantID, req, &userID)

	require.NoError(t, err)
	assert.Equal(t, tenantID, resp.TenantID)
	assert.Equal(t, "invoice.pdf", resp.FileName)
	assert.Equal(t, "scanned copy", resp.Description)
	require.NotNil(t, resp.CreatedBy)
	assert.Equal(t, userID, *resp.CreatedBy)
	repo.AssertExpectations(t)
	storage.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestAttachmentService_Register_DuplicateKey(t *testing.T) {
	tenantID := uuid.New()
	req := validRequest()

	repo := new(MockAttachmentRepository)
	storage := new(MockObjectStorage)
	repo.On("ExistsByStorageKey", mock.Anything, tenantID, req.StorageKey).Return(true, nil)

	svc := NewAttachmentService(repo, storage, nil, nil)
	_, err := svc.Register(context.Background(), tenantID, req, nil)

	assert.ErrorIs(t, err, ErrStorageKeyInUse)
	storage.AssertNotCalled(t, "ObjectExists", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAttachmentService_Register_ObjectMissing(t *testing.T) {
	tenantID := uuid.New()
	req := validRequest()

	repo := new(MockAttachmentRepository)
	storage := new(MockObjectStorage)
	repo.On("ExistsByStorageKey", mock.Anything, tenantID, req.StorageKey).Return(false, nil)
	storage.On("ObjectExists", mock.Anything, req.StorageKey).Return(false, nil)

	svc := NewAttachmentService(repo, storage, nil, nil)
	_, err := svc.Register(context.Background(), tenantID, req, nil)

	assert.ErrorIs(t, err, ErrObjectNotInStorage)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAttachmentService_Register_StorageError(t *testing.T) {
	tenantID := uuid.New()
	req := validRequest()

	repo := new(MockAttachmentRepository)
	storage := new(MockObjectStorage)
	repo.On("ExistsByStorageKey", mock.Anything, tenantID, req.StorageKey).Return(false, nil)
	storage.On("ObjectExists", mock.Anything, req.StorageKey).Return(false, errors.New("connection refused"))

	svc := NewAttachmentService(repo, storage, nil, nil)
	_, err := svc.Register(context.Background(), tenantID, req, nil)

	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestAttachmentService_Register_NoStorageSkipsCheck(t *testing.T) {
	tenantID := uuid.New()
	req := validRequest()

	repo := new(MockAttachmentRepository)
	repo.On("ExistsByStorageKey", mock.Anything, tenantID, req.StorageKey).Return(false, nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	svc := NewAttachmentService(repo, nil, nil, nil)
	_, err := svc.Register(context.Background(), tenantID, req, nil)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestAttachmentService_Register_InvalidKey(t *testing.T) {
	req := validRequest()
	req.StorageKey = "../etc/passwd"

	repo := new(MockAttachmentRepository)
	svc := NewAttachmentService(repo, nil, nil, nil)
	_, err := svc.Register(context.Background(), uuid.New(), req, nil)

	require.Error(t, err)
	repo.AssertNotCalled(t, "ExistsByStorageKey", mock.Anything, mock.Anything, mock.Anything)
}

func TestAttachmentService_GetByID(t *testing.T) {
	tenantID := uuid.New()
	a, err := attachment.NewAttachment(tenantID, "a.png", 10, "image/png", "k/a.png")
	require.NoError(t, err)

	repo := new(MockAttachmentRepository)
	repo.On("FindByIDForTenant", mock.Anything, tenantID, a.ID).Return(a, nil)
	missing := uuid.New()
	repo.On("FindByIDForTenant", mock.Anything, tenantID, missing).Return(nil, shared.ErrNotFound)

	svc := NewAttachmentService(repo, nil, nil, nil)

	resp, err := svc.GetByID(context.Background(), tenantID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, resp.ID)

	_, err = svc.GetByID(context.Background(), tenantID, missing)
	assert.ErrorIs(t, err, ErrAttachmentNotFound)
}

func TestEnsureAttachmentsExist(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	a1, a2 := uuid.New(), uuid.New()

	t.Run("empty list makes no lookup", func(t *testing.T) {
		repo := new(MockAttachmentRepository)
		assert.NoError(t, EnsureAttachmentsExist(ctx, repo, tenantID, nil))
		repo.AssertNotCalled(t, "FindByIDs", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("duplicates are collapsed", func(t *testing.T) {
		repo := new(MockAttachmentRepository)
		repo.On("FindByIDs", mock.Anything, tenantID, mock.MatchedBy(func(ids []uuid.UUID) bool {
			return len(ids) == 2
		})).Return([]attachment.Attachment{{}, {}}, nil)

		assert.NoError(t, EnsureAttachmentsExist(ctx, repo, tenantID, []uuid.UUID{a1, a2, a1}))
	})

	t.Run("missing attachment", func(t *testing.T) {
		repo := new(MockAttachmentRepository)
		repo.On("FindByIDs", mock.Anything, tenantID, mock.Anything).Return([]attachment.Attachment{{}}, nil)

		assert.ErrorIs(t, EnsureAttachmentsExist(ctx, repo, tenantID, []uuid.UUID{a1, a2}), ErrAttachmentNotFound)
	})

	t.Run("nil id", func(t *testing.T) {
		repo := new(MockAttachmentRepository)
		assert.Error(t, EnsureAttachmentsExist(ctx, repo, tenantID, []uuid.UUID{uuid.Nil}))
	})
}
