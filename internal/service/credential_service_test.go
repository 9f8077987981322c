package service

import (
	"context"
	"testing"

	"botdeck/backend/internal/model"
	"botdeck/backend/internal/util"
	"botdeck/backend/pkg/binance"
	"botdeck/backend/pkg/crypto"
	"botdeck/backend/pkg/threecommas"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testEncryptionKey = "0123456789abcdef0123456789abcdef"

type memUsers struct {
	users map[string]*model.User
}

func (s *memUsers) GetByID(ctx context.Context, userID string) (*model.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return nil, assert.AnError
	}
	return user, nil
}

func (s *memUsers) UpdateCredential(ctx context.Context, userID string, cred *model.ExchangeCredential) error {
	user, ok := s.users[userID]
	if !ok {
		return assert.AnError
	}
	user.Credential = cred
	return nil
}

type mockExchange struct {
	mock.Mock
}

func (m *mockExchange) Validate(ctx context.Context, key, secret string) (binance.PermissionTier, error) {
	args := m.Called(ctx, key, secret)
	return args.Get(0).(binance.PermissionTier), args.Error(1)
}

func (m *mockExchange) GetAccountInfo(ctx context.Context, key, secret string) (*binance.AccountInfo, error) {
	args := m.Called(ctx, key, secret)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*binance.AccountInfo), args.Error(1)
}

type mockPlatformAccounts struct {
	mock.Mock
}

func (m *mockPlatformAccounts) CreateAccount(ctx context.Context, payload *threecommas.AccountPayload) (*threecommas.Account, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*threecommas.Account), args.Error(1)
}

func (m *mockPlatformAccounts) ListAccounts(ctx context.Context) ([]threecommas.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]threecommas.Account), args.Error(1)
}

func newCredentialFixture() (*CredentialService, *memUsers, *mockExchange, *mockPlatformAccounts) {
	users := &memUsers{users: map[string]*model.User{
		"alice": {ID: "alice", Username: "alice", Status: model.StatusActive},
	}}
	exchange := new(mockExchange)
	platform := new(mockPlatformAccounts)
	svc := NewCredentialService(users, exchange, platform, nil, testEncryptionKey)
	return svc, users, exchange, platform
}

func TestConnectCredential(t *testing.T) {
	t.Run("stores encrypted credential with tier and account", func(t *testing.T) {
		svc, users, exchange, platform := newCredentialFixture()
		exchange.On("Validate", mock.Anything, "k", "s").Return(binance.TierFull, nil)
		platform.On("CreateAccount", mock.Anything, mock.Anything).
			Return(&threecommas.Account{ID: 77}, nil)

		resp, err := svc.Connect(context.Background(), "alice", &model.CredentialRequest{Key: "k", Secret: "s"})
		require.NoError(t, err)

		assert.True(t, resp.Connected)
		assert.Equal(t, string(binance.TierFull), resp.PermissionTier)
		assert.Equal(t, int64(77), *resp.RemoteAccountID)

		cred := users.users["alice"].Credential
		require.NotNil(t, cred)
		assert.NotEqual(t, "k", cred.EncryptedKey)
		assert.NotEqual(t, "s", cred.EncryptedSecret)

		// Round-trips back to cleartext with the right key.
		key, err := crypto.Decrypt(cred.EncryptedKey, testEncryptionKey)
		require.NoError(t, err)
		assert.Equal(t, "k", key)
	})

	t.Run("rejected credentials never reach the platform", func(t *testing.T) {
		svc, users, exchange, platform := newCredentialFixture()
		exchange.On("Validate", mock.Anything, "k", "s").
			Return(binance.PermissionTier(""), binance.ErrInvalidCredentials)

		_, err := svc.Connect(context.Background(), "alice", &model.CredentialRequest{Key: "k", Secret: "s"})
		require.Error(t, err)
		assert.True(t, util.HasCode(err, util.ErrCodeInvalidCredentials))
		platform.AssertNotCalled(t, "CreateAccount")
		assert.Nil(t, users.users["alice"].Credential)
	})

	t.Run("platform rejection stores nothing", func(t *testing.T) {
		svc, users, exchange, platform := newCredentialFixture()
		exchange.On("Validate", mock.Anything, "k", "s").Return(binance.TierBasic, nil)
		platform.On("CreateAccount", mock.Anything, mock.Anything).
			Return(nil, &threecommas.RemoteError{StatusCode: 422, Body: "unsupported market"})

		_, err := svc.Connect(context.Background(), "alice", &model.CredentialRequest{Key: "k", Secret: "s"})
		require.Error(t, err)
		assert.True(t, util.HasCode(err, util.ErrCodeRemoteRejected))
		assert.Nil(t, users.users["alice"].Credential)
	})
}

func TestCredentialStatus(t *testing.T) {
	connected := func(t *testing.T) (*CredentialService, *mockPlatformAccounts) {
		t.Helper()
		svc, _, exchange, platform := newCredentialFixture()
		exchange.On("Validate", mock.Anything, "k", "s").Return(binance.TierFull, nil)
		platform.On("CreateAccount", mock.Anything, mock.Anything).
			Return(&threecommas.Account{ID: 77}, nil)
		_, err := svc.Connect(context.Background(), "alice", &model.CredentialRequest{Key: "k", Secret: "s"})
		require.NoError(t, err)
		return svc, platform
	}

	t.Run("reports the linked account while it exists on the platform", func(t *testing.T) {
		svc, platform := connected(t)
		platform.On("ListAccounts", mock.Anything).
			Return([]threecommas.Account{{ID: 77, Name: "alice"}}, nil)

		status, err := svc.Status(context.Background(), "alice")
		require.NoError(t, err)
		assert.True(t, status.Connected)
		assert.Equal(t, int64(77), *status.RemoteAccountID)
	})

	t.Run("reports disconnected when the platform account is gone", func(t *testing.T) {
		svc, platform := connected(t)
		platform.On("ListAccounts", mock.Anything).
			Return([]threecommas.Account{{ID: 12, Name: "someone-else"}}, nil)

		status, err := svc.Status(context.Background(), "alice")
		require.NoError(t, err)
		assert.False(t, status.Connected)
	})

	t.Run("degrades to stored state when the platform is unreachable", func(t *testing.T) {
		svc, platform := connected(t)
		platform.On("ListAccounts", mock.Anything).
			Return(nil, &threecommas.RemoteError{Unreachable: true, Err: assert.AnError})

		status, err := svc.Status(context.Background(), "alice")
		require.NoError(t, err)
		assert.True(t, status.Connected)
	})
}

func TestDisconnectCredential(t *testing.T) {
	svc, users, exchange, platform := newCredentialFixture()
	exchange.On("Validate", mock.Anything, "k", "s").Return(binance.TierMinimal, nil)
	platform.On("CreateAccount", mock.Anything, mock.Anything).
		Return(&threecommas.Account{ID: 77}, nil)

	_, err := svc.Connect(context.Background(), "alice", &model.CredentialRequest{Key: "k", Secret: "s"})
	require.NoError(t, err)

	require.NoError(t, svc.Disconnect(context.Background(), "alice"))
	assert.Nil(t, users.users["alice"].Credential)

	status, err := svc.Status(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, status.Connected)
}

func TestWallet(t *testing.T) {
	t.Run("decrypts stored keys for the read-through", func(t *testing.T) {
		svc, _, exchange, platform := newCredentialFixture()
		exchange.On("Validate", mock.Anything, "k", "s").Return(binance.TierFull, nil)
		platform.On("CreateAccount", mock.Anything, mock.Anything).
			Return(&threecommas.Account{ID: 77}, nil)
		exchange.On("GetAccountInfo", mock.Anything, "k", "s").
			Return(&binance.AccountInfo{CanTrade: true}, nil)

		_, err := svc.Connect(context.Background(), "alice", &model.CredentialRequest{Key: "k", Secret: "s"})
		require.NoError(t, err)

		info, err := svc.Wallet(context.Background(), "alice")
		require.NoError(t, err)
		assert.True(t, info.CanTrade)
	})

	t.Run("requires a connected credential", func(t *testing.T) {
		svc, _, _, _ := newCredentialFixture()
		_, err := svc.Wallet(context.Background(), "alice")
		require.Error(t, err)
		assert.True(t, util.HasCode(err, util.ErrCodePrecondition))
	})
}
