package service

import (
	"context"
	"errors"
	"time"

	"botdeck/backend/internal/model"
	"botdeck/backend/internal/util"
	"botdeck/backend/pkg/binance"
	"botdeck/backend/pkg/crypto"
	"botdeck/backend/pkg/logger"
	"botdeck/backend/pkg/threecommas"
)

// ExchangeValidator probes exchange credentials and reads wallet snapshots.
// Satisfied by binance.Client.
type ExchangeValidator interface {
	Validate(ctx context.Context, key, secret string) (binance.PermissionTier, error)
	GetAccountInfo(ctx context.Context, key, secret string) (*binance.AccountInfo, error)
}

// RemoteAccountAPI links exchange accounts on the platform. Satisfied by
// threecommas.Client.
type RemoteAccountAPI interface {
	CreateAccount(ctx context.Context, payload *threecommas.AccountPayload) (*threecommas.Account, error)
	ListAccounts(ctx context.Context) ([]threecommas.Account, error)
}

// CredentialStore is the user persistence surface the credential service
// needs. Satisfied by repository.UserRepository.
type CredentialStore interface {
	GetByID(ctx context.Context, userID string) (*model.User, error)
	UpdateCredential(ctx context.Context, userID string, cred *model.ExchangeCredential) error
}

// CredentialService manages exchange API credentials: validation against the
// exchange, linking on the platform, and encrypted storage.
type CredentialService struct {
	userRepo      CredentialStore
	exchange      ExchangeValidator
	platform      RemoteAccountAPI
	notifier      *NotificationService
	encryptionKey string
	log           *logger.Logger
}

// NewCredentialService creates a new credential service
func NewCredentialService(userRepo CredentialStore, exchange ExchangeValidator, platform RemoteAccountAPI, notifier *NotificationService, encryptionKey string) *CredentialService {
	return &CredentialService{
		userRepo:      userRepo,
		exchange:      exchange,
		platform:      platform,
		notifier:      notifier,
		encryptionKey: encryptionKey,
		log:           logger.GetLogger(),
	}
}

// Connect validates the credentials against the exchange, links them as a
// platform account, and stores them encrypted. Cleartext keys live only for
// the duration of this call.
func (s *CredentialService) Connect(ctx context.Context, userID string, req *model.CredentialRequest) (*model.CredentialResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, util.ErrNotFound("User not found")
	}

	tier, err := s.exchange.Validate(ctx, req.Key, req.Secret)
	if err != nil {
		if errors.Is(err, binance.ErrInvalidCredentials) {
			return nil, util.NewAppError(400, util.ErrCodeInvalidCredentials, "Exchange rejected the API credentials")
		}
		return nil, util.ErrRemoteUnreachable(err)
	}

	account, err := s.platform.CreateAccount(ctx, &threecommas.AccountPayload{
		Type:   "binance",
		Name:   user.Username,
		APIKey: req.Key,
		Secret: req.Secret,
	})
	if err != nil {
		return nil, mapRemoteErr(err)
	}

	encryptedKey, err := crypto.Encrypt(req.Key, s.encryptionKey)
	if err != nil {
		return nil, util.ErrInternalServer("Failed to encrypt API key")
	}
	encryptedSecret, err := crypto.Encrypt(req.Secret, s.encryptionKey)
	if err != nil {
		return nil, util.ErrInternalServer("Failed to encrypt API secret")
	}

	cred := &model.ExchangeCredential{
		EncryptedKey:    encryptedKey,
		EncryptedSecret: encryptedSecret,
		PermissionTier:  string(tier),
		RemoteAccountID: &account.ID,
		ValidatedAt:     time.Now(),
	}

	if err := s.userRepo.UpdateCredential(ctx, userID, cred); err != nil {
		return nil, util.ErrStorage(err)
	}

	resp := credentialResponse(cred)
	if s.notifier != nil {
		s.notifier.NotifyCredentialUpdate(ctx, userID, resp)
	}
	s.log.Infof("Credential connected: user=%s tier=%s account=%d", userID, tier, account.ID)
	return resp, nil
}

// Status reports whether the user has a connected credential. The secret is
// never returned in any form. When the platform is reachable the linked
// account is cross-checked against it; an account deleted out-of-band on the
// platform reports as disconnected even though a credential is still stored.
func (s *CredentialService) Status(ctx context.Context, userID string) (*model.CredentialResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, util.ErrNotFound("User not found")
	}
	if user.Credential == nil {
		return &model.CredentialResponse{Connected: false}, nil
	}

	if user.Credential.RemoteAccountID != nil {
		accounts, err := s.platform.ListAccounts(ctx)
		if err != nil {
			// Unreachable platform degrades to the stored state.
			s.log.Warnf("Failed to verify platform account for user %s: %v", userID, err)
		} else if !containsAccount(accounts, *user.Credential.RemoteAccountID) {
			s.log.Warnf("Platform account %d for user %s no longer exists", *user.Credential.RemoteAccountID, userID)
			return &model.CredentialResponse{Connected: false}, nil
		}
	}
	return credentialResponse(user.Credential), nil
}

func containsAccount(accounts []threecommas.Account, id int64) bool {
	for i := range accounts {
		if accounts[i].ID == id {
			return true
		}
	}
	return false
}

// Disconnect drops the stored credential. Bots already provisioned keep
// their platform account link; only new provisioning is blocked.
func (s *CredentialService) Disconnect(ctx context.Context, userID string) error {
	if err := s.userRepo.UpdateCredential(ctx, userID, nil); err != nil {
		return util.ErrStorage(err)
	}

	if s.notifier != nil {
		s.notifier.NotifyCredentialUpdate(ctx, userID, &model.CredentialResponse{Connected: false})
	}
	s.log.Infof("Credential disconnected: user=%s", userID)
	return nil
}

// Wallet reads the user's exchange wallet snapshot straight through. Nothing
// is cached; balances are too volatile to be worth staleness bugs.
func (s *CredentialService) Wallet(ctx context.Context, userID string) (*binance.AccountInfo, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, util.ErrNotFound("User not found")
	}
	if user.Credential == nil {
		return nil, util.ErrPrecondition("No exchange account linked; connect credentials first")
	}

	key, err := crypto.Decrypt(user.Credential.EncryptedKey, s.encryptionKey)
	if err != nil {
		return nil, util.ErrInternalServer("Failed to decrypt API key")
	}
	secret, err := crypto.Decrypt(user.Credential.EncryptedSecret, s.encryptionKey)
	if err != nil {
		return nil, util.ErrInternalServer("Failed to decrypt API secret")
	}

	info, err := s.exchange.GetAccountInfo(ctx, key, secret)
	if err != nil {
		return nil, util.ErrRemoteUnreachable(err)
	}
	return info, nil
}

func credentialResponse(cred *model.ExchangeCredential) *model.CredentialResponse {
	validatedAt := cred.ValidatedAt
	return &model.CredentialResponse{
		Connected:       true,
		PermissionTier:  cred.PermissionTier,
		RemoteAccountID: cred.RemoteAccountID,
		ValidatedAt:     &validatedAt,
	}
}
