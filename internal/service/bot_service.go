package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"botdeck/backend/internal/model"
	"botdeck/backend/internal/repository"
	"botdeck/backend/internal/util"
	"botdeck/backend/pkg/logger"
	"botdeck/backend/pkg/threecommas"
)

// BotStore is the persistence surface the bot service needs. Satisfied by
// repository.BotRepository.
type BotStore interface {
	NextID(ctx context.Context) (int64, error)
	NameTaken(ctx context.Context, userID, name string) (bool, error)
	Create(ctx context.Context, bot *model.Bot) error
	GetByID(ctx context.Context, botID int64) (*model.Bot, error)
	Update(ctx context.Context, bot *model.Bot, oldStatus, oldName string) error
	UpdateStatus(ctx context.Context, botID int64, status string) (*model.Bot, error)
	Delete(ctx context.Context, botID int64) error
	ListByUser(ctx context.Context, userID string) ([]*model.Bot, error)
}

// RemoteBotAPI is the platform surface the bot service calls. Satisfied by
// threecommas.Client.
type RemoteBotAPI interface {
	CreateBot(ctx context.Context, payload *threecommas.BotPayload) (*threecommas.Bot, error)
	UpdateBot(ctx context.Context, botID int64, payload *threecommas.BotPayload) (*threecommas.Bot, error)
	DeleteBot(ctx context.Context, botID int64) error
	PauseBot(ctx context.Context, botID int64) (*threecommas.Bot, error)
	StartNewDeal(ctx context.Context, botID int64) (*threecommas.Bot, error)
	PanicSell(ctx context.Context, botID int64) (*threecommas.Bot, error)
	ListDeals(ctx context.Context, botID int64, limit, offset int) ([]threecommas.Deal, error)
}

// UserReader resolves bot owners to their linked platform account.
type UserReader interface {
	GetByID(ctx context.Context, userID string) (*model.User, error)
}

// BotService orchestrates bot lifecycle operations. Every mutating call goes
// to the platform first and only touches the local record on success; delete
// is the one exception and removes the local record before the best-effort
// remote delete.
type BotService struct {
	store    BotStore
	remote   RemoteBotAPI
	users    UserReader
	notifier *NotificationService
	log      *logger.Logger

	// Per-bot locks serialize the remote-call+local-write sequence so two
	// concurrent transitions on the same bot cannot interleave.
	lockMu sync.Mutex
	locks  map[int64]*sync.Mutex
}

// NewBotService creates a new bot service. notifier may be nil in tests.
func NewBotService(store BotStore, remote RemoteBotAPI, users UserReader, notifier *NotificationService) *BotService {
	return &BotService{
		store:    store,
		remote:   remote,
		users:    users,
		notifier: notifier,
		log:      logger.GetLogger(),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// lockBot acquires the per-bot lock and returns the unlock func.
func (s *BotService) lockBot(botID int64) func() {
	s.lockMu.Lock()
	mu, ok := s.locks[botID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[botID] = mu
	}
	s.lockMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// mapRemoteErr translates a platform client error into an API error.
func mapRemoteErr(err error) error {
	var rerr *threecommas.RemoteError
	if errors.As(err, &rerr) {
		if rerr.Unreachable {
			return util.ErrRemoteUnreachable(err)
		}
		return util.ErrRemoteRejected(rerr.StatusCode, rerr.Body)
	}
	return util.ErrRemoteUnreachable(err)
}

// getOwned loads a bot and enforces ownership. Missing and not-owned are
// indistinguishable to the caller: both come back as a plain not-found so
// bot ids cannot be probed across users.
func (s *BotService) getOwned(ctx context.Context, userID string, botID int64) (*model.Bot, error) {
	bot, err := s.store.GetByID(ctx, botID)
	if err != nil {
		if errors.Is(err, repository.ErrBotNotFound) {
			return nil, util.ErrBotNotFound()
		}
		return nil, util.ErrStorage(err)
	}
	if bot.UserID != userID {
		return nil, util.ErrBotNotFound()
	}
	return bot, nil
}

// remotePayload maps a local bot record to the platform's create/update body.
func remotePayload(bot *model.Bot, accountID int64, active bool) *threecommas.BotPayload {
	strategy := threecommas.StrategyLong
	if bot.Direction == model.DirectionShort {
		strategy = threecommas.StrategyShort
	}
	botType := threecommas.BotTypeSimple
	if bot.Kind == model.BotKindMulti {
		botType = threecommas.BotTypeComposite
	}

	return &threecommas.BotPayload{
		AccountID:                 accountID,
		Name:                      bot.Name,
		Pairs:                     []string{bot.Pair},
		Strategy:                  strategy,
		Type:                      botType,
		ProfitCurrency:            bot.ProfitCurrency,
		BaseOrderVolume:           bot.BaseOrderSize,
		BaseOrderVolumeType:       "quote_currency",
		StartOrderType:            bot.StartOrderType,
		TakeProfit:                bot.TargetProfitPercent,
		TakeProfitType:            bot.TakeProfitType,
		SafetyOrderVolume:         bot.SafetyOrderVolume,
		MaxSafetyOrders:           bot.MaxSafetyOrders,
		SafetyOrderStepPercentage: bot.SafetyOrderStepPercent,
		// The platform treats zero coefficients as invalid; 1.0 means
		// flat safety-order sizing, which is what the local schema
		// expresses.
		MartingaleVolumeCoefficient: 1.0,
		MartingaleStepCoefficient:   1.0,
		StopLossPercentage:          bot.StopLossPercent,
		Cooldown:                    bot.CooldownSeconds,
		Active:                      active,
	}
}

// accountIDFor resolves the owner's linked platform account. Owners without
// a validated credential cannot provision bots.
func (s *BotService) accountIDFor(ctx context.Context, userID string) (int64, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return 0, util.ErrStorage(err)
	}
	if !user.HasCredential() {
		return 0, util.ErrPrecondition("No exchange account linked; connect credentials first")
	}
	return *user.Credential.RemoteAccountID, nil
}

// Create provisions a bot on the platform and mirrors it locally. Nothing is
// persisted when the platform call fails, so the name stays reusable.
func (s *BotService) Create(ctx context.Context, userID string, req *model.BotRequest) (*model.Bot, error) {
	req.Normalize()

	accountID, err := s.accountIDFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Name uniqueness is checked before the platform sees the request.
	taken, err := s.store.NameTaken(ctx, userID, req.Name)
	if err != nil {
		return nil, util.ErrStorage(err)
	}
	if taken {
		return nil, util.ErrConflict(fmt.Sprintf("Bot name %q already in use", req.Name))
	}

	botID, err := s.store.NextID(ctx)
	if err != nil {
		return nil, util.ErrStorage(err)
	}

	now := time.Now()
	bot := &model.Bot{
		ID:            botID,
		UserID:        userID,
		ConfigVersion: 1,
		Status:        model.BotStatusRunning,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	req.ApplyTo(bot)

	remote, err := s.remote.CreateBot(ctx, remotePayload(bot, accountID, true))
	if err != nil {
		return nil, mapRemoteErr(err)
	}

	bot.RemoteID = &remote.ID

	if err := s.store.Create(ctx, bot); err != nil {
		if errors.Is(err, repository.ErrNameTaken) {
			// Lost the claim to a concurrent create after the platform call
			// already went through. Roll the remote bot back best-effort.
			if derr := s.remote.DeleteBot(ctx, remote.ID); derr != nil {
				s.log.Errorf("Failed to roll back remote bot %d after name conflict: %v", remote.ID, derr)
			}
			return nil, util.ErrConflict(fmt.Sprintf("Bot name %q already in use", req.Name))
		}
		return nil, util.ErrStorage(err)
	}

	s.notifyBot(ctx, bot)
	s.log.Infof("Bot created: id=%d remote_id=%d user=%s", bot.ID, remote.ID, userID)
	return bot, nil
}

// Get returns one of the caller's bots.
func (s *BotService) Get(ctx context.Context, userID string, botID int64) (*model.Bot, error) {
	return s.getOwned(ctx, userID, botID)
}

// List returns all of the caller's bots.
func (s *BotService) List(ctx context.Context, userID string) ([]*model.Bot, error) {
	bots, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, util.ErrStorage(err)
	}
	return bots, nil
}

// Update replaces a bot's configuration on the platform, then locally. The
// config version increments only when the platform accepted the change.
func (s *BotService) Update(ctx context.Context, userID string, botID int64, req *model.BotRequest) (*model.Bot, error) {
	unlock := s.lockBot(botID)
	defer unlock()

	bot, err := s.getOwned(ctx, userID, botID)
	if err != nil {
		return nil, err
	}
	if bot.RemoteID == nil {
		return nil, util.ErrPrecondition("Bot has no platform record")
	}

	req.Normalize()

	if req.Name != bot.Name {
		taken, err := s.store.NameTaken(ctx, userID, req.Name)
		if err != nil {
			return nil, util.ErrStorage(err)
		}
		if taken {
			return nil, util.ErrConflict(fmt.Sprintf("Bot name %q already in use", req.Name))
		}
	}

	accountID, err := s.accountIDFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	oldStatus, oldName := bot.Status, bot.Name
	updated := *bot
	req.ApplyTo(&updated)
	updated.ConfigVersion = bot.ConfigVersion + 1
	updated.UpdatedAt = time.Now()

	if _, err := s.remote.UpdateBot(ctx, *bot.RemoteID, remotePayload(&updated, accountID, bot.Status == model.BotStatusRunning)); err != nil {
		return nil, mapRemoteErr(err)
	}

	if err := s.store.Update(ctx, &updated, oldStatus, oldName); err != nil {
		if errors.Is(err, repository.ErrNameTaken) {
			return nil, util.ErrConflict(fmt.Sprintf("Bot name %q already in use", req.Name))
		}
		return nil, util.ErrStorage(err)
	}

	s.notifyBot(ctx, &updated)
	return &updated, nil
}

// Pause stops a running bot from opening new deals. Open deals keep running
// on the platform side.
func (s *BotService) Pause(ctx context.Context, userID string, botID int64) (*model.Bot, error) {
	unlock := s.lockBot(botID)
	defer unlock()

	bot, err := s.getOwned(ctx, userID, botID)
	if err != nil {
		return nil, err
	}
	if !bot.CanPause() {
		return nil, util.ErrPrecondition(fmt.Sprintf("Cannot pause bot in status %q", bot.Status))
	}
	if bot.RemoteID == nil {
		return nil, util.ErrPrecondition("Bot has no platform record")
	}

	if _, err := s.remote.PauseBot(ctx, *bot.RemoteID); err != nil {
		return nil, mapRemoteErr(err)
	}

	updated, err := s.store.UpdateStatus(ctx, botID, model.BotStatusPaused)
	if err != nil {
		return nil, util.ErrStorage(err)
	}

	s.notifyBot(ctx, updated)
	return updated, nil
}

// Start resumes a paused or stopped bot and asks the platform to open a
// fresh deal.
func (s *BotService) Start(ctx context.Context, userID string, botID int64) (*model.Bot, error) {
	unlock := s.lockBot(botID)
	defer unlock()

	bot, err := s.getOwned(ctx, userID, botID)
	if err != nil {
		return nil, err
	}
	if !bot.CanStart() {
		return nil, util.ErrPrecondition(fmt.Sprintf("Cannot start bot in status %q", bot.Status))
	}
	if bot.RemoteID == nil {
		return nil, util.ErrPrecondition("Bot has no platform record")
	}

	if _, err := s.remote.StartNewDeal(ctx, *bot.RemoteID); err != nil {
		return nil, mapRemoteErr(err)
	}

	updated, err := s.store.UpdateStatus(ctx, botID, model.BotStatusRunning)
	if err != nil {
		return nil, util.ErrStorage(err)
	}

	s.notifyBot(ctx, updated)
	return updated, nil
}

// Panic liquidates all of a bot's open deals at market and stops the bot.
// Allowed from any status as long as the platform record exists.
func (s *BotService) Panic(ctx context.Context, userID string, botID int64) (*model.Bot, error) {
	unlock := s.lockBot(botID)
	defer unlock()

	bot, err := s.getOwned(ctx, userID, botID)
	if err != nil {
		return nil, err
	}
	if bot.RemoteID == nil {
		return nil, util.ErrPrecondition("Bot has no platform record")
	}

	if _, err := s.remote.PanicSell(ctx, *bot.RemoteID); err != nil {
		return nil, mapRemoteErr(err)
	}

	updated, err := s.store.UpdateStatus(ctx, botID, model.BotStatusStopped)
	if err != nil {
		return nil, util.ErrStorage(err)
	}

	s.notifyBot(ctx, updated)
	return updated, nil
}

// Delete removes the local record first, then deletes the platform bot best
// effort. A remote failure is logged and swallowed: the user's intent to
// drop the bot always wins locally.
func (s *BotService) Delete(ctx context.Context, userID string, botID int64) error {
	unlock := s.lockBot(botID)
	defer unlock()

	bot, err := s.getOwned(ctx, userID, botID)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, botID); err != nil {
		return util.ErrStorage(err)
	}

	if bot.RemoteID != nil {
		if err := s.remote.DeleteBot(ctx, *bot.RemoteID); err != nil {
			s.log.Errorf("Remote delete failed for bot %d (remote %d), local record already removed: %v", botID, *bot.RemoteID, err)
		}
	}

	s.log.Infof("Bot deleted: id=%d user=%s", botID, userID)
	return nil
}

// Duplicate clones a bot's configuration under a new name. The copy is
// provisioned disabled on the platform and starts life paused locally, so a
// fleet of clones never trades before the user reviews it.
func (s *BotService) Duplicate(ctx context.Context, userID string, botID int64, newName string) (*model.Bot, error) {
	src, err := s.getOwned(ctx, userID, botID)
	if err != nil {
		return nil, err
	}

	if newName == "" {
		newName = src.Name + " (copy)"
	}

	accountID, err := s.accountIDFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	taken, err := s.store.NameTaken(ctx, userID, newName)
	if err != nil {
		return nil, util.ErrStorage(err)
	}
	if taken {
		return nil, util.ErrConflict(fmt.Sprintf("Bot name %q already in use", newName))
	}

	newID, err := s.store.NextID(ctx)
	if err != nil {
		return nil, util.ErrStorage(err)
	}

	now := time.Now()
	clone := *src
	clone.ID = newID
	clone.RemoteID = nil
	clone.Name = newName
	clone.ConfigVersion = src.ConfigVersion + 1
	clone.Status = model.BotStatusPaused
	clone.TotalDeals = 0
	clone.TotalProfit = 0
	clone.LastDealAt = nil
	clone.CreatedAt = now
	clone.UpdatedAt = now

	remote, err := s.remote.CreateBot(ctx, remotePayload(&clone, accountID, false))
	if err != nil {
		return nil, mapRemoteErr(err)
	}

	clone.RemoteID = &remote.ID

	if err := s.store.Create(ctx, &clone); err != nil {
		if errors.Is(err, repository.ErrNameTaken) {
			if derr := s.remote.DeleteBot(ctx, remote.ID); derr != nil {
				s.log.Errorf("Failed to roll back remote bot %d after name conflict: %v", remote.ID, derr)
			}
			return nil, util.ErrConflict(fmt.Sprintf("Bot name %q already in use", newName))
		}
		return nil, util.ErrStorage(err)
	}

	s.notifyBot(ctx, &clone)
	s.log.Infof("Bot duplicated: source=%d clone=%d remote_id=%d user=%s", src.ID, clone.ID, remote.ID, userID)
	return &clone, nil
}

// Deals fetches a page of the bot's deal history from the platform.
func (s *BotService) Deals(ctx context.Context, userID string, botID int64, limit, offset int) ([]threecommas.Deal, error) {
	bot, err := s.getOwned(ctx, userID, botID)
	if err != nil {
		return nil, err
	}
	if bot.RemoteID == nil {
		return nil, util.ErrPrecondition("Bot has no platform record")
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	deals, err := s.remote.ListDeals(ctx, *bot.RemoteID, limit, offset)
	if err != nil {
		return nil, mapRemoteErr(err)
	}
	return deals, nil
}

// maxDealsPerReport bounds how much history a performance report walks.
const maxDealsPerReport = 1000

// Performance aggregates the bot's full deal history into a report. The
// deal pages come straight from the platform; nothing is cached.
func (s *BotService) Performance(ctx context.Context, userID string, botID int64) (*model.PerformanceReport, error) {
	bot, err := s.getOwned(ctx, userID, botID)
	if err != nil {
		return nil, err
	}
	if bot.RemoteID == nil {
		return nil, util.ErrPrecondition("Bot has no platform record")
	}

	const pageSize = 100
	var all []threecommas.Deal
	for offset := 0; offset < maxDealsPerReport; offset += pageSize {
		page, err := s.remote.ListDeals(ctx, *bot.RemoteID, pageSize, offset)
		if err != nil {
			return nil, mapRemoteErr(err)
		}
		all = append(all, page...)
		if len(page) < pageSize {
			break
		}
	}

	return AggregateDeals(all, time.Now()), nil
}

// Summary returns the local advisory snapshot, refreshed from the most
// recent deal page when the platform is reachable. A platform failure
// degrades to the cached values instead of erroring.
func (s *BotService) Summary(ctx context.Context, userID string, botID int64) (*model.BotSummary, error) {
	unlock := s.lockBot(botID)
	defer unlock()

	bot, err := s.getOwned(ctx, userID, botID)
	if err != nil {
		return nil, err
	}

	if bot.RemoteID != nil {
		if deals, err := s.remote.ListDeals(ctx, *bot.RemoteID, 100, 0); err == nil {
			refreshAdvisoryCache(bot, deals)
			oldStatus, oldName := bot.Status, bot.Name
			if err := s.store.Update(ctx, bot, oldStatus, oldName); err != nil {
				s.log.Warnf("Failed to persist advisory cache for bot %d: %v", botID, err)
			}
		} else {
			s.log.Warnf("Summary falling back to cached values for bot %d: %v", botID, err)
		}
	}

	summary := &model.BotSummary{
		BotID:         bot.ID,
		RemoteID:      bot.RemoteID,
		Name:          bot.Name,
		Pair:          bot.Pair,
		Status:        bot.Status,
		ConfigVersion: bot.ConfigVersion,
		TotalDeals:    bot.TotalDeals,
		TotalProfit:   bot.TotalProfit,
		LastDealAt:    bot.LastDealAt,
	}
	if bot.Status == model.BotStatusRunning {
		summary.Uptime = time.Since(bot.UpdatedAt).Truncate(time.Second).String()
	}
	return summary, nil
}

func (s *BotService) notifyBot(ctx context.Context, bot *model.Bot) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyBotUpdate(ctx, bot.UserID, bot)
}
