// Package repository provides data access for the application and interacts with Redis.
package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"botdeck/backend/internal/model"
	"botdeck/backend/pkg/redis"

	redislib "github.com/redis/go-redis/v9"
)

// Sentinel errors surfaced to the service layer.
var (
	ErrBotNotFound = errors.New("bot not found")
	ErrNameTaken   = errors.New("bot name already in use")
)

// BotRepository stores the local bot mirror records. Each mutation touches
// one bot document plus its indexes; the (owner, name) pair is kept unique
// through an atomic claim key.
type BotRepository struct {
	redis *redis.Client
}

func NewBotRepository(redisClient *redis.Client) *BotRepository {
	return &BotRepository{
		redis: redisClient,
	}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NextID reserves a new local bot id.
func (r *BotRepository) NextID(ctx context.Context) (int64, error) {
	return r.redis.Incr(ctx, redis.BotIDSequenceKey)
}

// NameTaken reports whether the owner already has a bot under this name.
func (r *BotRepository) NameTaken(ctx context.Context, userID, name string) (bool, error) {
	return r.redis.Exists(ctx, redis.BotNameKey(userID, normalizeName(name)))
}

// Create persists a new bot record. Fails with ErrNameTaken when the
// (owner, name) claim is already held.
func (r *BotRepository) Create(ctx context.Context, bot *model.Bot) error {
	if bot.ID == 0 {
		id, err := r.NextID(ctx)
		if err != nil {
			return err
		}
		bot.ID = id
	}

	bot.CreatedAt = time.Now()
	bot.UpdatedAt = bot.CreatedAt

	botIDStr := strconv.FormatInt(bot.ID, 10)

	claimed, err := r.redis.Claim(ctx, redis.BotNameKey(bot.UserID, normalizeName(bot.Name)), botIDStr)
	if err != nil {
		return err
	}
	if !claimed {
		return ErrNameTaken
	}

	if err := r.redis.SetJSON(ctx, redis.BotKey(botIDStr), bot, 0); err != nil {
		return err
	}

	if err := r.redis.SAdd(ctx, redis.UserBotsKey(bot.UserID), botIDStr); err != nil {
		return err
	}

	return r.redis.SAdd(ctx, redis.BotsByStatusKey(bot.Status), botIDStr)
}

// GetByID retrieves a bot by its local id.
func (r *BotRepository) GetByID(ctx context.Context, botID int64) (*model.Bot, error) {
	var bot model.Bot
	err := r.redis.GetJSON(ctx, redis.BotKey(strconv.FormatInt(botID, 10)), &bot)
	if err != nil {
		if err == redislib.Nil {
			return nil, ErrBotNotFound
		}
		return nil, err
	}
	return &bot, nil
}

// GetByOwnerAndName resolves a bot through the (owner, name) claim.
func (r *BotRepository) GetByOwnerAndName(ctx context.Context, userID, name string) (*model.Bot, error) {
	idStr, err := r.redis.Get(ctx, redis.BotNameKey(userID, normalizeName(name)))
	if err != nil {
		if err == redislib.Nil {
			return nil, ErrBotNotFound
		}
		return nil, err
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Update overwrites a bot record. oldStatus and oldName are the values
// before the mutation so indexes and the name claim can follow.
func (r *BotRepository) Update(ctx context.Context, bot *model.Bot, oldStatus, oldName string) error {
	bot.UpdatedAt = time.Now()
	botIDStr := strconv.FormatInt(bot.ID, 10)

	if oldName != "" && normalizeName(oldName) != normalizeName(bot.Name) {
		claimed, err := r.redis.Claim(ctx, redis.BotNameKey(bot.UserID, normalizeName(bot.Name)), botIDStr)
		if err != nil {
			return err
		}
		if !claimed {
			return ErrNameTaken
		}
		if err := r.redis.Release(ctx, redis.BotNameKey(bot.UserID, normalizeName(oldName))); err != nil {
			return err
		}
	}

	if err := r.redis.SetJSON(ctx, redis.BotKey(botIDStr), bot, 0); err != nil {
		return err
	}

	if oldStatus != "" && oldStatus != bot.Status {
		r.redis.SRem(ctx, redis.BotsByStatusKey(oldStatus), botIDStr)
		r.redis.SAdd(ctx, redis.BotsByStatusKey(bot.Status), botIDStr)
	}

	return nil
}

// UpdateStatus moves a bot to a new lifecycle status.
func (r *BotRepository) UpdateStatus(ctx context.Context, botID int64, status string) (*model.Bot, error) {
	bot, err := r.GetByID(ctx, botID)
	if err != nil {
		return nil, err
	}

	oldStatus := bot.Status
	bot.Status = status

	if err := r.Update(ctx, bot, oldStatus, ""); err != nil {
		return nil, err
	}
	return bot, nil
}

// Delete removes a bot record, its indexes and its name claim.
func (r *BotRepository) Delete(ctx context.Context, botID int64) error {
	bot, err := r.GetByID(ctx, botID)
	if err != nil {
		return err
	}

	botIDStr := strconv.FormatInt(botID, 10)

	if err := r.redis.Del(ctx, redis.BotKey(botIDStr)); err != nil {
		return err
	}

	r.redis.Release(ctx, redis.BotNameKey(bot.UserID, normalizeName(bot.Name)))
	r.redis.SRem(ctx, redis.UserBotsKey(bot.UserID), botIDStr)
	r.redis.SRem(ctx, redis.BotsByStatusKey(bot.Status), botIDStr)

	return nil
}

// ListByUser retrieves all bots for a user.
func (r *BotRepository) ListByUser(ctx context.Context, userID string) ([]*model.Bot, error) {
	botIDs, err := r.redis.SMembers(ctx, redis.UserBotsKey(userID))
	if err != nil {
		return nil, err
	}
	return r.loadAll(ctx, botIDs)
}

// ListByStatus retrieves all bots with a specific status.
func (r *BotRepository) ListByStatus(ctx context.Context, status string) ([]*model.Bot, error) {
	botIDs, err := r.redis.SMembers(ctx, redis.BotsByStatusKey(status))
	if err != nil {
		return nil, err
	}
	return r.loadAll(ctx, botIDs)
}

func (r *BotRepository) loadAll(ctx context.Context, botIDs []string) ([]*model.Bot, error) {
	bots := make([]*model.Bot, 0, len(botIDs))
	for _, idStr := range botIDs {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			continue
		}
		bot, err := r.GetByID(ctx, id)
		if err == nil {
			bots = append(bots, bot)
		}
	}
	return bots, nil
}
