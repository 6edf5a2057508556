package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/rl1809/order-fulfillment/internal/core/domain"
)

const (
	inventoryKeyPrefix        = "inventory:"
	inventoryVersionKeyPrefix = "inventory:version:"
	idempotencyKeyPrefix      = "idempotency:"
)

type cachedInventory struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Stock       int             `json:"stock"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type RedisAdapter struct {
	client         *redis.Client
	inventoryTTL   time.Duration
	idempotencyTTL time.Duration
}

func NewRedisAdapter(client *redis.Client, inventoryTTL, idempotencyTTL time.Duration) *RedisAdapter {
	return &RedisAdapter{
		client:         client,
		inventoryTTL:   inventoryTTL,
		idempotencyTTL: idempotencyTTL,
	}
}

func inventoryKey(productID int64) string {
	return inventoryKeyPrefix + strconv.FormatInt(productID, 10)
}

// Version keys carry no TTL; an expired version would let a stale fill
// through.
func inventoryVersionKey(productID int64) string {
	return inventoryVersionKeyPrefix + strconv.FormatInt(productID, 10)
}

func (r *RedisAdapter) GetInventory(ctx context.Context, productID int64) (*domain.Inventory, bool, error) {
	payload, err := r.client.Get(ctx, inventoryKey(productID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var cached cachedInventory
	if err := json.Unmarshal(payload, &cached); err != nil {
		return nil, false, err
	}

	return &domain.Inventory{
		ProductID:   cached.ProductID,
		ProductName: cached.ProductName,
		Stock:       cached.Stock,
		UnitPrice:   cached.UnitPrice,
	}, true, nil
}

func (r *RedisAdapter) InventoryVersion(ctx context.Context, productID int64) (int64, error) {
	version, err := r.client.Get(ctx, inventoryVersionKey(productID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return version, err
}

// SetInventory watches the version key and writes the entry only if the
// version still matches. An invalidation landing between the check and
// EXEC aborts the transaction, which counts as a dropped fill.
func (r *RedisAdapter) SetInventory(ctx context.Context, inv domain.Inventory, version int64) error {
	payload, err := json.Marshal(cachedInventory{
		ProductID:   inv.ProductID,
		ProductName: inv.ProductName,
		Stock:       inv.Stock,
		UnitPrice:   inv.UnitPrice,
	})
	if err != nil {
		return err
	}

	versionKey := inventoryVersionKey(inv.ProductID)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, inventoryKey(inv.ProductID), payload, r.inventoryTTL)
			return nil
		})
		return err
	}, versionKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

func (r *RedisAdapter) InvalidateInventory(ctx context.Context, productIDs ...int64) error {
	if len(productIDs) == 0 {
		return nil
	}
	keys := make([]string, len(productIDs))
	for i, id := range productIDs {
		keys[i] = inventoryKey(id)
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range productIDs {
			pipe.Incr(ctx, inventoryVersionKey(id))
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	return err
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, idempotencyKeyPrefix+key, 1, r.idempotencyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) ReleaseIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, idempotencyKeyPrefix+key).Err()
}
