package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter интерфейс для ограничения частоты запросов
type RateLimiter interface {
	// CheckRateLimit проверяет лимит для заданного ключа
	// Возвращает true, если лимит превышен
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RedisRateLimiter реализация RateLimiter с использованием Redis
// Использует sliding window алгоритм для подсчета запросов в заданном временном окне
type RedisRateLimiter struct {
	client *redis.Client
}

// NewRedisRateLimiter создает новый экземпляр RedisRateLimiter
func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{client: client}
}

// CheckRateLimit проверяет, не превышен ли лимит запросов для заданного ключа
// Алгоритм:
// 1. Определение ключа (IP адрес)
// 2. Получение текущего счетчика из Redis
// 3. Если счетчик >= лимит → возвращает true
// 4. Увеличение счетчика (INCR) и установка TTL для ключа
// 5. Возвращает false (успех)
func (r *RedisRateLimiter) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	// Формируем ключ для Redis
	redisKey := fmt.Sprintf("rate_limit:%s", key)

	// Получаем текущее значение счетчика
	current, err := r.client.Get(ctx, redisKey).Int64()
	if err != nil && err != redis.Nil {
		return true, fmt.Errorf("failed to get rate limit counter: %w", err)
	}

	// Проверяем, не превышен ли лимит
	if int(current) >= limit {
		return true, nil
	}

	// Увеличиваем счетчик и устанавливаем TTL атомарно
	pipe := r.client.TxPipeline()
	pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("failed to execute rate limit transaction: %w", err)
	}

	return false, nil
}
