package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const probeTimeout = 3 * time.Second

// SelectBackend возвращает первый бэкенд, ответивший на Ping.
// Вызывается один раз при старте; дальше бэкенд не перепроверяется.
func SelectBackend(ctx context.Context, candidates []Backend, log *zap.Logger) (Backend, error) {
	for _, b := range candidates {
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := b.Ping(pctx)
		cancel()
		if err != nil {
			log.Warn("ratchet store backend unavailable", zap.String("backend", b.Name()), zap.Error(err))
			continue
		}
		log.Info("ratchet store backend selected", zap.String("backend", b.Name()))
		return b, nil
	}
	return nil, errors.New("no ratchet store backend available")
}
