package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"stoploss_tracker/internal/modules/config"
	"stoploss_tracker/pkg/tracing"

	"go.uber.org/zap"
)

// Client: подписанный REST-клиент BingX perpetual swap.
type Client struct {
	http      *http.Client
	baseURL   string
	apiKey    string
	apiSecret string
	log       *zap.Logger

	now func() time.Time
}

func NewClient(cfg *config.Config, log *zap.Logger) *Client {
	timeout := cfg.Exchange.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		baseURL:   strings.TrimRight(cfg.Exchange.BaseURL, "/"),
		apiKey:    cfg.Exchange.APIKey,
		apiSecret: cfg.Exchange.APISecret,
		log:       log.Named("bingx"),
		now:       time.Now,
	}
}

func (c *Client) sign(payload string) string {
	h := hmac.New(sha256.New, []byte(c.apiSecret))
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

// parseParam: ключи по алфавиту, timestamp всегда последним.
func (c *Client) parseParam(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "timestamp" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	parts = append(parts, "timestamp="+strconv.FormatInt(c.now().UnixMilli(), 10))
	return strings.Join(parts, "&")
}

// do подписывает и отправляет запрос, возвращает тело ответа.
// Ошибка только на транспорт и не-2xx; code внутри тела разбирает вызывающий.
func (c *Client) do(ctx context.Context, method, requestPath string, params map[string]string) (body []byte, err error) {
	ctx, finish := tracing.StartSpan(ctx, "bingx "+requestPath)
	defer func() { finish(err) }()

	paramsStr := c.parseParam(params)
	url := fmt.Sprintf("%s%s?%s&signature=%s", c.baseURL, requestPath, paramsStr, c.sign(paramsStr))

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s new request: %w", requestPath, err)
	}
	req.Header.Set("X-BX-APIKEY", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s do: %w", requestPath, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s read body: %w", requestPath, err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%s http %d: %s", requestPath, resp.StatusCode, string(data))
	}

	c.log.Debug("bingx response", zap.String("path", requestPath), zap.ByteString("body", data))
	return data, nil
}
