package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"furniture-detector-go/internal/config"
	"furniture-detector-go/pkg/models"

	"github.com/sirupsen/logrus"
)

const (
	maxResponseBytes = 8 << 20
	maxErrorBodyLen  = 512
)

// RoboflowClient клиент размещенного сервиса детекции Roboflow
type RoboflowClient struct {
	cfg        config.DetectionConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewRoboflowClient создает клиент для режима workflow или model
func NewRoboflowClient(cfg config.DetectionConfig, logger *logrus.Logger) *RoboflowClient {
	return &RoboflowClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

type workflowRequest struct {
	APIKey   string                   `json:"api_key"`
	Inputs   map[string]workflowInput `json:"inputs"`
	UseCache bool                     `json:"use_cache"`
}

type workflowInput struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Detect отправляет изображение на детекцию. Один вызов, без повторов.
// Ошибки транспорта, статуса и формата ответа оборачивают models.ErrServiceUnavailable.
func (c *RoboflowClient) Detect(ctx context.Context, image []byte, filename string) (*models.DetectionBatch, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := c.newDetectRequest(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}

	log := c.logger.WithFields(logrus.Fields{
		"mode":     c.cfg.Mode,
		"filename": filename,
		"bytes":    len(image),
	})
	log.Debugf("Отправка POST запроса на %s", redact(req.URL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, unavailable("ошибка отправки HTTP запроса", c.scrub(err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, unavailable("ошибка чтения ответа", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, unavailable("сервис детекции вернул ошибку",
			fmt.Errorf("статус %d, тело: %s", resp.StatusCode, truncate(respBody, maxErrorBodyLen)))
	}

	envelope, err := DecodeEnvelope(respBody)
	if err != nil {
		return nil, unavailable("некорректный ответ сервиса детекции", err)
	}

	detections := envelope.Detections()
	log.WithField("detections", len(detections)).Info("Успешно получен ответ от сервиса детекции")

	return &models.DetectionBatch{
		Detections: detections,
		Source:     models.SourceRemote,
	}, nil
}

func (c *RoboflowClient) newDetectRequest(ctx context.Context, image []byte) (*http.Request, error) {
	encoded := base64.StdEncoding.EncodeToString(image)

	if c.cfg.Mode == config.ModeModel {
		target, err := url.Parse(fmt.Sprintf("%s/%s", c.cfg.APIURL, strings.Trim(c.cfg.ModelID, "/")))
		if err != nil {
			return nil, err
		}
		query := target.Query()
		query.Set("api_key", c.cfg.APIKey)
		target.RawQuery = query.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), strings.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	}

	payload, err := json.Marshal(workflowRequest{
		APIKey: c.cfg.APIKey,
		Inputs: map[string]workflowInput{
			"image": {Type: "base64", Value: encoded},
		},
		UseCache: c.cfg.UseCache,
	})
	if err != nil {
		return nil, err
	}

	target := fmt.Sprintf("%s/infer/workflows/%s/%s", c.cfg.APIURL, c.cfg.Workspace, c.cfg.WorkflowID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// CheckHealth проверяет доступность сервиса: любой статус ниже 500 считается ответом
func (c *RoboflowClient) CheckHealth(ctx context.Context) error {
	c.logger.Debug("Проверка доступности сервиса детекции")

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIURL, nil)
	if err != nil {
		return fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return unavailable("ошибка отправки HTTP запроса", c.scrub(err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodyLen))

	if resp.StatusCode >= http.StatusInternalServerError {
		return unavailable("сервис детекции вернул ошибку", fmt.Errorf("статус %d", resp.StatusCode))
	}
	return nil
}

func unavailable(msg string, err error) error {
	return fmt.Errorf("%w: %s: %w", models.ErrServiceUnavailable, msg, err)
}

// scrub убирает ключ API из URL в ошибке транспорта
func (c *RoboflowClient) scrub(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if parsed, parseErr := url.Parse(urlErr.URL); parseErr == nil {
			urlErr.URL = redact(parsed)
		}
	}
	if c.cfg.APIKey != "" && strings.Contains(err.Error(), c.cfg.APIKey) {
		return errors.New(strings.ReplaceAll(err.Error(), c.cfg.APIKey, "***"))
	}
	return err
}

func redact(u *url.URL) string {
	clean := *u
	query := clean.Query()
	if query.Has("api_key") {
		query.Set("api_key", "***")
		clean.RawQuery = query.Encode()
	}
	return clean.String()
}

func truncate(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}
