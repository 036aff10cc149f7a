package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	z "github.com/Oudwins/zog"
	"go.uber.org/zap"
	"liyu1981.xyz/aquapond-service/pkg/common"
	"liyu1981.xyz/aquapond-service/pkg/models"
)

var (
	ErrPredictionFailed = errors.New("prediction failed")
	ErrBadResponse      = errors.New("unexpected classifier response")
)

// Client talks to the water quality model service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     common.GetLoggerWith(common.LoggerNameClassifier),
	}
}

type predictResponse struct {
	Success           bool    `json:"success"`
	WaterQualityLabel string  `json:"water_quality_label"`
	WaterQualityClass int     `json:"water_quality_class"`
	Confidence        float64 `json:"confidence"`
	Recommend         string  `json:"recommend"`
	Duration          int     `json:"duration"`
}

var predictResponseSchema = z.Struct(z.Shape{
	"WaterQualityLabel": z.String().Required().OneOf([]string{
		string(models.WaterQualityPoor),
		string(models.WaterQualityGood),
		string(models.WaterQualityExcellent),
	}),
	"Confidence": z.Float64().GTE(0).LTE(1),
	"Duration":   z.Int().GTE(0),
})

type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

func (c *Client) Classify(ctx context.Context, input *models.ClassificationRequest) (*models.ClassificationResult, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classifier request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("classifier response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrPredictionFailed, resp.StatusCode, errorDetail(raw))
	}

	var predicted predictResponse
	if err := json.Unmarshal(raw, &predicted); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if !predicted.Success {
		return nil, fmt.Errorf("%w: success=false", ErrPredictionFailed)
	}
	if issues := predictResponseSchema.Validate(&predicted); issues != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, issues)
	}

	result := &models.ClassificationResult{
		Label:                      models.WaterQualityLabel(predicted.WaterQualityLabel),
		Class:                      predicted.WaterQualityClass,
		Confidence:                 predicted.Confidence,
		RecommendedAction:          recommendedAction(predicted.Recommend),
		RecommendedDurationSeconds: predicted.Duration,
	}

	c.logger.Debug("Classified reading",
		zap.Reflect("request", input),
		zap.Reflect("result", result),
		zap.Duration("took", time.Since(started)))

	return result, nil
}

// Health reports whether the model service answers GET /health.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("classifier health: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("classifier health: status %d", resp.StatusCode)
	}
	return nil
}

func recommendedAction(recommend string) models.CommandAction {
	switch action := models.CommandAction(strings.ToUpper(strings.TrimSpace(recommend))); action {
	case models.ActionPumpOn, models.ActionPumpOff:
		return action
	default:
		return models.ActionNone
	}
}

// errorDetail surfaces FastAPI's "detail" field, falling back to the raw body.
func errorDetail(raw []byte) string {
	var body errorResponse
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(body.Detail, &detail); err == nil {
			return detail
		}
		return string(body.Detail)
	}
	return strings.TrimSpace(string(raw))
}
