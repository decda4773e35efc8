package detection

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/ironsheep/widget-inventory-mcp/internal/imaging"
)

// Remote calls an HTTP inference server that hosts the widget model.
//
// The screenshot is letterboxed to a square input before upload, and the
// returned boxes are left in that input resolution; Result.InputWidth and
// InputHeight tell the caller how to map them back.
type Remote struct {
	url     string
	token   string
	size    int
	client  *http.Client
	limiter *rate.Limiter
}

// NewRemote creates a remote detector. size is the model input edge in
// pixels; limiter may be nil.
func NewRemote(url, token string, size int, limiter *rate.Limiter) *Remote {
	if size <= 0 {
		size = 640
	}
	return &Remote{
		url:     url,
		token:   token,
		size:    size,
		client:  &http.Client{Timeout: 60 * time.Second},
		limiter: limiter,
	}
}

type remoteRequest struct {
	Image         string   `json:"image"`
	Confidence    float64  `json:"confidence"`
	IoU           float64  `json:"iou"`
	Classes       []string `json:"classes,omitempty"`
	MaxDetections int      `json:"max_det,omitempty"`
}

type remoteResponse struct {
	Predictions []struct {
		Label      string     `json:"label"`
		Confidence float64    `json:"confidence"`
		Box        [4]float64 `json:"box"`
	} `json:"predictions"`
	Error string `json:"error,omitempty"`
}

// Detect uploads the letterboxed screenshot and returns the server's boxes.
func (d *Remote) Detect(ctx context.Context, img image.Image, cfg Config) (*Result, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	input, lb := imaging.Letterbox(img, d.size)
	data, err := imaging.Encode(input, imaging.FormatPNG)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(remoteRequest{
		Image:         base64.StdEncoding.EncodeToString(data),
		Confidence:    cfg.Confidence,
		IoU:           cfg.IoU,
		Classes:       cfg.Classes,
		MaxDetections: cfg.MaxDetections,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("detector %d: %s", resp.StatusCode, string(body))
	}

	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode detector response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("detector: %s", out.Error)
	}

	preds := make([]Prediction, 0, len(out.Predictions))
	for _, p := range out.Predictions {
		preds = append(preds, Prediction{
			Label:      p.Label,
			Confidence: p.Confidence,
			Box:        Box{X1: p.Box[0], Y1: p.Box[1], X2: p.Box[2], Y2: p.Box[3]},
		})
	}

	return &Result{
		InputWidth:  d.size,
		InputHeight: d.size,
		Letterbox:   &lb,
		Predictions: cfg.Filter(preds),
	}, nil
}
