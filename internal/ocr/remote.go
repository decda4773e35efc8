package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultRemoteURL is the general-purpose text recognition endpoint of the
// Baidu AI cloud OCR service.
const DefaultRemoteURL = "https://aip.baidubce.com/rest/2.0/ocr/v1/general_basic"

// Remote calls a cloud OCR service with the Baidu general_basic protocol:
// a form-encoded base64 image, an access_token query parameter and a
// words_result list in the response.
type Remote struct {
	url    string
	token  string
	client *http.Client
}

// NewRemote creates a remote OCR engine. An empty url selects
// DefaultRemoteURL.
func NewRemote(endpoint, token string) *Remote {
	if endpoint == "" {
		endpoint = DefaultRemoteURL
	}
	return &Remote{
		url:    endpoint,
		token:  token,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type remoteResponse struct {
	LogID          int64  `json:"log_id"`
	WordsResultNum int    `json:"words_result_num"`
	ErrorCode      int    `json:"error_code"`
	ErrorMsg       string `json:"error_msg"`
	WordsResult    []struct {
		Words string `json:"words"`
	} `json:"words_result"`
}

// RemoteError is an error reported by the OCR service itself.
type RemoteError struct {
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("ocr service error %d: %s", e.Code, e.Message)
}

// Recognize uploads data and returns the recognized words in service order.
func (r *Remote) Recognize(ctx context.Context, data []byte) ([]string, error) {
	u, err := url.Parse(r.url)
	if err != nil {
		return nil, fmt.Errorf("invalid ocr url: %w", err)
	}
	if r.token != "" {
		q := u.Query()
		q.Set("access_token", r.token)
		u.RawQuery = q.Encode()
	}

	form := url.Values{}
	form.Set("image", base64.StdEncoding.EncodeToString(data))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ocr service %d: %s", resp.StatusCode, string(body))
	}

	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode ocr response: %w", err)
	}
	if out.ErrorCode != 0 {
		return nil, &RemoteError{Code: out.ErrorCode, Message: out.ErrorMsg}
	}

	words := make([]string, 0, len(out.WordsResult))
	for _, w := range out.WordsResult {
		if w.Words != "" {
			words = append(words, w.Words)
		}
	}
	return words, nil
}
