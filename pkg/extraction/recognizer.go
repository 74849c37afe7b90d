package extraction

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/earlyguard/platform/pkg/common/httpclient"
	"github.com/earlyguard/platform/pkg/common/models"
)

// HTTPRecognizer calls the text-recognition service. The service streams
// newline-delimited JSON: progress frames while recognizing, then a final
// frame carrying the full recognized text.
type HTTPRecognizer struct {
	baseURL string
	client  *http.Client
}

func NewHTTPRecognizer(baseURL string, timeout time.Duration) *HTTPRecognizer {
	return &HTTPRecognizer{
		baseURL: baseURL,
		client:  httpclient.New(timeout),
	}
}

func (r *HTTPRecognizer) Recognize(ctx context.Context, image []byte, progress func(percent int)) (string, error) {
	url := r.baseURL + "/api/v1/recognize"

	var text string
	err := httpclient.Retry(ctx, 2, 200*time.Millisecond, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(image))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/octet-stream")

		resp, err := r.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("recognizer returned status %d", resp.StatusCode)
		}

		text = ""
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var event models.RecognitionEvent
			if err := json.Unmarshal(line, &event); err != nil {
				continue
			}
			switch event.Status {
			case "recognizing":
				if progress != nil {
					progress(int(event.Progress * 100))
				}
			case "done":
				text = event.Text
			}
		}
		return scanner.Err()
	})
	if err != nil {
		return "", err
	}
	return text, nil
}
