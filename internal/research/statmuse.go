package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// StatMuseClient posts natural-language stat questions to the local
// stats-lookup service. Every query waits on a shared rate limiter instead
// of sleeping between calls.
type StatMuseClient struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

// StatMuseResult is the outcome of one query. Err is set on any transport
// or service failure; the caller treats that as "no insight", never as a
// reason to abort the run.
type StatMuseResult struct {
	Query  string `json:"query"`
	Answer string `json:"answer,omitempty"`
	Err    string `json:"error,omitempty"`
}

func NewStatMuseClient(baseURL string, queryDelay time.Duration, logger *logrus.Logger) *StatMuseClient {
	if queryDelay <= 0 {
		queryDelay = 1500 * time.Millisecond
	}
	return &StatMuseClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Every(queryDelay), 1),
		logger:     logger,
	}
}

// Query sends one question to the stats service. The returned result is
// never nil.
func (c *StatMuseClient) Query(ctx context.Context, question string) *StatMuseResult {
	result := &StatMuseResult{Query: question}

	if err := c.limiter.Wait(ctx); err != nil {
		result.Err = err.Error()
		return result
	}

	body, _ := json.Marshal(map[string]string{"query": question})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		result.Err = err.Error()
		return result
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("query", question).Warn("StatMuse query failed")
		result.Err = err.Error()
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		result.Err = fmt.Sprintf("statmuse returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		c.logger.WithField("status", resp.StatusCode).Warn("StatMuse returned non-2xx")
		return result
	}

	var payload struct {
		Answer string `json:"answer"`
		Result string `json:"result"`
		Error  string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		result.Err = fmt.Sprintf("failed to decode statmuse response: %v", err)
		return result
	}
	if payload.Error != "" {
		result.Err = payload.Error
		return result
	}

	answer := payload.Answer
	if answer == "" {
		answer = payload.Result
	}
	result.Answer = answer
	return result
}
