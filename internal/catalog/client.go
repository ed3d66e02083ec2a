// Package catalog is a thin client for the external management service that
// owns the question catalog.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"banterbus/internal/cache"
	"banterbus/internal/models"
	"banterbus/internal/observability"
)

// Game is the catalog's metadata for one game.
type Game struct {
	Name           string `json:"name"`
	DisplayName    string `json:"display_name"`
	Enabled        bool   `json:"enabled"`
	MinimumPlayers int    `json:"minimum_players"`
	MaximumPlayers int    `json:"maximum_players"`
}

// QuestionSimple is one catalog question. Type distinguishes questions from
// answers within a group.
type QuestionSimple struct {
	QuestionID string `json:"question_id"`
	Content    string `json:"content"`
	Type       string `json:"type,omitempty"`
}

// QuestionGroups is the catalog's response to a random-group request.
type QuestionGroups struct {
	Groups []string `json:"groups"`
}

// Client defines the catalog operations the core depends on.
type Client interface {
	GetGame(ctx context.Context, gameName string) (*Game, error)
	GetRandomGroups(ctx context.Context, gameName string, round models.GameRound, limit int) ([]string, error)
	GetRandomQuestions(ctx context.Context, gameName string, round models.GameRound, groupName string, limit int) ([]QuestionSimple, error)
}

type httpClient struct {
	baseURL string
	client  *http.Client
}

// NewClient returns a catalog client for the given management-service base URL.
func NewClient(baseURL string) Client {
	return &httpClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// GetGame fetches game metadata, reusing a cached copy when available.
func (c *httpClient) GetGame(ctx context.Context, gameName string) (*Game, error) {
	var game Game
	err := cache.Aside(ctx, cache.GameInfoKey(gameName), &game, cache.GameInfoTTL, func() error {
		path := fmt.Sprintf("/game/%s", url.PathEscape(gameName))
		return c.getJSON(ctx, "get_game", path, nil, &game)
	})
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// GetRandomGroups fetches limit random group names for a round.
func (c *httpClient) GetRandomGroups(
	ctx context.Context, gameName string, round models.GameRound, limit int,
) ([]string, error) {
	path := fmt.Sprintf("/game/%s/question/group:random", url.PathEscape(gameName))
	query := url.Values{}
	query.Set("round", string(round))
	query.Set("limit", strconv.Itoa(limit))

	var groups QuestionGroups
	if err := c.getJSON(ctx, "get_random_groups", path, query, &groups); err != nil {
		return nil, err
	}
	return groups.Groups, nil
}

// GetRandomQuestions fetches random questions for a round. When groupName is
// set, all questions of that group are returned; otherwise limit controls
// how many random questions come back.
func (c *httpClient) GetRandomQuestions(
	ctx context.Context, gameName string, round models.GameRound, groupName string, limit int,
) ([]QuestionSimple, error) {
	path := fmt.Sprintf("/game/%s/question:random", url.PathEscape(gameName))
	query := url.Values{}
	query.Set("round", string(round))
	if groupName != "" {
		query.Set("group_name", groupName)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var questions []QuestionSimple
	if err := c.getJSON(ctx, "get_random_questions", path, query, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (c *httpClient) getJSON(ctx context.Context, operation, path string, query url.Values, dest any) error {
	ctx, span := observability.TraceCatalogCall(ctx, operation)
	defer span.End()
	start := time.Now()
	defer func() {
		observability.CatalogRequestLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.NewInternalError(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return models.NewInternalError(fmt.Errorf("catalog %s: %w", operation, err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.NewInternalError(fmt.Errorf("catalog %s: read body: %w", operation, err))
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return models.NewAppError(models.CodeGameNotFound, "catalog %s: not found", operation)
	case resp.StatusCode != http.StatusOK:
		return models.NewInternalError(fmt.Errorf("catalog %s: unexpected status %d: %s",
			operation, resp.StatusCode, string(body)))
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return models.NewInternalError(fmt.Errorf("catalog %s: decode response: %w", operation, err))
	}
	return nil
}
