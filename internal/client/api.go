package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/sadbytecom/couplex/internal/models"
)

// APIError is a backend-reported failure with a human-readable reason.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// PartnerInfo is the backend's answer to get_partner_info.
type PartnerInfo struct {
	Connected     bool   `json:"connected"`
	PartnerID     string `json:"partner_id,omitempty"`
	PartnerName   string `json:"partner_name,omitempty"`
	PartnershipID string `json:"partnership_id,omitempty"`
}

// API is a typed HTTP client for the Couplex backend.
type API struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// NewAPI creates a client for the backend at baseURL.
func NewAPI(baseURL string) *API {
	return &API{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken installs the session token used for authenticated calls. An empty
// token clears it.
func (a *API) SetToken(token string) {
	a.mu.Lock()
	a.token = token
	a.mu.Unlock()
}

func (a *API) currentToken() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := a.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &APIError{Status: resp.StatusCode, Message: apiErr.Error}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

type authResponse struct {
	models.User
	Token string `json:"token"`
}

// CreateUser registers a new user and returns the resulting session.
func (a *API) CreateUser(ctx context.Context, username string) (*Session, error) {
	var resp authResponse
	err := a.do(ctx, http.MethodPost, "/api/v1/users", map[string]string{"username": username}, &resp)
	if err != nil {
		return nil, err
	}
	return &Session{User: resp.User, Token: resp.Token}, nil
}

// LoginByCode authenticates with a unique code and returns the session.
func (a *API) LoginByCode(ctx context.Context, code string) (*Session, error) {
	var resp authResponse
	err := a.do(ctx, http.MethodPost, "/api/v1/auth/login", map[string]string{"code": code}, &resp)
	if err != nil {
		return nil, err
	}
	return &Session{User: resp.User, Token: resp.Token}, nil
}

// GetPartnerInfo asks the backend whether a partnership exists.
func (a *API) GetPartnerInfo(ctx context.Context) (*PartnerInfo, error) {
	var info PartnerInfo
	if err := a.do(ctx, http.MethodGet, "/api/v1/partner", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// CreatePartnershipByCode submits a partner code. Domain failures come back
// as *APIError with the backend's reason.
func (a *API) CreatePartnershipByCode(ctx context.Context, partnerCode string) error {
	return a.do(ctx, http.MethodPost, "/api/v1/partnerships", map[string]string{"partner_code": partnerCode}, nil)
}

// ListEmotions fetches events for the active partnership, newest first.
func (a *API) ListEmotions(ctx context.Context, limit int) ([]models.EmotionEvent, error) {
	path := "/api/v1/emotions"
	if limit > 0 {
		path += "?limit=" + url.QueryEscape(strconv.Itoa(limit))
	}
	var resp struct {
		Emotions []models.EmotionEvent `json:"emotions"`
	}
	if err := a.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Emotions, nil
}

// ShareEmotion creates one emotion event.
func (a *API) ShareEmotion(ctx context.Context, emotionType, description string) (*models.EmotionEvent, error) {
	var event models.EmotionEvent
	body := map[string]string{"emotion_type": emotionType, "description": description}
	if err := a.do(ctx, http.MethodPost, "/api/v1/emotions", body, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// RegisterPushToken stores the device push token with the backend.
func (a *API) RegisterPushToken(ctx context.Context, pushToken string) error {
	return a.do(ctx, http.MethodPut, "/api/v1/devices", map[string]string{"push_token": pushToken}, nil)
}
