package igdb

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/retroprint/labelforge/internal/utils"
	"github.com/retroprint/labelforge/pkg/whttp"
)

const (
	credentialsFile = "api_credentials.json"
	tokenFile       = "token.json"

	// Twitch OAuth2 client-credentials grant, see
	// https://dev.twitch.tv/docs/authentication/getting-tokens-oauth/
	tokenGrantURL      = "https://id.twitch.tv/oauth2/token"
	tokenValidationURL = "https://id.twitch.tv/oauth2/validate"
)

type credentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// TokenManager owns the Twitch OAuth token lifecycle for IGDB access.
// Credentials and the cached token live as JSON files inside a config
// directory; a missing credentials file gets a blank template written so the
// operator knows exactly what to fill in.
type TokenManager struct {
	configDir   string
	creds       credentials
	token       string
	client      *http.Client
	grantURL    string
	validateURL string
}

func NewTokenManager(configDir string, client *http.Client) (*TokenManager, error) {
	if configDir == "" {
		return nil, fmt.Errorf("igdb: config directory must be provided")
	}
	return &TokenManager{
		configDir:   configDir,
		client:      client,
		grantURL:    tokenGrantURL,
		validateURL: tokenValidationURL,
	}, nil
}

// Initialise makes sure a valid token is in hand: an already-held token is
// revalidated, then the cached token file is tried, then a fresh token is
// requested and persisted. Fatal-class errors (missing or incomplete
// credentials, grant failure) abort the run.
func (tm *TokenManager) Initialise() error {
	if err := tm.loadCredentials(); err != nil {
		return err
	}

	if tm.token != "" && tm.validate(tm.token) {
		return nil
	}

	if cached, err := tm.readTokenFile(); err == nil && cached != "" {
		if tm.validate(cached) {
			tm.token = cached
			return nil
		}
		utils.Log.Debug("igdb: cached token rejected, requesting a new one")
	}

	fresh, err := tm.requestToken()
	if err != nil {
		return err
	}
	if err := tm.writeTokenFile(fresh); err != nil {
		return err
	}
	tm.token = fresh
	return nil
}

// Header returns the Client-ID and Authorization headers IGDB expects.
// Initialise must have succeeded first.
func (tm *TokenManager) Header() ([]whttp.Header, error) {
	if tm.token == "" {
		return nil, fmt.Errorf("igdb: token not initialised")
	}
	return []whttp.Header{
		{Name: "Client-ID", Value: tm.creds.ClientID},
		{Name: "Authorization", Value: "Bearer " + tm.token},
	}, nil
}

func (tm *TokenManager) loadCredentials() error {
	path := filepath.Join(tm.configDir, credentialsFile)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if werr := tm.writeCredentialsTemplate(path); werr != nil {
			return werr
		}
		return fmt.Errorf("igdb: %s was not found at %s; an empty template has been created, fill in client_id and client_secret and re-run", credentialsFile, path)
	}
	if err != nil {
		return fmt.Errorf("igdb: reading credentials: %w", err)
	}

	var creds credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return fmt.Errorf("igdb: malformed credentials file %s: %w", path, err)
	}
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return fmt.Errorf("igdb: %s is missing client_id or client_secret", path)
	}

	tm.creds = creds
	return nil
}

func (tm *TokenManager) writeCredentialsTemplate(path string) error {
	if err := os.MkdirAll(tm.configDir, 0o755); err != nil {
		return fmt.Errorf("igdb: creating config directory: %w", err)
	}
	template, _ := json.MarshalIndent(credentials{}, "", "    ")
	if err := os.WriteFile(path, template, 0o600); err != nil {
		return fmt.Errorf("igdb: writing credentials template: %w", err)
	}
	return nil
}

func (tm *TokenManager) readTokenFile() (string, error) {
	data, err := os.ReadFile(filepath.Join(tm.configDir, tokenFile))
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(data, "token").Str, nil
}

func (tm *TokenManager) writeTokenFile(token string) error {
	data, _ := json.MarshalIndent(map[string]string{"token": token}, "", "    ")
	path := filepath.Join(tm.configDir, tokenFile)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("igdb: writing token file: %w", err)
	}
	return nil
}

// validate asks the Twitch validation endpoint whether a token is still
// live. Any failure counts as invalid.
func (tm *TokenManager) validate(token string) bool {
	res, err := whttp.Send(&whttp.Request{
		Method: http.MethodGet,
		URL:    tm.validateURL,
		Headers: []whttp.Header{
			{Name: "Client-ID", Value: tm.creds.ClientID},
			{Name: "Authorization", Value: "Bearer " + token},
		},
	}, tm.client)
	if err != nil {
		utils.Log.Debug("igdb: token validation request failed: ", err)
		return false
	}
	return res.StatusCode == http.StatusOK
}

func (tm *TokenManager) requestToken() (string, error) {
	body := fmt.Sprintf("client_id=%s&client_secret=%s&grant_type=client_credentials",
		tm.creds.ClientID, tm.creds.ClientSecret)

	res, err := whttp.Send(&whttp.Request{
		Method: http.MethodPost,
		URL:    tm.grantURL,
		Body:   body,
		Headers: []whttp.Header{
			{Name: "Content-Type", Value: "application/x-www-form-urlencoded"},
		},
	}, tm.client)
	if err != nil {
		return "", fmt.Errorf("igdb: token grant request: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("igdb: token grant failed with status %d: %s", res.StatusCode, res.BodyString)
	}

	token := gjson.Get(res.BodyString, "access_token").Str
	if token == "" {
		return "", fmt.Errorf("igdb: token grant reply carries no access_token")
	}
	return token, nil
}
