package service

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"artmux/portfolio-api/model"
	"artmux/portfolio-api/security"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/spf13/viper"
)

const (
	twitterAuthorizeURL = "https://twitter.com/i/oauth2/authorize"
	twitterTokenURL     = "https://api.twitter.com/2/oauth2/token"
	twitterMeURL        = "https://api.twitter.com/2/users/me"
	twitterTweetURL     = "https://api.twitter.com/2/tweets"
)

var ErrAuthDenied = errors.New("you denied the app or your session expired")

// TwitterProvider implements the OAuth2 PKCE flow against the v2 API
type TwitterProvider struct {
	states *OAuthStateStore
}

func NewTwitterProvider(states *OAuthStateStore) *TwitterProvider {
	return &TwitterProvider{states: states}
}

func (t *TwitterProvider) AuthURL(userID uint) (string, error) {
	state, err := gonanoid.New(21)
	if err != nil {
		return "", err
	}

	verifier, err := gonanoid.New(43)
	if err != nil {
		return "", err
	}

	t.states.Put(state, PendingAuth{UserID: userID, Secret: verifier})

	sum := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(sum[:])

	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", viper.GetString("twitter.client_id"))
	q.Set("redirect_uri", viper.GetString("twitter.callback_url"))
	q.Set("scope", "users.read tweet.read tweet.write offline.access")
	q.Set("state", state)
	q.Set("code_challenge", challenge)
	q.Set("code_challenge_method", "S256")

	return twitterAuthorizeURL + "?" + q.Encode(), nil
}

func (t *TwitterProvider) ExchangeCallback(query url.Values) (*model.Access, error) {
	state := query.Get("state")
	code := query.Get("code")
	if state == "" || code == "" {
		return nil, ErrAuthDenied
	}

	pending, ok := t.states.Take(state)
	if !ok {
		return nil, ErrAuthDenied
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", viper.GetString("twitter.callback_url"))
	form.Set("client_id", viper.GetString("twitter.client_id"))
	form.Set("code_verifier", pending.Secret)

	req, err := http.NewRequest(http.MethodPost, twitterTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(viper.GetString("twitter.client_id"), viper.GetString("twitter.client_secret"))

	resp, err := socialHTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange twitter code, %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("twitter token exchange returned %d: %s", resp.StatusCode, body)
	}

	var tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("failed to decode twitter token response, %w", err)
	}

	me, err := t.fetchMe(tokens.AccessToken)
	if err != nil {
		return nil, err
	}

	salt, err := security.NewSalt()
	if err != nil {
		return nil, err
	}

	data, err := encryptFields(salt, map[string]string{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"user_id":       me.ID,
		"user_username": me.Username,
		"user_name":     me.Name,
	})
	if err != nil {
		return nil, err
	}

	return &model.Access{
		UserID:        pending.UserID,
		SocialMediaID: TwitterID,
		Salt:          salt,
		Data:          data,
	}, nil
}

// Text-only tweets. Media upload still goes through the v1.1 API, which the
// app has no access tier for; the image is referenced by link instead.
func (t *TwitterProvider) Publish(access *model.Access, pub *model.Publication, imagePath string) error {
	token, err := DecryptField(access, "access_token")
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]string{"text": pub.Text})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, twitterTweetURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := socialHTTP.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post tweet, %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("twitter returned %d: %s", resp.StatusCode, body)
	}

	return nil
}

func (t *TwitterProvider) RevokeURL() string {
	return "https://twitter.com/settings/connected_apps"
}

type twitterUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

func (t *TwitterProvider) fetchMe(accessToken string) (*twitterUser, error) {
	req, err := http.NewRequest(http.MethodGet, twitterMeURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := socialHTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch twitter identity, %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twitter identity lookup returned %d", resp.StatusCode)
	}

	var out struct {
		Data twitterUser `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode twitter identity, %w", err)
	}

	return &out.Data, nil
}
