package service

import (
	"encoding/json"
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
	redditAuthorizeURL = "https://www.reddit.com/api/v1/authorize"
	redditTokenURL     = "https://www.reddit.com/api/v1/access_token"
	redditMeURL        = "https://oauth.reddit.com/api/v1/me"
	redditSubmitURL    = "https://oauth.reddit.com/api/submit"

	redditUserAgent = "web:artmux:1.0.0 (by /u/artmux)"
)

// RedditProvider implements the standard authorization-code flow. Posts go
// to the linked account's own profile
type RedditProvider struct {
	states *OAuthStateStore
}

func NewRedditProvider(states *OAuthStateStore) *RedditProvider {
	return &RedditProvider{states: states}
}

func (r *RedditProvider) AuthURL(userID uint) (string, error) {
	state, err := gonanoid.New(21)
	if err != nil {
		return "", err
	}

	r.states.Put(state, PendingAuth{UserID: userID})

	q := url.Values{}
	q.Set("client_id", viper.GetString("reddit.client_id"))
	q.Set("response_type", "code")
	q.Set("state", state)
	q.Set("redirect_uri", viper.GetString("reddit.callback_url"))
	q.Set("duration", "permanent")
	q.Set("scope", "identity submit")

	return redditAuthorizeURL + "?" + q.Encode(), nil
}

func (r *RedditProvider) ExchangeCallback(query url.Values) (*model.Access, error) {
	state := query.Get("state")
	code := query.Get("code")
	if state == "" || code == "" {
		return nil, ErrAuthDenied
	}

	pending, ok := r.states.Take(state)
	if !ok {
		return nil, ErrAuthDenied
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", viper.GetString("reddit.callback_url"))

	req, err := http.NewRequest(http.MethodPost, redditTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", redditUserAgent)
	req.SetBasicAuth(viper.GetString("reddit.client_id"), viper.GetString("reddit.client_secret"))

	resp, err := socialHTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange reddit code, %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("reddit token exchange returned %d: %s", resp.StatusCode, body)
	}

	var tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("failed to decode reddit token response, %w", err)
	}

	me, err := r.fetchMe(tokens.AccessToken)
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
		"user_name":     me.Name,
	})
	if err != nil {
		return nil, err
	}

	return &model.Access{
		UserID:        pending.UserID,
		SocialMediaID: RedditID,
		Salt:          salt,
		Data:          data,
	}, nil
}

func (r *RedditProvider) Publish(access *model.Access, pub *model.Publication, imagePath string) error {
	token, err := DecryptField(access, "access_token")
	if err != nil {
		return err
	}

	username, err := DecryptField(access, "user_name")
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("sr", "u_"+username)
	form.Set("kind", "self")
	form.Set("title", pub.Title)
	form.Set("text", pub.Text)
	form.Set("api_type", "json")

	req, err := http.NewRequest(http.MethodPost, redditSubmitURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", redditUserAgent)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := socialHTTP.Do(req)
	if err != nil {
		return fmt.Errorf("failed to submit reddit post, %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("reddit returned %d: %s", resp.StatusCode, body)
	}

	return nil
}

func (r *RedditProvider) RevokeURL() string {
	return "https://www.reddit.com/prefs/apps"
}

type redditUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (r *RedditProvider) fetchMe(accessToken string) (*redditUser, error) {
	req, err := http.NewRequest(http.MethodGet, redditMeURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", redditUserAgent)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := socialHTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reddit identity, %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit identity lookup returned %d", resp.StatusCode)
	}

	var me redditUser
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return nil, fmt.Errorf("failed to decode reddit identity, %w", err)
	}

	return &me, nil
}
