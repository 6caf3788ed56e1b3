package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T) *API {
	t.Helper()

	gin.SetMode(gin.TestMode)

	viper.Set("db.driver", "sqlite")
	viper.Set("db.dsn", filepath.Join(t.TempDir(), "test.db"))
	viper.Set("jwt.secret", "test-jwt-secret")
	viper.Set("crypto.secret", "test-crypto-secret")
	viper.Set("images.directory", t.TempDir())
	viper.Set("images.trash_directory", t.TempDir())
	viper.Set("images.max_upload_size", int64(8<<20))
	viper.Set("images.trash_retention", 24*time.Hour)

	a, err := NewRouter()
	require.NoError(t, err)
	return a
}

func doJSON(a *API, method, path, token string, payload any) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func signupAndSignin(t *testing.T, a *API, username string) string {
	t.Helper()

	w := doJSON(a, http.MethodPost, "/auth/signup", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(a, http.MethodPost, "/auth/signin", "", gin.H{
		"username": username,
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	return decode(t, w)["token"].(string)
}

// artworkForm builds the multipart body ArtworkCreate and ArtworkUpdate
// expect. An empty filename means no image field at all.
func artworkForm(t *testing.T, fields map[string]string, filename string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	for name, value := range fields {
		require.NoError(t, mw.WriteField(name, value))
	}

	if filename != "" {
		fw, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		require.NoError(t, png.Encode(fw, image.NewRGBA(image.Rect(0, 0, 640, 480))))
	}

	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func uploadArtwork(t *testing.T, a *API, token, title string) map[string]any {
	t.Helper()

	body, contentType := artworkForm(t, map[string]string{"title": title}, "upload.png")

	req := httptest.NewRequest(http.MethodPost, "/artworks", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	return decode(t, w)
}

func TestHeartbeat(t *testing.T) {
	a := newTestAPI(t)

	w := doJSON(a, http.MethodHead, "/heartbeat", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSignupRejectsDuplicates(t *testing.T) {
	a := newTestAPI(t)

	body := gin.H{"username": "ana", "email": "ana@example.com", "password": "long enough"}
	w := doJSON(a, http.MethodPost, "/auth/signup", "", body)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(a, http.MethodPost, "/auth/signup", "", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Username already registered", decode(t, w)["error"])

	w = doJSON(a, http.MethodPost, "/auth/signup", "", gin.H{
		"username": "ana2", "email": "ana@example.com", "password": "long enough",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email already registered", decode(t, w)["error"])
}

func TestSigninRejectsWrongPassword(t *testing.T) {
	a := newTestAPI(t)
	signupAndSignin(t, a, "bea")

	w := doJSON(a, http.MethodPost, "/auth/signin", "", gin.H{
		"username": "bea",
		"password": "not the password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestArtworksRequireAuth(t *testing.T) {
	a := newTestAPI(t)

	w := doJSON(a, http.MethodGet, "/artworks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(a, http.MethodGet, "/artworks", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestArtworkLifecycle(t *testing.T) {
	a := newTestAPI(t)
	token := signupAndSignin(t, a, "carl")

	created := uploadArtwork(t, a, token, "Sunset at the beach")
	assert.Equal(t, "sunset-at-the-beach", created["slug"])

	// Same title again gets the next slug number
	created = uploadArtwork(t, a, token, "Sunset at the beach")
	assert.Equal(t, "sunset-at-the-beach_2", created["slug"])

	w := doJSON(a, http.MethodGet, "/artworks", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)
	assert.Equal(t, float64(2), list["totalWorks"])

	w = doJSON(a, http.MethodGet, "/artworks/sunset-at-the-beach_2", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	work := decode(t, w)
	assert.Equal(t, "sunset-at-the-beach_2", work["slug"])
	assert.Equal(t, "Sunset at the beach", work["title"])

	for _, size := range []string{"original", "medium", "thumbnail"} {
		w = doJSON(a, http.MethodGet, "/artworks/sunset-at-the-beach_2/images/"+size, token, nil)
		assert.Equal(t, http.StatusOK, w.Code, "variant %s should be served", size)
	}

	w = doJSON(a, http.MethodGet, "/artworks/sunset-at-the-beach_2/images/huge", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Rename via title edit, no new image: files follow the slug
	body, contentType := artworkForm(t, map[string]string{"title": "Dawn"}, "")
	req := httptest.NewRequest(http.MethodPatch, "/artworks/sunset-at-the-beach_2", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "dawn", decode(t, rec)["slug"])

	w = doJSON(a, http.MethodGet, "/artworks/sunset-at-the-beach_2", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(a, http.MethodGet, "/artworks/dawn/images/original", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(a, http.MethodDelete, "/artworks/dawn", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(a, http.MethodGet, "/artworks/dawn", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Deleted variants sit in trash, not gone
	entries, err := os.ReadDir(viper.GetString("images.trash_directory"))
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestArtworkCreateValidation(t *testing.T) {
	a := newTestAPI(t)
	token := signupAndSignin(t, a, "dina")

	// Not multipart at all
	w := doJSON(a, http.MethodPost, "/artworks", token, gin.H{"title": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Image but no title
	body, contentType := artworkForm(t, nil, "upload.png")
	req := httptest.NewRequest(http.MethodPost, "/artworks", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing title", decode(t, rec)["error"])

	// Title but no image
	body, contentType = artworkForm(t, map[string]string{"title": "No image"}, "")
	req = httptest.NewRequest(http.MethodPost, "/artworks", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing image", decode(t, rec)["error"])

	// Wrong file type
	body = &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("title", "Not an image"))
	fw, err := mw.CreateFormFile("image", "notes.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("plain text"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req = httptest.NewRequest(http.MethodPost, "/artworks", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestArtworkSearchFilters(t *testing.T) {
	a := newTestAPI(t)
	token := signupAndSignin(t, a, "elsa")

	for _, title := range []string{"Sunset", "Sunrise", "Portrait"} {
		uploadArtwork(t, a, token, title)
	}

	q := url.Values{}
	q.Add("filters", `{"name":"title","operator":"contains","value":"sunset"}`)
	q.Add("filters", `{"name":"title","operator":"contains","value":"sunrise"}`)

	w := doJSON(a, http.MethodGet, "/artworks?"+q.Encode(), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(2), decode(t, w)["totalWorks"])

	w = doJSON(a, http.MethodGet, "/artworks?order=password_hash", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestArtworksAreScopedToOwner(t *testing.T) {
	a := newTestAPI(t)
	owner := signupAndSignin(t, a, "fred")
	other := signupAndSignin(t, a, "gaia")

	uploadArtwork(t, a, owner, "Private piece")

	w := doJSON(a, http.MethodGet, "/artworks/private-piece", other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(a, http.MethodGet, "/artworks", other, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["totalWorks"])
}

func TestPublicationLifecycle(t *testing.T) {
	a := newTestAPI(t)
	token := signupAndSignin(t, a, "hugo")

	created := uploadArtwork(t, a, token, "Sunset")

	w := doJSON(a, http.MethodGet, "/artworks/"+created["slug"].(string), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	artworkID := uint(decode(t, w)["id"].(float64))

	w = doJSON(a, http.MethodPost, "/publications", token, gin.H{
		"title":    "Summer series",
		"text":     "Three evenings at the coast",
		"artworks": []uint{artworkID},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	pub := decode(t, w)
	assert.Equal(t, "summer-series", pub["slug"])

	w = doJSON(a, http.MethodPost, "/publications", token, gin.H{
		"title": "Summer series",
		"text":  "Same name, next number",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "summer-series_2", decode(t, w)["slug"])

	w = doJSON(a, http.MethodGet, "/publications", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	w = doJSON(a, http.MethodGet, "/publications/summer-series", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	fetched := decode(t, w)
	works := fetched["artworks"].([]any)
	require.Len(t, works, 1)
	assert.Equal(t, "sunset", works[0].(map[string]any)["slug"])

	w = doJSON(a, http.MethodPatch, "/publications/summer-series", token, gin.H{
		"title": "Winter series",
		"text":  "Renamed",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "winter-series", decode(t, w)["slug"])

	w = doJSON(a, http.MethodDelete, "/publications/winter-series", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(a, http.MethodGet, "/publications/winter-series", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPublicationRequiresTitleAndText(t *testing.T) {
	a := newTestAPI(t)
	token := signupAndSignin(t, a, "iris")

	w := doJSON(a, http.MethodPost, "/publications", token, gin.H{"title": "Only title"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(a, http.MethodPost, "/publications", token, gin.H{"text": "Only text"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublicationPublishRoutes(t *testing.T) {
	a := newTestAPI(t)
	token := signupAndSignin(t, a, "lena")

	w := doJSON(a, http.MethodPost, "/publications", token, gin.H{
		"title": "Quiet mornings",
		"text":  "Nothing posted anywhere yet",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(a, http.MethodGet, "/publications/quiet-mornings/published", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var records []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	assert.Empty(t, records)

	w = doJSON(a, http.MethodPost, "/publications/quiet-mornings/publish", token, gin.H{
		"accesses": []uint{},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(a, http.MethodGet, "/publications/never-written/published", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTagsListedPerUser(t *testing.T) {
	a := newTestAPI(t)
	token := signupAndSignin(t, a, "jonas")

	body, contentType := artworkForm(t, map[string]string{
		"title": "Tagged work",
		"tags":  `["landscape","digital"]`,
	}, "upload.png")
	req := httptest.NewRequest(http.MethodPost, "/artworks", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	w := doJSON(a, http.MethodGet, "/tags", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var tags []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tags))
	require.Len(t, tags, 2)
	assert.Equal(t, "digital", tags[0]["name"])
	assert.Equal(t, "landscape", tags[1]["name"])
}

// The tags response is cacheable, but a cached body must stay private to
// the user whose request produced it
func TestTagsNotSharedAcrossUsers(t *testing.T) {
	a := newTestAPI(t)
	owner := signupAndSignin(t, a, "mara")
	other := signupAndSignin(t, a, "nils")

	body, contentType := artworkForm(t, map[string]string{
		"title": "Commission draft",
		"tags":  `["client-work"]`,
	}, "upload.png")
	req := httptest.NewRequest(http.MethodPost, "/artworks", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+owner)
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Owner primes the cache, the other user must still see nothing
	w := doJSON(a, http.MethodGet, "/tags", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tags []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tags))
	require.Len(t, tags, 1)

	w = doJSON(a, http.MethodGet, "/tags", other, nil)
	require.Equal(t, http.StatusOK, w.Code)
	tags = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tags))
	assert.Empty(t, tags, "one user's tags must never come out of another user's cache entry")
}

func TestAccessCreateReturnsProviderURL(t *testing.T) {
	a := newTestAPI(t)
	token := signupAndSignin(t, a, "karla")

	viper.Set("twitter.client_id", "cid")
	viper.Set("twitter.callback_url", "http://localhost:8080/twitter/callback")

	w := doJSON(a, http.MethodGet, "/accesses/create/1", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	u := decode(t, w)["url"].(string)
	assert.Contains(t, u, "twitter.com")
	assert.Contains(t, u, fmt.Sprintf("client_id=%s", "cid"))

	w = doJSON(a, http.MethodGet, "/accesses/create/99", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
