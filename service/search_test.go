package service

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"artmux/portfolio-api/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func searchDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Artwork{}, &model.Tag{}))

	landscape := model.Tag{Name: "landscape"}
	digital := model.Tag{Name: "digital"}
	sketch := model.Tag{Name: "sketch"}
	require.NoError(t, db.Create(&[]*model.Tag{&landscape, &digital, &sketch}).Error)

	works := []model.Artwork{
		{UserID: 1, UUID: "a", Title: "Sunset at the beach", Slug: "sunset-at-the-beach", SlugNum: 1,
			Observations: "oil on canvas", Tags: []model.Tag{landscape}},
		{UserID: 1, UUID: "b", Title: "Sunrise", Slug: "sunrise", SlugNum: 1,
			Observations: "digital study", Tags: []model.Tag{landscape, digital}},
		{UserID: 1, UUID: "c", Title: "Portrait", Slug: "portrait", SlugNum: 1,
			Observations: "charcoal", Tags: []model.Tag{sketch}},
		{UserID: 2, UUID: "d", Title: "Sunset", Slug: "sunset", SlugNum: 1},
	}
	require.NoError(t, db.Create(&works).Error)

	return db
}

func runFilters(t *testing.T, db *gorm.DB, filters []Filter) []model.Artwork {
	t.Helper()

	q := db.Model(&model.Artwork{}).Where("user_id = ?", 1)
	q, err := ApplyFilters(q, db, filters)
	require.NoError(t, err)

	var out []model.Artwork
	require.NoError(t, q.Order("title").Find(&out).Error)
	return out
}

func titles(works []model.Artwork) []string {
	out := make([]string, len(works))
	for i, w := range works {
		out[i] = w.Title
	}
	return out
}

func TestFiltersSameFieldAreORed(t *testing.T) {
	db := searchDB(t)

	got := runFilters(t, db, []Filter{
		{Name: "title", Operator: "contains", Value: "sunset"},
		{Name: "title", Operator: "contains", Value: "sunrise"},
	})

	assert.Equal(t, []string{"Sunrise", "Sunset at the beach"}, titles(got))
}

func TestFiltersAcrossFieldsAreANDed(t *testing.T) {
	db := searchDB(t)

	got := runFilters(t, db, []Filter{
		{Name: "title", Operator: "contains", Value: "sun"},
		{Name: "observations", Operator: "contains", Value: "digital"},
	})

	assert.Equal(t, []string{"Sunrise"}, titles(got))
}

func TestFilterStartsWithIsCaseInsensitive(t *testing.T) {
	db := searchDB(t)

	got := runFilters(t, db, []Filter{
		{Name: "title", Operator: "startsWith", Value: "SUN"},
	})

	assert.Equal(t, []string{"Sunrise", "Sunset at the beach"}, titles(got))
}

func TestFilterEqualTo(t *testing.T) {
	db := searchDB(t)

	got := runFilters(t, db, []Filter{
		{Name: "slug", Operator: "equalTo", Value: "portrait"},
	})

	assert.Equal(t, []string{"Portrait"}, titles(got))
}

func TestFilterTagsAnyOf(t *testing.T) {
	db := searchDB(t)

	// Seeded ids: landscape=1, digital=2, sketch=3
	got := runFilters(t, db, []Filter{
		{Name: "tags", Operator: "tagsAnyOf", Value: []any{float64(1), float64(3)}},
	})

	assert.Equal(t, []string{"Portrait", "Sunrise", "Sunset at the beach"}, titles(got))
}

func TestFilterTagsAllOf(t *testing.T) {
	db := searchDB(t)

	got := runFilters(t, db, []Filter{
		{Name: "tags", Operator: "tagsAllOf", Value: []any{float64(1), float64(2)}},
	})

	assert.Equal(t, []string{"Sunrise"}, titles(got))
}

func TestFilterRejectsUnknownField(t *testing.T) {
	db := searchDB(t)

	q := db.Model(&model.Artwork{})
	_, err := ApplyFilters(q, db, []Filter{
		{Name: "password_hash", Operator: "equalTo", Value: "x"},
	})

	assert.Error(t, err)
}

func TestFilterRejectsUnknownOperator(t *testing.T) {
	db := searchDB(t)

	q := db.Model(&model.Artwork{})
	_, err := ApplyFilters(q, db, []Filter{
		{Name: "title", Operator: "soundsLike", Value: "x"},
	})

	assert.Error(t, err)
}

func paramsContext(t *testing.T, query url.Values) *gin.Context {
	t.Helper()

	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/artworks?"+query.Encode(), nil)
	return c
}

func TestParseSearchParamsDefaults(t *testing.T) {
	c := paramsContext(t, url.Values{})

	p, err := ParseSearchParams(c, 1, []string{"updated_at", "title"})
	require.NoError(t, err)

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 27, p.PerPage)
	assert.Equal(t, "updated_at", p.Order)
	assert.Equal(t, "desc", p.Direction)
	assert.Empty(t, p.Filters)
}

func TestParseSearchParamsRejectsBadInput(t *testing.T) {
	cases := []url.Values{
		{"page": {"0"}},
		{"page": {"nope"}},
		{"perPage": {"-3"}},
		{"order": {"password_hash"}},
		{"direction": {"sideways"}},
		{"filters": {"{not json"}},
	}

	for _, q := range cases {
		c := paramsContext(t, q)
		_, err := ParseSearchParams(c, 1, []string{"updated_at"})
		assert.Error(t, err, "query %v should be rejected", q)
	}
}

func TestParseSearchParamsDecodesFilters(t *testing.T) {
	q := url.Values{}
	q.Add("filters", `{"name":"title","operator":"contains","value":"sun"}`)
	q.Add("filters", `{"name":"tags","operator":"tagsAnyOf","value":[1,2]}`)

	c := paramsContext(t, q)
	p, err := ParseSearchParams(c, 1, []string{"updated_at"})
	require.NoError(t, err)

	require.Len(t, p.Filters, 2)
	assert.Equal(t, "title", p.Filters[0].Name)
	assert.Equal(t, "tagsAnyOf", p.Filters[1].Operator)
}
