package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Filter is one field/operator/value predicate coming from the client
type Filter struct {
	Name     string `json:"name"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

type SearchParams struct {
	UserID    uint
	Page      int
	PerPage   int
	Order     string
	Direction string
	Filters   []Filter
}

var operatorSymbol = map[string]string{
	"equalTo":        "=",
	"different":      "<>",
	"lesser":         "<",
	"lesserOrEqual":  "<=",
	"greater":        ">",
	"greaterOrEqual": ">=",
}

// Filterable column whitelist; the filter name goes straight into SQL so
// anything not listed here is rejected
var filterableColumns = map[string]string{
	"title":        "title",
	"observations": "observations",
	"slug":         "slug",
	"created_at":   "created_at",
	"updated_at":   "updated_at",
	"tags":         "tags",
}

// ParseSearchParams validates pagination, ordering and the filters query
// parameters (each one a JSON-encoded Filter). Returns a user-facing error
// message when something is off.
func ParseSearchParams(c *gin.Context, userID uint, orderFields []string) (*SearchParams, error) {
	order := c.DefaultQuery("order", orderFields[0])
	direction := c.DefaultQuery("direction", "desc")

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page <= 0 {
		return nil, fmt.Errorf("page must be a positive number")
	}

	perPage, err := strconv.Atoi(c.DefaultQuery("perPage", "27"))
	if err != nil || perPage <= 0 {
		return nil, fmt.Errorf("perPage must be a positive number")
	}

	found := false
	for _, f := range orderFields {
		if f == order {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("'order' must have one of these values: %s", strings.Join(orderFields, ", "))
	}

	if direction != "asc" && direction != "desc" {
		return nil, fmt.Errorf("'direction' must be 'asc' or 'desc'")
	}

	var filters []Filter
	for _, raw := range c.QueryArray("filters") {
		var f Filter
		if err := json.Unmarshal([]byte(raw), &f); err != nil {
			return nil, fmt.Errorf("malformed filters, could not parse as JSON")
		}
		filters = append(filters, f)
	}

	return &SearchParams{
		UserID:    userID,
		Page:      page,
		PerPage:   perPage,
		Order:     order,
		Direction: direction,
		Filters:   filters,
	}, nil
}

// ApplyFilters adds the filter predicates to an artworks query. Filters on
// the same field are combined with OR, different fields with AND.
func ApplyFilters(q *gorm.DB, db *gorm.DB, filters []Filter) (*gorm.DB, error) {
	byField := map[string][]Filter{}
	order := []string{} // Keep grouping deterministic

	for _, f := range filters {
		if _, ok := filterableColumns[f.Name]; !ok {
			return nil, fmt.Errorf("unsupported filter field %s", f.Name)
		}

		if _, seen := byField[f.Name]; !seen {
			order = append(order, f.Name)
		}
		byField[f.Name] = append(byField[f.Name], f)
	}

	for _, name := range order {
		grp := db.Session(&gorm.Session{NewDB: true})

		for _, f := range byField[name] {
			var err error
			grp, err = orFilter(grp, f)
			if err != nil {
				return nil, err
			}
		}

		q = q.Where(grp)
	}

	return q, nil
}

func orFilter(grp *gorm.DB, f Filter) (*gorm.DB, error) {
	col := filterableColumns[f.Name]

	switch f.Operator {
	case "between":
		vals, ok := f.Value.([]any)
		if !ok || len(vals) != 2 {
			return nil, fmt.Errorf("between expects a two-element array")
		}
		return grp.Or(col+" BETWEEN ? AND ?", vals[0], vals[1]), nil

	case "contains", "startsWith", "endsWith":
		s, ok := f.Value.(string)
		if !ok {
			return nil, fmt.Errorf("%s expects a string value", f.Operator)
		}
		if f.Operator == "contains" || f.Operator == "startsWith" {
			s = s + "%"
		}
		if f.Operator == "contains" || f.Operator == "endsWith" {
			s = "%" + s
		}
		return grp.Or("LOWER("+col+") LIKE LOWER(?)", s), nil

	case "tagsAnyOf":
		ids, err := tagIDs(f.Value)
		if err != nil {
			return nil, err
		}
		return grp.Or(
			"EXISTS (SELECT 1 FROM artwork_has_tags WHERE artwork_id = artworks.id AND tag_id IN ?)",
			ids,
		), nil

	case "tagsAllOf":
		ids, err := tagIDs(f.Value)
		if err != nil {
			return nil, err
		}
		return grp.Or(
			"(SELECT COUNT(DISTINCT tag_id) FROM artwork_has_tags WHERE artwork_id = artworks.id AND tag_id IN ?) = ?",
			ids, len(ids),
		), nil

	default:
		sym, ok := operatorSymbol[f.Operator]
		if !ok {
			return nil, fmt.Errorf("unsupported filter operator %s", f.Operator)
		}
		return grp.Or(col+" "+sym+" ?", f.Value), nil
	}
}

func tagIDs(v any) ([]int, error) {
	raw, ok := v.([]any)
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("tag filters expect a non-empty array of tag ids")
	}

	ids := make([]int, len(raw))
	for i, r := range raw {
		n, ok := r.(float64)
		if !ok {
			return nil, fmt.Errorf("tag filters expect numeric ids")
		}
		ids[i] = int(n)
	}

	return ids, nil
}
