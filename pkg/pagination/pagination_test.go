package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func parse(query string) Params {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return Parse(c)
}

func TestParse(t *testing.T) {
	tests := []struct {
		query string
		want  Params
	}{
		{"", Params{Page: 1, Limit: 20, Offset: 0}},
		{"page=3&limit=10", Params{Page: 3, Limit: 10, Offset: 20}},
		{"page=-1&limit=0", Params{Page: 1, Limit: 20, Offset: 0}},
		{"limit=1000", Params{Page: 1, Limit: 100, Offset: 0}},
		{"page=abc", Params{Page: 1, Limit: 20, Offset: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, parse(tt.query))
		})
	}
}

func TestWrap(t *testing.T) {
	p := Params{Page: 2, Limit: 10, Offset: 10}
	page := p.Wrap([]string{"a"}, 21)
	assert.Equal(t, Meta{Page: 2, Limit: 10, Total: 21, TotalPages: 3}, page.Meta)

	empty := p.Wrap([]string{}, 0)
	assert.Equal(t, 0, empty.Meta.TotalPages)
}
