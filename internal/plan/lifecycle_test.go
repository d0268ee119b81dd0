package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yevgeniy8/books-reading-backend/pkg/models"
)

func TestQuota(t *testing.T) {
	testCases := []struct {
		name     string
		pages    int
		days     int
		expected int
	}{
		{name: "exact division", pages: 100, days: 10, expected: 10},
		{name: "rounds up", pages: 101, days: 10, expected: 11},
		{name: "single day", pages: 37, days: 1, expected: 37},
		{name: "fewer pages than days", pages: 3, days: 10, expected: 1},
		{name: "nothing left", pages: 0, days: 5, expected: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Quota(tc.pages, tc.days))
		})
	}
}

func TestRemainingPages(t *testing.T) {
	books := []models.Book{
		{PagesTotal: 100, PagesFinished: 30},
		{PagesTotal: 200, PagesFinished: 0},
		{PagesTotal: 50, PagesFinished: 50},
	}
	assert.Equal(t, 270, RemainingPages(books))
	assert.Equal(t, 0, RemainingPages(nil))
}
