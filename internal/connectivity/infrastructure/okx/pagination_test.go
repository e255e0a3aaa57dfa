package okx

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pager 按游标返回预置页面，并记录请求过的游标
type pager struct {
	pages   map[string]Page[int]
	cursors []string
}

func (p *pager) fetch(_ context.Context, cursor string) (Page[int], error) {
	p.cursors = append(p.cursors, cursor)
	return p.pages[cursor], nil
}

func TestPaginateFollowsCursor(t *testing.T) {
	p := &pager{pages: map[string]Page[int]{
		"":  {Items: []int{1, 2}, Cursor: "a"},
		"a": {Items: []int{3, 4}, Cursor: "b"},
		"b": {Items: []int{5}},
	}}
	out, err := Paginate(context.Background(), PaginateOptions{}, p.fetch)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, out)
	assert.Equal(t, []string{"", "a", "b"}, p.cursors)
}

func TestPaginateStopConditions(t *testing.T) {
	t.Run("empty page", func(t *testing.T) {
		p := &pager{pages: map[string]Page[int]{
			"":  {Items: []int{1}, Cursor: "a"},
			"a": {Cursor: "b"},
		}}
		out, err := Paginate(context.Background(), PaginateOptions{}, p.fetch)
		require.NoError(t, err)
		assert.Equal(t, []int{1}, out)
		assert.Len(t, p.cursors, 2)
	})

	t.Run("limit truncates", func(t *testing.T) {
		p := &pager{pages: map[string]Page[int]{
			"":  {Items: []int{1, 2}, Cursor: "a"},
			"a": {Items: []int{3, 4}, Cursor: "b"},
		}}
		out, err := Paginate(context.Background(), PaginateOptions{Limit: 3}, p.fetch)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, out)
		assert.Len(t, p.cursors, 2)
	})

	t.Run("repeated cursor", func(t *testing.T) {
		p := &pager{pages: map[string]Page[int]{
			"":  {Items: []int{1}, Cursor: "a"},
			"a": {Items: []int{2}, Cursor: "a"},
		}}
		out, err := Paginate(context.Background(), PaginateOptions{}, p.fetch)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, out)
		assert.Len(t, p.cursors, 2)
	})

	t.Run("max pages", func(t *testing.T) {
		calls := 0
		out, err := Paginate(context.Background(), PaginateOptions{MaxPages: 3}, func(_ context.Context, cursor string) (Page[int], error) {
			calls++
			return Page[int]{Items: []int{calls}, Cursor: strconv.Itoa(calls)}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, out)
		assert.Equal(t, 3, calls)
	})

	t.Run("default max pages", func(t *testing.T) {
		calls := 0
		_, err := Paginate(context.Background(), PaginateOptions{}, func(_ context.Context, cursor string) (Page[int], error) {
			calls++
			return Page[int]{Items: []int{calls}, Cursor: strconv.Itoa(calls)}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, defaultMaxPages, calls)
	})
}

func TestPaginateErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := Paginate(context.Background(), PaginateOptions{}, func(context.Context, string) (Page[int], error) {
		return Page[int]{}, boom
	})
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err = Paginate(ctx, PaginateOptions{}, func(context.Context, string) (Page[int], error) {
		calls++
		cancel()
		return Page[int]{Items: []int{1}, Cursor: "next"}, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
