package okx

import "context"

// 默认最多翻页次数
const defaultMaxPages = 10

// Page 单页结果，Cursor 为下一页的游标
type Page[T any] struct {
	Items  []T
	Cursor string
}

// PageFetcher 按游标取一页，首页的 cursor 为空
type PageFetcher[T any] func(ctx context.Context, cursor string) (Page[T], error)

// PaginateOptions 翻页参数
type PaginateOptions struct {
	// Limit 累计条数上限，0 表示不限
	Limit int
	// MaxPages 最多请求页数，0 使用默认值
	MaxPages int
}

// Paginate 顺序翻页
// 遇到空页、达到条数上限、游标为空或重复、达到页数上限时停止。
// 每页之前检查 ctx，取消时返回已取消错误。
func Paginate[T any](ctx context.Context, opts PaginateOptions, fetch PageFetcher[T]) ([]T, error) {
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}

	var out []T
	cursor := ""
	seen := make(map[string]struct{})
	for range maxPages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := fetch(ctx, cursor)
		if err != nil {
			return nil, err
		}
		if len(page.Items) == 0 {
			break
		}
		out = append(out, page.Items...)
		if opts.Limit > 0 && len(out) >= opts.Limit {
			out = out[:opts.Limit]
			break
		}
		if page.Cursor == "" {
			break
		}
		if _, dup := seen[page.Cursor]; dup || page.Cursor == cursor {
			break
		}
		seen[page.Cursor] = struct{}{}
		cursor = page.Cursor
	}
	return out, nil
}
