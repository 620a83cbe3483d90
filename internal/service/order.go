package service

// orderColumns is the whitelist of sortable columns; anything else falls
// back to the default ordering.
var orderColumns = map[string]string{
	"created_at":     "created_at",
	"updated_at":     "updated_at",
	"title":          "title",
	"view_count":     "view_count",
	"download_count": "download_count",
	"auto_cancel_at": "auto_cancel_at",
}

func sanitizeOrderBy(orderBy string) string {
	return orderColumns[orderBy]
}
