package drive

import (
	"context"
	"fmt"

	"github.com/mars-analytics/rag-platform/internal/models"
)

// Crawler walks a remote folder tree breadth-first and collects every file
// reachable from the root.
type Crawler struct {
	source TreeSource
}

// NewCrawler returns a Crawler over the given source.
func NewCrawler(source TreeSource) *Crawler {
	return &Crawler{source: source}
}

// ListFiles returns every file under rootFolderID, any depth, in
// breadth-first discovery order. Folders are traversed, not returned.
// Every page of every folder listing is consumed, so pagination can never
// silently drop items.
func (c *Crawler) ListFiles(ctx context.Context, rootFolderID string) ([]models.RemoteItem, error) {
	var files []models.RemoteItem

	queue := []string{rootFolderID}
	for len(queue) > 0 {
		folderID := queue[0]
		queue = queue[1:]

		pageToken := ""
		for {
			items, next, err := c.source.ListChildren(ctx, folderID, pageToken)
			if err != nil {
				return nil, fmt.Errorf("failed to crawl folder %s: %w", folderID, err)
			}

			for _, item := range items {
				if item.Kind == models.ItemKindFolder {
					queue = append(queue, item.ID)
					continue
				}
				files = append(files, item)
			}

			if next == "" {
				break
			}
			pageToken = next
		}
	}

	return files, nil
}
