// Package drive crawls remote file trees and downloads their file content.
package drive

import (
	"context"

	"github.com/mars-analytics/rag-platform/internal/models"
)

// TreeSource lists and downloads items from a remote file tree. ListChildren
// returns one page of a folder's direct children plus the token for the next
// page; an empty token means the listing is complete.
type TreeSource interface {
	ListChildren(ctx context.Context, folderID, pageToken string) ([]models.RemoteItem, string, error)
	// Download returns the file's bytes and its effective MIME type, which
	// differs from the declared one when the provider exports a native
	// format to something parseable.
	Download(ctx context.Context, item models.RemoteItem) ([]byte, string, error)
}
