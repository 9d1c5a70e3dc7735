package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

var (
	AllowImage = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

	ErrFolderExists   = errors.New("folder already exists")
	ErrFolderNotFound = errors.New("folder not found")
	ErrInvalidName    = errors.New("invalid folder or file name")
	ErrFileNotAllowed = errors.New("file type not allowed")
)

// Folder is a handle into the object store. ID is the full key prefix and always ends in "/".
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Path is the human readable location of the folder, without the trailing slash.
func (f Folder) Path() string {
	return strings.TrimSuffix(f.ID, "/")
}

// ObjectStore is the remote store holding photo folders and uploaded assets.
type ObjectStore interface {
	// EnsureFolder returns the folder called name under parent, creating it if absent.
	// Concurrent callers for the same name always get the same handle.
	EnsureFolder(ctx context.Context, name string, parent Folder) (Folder, error)
	// CreateFolder creates the folder only if absent and returns ErrFolderExists otherwise.
	CreateFolder(ctx context.Context, name string, parent Folder) (Folder, error)
	// ListFolders returns the direct children of parent whose name starts with prefix,
	// most recently created first.
	ListFolders(ctx context.Context, parent Folder, prefix string) ([]Folder, error)
	// UploadAsset stores data as filename inside folder and returns its asset reference.
	UploadAsset(ctx context.Context, data []byte, filename string, folder Folder) (string, error)
}

// RootFolder builds the handle of the configured root prefix.
func RootFolder(prefix string) Folder {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return Folder{ID: "", Name: ""}
	}
	parts := strings.Split(prefix, "/")
	return Folder{ID: prefix + "/", Name: parts[len(parts)-1]}
}

func childFolder(parent Folder, name string, createdAt time.Time) Folder {
	return Folder{ID: parent.ID + name + "/", Name: name, CreatedAt: createdAt}
}

// SanitizeName makes a scanned value safe to use as a single key segment.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	replacer := strings.NewReplacer("/", "-", "\\", "-", "\x00", "")
	return replacer.Replace(name)
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, "/\\")
}

// DetectContentType sniffs data and reports whether it is in allow.
func DetectContentType(data []byte, allow ...string) (string, bool) {
	mt := mimetype.Detect(data)
	if len(allow) == 0 {
		return mt.String(), true
	}
	for _, a := range allow {
		if mt.Is(a) {
			return a, true
		}
	}
	return mt.String(), false
}
