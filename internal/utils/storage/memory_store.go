package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an ObjectStore kept in process memory. It backs the "memory" storage
// driver for local runs and the package tests.
type MemoryStore struct {
	mu      sync.Mutex
	now     func() time.Time
	seq     int64
	folders map[string]memoryFolder
	objects map[string][]byte
}

type memoryFolder struct {
	Folder
	seq int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:     time.Now,
		folders: make(map[string]memoryFolder),
		objects: make(map[string][]byte),
	}
}

func (m *MemoryStore) createLocked(name string, parent Folder) Folder {
	m.seq++
	folder := childFolder(parent, name, m.now())
	m.folders[folder.ID] = memoryFolder{Folder: folder, seq: m.seq}
	return folder
}

func (m *MemoryStore) EnsureFolder(_ context.Context, name string, parent Folder) (Folder, error) {
	if !validName(name) {
		return Folder{}, ErrInvalidName
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.folders[parent.ID+name+"/"]; ok {
		return f.Folder, nil
	}
	return m.createLocked(name, parent), nil
}

func (m *MemoryStore) CreateFolder(_ context.Context, name string, parent Folder) (Folder, error) {
	if !validName(name) {
		return Folder{}, ErrInvalidName
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.folders[parent.ID+name+"/"]; ok {
		return Folder{}, ErrFolderExists
	}
	return m.createLocked(name, parent), nil
}

func (m *MemoryStore) ListFolders(_ context.Context, parent Folder, prefix string) ([]Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found []memoryFolder
	for id, f := range m.folders {
		rest := strings.TrimPrefix(id, parent.ID)
		if !strings.HasPrefix(id, parent.ID) || strings.Count(rest, "/") != 1 {
			continue
		}
		if strings.HasPrefix(f.Name, prefix) {
			found = append(found, f)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].seq > found[j].seq })

	folders := make([]Folder, 0, len(found))
	for _, f := range found {
		folders = append(folders, f.Folder)
	}
	return folders, nil
}

func (m *MemoryStore) UploadAsset(_ context.Context, data []byte, filename string, folder Folder) (string, error) {
	if !validName(filename) {
		return "", ErrInvalidName
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.folders[folder.ID]; !ok && folder.ID != "" {
		return "", ErrFolderNotFound
	}
	key := folder.ID + filename
	m.objects[key] = append([]byte(nil), data...)
	return "memory://" + key, nil
}

// Object returns a stored asset by key.
func (m *MemoryStore) Object(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[strings.TrimPrefix(key, "memory://")]
	return data, ok
}

// ObjectCount reports how many assets were uploaded.
func (m *MemoryStore) ObjectCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// FolderCount reports how many folders exist under parent, at any depth below it
// when recursive is set.
func (m *MemoryStore) FolderCount(parent Folder, recursive bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id := range m.folders {
		if !strings.HasPrefix(id, parent.ID) || id == parent.ID {
			continue
		}
		if recursive || strings.Count(strings.TrimPrefix(id, parent.ID), "/") == 1 {
			n++
		}
	}
	return n
}
