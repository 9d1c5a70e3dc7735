package provision

import (
	"Smart-Picking/domain"
	"Smart-Picking/internal/metrics"
	"Smart-Picking/internal/utils/storage"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

const (
	DateBucketLayout  = "02-01-2006"
	OrderBucketLayout = "15-04"

	// maxSuffix bounds the "-N" attempts before falling back to a random suffix.
	maxSuffix = 20
)

var orderBucketTail = regexp.MustCompile(`^\d{2}-\d{2}(-[0-9a-f]+)?$`)

type (
	ProvisionService interface {
		// Provision returns a new order folder inside the date folder of at.
		Provision(ctx context.Context, order string, at time.Time) (storage.Folder, error)
		// FindOrderFolder returns the most recent order folder of order on the day of at.
		FindOrderFolder(ctx context.Context, order string, at time.Time) (storage.Folder, error)
		DateBucket(at time.Time) string
	}

	provisionService struct {
		store   storage.ObjectStore
		root    storage.Folder
		loc     *time.Location
		locks   *keyedLock
		metrics *metrics.Registry
	}

	Option func(*provisionService)
)

func WithMetrics(m *metrics.Registry) Option {
	return func(p *provisionService) { p.metrics = m }
}

func NewProvisionService(store storage.ObjectStore, root storage.Folder, loc *time.Location, opts ...Option) ProvisionService {
	if loc == nil {
		loc = time.UTC
	}
	p := &provisionService{
		store: store,
		root:  root,
		loc:   loc,
		locks: newKeyedLock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *provisionService) DateBucket(at time.Time) string {
	return at.In(p.loc).Format(DateBucketLayout)
}

func orderBucket(order string, at time.Time) string {
	return storage.SanitizeName(strings.ToUpper(order)) + "_" + at.Format(OrderBucketLayout)
}

func (p *provisionService) dateFolder(ctx context.Context, at time.Time) (storage.Folder, error) {
	name := p.DateBucket(at)
	unlock := p.locks.Lock(name)
	defer unlock()

	folder, err := p.store.EnsureFolder(ctx, name, p.root)
	if err != nil {
		return storage.Folder{}, fmt.Errorf("ensure date folder %s: %w", name, err)
	}
	return folder, nil
}

func (p *provisionService) Provision(ctx context.Context, order string, at time.Time) (storage.Folder, error) {
	if strings.TrimSpace(order) == "" {
		return storage.Folder{}, domain.ErrEmptyCode
	}
	at = at.In(p.loc)

	parent, err := p.dateFolder(ctx, at)
	if err != nil {
		return storage.Folder{}, err
	}

	base := orderBucket(order, at)
	for i := 1; i <= maxSuffix; i++ {
		name := base
		if i > 1 {
			name = fmt.Sprintf("%s-%d", base, i)
		}
		folder, err := p.store.CreateFolder(ctx, name, parent)
		if errors.Is(err, storage.ErrFolderExists) {
			continue
		}
		if err != nil {
			return storage.Folder{}, fmt.Errorf("create order folder %s: %w", name, err)
		}
		p.created("order")
		return folder, nil
	}

	name := base + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	log.Warnf("order folder %s taken %d times, using %s", base, maxSuffix, name)
	folder, err := p.store.CreateFolder(ctx, name, parent)
	if err != nil {
		return storage.Folder{}, fmt.Errorf("create order folder %s: %w", name, err)
	}
	p.created("order")
	return folder, nil
}

func (p *provisionService) FindOrderFolder(ctx context.Context, order string, at time.Time) (storage.Folder, error) {
	order = strings.ToUpper(strings.TrimSpace(order))
	if order == "" {
		return storage.Folder{}, domain.ErrEmptyCode
	}
	dateName := p.DateBucket(at)

	dates, err := p.store.ListFolders(ctx, p.root, dateName)
	if err != nil {
		return storage.Folder{}, err
	}
	var dateFolder *storage.Folder
	for i := range dates {
		if dates[i].Name == dateName {
			dateFolder = &dates[i]
			break
		}
	}
	if dateFolder == nil {
		return storage.Folder{}, domain.ErrDateFolderNotFound
	}

	prefix := storage.SanitizeName(order) + "_"
	folders, err := p.store.ListFolders(ctx, *dateFolder, prefix)
	if err != nil {
		return storage.Folder{}, err
	}
	for _, f := range folders {
		if orderBucketTail.MatchString(strings.TrimPrefix(f.Name, prefix)) {
			return f, nil
		}
	}
	return storage.Folder{}, domain.ErrOrderFolderNotFound
}

func (p *provisionService) created(level string) {
	if p.metrics != nil {
		p.metrics.FoldersCreated.WithLabelValues(level).Inc()
	}
}
