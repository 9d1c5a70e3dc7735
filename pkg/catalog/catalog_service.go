package catalog

import (
	"Smart-Picking/domain"
	"Smart-Picking/entities"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

type (
	CatalogService interface {
		Lookup(ctx context.Context, code string) (domain.CatalogEntry, error)
		ImportSheet(ctx context.Context, r io.ReaderAt, size int64) (domain.ImportCatalogResponse, error)
	}

	catalogService struct {
		catalogRepository CatalogRepository
	}
)

func NewCatalogService(catalogRepository CatalogRepository) CatalogService {
	return &catalogService{
		catalogRepository: catalogRepository,
	}
}

func (s *catalogService) Lookup(ctx context.Context, code string) (domain.CatalogEntry, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.CatalogEntry{}, domain.ErrEmptyCode
	}
	entry, err := s.catalogRepository.FindFirstByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.CatalogEntry{}, domain.ErrProductNotFound
		}
		return domain.CatalogEntry{}, err
	}
	return toDomain(entry), nil
}

func (s *catalogService) ImportSheet(ctx context.Context, r io.ReaderAt, size int64) (domain.ImportCatalogResponse, error) {
	rows, err := ReadSheet(r, size)
	if err != nil {
		return domain.ImportCatalogResponse{}, err
	}
	entries, skipped, err := ParseRows(rows)
	if err != nil {
		return domain.ImportCatalogResponse{}, err
	}
	if err := s.catalogRepository.ReplaceAll(ctx, entries); err != nil {
		return domain.ImportCatalogResponse{}, err
	}
	log.Infof("catalog imported: %d entries, %d skipped", len(entries), skipped)
	return domain.ImportCatalogResponse{Imported: len(entries), Skipped: skipped}, nil
}

func toDomain(e *entities.CatalogEntry) domain.CatalogEntry {
	return domain.CatalogEntry{
		Code:        e.Code,
		DisplayName: e.DisplayName,
		Zone:        e.Zone,
		Location:    e.Location,
		ExpectedQty: e.ExpectedQty,
	}
}
