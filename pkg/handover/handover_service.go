package handover

import (
	"Smart-Picking/domain"
	"Smart-Picking/internal/utils/storage"
	"Smart-Picking/pkg/scanner"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

type (
	FolderFinder interface {
		FindOrderFolder(ctx context.Context, order string, at time.Time) (storage.Folder, error)
	}

	RiderLedger interface {
		AppendRiderRow(ctx context.Context, row domain.RiderLedgerRow) error
	}

	HandoverService interface {
		FindFolder(ctx context.Context, order string) (domain.HandoverFolderResponse, error)
		UploadPhoto(ctx context.Context, order, operatorName string, data []byte) (domain.UploadHandoverResponse, error)
	}

	handoverService struct {
		folders FolderFinder
		store   storage.ObjectStore
		ledger  RiderLedger
		loc     *time.Location
		now     func() time.Time
	}
)

func NewHandoverService(folders FolderFinder, store storage.ObjectStore, ledger RiderLedger, loc *time.Location) HandoverService {
	if loc == nil {
		loc = time.UTC
	}
	return &handoverService{
		folders: folders,
		store:   store,
		ledger:  ledger,
		loc:     loc,
		now:     time.Now,
	}
}

func (s *handoverService) FindFolder(ctx context.Context, order string) (domain.HandoverFolderResponse, error) {
	order = strings.ToUpper(strings.TrimSpace(order))
	folder, err := s.folders.FindOrderFolder(ctx, order, s.now().In(s.loc))
	if err != nil {
		return domain.HandoverFolderResponse{}, err
	}
	return domain.HandoverFolderResponse{
		Order:      order,
		FolderID:   folder.ID,
		FolderName: folder.Name,
	}, nil
}

// UploadPhoto stores a rider handover photo in today's latest folder of order and logs it
// to the rider sheet. A ledger failure leaves the photo in place and is returned as a warning.
func (s *handoverService) UploadPhoto(ctx context.Context, order, operatorName string, data []byte) (domain.UploadHandoverResponse, error) {
	order = strings.ToUpper(strings.TrimSpace(order))
	at := s.now().In(s.loc)

	folder, err := s.folders.FindOrderFolder(ctx, order, at)
	if err != nil {
		return domain.UploadHandoverResponse{}, err
	}
	jpegData, _, err := scanner.NormalizePhoto(data)
	if err != nil {
		return domain.UploadHandoverResponse{}, err
	}

	filename := fmt.Sprintf("RIDER_%s_%s.jpg", storage.SanitizeName(order), at.Format("20060102_150405"))
	ref, err := s.store.UploadAsset(ctx, jpegData, filename, folder)
	if err != nil {
		return domain.UploadHandoverResponse{}, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}

	res := domain.UploadHandoverResponse{
		Order:      order,
		FolderName: folder.Name,
		AssetLink:  ref,
	}
	row := domain.RiderLedgerRow{
		Timestamp:    at.Format("2006-01-02 15:04:05"),
		OperatorName: operatorName,
		Order:        order,
		FolderName:   folder.Name,
		AssetLink:    ref,
	}
	if err := s.ledger.AppendRiderRow(ctx, row); err != nil {
		log.Warnf("rider ledger append for order %s failed: %v", order, err)
		res.Warning = fmt.Sprintf("%s: %v", domain.ErrLedgerFailed, err)
	}
	return res, nil
}
