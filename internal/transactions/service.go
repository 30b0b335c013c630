package transactions

import (
	"context"
	"fmt"
	"strings"

	"github.com/schoolpay/schoolpay-backend/pkg/logger"
	"github.com/schoolpay/schoolpay-backend/pkg/pagination"
	pkgerrors "github.com/schoolpay/schoolpay-backend/pkg/errors"
)

type statusChecker interface {
	CheckStatus(ctx context.Context, collectRequestID, schoolID string) (map[string]any, error)
}

// ListResult bundles one page of merged transactions with its pagination
// metadata.
type ListResult struct {
	Transactions []View          `json:"transactions"`
	Pagination   pagination.Meta `json:"pagination"`
}

// Service is the read side of the payment subsystem.
type Service interface {
	List(ctx context.Context, filter Filter, params pagination.Params, sort Sort) (*ListResult, error)
	GetByCustomOrderID(ctx context.Context, customOrderID string) (*View, error)
	CheckGatewayStatus(ctx context.Context, collectRequestID, schoolID string) (map[string]any, error)
}

type service struct {
	repo    Repository
	checker statusChecker
	logg    *logger.Logger
}

// NewService builds the transaction query service.
func NewService(repo Repository, checker statusChecker, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("transactions repository is required")
	}
	if checker == nil {
		return nil, fmt.Errorf("gateway status checker is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{repo: repo, checker: checker, logg: logg}, nil
}

func (s *service) List(ctx context.Context, filter Filter, params pagination.Params, sort Sort) (*ListResult, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	params, err := params.Normalize()
	if err != nil {
		return nil, err
	}
	if !sort.valid {
		sort, err = NormalizeSort(sort.By, "")
		if err != nil {
			return nil, err
		}
	}

	views, total, err := s.repo.List(ctx, filter, params, sort)
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Transactions: views,
		Pagination:   pagination.BuildMeta(params, total),
	}, nil
}

func (s *service) GetByCustomOrderID(ctx context.Context, customOrderID string) (*View, error) {
	if strings.TrimSpace(customOrderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "custom order id is required")
	}
	return s.repo.FindByCustomOrderID(ctx, customOrderID)
}

func (s *service) CheckGatewayStatus(ctx context.Context, collectRequestID, schoolID string) (map[string]any, error) {
	if strings.TrimSpace(collectRequestID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "collect request id is required")
	}
	if strings.TrimSpace(schoolID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "school id is required")
	}

	ctx = s.logg.WithSchoolID(ctx, schoolID)
	payload, err := s.checker.CheckStatus(ctx, collectRequestID, schoolID)
	if err != nil {
		s.logg.Error(ctx, "gateway status check failed", err)
		return nil, err
	}
	return payload, nil
}
