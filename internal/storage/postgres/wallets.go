package postgres

import (
	"context"
	"fmt"

	"talent-sourcing/internal/models"

	"github.com/gocraft/dbr/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GetRecruiterWallet reads current balances. Returns (nil, nil) when the
// recruiter has no wallet row yet, which callers treat as zero balance.
func (s *Store) GetRecruiterWallet(ctx context.Context, recruiterID uuid.UUID) (*models.RecruiterWallet, error) {
	var wallet models.RecruiterWallet

	err := s.sess.
		Select("*").
		From("recruiter_wallets").
		Where("recruiter_id = ?", recruiterID).
		LoadOneContext(ctx, &wallet)

	if err == dbr.ErrNotFound {
		return nil, nil
	}

	if err != nil {
		s.logger.Error("failed to get recruiter wallet",
			zap.String("recruiter_id", recruiterID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get recruiter wallet: %w", err)
	}

	return &wallet, nil
}

func (s *Store) GetCompanyWallet(ctx context.Context, companyID uuid.UUID) (*models.CompanyWallet, error) {
	var wallet models.CompanyWallet

	err := s.sess.
		Select("*").
		From("company_wallets").
		Where("company_id = ?", companyID).
		LoadOneContext(ctx, &wallet)

	if err == dbr.ErrNotFound {
		return nil, nil
	}

	if err != nil {
		s.logger.Error("failed to get company wallet",
			zap.String("company_id", companyID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get company wallet: %w", err)
	}

	return &wallet, nil
}

// AvailableCredits computes the payer's spendable total fresh from the
// wallet row. Never cached: balances can change between a dry run and the
// execution that follows it.
func (s *Store) AvailableCredits(ctx context.Context, payer models.Payer) (int64, error) {
	switch payer.Kind {
	case models.PayerRecruiter:
		wallet, err := s.GetRecruiterWallet(ctx, payer.ID)
		if err != nil {
			return 0, err
		}
		if wallet == nil {
			return 0, nil
		}
		return wallet.Available(), nil

	case models.PayerCompany:
		wallet, err := s.GetCompanyWallet(ctx, payer.ID)
		if err != nil {
			return 0, err
		}
		if wallet == nil {
			return 0, nil
		}
		return wallet.Credits, nil

	default:
		return 0, fmt.Errorf("unknown payer kind: %s", payer.Kind)
	}
}

// lockRecruiterWallet loads the wallet row inside tx with FOR UPDATE so no
// concurrent execution can pass the sufficiency check against the same
// balances.
func lockRecruiterWallet(ctx context.Context, tx *dbr.Tx, recruiterID uuid.UUID) (*models.RecruiterWallet, error) {
	var wallet models.RecruiterWallet

	err := tx.
		SelectBySql(`SELECT * FROM recruiter_wallets WHERE recruiter_id = $1 FOR UPDATE`, recruiterID).
		LoadOneContext(ctx, &wallet)

	if err == dbr.ErrNotFound {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("lock recruiter wallet: %w", err)
	}

	return &wallet, nil
}

func lockCompanyWallet(ctx context.Context, tx *dbr.Tx, companyID uuid.UUID) (*models.CompanyWallet, error) {
	var wallet models.CompanyWallet

	err := tx.
		SelectBySql(`SELECT * FROM company_wallets WHERE company_id = $1 FOR UPDATE`, companyID).
		LoadOneContext(ctx, &wallet)

	if err == dbr.ErrNotFound {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("lock company wallet: %w", err)
	}

	return &wallet, nil
}
