package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"surf-market/internal/mailer"
	"surf-market/internal/model"
)

const maxMessage = 2000

// ContactService relays a buyer's question to the seller by email.
type ContactService struct {
	users    UserStore
	listings ListingStore
	mail     mailer.Mailer
	logger   *zap.Logger
}

func NewContactService(us UserStore, ls ListingStore, m mailer.Mailer, logger *zap.Logger) *ContactService {
	return &ContactService{users: us, listings: ls, mail: m, logger: logger}
}

func (s *ContactService) ContactSeller(ctx context.Context, buyerID, listingID, message string) error {
	message = strings.TrimSpace(message)
	if message == "" || len(message) > maxMessage {
		return model.Invalid(model.ErrInvalidMessage, "message", "must be 1 to 2000 characters")
	}

	l, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return err
	}
	if l.Status == model.StatusRemoved {
		return model.ErrListingNotFound
	}
	if l.SellerID == buyerID {
		return model.Invalid(model.ErrInvalidMessage, "listing", "cannot contact yourself")
	}

	buyer, err := s.users.GetByID(ctx, buyerID)
	if err != nil {
		return err
	}
	seller, err := s.users.GetByID(ctx, l.SellerID)
	if err != nil {
		return fmt.Errorf("ContactService.ContactSeller: seller: %w", err)
	}

	msg, err := mailer.ContactMessage(seller.Email, mailer.ContactData{
		SellerName:   seller.Name,
		BuyerName:    buyer.Name,
		BuyerEmail:   buyer.Email,
		ListingTitle: l.Title,
		Message:      message,
	})
	if err != nil {
		return fmt.Errorf("ContactService.ContactSeller: render: %w", err)
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		return fmt.Errorf("ContactService.ContactSeller: %w", err)
	}

	s.logger.Info("seller contacted", zap.String("listing_id", listingID), zap.String("buyer_id", buyerID))
	return nil
}
