package escrow

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"kiwi/internal/models"
	"kiwi/internal/services"
)

type EscrowServiceSuite struct {
	suite.Suite
	db     *gorm.DB
	svc    *EscrowService
	seller models.User
	buyer  models.User
}

func TestEscrowServiceSuite(t *testing.T) {
	suite.Run(t, new(EscrowServiceSuite))
}

func (s *EscrowServiceSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)
	s.Require().NoError(db.AutoMigrate(
		&models.User{},
		&models.Contract{},
		&models.ContractPhoto{},
		&models.Payment{},
		&models.Notification{},
	))
	s.db = db
	s.svc = NewEscrowService(db, services.NewNotificationService())

	s.seller = models.User{Username: "anaquispe", Email: "ana@kiwi.bo", FirstName: "Ana", LastName: "Quispe", Password: "hash"}
	s.buyer = models.User{Username: "carlosmamani", Email: "carlos@kiwi.bo", FirstName: "Carlos", LastName: "Mamani", Password: "hash"}
	s.Require().NoError(db.Create(&s.seller).Error)
	s.Require().NoError(db.Create(&s.buyer).Error)
}

func (s *EscrowServiceSuite) newContract() *models.Contract {
	contract, err := s.svc.Create(s.seller.ID, CreateContractInput{
		Title:     "Bicicleta montañera",
		Price:     1500,
		Condition: models.ConditionGood,
		Photos:    []PhotoInput{{URL: "https://cdn.kiwi.bo/bici.jpg", PublicID: "kiwi/contracts/bici"}},
	})
	s.Require().NoError(err)
	return contract
}

// lockedContract walks a fresh contract to LOCKED with the buyer assigned.
func (s *EscrowServiceSuite) lockedContract() *models.Contract {
	contract := s.newContract()
	_, err := s.svc.InitiatePayment(s.buyer.ID, contract.ID)
	s.Require().NoError(err)
	locked, err := s.svc.ConfirmPayment(s.buyer.ID, contract.ID)
	s.Require().NoError(err)
	return locked
}

func (s *EscrowServiceSuite) notificationCount(userID uint, notifType models.NotificationType) int64 {
	var count int64
	s.Require().NoError(s.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", userID, notifType).
		Count(&count).Error)
	return count
}

func (s *EscrowServiceSuite) TestCreatePublishesListing() {
	contract := s.newContract()

	s.Equal(models.ContractAwaitingPayment, contract.Status)
	s.Len(contract.AccessCode, 6)
	for _, r := range contract.AccessCode {
		s.Contains(accessCodeCharset, string(r))
	}
	s.Equal(fmt.Sprintf("kiwiapp://product/%d", contract.ID), contract.QRCodeData)
	s.Len(contract.Photos, 1)
	s.Nil(contract.BuyerID)
}

func (s *EscrowServiceSuite) TestCreateValidation() {
	base := CreateContractInput{
		Title:     "Bicicleta",
		Price:     100,
		Condition: models.ConditionNew,
		Photos:    []PhotoInput{{URL: "https://cdn.kiwi.bo/p.jpg"}},
	}

	in := base
	in.Title = "   "
	_, err := s.svc.Create(s.seller.ID, in)
	s.ErrorIs(err, ErrValidation)

	in = base
	in.Price = 0
	_, err = s.svc.Create(s.seller.ID, in)
	s.ErrorIs(err, ErrValidation)

	in = base
	in.Condition = "Roto"
	_, err = s.svc.Create(s.seller.ID, in)
	s.ErrorIs(err, ErrValidation)

	in = base
	in.Photos = nil
	_, err = s.svc.Create(s.seller.ID, in)
	s.ErrorIs(err, ErrValidation)

	in = base
	in.Photos = make([]PhotoInput, 11)
	for i := range in.Photos {
		in.Photos[i] = PhotoInput{URL: fmt.Sprintf("https://cdn.kiwi.bo/p%d.jpg", i)}
	}
	_, err = s.svc.Create(s.seller.ID, in)
	s.ErrorIs(err, ErrValidation)
}

func (s *EscrowServiceSuite) TestLookupByCodeRoundTrip() {
	contract := s.newContract()

	// Codes are case- and whitespace-insensitive on entry.
	found, err := s.svc.LookupByCode(0, "  "+strings.ToLower(contract.AccessCode)+" ")
	s.NoError(err)
	s.Equal(contract.ID, found.ID)
	s.Nil(found.BuyerID, "anonymous lookup must not claim the buyer slot")
}

func (s *EscrowServiceSuite) TestLookupByCodeErrors() {
	_, err := s.svc.LookupByCode(0, "   ")
	s.ErrorIs(err, ErrInvalidInput)

	_, err = s.svc.LookupByCode(0, "ZZZZZZ")
	s.ErrorIs(err, ErrNotFound)
}

func (s *EscrowServiceSuite) TestLookupAssignsBuyer() {
	contract := s.newContract()

	found, err := s.svc.LookupByCode(s.buyer.ID, contract.AccessCode)
	s.NoError(err)
	s.Require().NotNil(found.BuyerID)
	s.Equal(s.buyer.ID, *found.BuyerID)
	s.Equal(int64(1), s.notificationCount(s.seller.ID, models.NotificationBuyerAssigned))

	// A second open by the same buyer does not re-notify.
	_, err = s.svc.LookupByCode(s.buyer.ID, contract.AccessCode)
	s.NoError(err)
	s.Equal(int64(1), s.notificationCount(s.seller.ID, models.NotificationBuyerAssigned))
}

func (s *EscrowServiceSuite) TestSellerLookupDoesNotSelfAssign() {
	contract := s.newContract()

	found, err := s.svc.LookupByCode(s.seller.ID, contract.AccessCode)
	s.NoError(err)
	s.Nil(found.BuyerID)
}

func (s *EscrowServiceSuite) TestLookupByIDRequiresParticipation() {
	contract := s.newContract()

	stranger := models.User{Username: "tercero", Email: "tercero@kiwi.bo", Password: "hash"}
	s.Require().NoError(s.db.Create(&stranger).Error)

	// Buyer slot taken by someone else.
	_, err := s.svc.LookupByCode(s.buyer.ID, contract.AccessCode)
	s.Require().NoError(err)

	_, err = s.svc.LookupByID(stranger.ID, contract.ID)
	s.ErrorIs(err, ErrPermissionDenied)

	_, err = s.svc.LookupByID(0, contract.ID)
	s.ErrorIs(err, ErrAuthRequired)

	_, err = s.svc.LookupByID(s.seller.ID, 99999)
	s.ErrorIs(err, ErrNotFound)
}

func (s *EscrowServiceSuite) TestInitiatePaymentIdempotent() {
	contract := s.newContract()

	first, err := s.svc.InitiatePayment(s.buyer.ID, contract.ID)
	s.NoError(err)
	s.Equal(models.PaymentPending, first.Status)
	s.Equal(contract.Price, first.Amount)
	s.True(strings.HasPrefix(first.Reference, "KIWI-"))
	s.Contains(first.QRCodeData, first.Reference)

	second, err := s.svc.InitiatePayment(s.buyer.ID, contract.ID)
	s.NoError(err)
	s.Equal(first.ID, second.ID)
	s.Equal(first.Reference, second.Reference)
}

func (s *EscrowServiceSuite) TestSellerCannotPayOwnContract() {
	contract := s.newContract()

	_, err := s.svc.InitiatePayment(s.seller.ID, contract.ID)
	s.ErrorIs(err, ErrPermissionDenied)
}

func (s *EscrowServiceSuite) TestConfirmPaymentLocksContract() {
	contract := s.newContract()
	payment, err := s.svc.InitiatePayment(s.buyer.ID, contract.ID)
	s.Require().NoError(err)

	locked, err := s.svc.ConfirmPayment(s.buyer.ID, contract.ID)
	s.NoError(err)
	s.Equal(models.ContractLocked, locked.Status)

	var stored models.Payment
	s.Require().NoError(s.db.First(&stored, payment.ID).Error)
	s.Equal(models.PaymentConfirmed, stored.Status)
	s.NotNil(stored.ConfirmedAt)

	s.Equal(int64(1), s.notificationCount(s.seller.ID, models.NotificationFundsLocked))

	// Re-tap is a no-op.
	again, err := s.svc.ConfirmPayment(s.buyer.ID, contract.ID)
	s.NoError(err)
	s.Equal(models.ContractLocked, again.Status)
	s.Equal(int64(1), s.notificationCount(s.seller.ID, models.NotificationFundsLocked))
}

func (s *EscrowServiceSuite) TestConfirmPaymentWithoutPendingPayment() {
	contract := s.newContract()
	_, err := s.svc.LookupByCode(s.buyer.ID, contract.AccessCode)
	s.Require().NoError(err)

	_, err = s.svc.ConfirmPayment(s.buyer.ID, contract.ID)
	s.ErrorIs(err, ErrConflict)
}

func (s *EscrowServiceSuite) TestConfirmPaymentAfterSettlement() {
	contract := s.lockedContract()

	_, err := s.svc.ConfirmShipment(s.seller.ID, contract.ID)
	s.Require().NoError(err)
	_, err = s.svc.ReleaseFunds(s.buyer.ID, contract.ID)
	s.Require().NoError(err)
	_, err = s.svc.Complete(s.seller.ID, contract.ID)
	s.Require().NoError(err)

	_, err = s.svc.ConfirmPayment(s.buyer.ID, contract.ID)
	s.ErrorIs(err, ErrIllegalTransition)
}

func (s *EscrowServiceSuite) TestConfirmShipment() {
	contract := s.lockedContract()

	shipped, err := s.svc.ConfirmShipment(s.seller.ID, contract.ID)
	s.NoError(err)
	s.Equal(models.ContractInTransit, shipped.Status)
	s.Equal(int64(1), s.notificationCount(s.buyer.ID, models.NotificationProductShipped))
}

func (s *EscrowServiceSuite) TestConfirmShipmentWrongRole() {
	contract := s.lockedContract()

	_, err := s.svc.ConfirmShipment(s.buyer.ID, contract.ID)
	s.ErrorIs(err, ErrIllegalTransition)

	var stored models.Contract
	s.Require().NoError(s.db.First(&stored, contract.ID).Error)
	s.Equal(models.ContractLocked, stored.Status, "a rejected transition must not touch the status")
}

func (s *EscrowServiceSuite) TestReleaseFundsFromLocked() {
	contract := s.lockedContract()

	released, err := s.svc.ReleaseFunds(s.buyer.ID, contract.ID)
	s.NoError(err)
	s.Equal(models.ContractReleased, released.Status)
	s.Equal(int64(1), s.notificationCount(s.seller.ID, models.NotificationFundsReleased))
}

func (s *EscrowServiceSuite) TestReleaseFundsFromInTransit() {
	contract := s.lockedContract()
	_, err := s.svc.ConfirmShipment(s.seller.ID, contract.ID)
	s.Require().NoError(err)

	released, err := s.svc.ReleaseFunds(s.buyer.ID, contract.ID)
	s.NoError(err)
	s.Equal(models.ContractReleased, released.Status)
}

func (s *EscrowServiceSuite) TestReleaseFundsBeforePayment() {
	contract := s.newContract()
	_, err := s.svc.LookupByCode(s.buyer.ID, contract.AccessCode)
	s.Require().NoError(err)

	_, err = s.svc.ReleaseFunds(s.buyer.ID, contract.ID)
	s.ErrorIs(err, ErrIllegalTransition)

	var stored models.Contract
	s.Require().NoError(s.db.First(&stored, contract.ID).Error)
	s.Equal(models.ContractAwaitingPayment, stored.Status)
}

func (s *EscrowServiceSuite) TestComplete() {
	contract := s.lockedContract()
	_, err := s.svc.ReleaseFunds(s.buyer.ID, contract.ID)
	s.Require().NoError(err)

	completed, err := s.svc.Complete(s.seller.ID, contract.ID)
	s.NoError(err)
	s.Equal(models.ContractCompleted, completed.Status)
	s.Equal(int64(1), s.notificationCount(s.buyer.ID, models.NotificationContractCompleted))
}

func (s *EscrowServiceSuite) TestOpenDispute() {
	contract := s.lockedContract()

	disputed, err := s.svc.OpenDispute(s.buyer.ID, contract.ID, "El producto no corresponde a las fotos")
	s.NoError(err)
	s.Equal(models.ContractDisputed, disputed.Status)
	s.Equal(int64(1), s.notificationCount(s.seller.ID, models.NotificationDisputeOpened))
	s.Zero(s.notificationCount(s.buyer.ID, models.NotificationDisputeOpened))
}

func (s *EscrowServiceSuite) TestOpenDisputeRequiresReason() {
	contract := s.lockedContract()

	_, err := s.svc.OpenDispute(s.buyer.ID, contract.ID, "   ")
	s.ErrorIs(err, ErrValidation)
}

func (s *EscrowServiceSuite) TestRefundResolvesDispute() {
	contract := s.lockedContract()
	_, err := s.svc.OpenDispute(s.buyer.ID, contract.ID, "No llegó el producto")
	s.Require().NoError(err)

	refunded, err := s.svc.Refund(contract.ID)
	s.NoError(err)
	s.Equal(models.ContractRefunded, refunded.Status)
	s.Equal(int64(1), s.notificationCount(s.seller.ID, models.NotificationPaymentRefunded))
	s.Equal(int64(1), s.notificationCount(s.buyer.ID, models.NotificationPaymentRefunded))
}

func (s *EscrowServiceSuite) TestMyTransactions() {
	contract := s.lockedContract()

	sellerView, err := s.svc.MyTransactions(s.seller.ID)
	s.NoError(err)
	s.Require().Len(sellerView, 1)
	s.Equal(contract.ID, sellerView[0].ID)
	s.Equal("seller", sellerView[0].Role)
	s.Equal("Carlos Mamani", sellerView[0].OtherPartyName)

	buyerView, err := s.svc.MyTransactions(s.buyer.ID)
	s.NoError(err)
	s.Require().Len(buyerView, 1)
	s.Equal("buyer", buyerView[0].Role)
	s.Equal("Ana Quispe", buyerView[0].OtherPartyName)
}

func (s *EscrowServiceSuite) TestMyTransactionsWithoutBuyer() {
	s.newContract()

	sellerView, err := s.svc.MyTransactions(s.seller.ID)
	s.NoError(err)
	s.Require().Len(sellerView, 1)
	s.Equal("Sin comprador", sellerView[0].OtherPartyName)
}

func (s *EscrowServiceSuite) TestAccessCodesAreUnique() {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		contract, err := s.svc.Create(s.seller.ID, CreateContractInput{
			Title:     fmt.Sprintf("Producto %d", i),
			Price:     50,
			Condition: models.ConditionNew,
			Photos:    []PhotoInput{{URL: "https://cdn.kiwi.bo/p.jpg"}},
		})
		s.Require().NoError(err)
		s.False(seen[contract.AccessCode], "duplicate access code %s", contract.AccessCode)
		seen[contract.AccessCode] = true
	}
}
