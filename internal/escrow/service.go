package escrow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"kiwi/internal/models"
	"kiwi/internal/services"
)

// EscrowService orchestrates the contract lifecycle against the database:
// lookup, creation, payment and the status transitions. Every mutating
// operation runs as one transaction so the status change and the
// notification it produces commit together or not at all.
type EscrowService struct {
	db            *gorm.DB
	notifications *services.NotificationService
}

func NewEscrowService(db *gorm.DB, notifications *services.NotificationService) *EscrowService {
	return &EscrowService{
		db:            db,
		notifications: notifications,
	}
}

type PhotoInput struct {
	URL      string
	PublicID string
}

type CreateContractInput struct {
	Title       string
	Description string
	Price       float64
	Condition   string
	Photos      []PhotoInput
}

const maxPhotos = 10

// Create validates the listing, assigns an access code and deep-link QR, and
// publishes it: the contract is stored already AWAITING_PAYMENT, the DRAFT
// state existing only inside the creating transaction.
func (s *EscrowService) Create(sellerID uint, in CreateContractInput) (*models.Contract, error) {
	if sellerID == 0 {
		return nil, ErrAuthRequired
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: el título es requerido", ErrValidation)
	}
	if in.Price <= 0 {
		return nil, fmt.Errorf("%w: el precio debe ser mayor a 0", ErrValidation)
	}
	if !validCondition(in.Condition) {
		return nil, fmt.Errorf("%w: condición inválida", ErrValidation)
	}
	if len(in.Photos) == 0 {
		return nil, fmt.Errorf("%w: se requiere al menos una foto", ErrValidation)
	}
	if len(in.Photos) > maxPhotos {
		return nil, fmt.Errorf("%w: máximo %d fotos permitidas", ErrValidation, maxPhotos)
	}

	code, err := s.uniqueAccessCode()
	if err != nil {
		return nil, err
	}

	contract := models.Contract{
		SellerID:    sellerID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Condition:   in.Condition,
		AccessCode:  code,
		Status:      models.ContractDraft,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&contract).Error; err != nil {
			return err
		}

		// Publish: the QR needs the server-assigned id.
		if _, err := Transition(contract.Status, models.ContractAwaitingPayment, RoleSeller); err != nil {
			return err
		}
		contract.QRCodeData = deepLink(contract.ID)
		contract.Status = models.ContractAwaitingPayment
		if err := tx.Model(&models.Contract{}).Where("id = ?", contract.ID).Updates(map[string]interface{}{
			"qr_code_data": contract.QRCodeData,
			"status":       contract.Status,
		}).Error; err != nil {
			return err
		}

		for i, photo := range in.Photos {
			p := models.ContractPhoto{
				ContractID: contract.ID,
				Image:      photo.URL,
				PublicID:   photo.PublicID,
				Order:      i,
			}
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.getContract(contract.ID)
}

// LookupByID fetches a contract for an authenticated party, auto-assigning
// the caller as buyer when the listing has none and the caller is not the
// seller.
func (s *EscrowService) LookupByID(actorID, contractID uint) (*models.Contract, error) {
	if actorID == 0 {
		return nil, ErrAuthRequired
	}

	contract, err := s.getContract(contractID)
	if err != nil {
		return nil, err
	}

	if err := s.maybeAssignBuyer(contract, actorID); err != nil {
		return nil, err
	}

	if contract.SellerID != actorID && (contract.BuyerID == nil || *contract.BuyerID != actorID) {
		return nil, fmt.Errorf("%w: no tienes permiso para ver este contrato", ErrPermissionDenied)
	}

	return contract, nil
}

// LookupByCode resolves an access code. The endpoint is public: actorID 0 is
// allowed and simply skips buyer assignment.
func (s *EscrowService) LookupByCode(actorID uint, code string) (*models.Contract, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, fmt.Errorf("%w: código de acceso requerido", ErrInvalidInput)
	}

	var contract models.Contract
	err := s.db.Preload("Seller").Preload("Buyer").Preload("Photos", photoOrder).
		Where("access_code = ?", normalized).First(&contract).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: código %s", ErrNotFound, normalized)
		}
		return nil, err
	}

	if actorID != 0 {
		if err := s.maybeAssignBuyer(&contract, actorID); err != nil {
			return nil, err
		}
	}

	return &contract, nil
}

// InitiatePayment creates the bank voucher for the buyer, or returns the one
// already pending: re-taps on the payment screen never mint a second voucher.
func (s *EscrowService) InitiatePayment(actorID, contractID uint) (*models.Payment, error) {
	if actorID == 0 {
		return nil, ErrAuthRequired
	}

	contract, err := s.getContract(contractID)
	if err != nil {
		return nil, err
	}
	if contract.SellerID == actorID {
		return nil, fmt.Errorf("%w: el vendedor no puede pagar su propio contrato", ErrPermissionDenied)
	}
	if err := s.maybeAssignBuyer(contract, actorID); err != nil {
		return nil, err
	}
	if contract.BuyerID == nil || *contract.BuyerID != actorID {
		return nil, fmt.Errorf("%w: este contrato ya tiene otro comprador", ErrPermissionDenied)
	}
	if contract.Status != models.ContractAwaitingPayment {
		return nil, fmt.Errorf("%w: el contrato no está esperando pago (estado %s)", ErrIllegalTransition, contract.Status)
	}

	var existing models.Payment
	err = s.db.Where("contract_id = ? AND status = ?", contractID, models.PaymentPending).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	reference := newPaymentReference()
	payment := models.Payment{
		ContractID: contractID,
		Reference:  reference,
		Amount:     contract.Price,
		Status:     models.PaymentPending,
		QRCodeData: paymentVoucherData(reference, contract.Price),
	}
	if err := s.db.Create(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// ConfirmPayment confirms the pending payment and locks the contract in one
// atomic step. Without a pending payment the call fails with ErrConflict and
// the client should refresh.
func (s *EscrowService) ConfirmPayment(actorID, contractID uint) (*models.Contract, error) {
	contract, role, err := s.contractAndRole(actorID, contractID)
	if err != nil {
		return nil, err
	}

	switch contract.Status {
	case models.ContractAwaitingPayment:
	case models.ContractLocked:
		// Already confirmed; idempotent re-tap.
		return contract, nil
	default:
		return nil, fmt.Errorf("%w: el contrato no acepta pagos (estado %s)", ErrIllegalTransition, contract.Status)
	}

	var payment models.Payment
	err = s.db.Where("contract_id = ? AND status = ?", contractID, models.PaymentPending).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no existe un pago pendiente para este contrato", ErrConflict)
		}
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", payment.ID, models.PaymentPending).
			Updates(map[string]interface{}{"status": models.PaymentConfirmed, "confirmed_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: el pago fue procesado por otra solicitud", ErrConflict)
		}

		changed, err := s.transitionContract(tx, contract, models.ContractLocked, role)
		if err != nil || !changed {
			return err
		}

		buyerName := "El comprador"
		if contract.Buyer != nil {
			buyerName = contract.Buyer.DisplayName()
		}
		return s.notifications.NotifyFundsLocked(tx, contract.SellerID, buyerName, contract.Price, contract.Title, contract.ID)
	})
	if err != nil {
		return nil, err
	}

	return contract, nil
}

// ConfirmShipment moves LOCKED to IN_TRANSIT (seller action).
func (s *EscrowService) ConfirmShipment(actorID, contractID uint) (*models.Contract, error) {
	return s.transitionWithNotification(actorID, contractID, models.ContractInTransit,
		func(tx *gorm.DB, c *models.Contract) error {
			if c.BuyerID == nil {
				return nil
			}
			return s.notifications.NotifyProductShipped(tx, *c.BuyerID, c.Seller.DisplayName(), c.Title, c.ID)
		})
}

// ReleaseFunds moves LOCKED or IN_TRANSIT to RELEASED (buyer confirms receipt).
func (s *EscrowService) ReleaseFunds(actorID, contractID uint) (*models.Contract, error) {
	return s.transitionWithNotification(actorID, contractID, models.ContractReleased,
		func(tx *gorm.DB, c *models.Contract) error {
			buyerName := "El comprador"
			if c.Buyer != nil {
				buyerName = c.Buyer.DisplayName()
			}
			return s.notifications.NotifyFundsReleased(tx, c.SellerID, buyerName, c.Price, c.ID)
		})
}

// Complete stamps the payout: RELEASED to COMPLETED (seller or system).
func (s *EscrowService) Complete(actorID, contractID uint) (*models.Contract, error) {
	return s.transitionWithNotification(actorID, contractID, models.ContractCompleted,
		func(tx *gorm.DB, c *models.Contract) error {
			if c.BuyerID == nil {
				return nil
			}
			return s.notifications.NotifyContractCompleted(tx, *c.BuyerID, c.Title, c.ID)
		})
}

// OpenDispute halts the contract from any non-terminal state and notifies the
// counterparty of whoever filed it.
func (s *EscrowService) OpenDispute(actorID, contractID uint, reason string) (*models.Contract, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: describe el problema", ErrValidation)
	}

	contract, role, err := s.contractAndRole(actorID, contractID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		changed, err := s.transitionContract(tx, contract, models.ContractDisputed, role)
		if err != nil || !changed {
			return err
		}

		var counterpartyID uint
		var filerName string
		if role == RoleSeller {
			if contract.BuyerID == nil {
				return nil
			}
			counterpartyID = *contract.BuyerID
			filerName = contract.Seller.DisplayName()
		} else {
			counterpartyID = contract.SellerID
			filerName = "El comprador"
			if contract.Buyer != nil {
				filerName = contract.Buyer.DisplayName()
			}
		}
		return s.notifications.NotifyDisputeOpened(tx, counterpartyID, filerName, reason, contract.ID)
	})
	if err != nil {
		return nil, err
	}
	return contract, nil
}

// Refund resolves a dispute in the buyer's favor. System-only: there is no
// HTTP route for it until a resolution contract is defined.
func (s *EscrowService) Refund(contractID uint) (*models.Contract, error) {
	contract, err := s.getContract(contractID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		changed, err := s.transitionContract(tx, contract, models.ContractRefunded, RoleSystem)
		if err != nil || !changed {
			return err
		}

		if err := s.notifications.NotifyPaymentRefunded(tx, contract.SellerID, contract.Price, contract.Title, contract.ID); err != nil {
			return err
		}
		if contract.BuyerID != nil {
			return s.notifications.NotifyPaymentRefunded(tx, *contract.BuyerID, contract.Price, contract.Title, contract.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return contract, nil
}

// ListForSeller returns the caller's own listings, newest first.
func (s *EscrowService) ListForSeller(sellerID uint) ([]models.Contract, error) {
	if sellerID == 0 {
		return nil, ErrAuthRequired
	}
	var contracts []models.Contract
	err := s.db.Preload("Seller").Preload("Buyer").Preload("Photos", photoOrder).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&contracts).Error
	return contracts, err
}

type TransactionSummary struct {
	ID             uint                  `json:"id"`
	Title          string                `json:"title"`
	Price          float64               `json:"price"`
	Status         models.ContractStatus `json:"status"`
	Role           string                `json:"role"`
	OtherPartyName string                `json:"other_party_name"`
	MainPhoto      string                `json:"main_photo,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
}

// MyTransactions returns every contract the user participates in, on either
// side, shaped for the transactions list screen.
func (s *EscrowService) MyTransactions(userID uint) ([]TransactionSummary, error) {
	if userID == 0 {
		return nil, ErrAuthRequired
	}

	var contracts []models.Contract
	err := s.db.Preload("Seller").Preload("Buyer").Preload("Photos", photoOrder).
		Where("seller_id = ? OR buyer_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]TransactionSummary, 0, len(contracts))
	for i := range contracts {
		c := &contracts[i]
		summary := TransactionSummary{
			ID:        c.ID,
			Title:     c.Title,
			Price:     c.Price,
			Status:    c.Status,
			MainPhoto: c.MainPhoto(),
			CreatedAt: c.CreatedAt,
		}
		if c.SellerID == userID {
			summary.Role = string(RoleSeller)
			summary.OtherPartyName = "Sin comprador"
			if c.Buyer != nil {
				summary.OtherPartyName = c.Buyer.DisplayName()
			}
		} else {
			summary.Role = string(RoleBuyer)
			summary.OtherPartyName = c.Seller.DisplayName()
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func photoOrder(db *gorm.DB) *gorm.DB {
	return db.Order("display_order ASC, uploaded_at ASC")
}

func (s *EscrowService) getContract(id uint) (*models.Contract, error) {
	var contract models.Contract
	err := s.db.Preload("Seller").Preload("Buyer").Preload("Photos", photoOrder).
		First(&contract, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &contract, nil
}

// contractAndRole loads the contract and resolves the actor's role in it.
func (s *EscrowService) contractAndRole(actorID, contractID uint) (*models.Contract, Role, error) {
	if actorID == 0 {
		return nil, "", ErrAuthRequired
	}
	contract, err := s.getContract(contractID)
	if err != nil {
		return nil, "", err
	}
	role, err := s.roleOf(contract, actorID)
	if err != nil {
		return nil, "", err
	}
	return contract, role, nil
}

func (s *EscrowService) roleOf(c *models.Contract, actorID uint) (Role, error) {
	switch {
	case c.SellerID == actorID:
		return RoleSeller, nil
	case c.BuyerID != nil && *c.BuyerID == actorID:
		return RoleBuyer, nil
	}
	return "", fmt.Errorf("%w: no participas en este contrato", ErrPermissionDenied)
}

// maybeAssignBuyer claims the buyer slot for the caller when it is free. The
// WHERE buyer_id IS NULL guard makes two simultaneous scanners race safely:
// the loser simply reloads the winner's assignment.
func (s *EscrowService) maybeAssignBuyer(c *models.Contract, actorID uint) error {
	if actorID == c.SellerID || c.BuyerID != nil {
		return nil
	}

	var buyer models.User
	if err := s.db.First(&buyer, actorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAuthRequired
		}
		return err
	}

	claimed := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Contract{}).
			Where("id = ? AND buyer_id IS NULL", c.ID).
			Update("buyer_id", actorID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		claimed = true
		return s.notifications.NotifyBuyerAssigned(tx, c.SellerID, buyer.DisplayName(), c.Title, c.ID)
	})
	if err != nil {
		return err
	}

	if claimed {
		c.BuyerID = &actorID
		c.Buyer = &buyer
		return nil
	}

	// Lost the race; pick up whoever won.
	fresh, err := s.getContract(c.ID)
	if err != nil {
		return err
	}
	*c = *fresh
	return nil
}

// transitionContract validates the edge and applies it with a status guard:
// if another actor moved the contract first, the guard misses and the loser
// gets ErrConflict instead of silently overwriting.
func (s *EscrowService) transitionContract(tx *gorm.DB, c *models.Contract, target models.ContractStatus, actor Role) (bool, error) {
	changed, err := Transition(c.Status, target, actor)
	if err != nil || !changed {
		return false, err
	}

	res := tx.Model(&models.Contract{}).
		Where("id = ? AND status = ?", c.ID, c.Status).
		Update("status", target)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, fmt.Errorf("%w: el contrato cambió de estado, actualiza la pantalla", ErrConflict)
	}
	c.Status = target
	return true, nil
}

func (s *EscrowService) transitionWithNotification(actorID, contractID uint, target models.ContractStatus, notify func(tx *gorm.DB, c *models.Contract) error) (*models.Contract, error) {
	contract, role, err := s.contractAndRole(actorID, contractID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		changed, err := s.transitionContract(tx, contract, target, role)
		if err != nil || !changed {
			return err
		}
		return notify(tx, contract)
	})
	if err != nil {
		return nil, err
	}
	return contract, nil
}

func (s *EscrowService) uniqueAccessCode() (string, error) {
	length := accessCodeLength
	for attempt := 0; attempt < 10; attempt++ {
		code, err := newAccessCode(length)
		if err != nil {
			return "", err
		}
		var count int64
		if err := s.db.Model(&models.Contract{}).Where("access_code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	// Collisions persist; fall back to a longer code.
	return newAccessCode(accessCodeLength + 2)
}

func validCondition(condition string) bool {
	for _, c := range models.ContractConditions {
		if c == condition {
			return true
		}
	}
	return false
}
