package reservation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/storelinkhq/storelink-backend/pkg/db/models"
	pkgerrors "github.com/storelinkhq/storelink-backend/pkg/errors"
)

// StockRequest asks for qty units of one product, in cart-line order.
type StockRequest struct {
	LineIndex int
	ProductID uuid.UUID
	Qty       int
}

// StockReservation reports one successfully decremented line, priced
// from the live product row at commit time.
type StockReservation struct {
	LineIndex   int
	ProductID   uuid.UUID
	ProductName string
	Qty         int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// ReserveStock decrements stock for every request inside the caller's
// transaction, failing the whole batch on the first line that cannot be
// satisfied. The decrement is a single conditional UPDATE per line, so
// two concurrent checkouts racing for the last unit serialize on the
// row and only one passes the stock floor.
//
// The caller's transaction rollback is what makes the batch
// all-or-nothing; ReserveStock itself never compensates.
func ReserveStock(ctx context.Context, tx *gorm.DB, requests []StockRequest) ([]StockReservation, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}

	reservations := make([]StockReservation, 0, len(requests))
	for _, req := range requests {
		if req.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("quantity must be positive for product %s", req.ProductID))
		}

		result := tx.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ? AND is_active AND stock >= ?", req.ProductID, req.Qty).
			UpdateColumn("stock", gorm.Expr("stock - ?", req.Qty))
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, classifyFailure(ctx, tx, req)
		}

		var product models.Product
		if err := tx.WithContext(ctx).First(&product, "id = ?", req.ProductID).Error; err != nil {
			return nil, err
		}

		reservations = append(reservations, StockReservation{
			LineIndex:   req.LineIndex,
			ProductID:   product.ID,
			ProductName: product.Name,
			Qty:         req.Qty,
			UnitPrice:   product.Price,
			LineTotal:   product.Price.Mul(decimal.NewFromInt(int64(req.Qty))),
		})
	}
	return reservations, nil
}

// classifyFailure distinguishes a vanished or deactivated product from
// one that simply lacks stock, so the shopper sees the available count.
func classifyFailure(ctx context.Context, tx *gorm.DB, req StockRequest) error {
	var product models.Product
	err := tx.WithContext(ctx).First(&product, "id = ?", req.ProductID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
			WithDetails(map[string]any{"product_id": req.ProductID})
	}
	if err != nil {
		return err
	}
	if !product.IsActive {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
			WithDetails(map[string]any{"product_id": req.ProductID})
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
		WithDetails(map[string]any{
			"product_id": req.ProductID,
			"available":  product.Stock,
			"requested":  req.Qty,
		})
}
