package app

import (
	"time"

	"github.com/jcmexdev/jpashop-orders/internal/shop/domain"
)

// OrderQueryDTO is the read model produced by direct projections.
type OrderQueryDTO struct {
	OrderID     int64               `json:"order_id"`
	Name        string              `json:"name"`
	OrderDate   time.Time           `json:"order_date"`
	OrderStatus domain.OrderStatus  `json:"order_status"`
	Address     domain.Address      `json:"address"`
	OrderItems  []OrderItemQueryDTO `json:"order_items"`
}

type OrderItemQueryDTO struct {
	OrderID    int64  `json:"-"`
	ItemName   string `json:"item_name"`
	OrderPrice int    `json:"order_price"`
	Count      int    `json:"count"`
}

// OrderFlatDTO is one row of the orders x order_items join.
type OrderFlatDTO struct {
	OrderID     int64
	Name        string
	OrderDate   time.Time
	OrderStatus domain.OrderStatus
	Address     domain.Address
	ItemName    string
	OrderPrice  int
	Count       int
}

type SimpleOrderQueryDTO struct {
	OrderID     int64              `json:"order_id"`
	Name        string             `json:"name"`
	OrderDate   time.Time          `json:"order_date"`
	OrderStatus domain.OrderStatus `json:"order_status"`
	Address     domain.Address     `json:"address"`
}

// GroupFlatRows folds flat rows back into one OrderQueryDTO per order. Orders
// and their lines keep the order in which they first appear in rows.
func GroupFlatRows(rows []OrderFlatDTO) []OrderQueryDTO {
	out := make([]OrderQueryDTO, 0)
	index := make(map[int64]int)

	for _, row := range rows {
		i, ok := index[row.OrderID]
		if !ok {
			i = len(out)
			index[row.OrderID] = i
			out = append(out, OrderQueryDTO{
				OrderID:     row.OrderID,
				Name:        row.Name,
				OrderDate:   row.OrderDate,
				OrderStatus: row.OrderStatus,
				Address:     row.Address,
				OrderItems:  []OrderItemQueryDTO{},
			})
		}
		out[i].OrderItems = append(out[i].OrderItems, OrderItemQueryDTO{
			OrderID:    row.OrderID,
			ItemName:   row.ItemName,
			OrderPrice: row.OrderPrice,
			Count:      row.Count,
		})
	}
	return out
}
