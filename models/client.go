package models

type ClientStatus string

const (
	ClientActive   ClientStatus = "active"
	ClientInactive ClientStatus = "inactive"
	ClientNew      ClientStatus = "new"
)

type Client struct {
	Id      uint         `json:"id" gorm:"primaryKey"`
	Name    string       `json:"name" gorm:"not null"`
	Email   string       `json:"email" gorm:"not null"`
	Phone   string       `json:"phone"`
	Address string       `json:"address"`
	Company string       `json:"company"`
	TaxId   string       `json:"tax_id"`
	Status  ClientStatus `json:"status" gorm:"type:VARCHAR(20);default:'new'"`
}
