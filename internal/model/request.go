package model

type RegisterRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=50,username"`
	Password    string `json:"password" validate:"required,min=8,max=128,password"`
	DisplayName string `json:"display_name" validate:"required,min=1,max=100"`
	Role        string `json:"role"`

	Gender      string `json:"gender" validate:"omitempty,oneof=M F"`
	BankAccount string `json:"bank_account" validate:"omitempty,min=6,max=32"`
	BankName    string `json:"bank_name" validate:"omitempty,min=2,max=100"`
	Phone       string `json:"phone" validate:"omitempty,min=8,max=20"`
	Address     string `json:"address" validate:"omitempty,max=255"`

	// buyer
	Weight *float64 `json:"weight" validate:"omitempty,gt=0,lt=1000"`
	Height *float64 `json:"height" validate:"omitempty,gt=0,lt=300"`

	// shipper
	VehiclePlate string  `json:"vehicle_plate" validate:"omitempty,min=5,max=12"`
	VehicleType  *string `json:"vehicle_type" validate:"omitempty,max=50"`

	// storefront
	StorefrontName string  `json:"storefront_name" validate:"omitempty,min=2,max=150"`
	MarketCode     string  `json:"market_code" validate:"omitempty,max=20"`
	Location       string  `json:"location" validate:"omitempty,max=100"`
	ManagerCode    *string `json:"manager_code" validate:"omitempty,max=16"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuditQuery struct {
	Action string
	Page   int
	Limit  int
}
