package login

import "garmentflow/frontend/shared/view"

type loginInput struct {
	Username  string `validate:"required,max=64"`
	Password  string `validate:"required"`
	CompanyID string `validate:"max=64"`
}

type registerInput struct {
	Username  string `validate:"required,max=64"`
	Password  string `validate:"required,min=12"`
	Role      string `validate:"required,oneof=boss employee"`
	CompanyID string `validate:"required_if=Role boss,max=64"`
}

type pageData struct {
	view.Frame
	Username  string
	CompanyID string
	Role      string
}
