package team

import "garmentflow/frontend/shared/view"

type UserView struct {
	ID       int64
	Username string
	Role     string
	State    string
}

type PageData struct {
	view.Frame
	Users []UserView
}
