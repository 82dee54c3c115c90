package approvals

import "garmentflow/frontend/shared/view"

type RequestView struct {
	ID          string
	Username    string
	RequestedAt string
}

type PageData struct {
	view.Frame
	Requests []RequestView
}
