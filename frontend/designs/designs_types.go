package designs

import (
	"errors"

	"garmentflow/frontend/shared/view"
)

var (
	ErrDesignNotFound      = errors.New("design not found")
	ErrDuplicateDesign     = errors.New("design number already exists")
	ErrDesignNumberMissing = errors.New("design number is required")
)

type designInput struct {
	DesignNumber string `validate:"required,max=64"`
	DateAdded    string `validate:"omitempty,datetime=2006-01-02"`
}

// DesignView is one design as listed and streamed.
type DesignView struct {
	ID           string `json:"id"`
	DesignNumber string `json:"designNumber"`
	ImageURL     string `json:"image,omitempty"`
	DateAdded    string `json:"dateAdded"`
}

type PageData struct {
	view.Frame
	Designs []DesignView
	Editing *DesignView
}
