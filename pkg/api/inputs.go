package api

// Procedure inputs. The "id" validation tag checks the record id format and is
// registered by the server's validator.

type EmptyInput struct{}

type IDInput struct {
	ID string `json:"id" validate:"required,id"`
}

type PinIDInput struct {
	PinID string `json:"pinId" validate:"required,id"`
}

type UserIDInput struct {
	UserID string `json:"userId" validate:"required,id"`
}

type CommunityIDInput struct {
	CommunityID string `json:"communityId" validate:"required,id"`
}

type NameInput struct {
	Name string `json:"name" validate:"required,min=1,max=64"`
}

type InfiniteInput struct {
	Limit  *int   `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
	Cursor string `json:"cursor,omitempty" validate:"omitempty,id"`
	Order  Order  `json:"order,omitempty" validate:"omitempty,oneof=recency popularity spatial"`
	Near   *Point `json:"near,omitempty"`
}

// PageLimit returns the requested limit or the default.
func (in InfiniteInput) PageLimit() int {
	if in.Limit == nil {
		return DefaultPageLimit
	}
	return *in.Limit
}

type CreatePinInput struct {
	Description        string   `json:"description" validate:"required,max=2000"`
	CommunityID        string   `json:"communityId" validate:"required,id"`
	UserID             string   `json:"userId" validate:"required,id"`
	ImgSrc             string   `json:"imgSrc,omitempty"`
	ImgAlt             string   `json:"imgAlt,omitempty" validate:"omitempty,max=200"`
	Latitude           *float64 `json:"latitude,omitempty" validate:"required_with=Longitude,omitempty,gte=-90,lte=90"`
	Longitude          *float64 `json:"longitude,omitempty" validate:"required_with=Latitude,omitempty,gte=-180,lte=180"`
	City               string   `json:"city,omitempty" validate:"omitempty,max=100"`
	AdministrativeArea string   `json:"administrativeArea,omitempty" validate:"omitempty,max=100"`
	Country            string   `json:"country,omitempty" validate:"omitempty,max=100"`
}

type CommentInput struct {
	PinID   string `json:"pinId" validate:"required,id"`
	Content string `json:"content" validate:"required,min=1,max=1000"`
}

// SignInInput carries either username/password credentials for the HTTP
// identity provider or an ID token for the Firebase provider.
type SignInInput struct {
	Username string `json:"username,omitempty" validate:"required_without=IDToken,omitempty,max=254"`
	Password string `json:"password,omitempty" validate:"required_with=Username"`
	IDToken  string `json:"idToken,omitempty" validate:"required_without=Username"`
}
