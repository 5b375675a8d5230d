package models

import "github.com/anonto42/pins/backend/pkg/api"

// ToAPI converts the image to its wire view.
func (i *Image) ToAPI() *api.Image {
	if i == nil {
		return nil
	}
	return &api.Image{
		ID:          i.ID,
		PublicID:    i.PublicID,
		Src:         i.Src,
		Alt:         i.Alt,
		Width:       i.Width,
		Height:      i.Height,
		BlurDataURL: i.BlurDataURL,
		BlurHash:    i.BlurHash,
	}
}

// Summary returns the public projection of the user embedded in pins and comments.
func (u *User) Summary() *api.UserSummary {
	if u == nil {
		return nil
	}
	return &api.UserSummary{ID: u.ID, DisplayName: u.DisplayName, Image: u.Image.ToAPI()}
}

// Profile returns the user with relation counts.
func (u *User) Profile(counts UserCounts) *api.UserProfile {
	return &api.UserProfile{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Role:        u.Role,
		Image:       u.Image.ToAPI(),
		CreatedAt:   u.CreatedAt,
		Count: api.UserCount{
			Pins:      counts.Pins,
			LikedPins: counts.LikedPins,
			Comments:  counts.Comments,
		},
	}
}

// ToAPI converts the community to its wire view.
func (c *Community) ToAPI() *api.Community {
	if c == nil {
		return nil
	}
	return &api.Community{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
	}
}

// LikedByRefs returns the likedBy relation as user references.
func (p *Pin) LikedByRefs() []api.UserRef {
	refs := make([]api.UserRef, len(p.LikedBy))
	for i, u := range p.LikedBy {
		refs[i] = api.UserRef{ID: u.ID}
	}
	return refs
}

// ToAPI converts the pin to its wire view. _count.likedBy is derived from
// the loaded likedBy relation.
func (p *Pin) ToAPI() api.Pin {
	likedBy := p.LikedByRefs()
	return api.Pin{
		ID:                 p.ID,
		Description:        p.Description,
		Latitude:           p.Latitude,
		Longitude:          p.Longitude,
		City:               p.City,
		AdministrativeArea: p.AdministrativeArea,
		Country:            p.Country,
		Views:              p.Views,
		Status:             p.Status,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
		User:               p.User.Summary(),
		Community:          p.Community.ToAPI(),
		Image:              p.Image.ToAPI(),
		LikedBy:            likedBy,
		Count: api.PinCount{
			LikedBy:  len(likedBy),
			Comments: p.CommentCount,
		},
	}
}

// PinsToAPI converts a slice of pins.
func PinsToAPI(pins []Pin) []api.Pin {
	out := make([]api.Pin, len(pins))
	for i := range pins {
		out[i] = pins[i].ToAPI()
	}
	return out
}

// ToAPI converts the comment to its wire view.
func (c *Comment) ToAPI() api.Comment {
	return api.Comment{
		ID:        c.ID,
		PinID:     c.PinID,
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
		User:      c.User.Summary(),
	}
}

// CommentsToAPI converts a slice of comments.
func CommentsToAPI(comments []Comment) []api.Comment {
	out := make([]api.Comment, len(comments))
	for i := range comments {
		out[i] = comments[i].ToAPI()
	}
	return out
}
