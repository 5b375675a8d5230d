// Package api holds the JSON contract shared by the pins server and its clients.
package api

import "time"

// Order selects the sort key of an infinite feed.
type Order string

const (
	OrderRecency    Order = "recency"
	OrderPopularity Order = "popularity"
	OrderSpatial    Order = "spatial"
)

// Page size bounds for pin.infinite.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// Role values for users and sessions.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

type Point struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

type Image struct {
	ID          string `json:"id"`
	PublicID    string `json:"publicId"`
	Src         string `json:"src"`
	Alt         string `json:"alt"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	BlurDataURL string `json:"blurDataURL,omitempty"`
	BlurHash    string `json:"blurHash,omitempty"`
}

// UserRef is the minimal user projection used in likedBy lists.
type UserRef struct {
	ID string `json:"id"`
}

type UserSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Image       *Image `json:"image"`
}

type Community struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type PinCount struct {
	LikedBy  int `json:"likedBy"`
	Comments int `json:"comments"`
}

type Pin struct {
	ID                 string       `json:"id"`
	Description        string       `json:"description"`
	Latitude           *float64     `json:"latitude"`
	Longitude          *float64     `json:"longitude"`
	City               string       `json:"city,omitempty"`
	AdministrativeArea string       `json:"administrativeArea,omitempty"`
	Country            string       `json:"country,omitempty"`
	Views              int          `json:"views"`
	Status             string       `json:"status"`
	CreatedAt          time.Time    `json:"createdAt"`
	UpdatedAt          time.Time    `json:"updatedAt"`
	User               *UserSummary `json:"user"`
	Community          *Community   `json:"community"`
	Image              *Image       `json:"image"`
	LikedBy            []UserRef    `json:"likedBy"`
	Count              PinCount     `json:"_count"`
}

// LikedByUser reports whether userID is in the pin's likedBy relation. The
// server toggles on the same membership test, so clients must use it when
// predicting the outcome of pin.like.
func (p *Pin) LikedByUser(userID string) bool {
	if userID == "" {
		return false
	}
	for _, u := range p.LikedBy {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// PinPage is one page of pin.infinite.
type PinPage struct {
	Pins       []Pin   `json:"pins"`
	NextCursor *string `json:"nextCursor,omitempty"`
}

// LikeResult is the updated likedBy relation returned by pin.like.
type LikeResult struct {
	PinID     string    `json:"pinId"`
	Liked     bool      `json:"liked"`
	LikeCount int       `json:"likeCount"`
	LikedBy   []UserRef `json:"likedBy"`
}

type Comment struct {
	ID        string       `json:"id"`
	PinID     string       `json:"pinId"`
	Body      string       `json:"body"`
	CreatedAt time.Time    `json:"createdAt"`
	User      *UserSummary `json:"user"`
}

type UserCount struct {
	Pins      int64 `json:"pins"`
	LikedPins int64 `json:"likedPins"`
	Comments  int64 `json:"comments"`
}

type UserProfile struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Image       *Image    `json:"image"`
	CreatedAt   time.Time `json:"createdAt"`
	Count       UserCount `json:"_count"`
}

type SessionUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

type Session struct {
	User         SessionUser `json:"user"`
	AccessToken  string      `json:"accessToken,omitempty"`
	RefreshToken string      `json:"refreshToken,omitempty"`
	Expires      time.Time   `json:"expires"`
}

type SignInResult struct {
	Token   string  `json:"token"`
	Session Session `json:"session"`
}

type SignOutResult struct {
	OK bool `json:"ok"`
}
