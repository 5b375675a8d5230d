package rpcclient

import (
	"context"

	"github.com/anonto42/pins/backend/pkg/api"
)

func (c *Client) InfinitePins(ctx context.Context, in api.InfiniteInput) (*api.PinPage, error) {
	var out api.PinPage
	if err := c.Query(ctx, api.ProcPinInfinite, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AllPins(ctx context.Context) ([]api.Pin, error) {
	var out []api.Pin
	err := c.Query(ctx, api.ProcPinAll, nil, &out)
	return out, err
}

// PinByID returns nil when the pin does not exist.
func (c *Client) PinByID(ctx context.Context, id string) (*api.Pin, error) {
	var out *api.Pin
	err := c.Query(ctx, api.ProcPinByID, api.IDInput{ID: id}, &out)
	return out, err
}

func (c *Client) PinsByCommunity(ctx context.Context, communityID string) ([]api.Pin, error) {
	var out []api.Pin
	err := c.Query(ctx, api.ProcPinByCommunity, api.CommunityIDInput{CommunityID: communityID}, &out)
	return out, err
}

func (c *Client) PinsByUser(ctx context.Context, userID string) ([]api.Pin, error) {
	var out []api.Pin
	err := c.Query(ctx, api.ProcPinByUser, api.UserIDInput{UserID: userID}, &out)
	return out, err
}

func (c *Client) CreatePin(ctx context.Context, in api.CreatePinInput) (*api.Pin, error) {
	var out api.Pin
	if err := c.Mutate(ctx, api.ProcPinCreate, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeletePin(ctx context.Context, id string) (*api.Pin, error) {
	var out api.Pin
	if err := c.Mutate(ctx, api.ProcPinDelete, api.IDInput{ID: id}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LikePin toggles the caller's like on a pin.
func (c *Client) LikePin(ctx context.Context, pinID string) (*api.LikeResult, error) {
	var out api.LikeResult
	if err := c.Mutate(ctx, api.ProcPinLike, api.IDInput{ID: pinID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CommentOnPin(ctx context.Context, pinID, content string) (*api.Comment, error) {
	var out api.Comment
	if err := c.Mutate(ctx, api.ProcPinComment, api.CommentInput{PinID: pinID, Content: content}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CommentsByPin(ctx context.Context, pinID string) ([]api.Comment, error) {
	var out []api.Comment
	err := c.Query(ctx, api.ProcCommentByPinID, api.PinIDInput{PinID: pinID}, &out)
	return out, err
}

func (c *Client) Communities(ctx context.Context) ([]api.Community, error) {
	var out []api.Community
	err := c.Query(ctx, api.ProcCommunityAll, nil, &out)
	return out, err
}

func (c *Client) CommunityByID(ctx context.Context, id string) (*api.Community, error) {
	var out *api.Community
	err := c.Query(ctx, api.ProcCommunityByID, api.IDInput{ID: id}, &out)
	return out, err
}

func (c *Client) CommunityByName(ctx context.Context, name string) (*api.Community, error) {
	var out *api.Community
	err := c.Query(ctx, api.ProcCommunityByName, api.NameInput{Name: name}, &out)
	return out, err
}

// GetSession returns nil for an anonymous client.
func (c *Client) GetSession(ctx context.Context) (*api.Session, error) {
	var out *api.Session
	err := c.Query(ctx, api.ProcAuthGetSession, nil, &out)
	return out, err
}

// SignIn exchanges credentials for a session and keeps its token for
// subsequent calls.
func (c *Client) SignIn(ctx context.Context, in api.SignInInput) (*api.SignInResult, error) {
	var out api.SignInResult
	if err := c.Mutate(ctx, api.ProcAuthSignIn, in, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	var out api.SignOutResult
	if err := c.Mutate(ctx, api.ProcAuthSignOut, nil, &out); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

func (c *Client) UserByID(ctx context.Context, id string) (*api.UserProfile, error) {
	var out api.UserProfile
	if err := c.Query(ctx, api.ProcUserByID, api.IDInput{ID: id}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UserPins(ctx context.Context, userID string) ([]api.Pin, error) {
	var out []api.Pin
	err := c.Query(ctx, api.ProcUserPins, api.UserIDInput{UserID: userID}, &out)
	return out, err
}
