package api

import "encoding/json"

// RoutePrefix is the path prefix under which every procedure is mounted.
const RoutePrefix = "/api/trpc"

// Procedure names.
const (
	ProcPinInfinite     = "pin.infinite"
	ProcPinAll          = "pin.all"
	ProcPinByID         = "pin.byId"
	ProcPinByCommunity  = "pin.byCommunity"
	ProcPinByUser       = "pin.byUser"
	ProcPinCreate       = "pin.create"
	ProcPinDelete       = "pin.delete"
	ProcPinLike         = "pin.like"
	ProcPinComment      = "pin.comment"
	ProcCommentByPinID  = "comment.byPinId"
	ProcCommunityAll    = "community.all"
	ProcCommunityByID   = "community.byId"
	ProcCommunityByName = "community.byName"
	ProcAuthGetSession  = "auth.getSession"
	ProcAuthSignIn      = "auth.signIn"
	ProcAuthSignOut     = "auth.signOut"
	ProcUserByID        = "user.byId"
	ProcUserPins        = "user.pins"
)

// Path returns the HTTP path of a procedure.
func Path(proc string) string {
	return RoutePrefix + "/" + proc
}

// Response is the envelope written by the server.
type Response struct {
	Result *Result    `json:"result,omitempty"`
	Error  *ErrorBody `json:"error,omitempty"`
}

// Result wraps successful procedure output.
type Result struct {
	Data any `json:"data"`
}

// RawResponse is the envelope as read by clients, leaving data undecoded.
type RawResponse struct {
	Result *struct {
		Data json.RawMessage `json:"data"`
	} `json:"result,omitempty"`
	Error *ErrorBody `json:"error,omitempty"`
}

// SessionCookie is the cookie that carries the session token for browser clients.
const SessionCookie = "pins.session-token"
