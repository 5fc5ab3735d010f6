package tokens

// issueTokenRequest asks for a join token for one room. Username is the
// display name shown to other participants and is optional.
type issueTokenRequest struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username,omitempty"`
}

type issueTokenResponse struct {
	Token string `json:"token"`
}
