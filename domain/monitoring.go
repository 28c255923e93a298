package domain

// LiveStats is a point-in-time view of the live registry.
type LiveStats struct {
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`
	OnlineUsers int `json:"online_users"`
}
